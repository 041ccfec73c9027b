package runtime

import (
	"fmt"
	"math/big"

	rerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/core/events"
	"github.com/latticebft/corechain/core/types"
)

func (c *Context) applyGovernanceProposal(s *types.ChainState, tx *types.Tx, adm *admission, now int64) ([]types.Event, error) {
	var p types.GovernanceProposalPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	s.NextProposalID++
	id := s.NextProposalID
	proposal := types.NewProposal(id, p.Kind, adm.from)
	proposal.Status = types.ProposalActive
	proposal.Start = now
	proposal.End = now + int64(s.GovernanceParams.VotingPeriodMs)
	proposal.Payload = p.Payload

	totalStake := big.NewInt(0)
	for _, v := range s.Validators {
		if v.Status != types.ValidatorActive {
			continue
		}
		proposal.VoterWeights[v.ID.String()] = new(big.Int).Set(v.Stake)
		totalStake.Add(totalStake, v.Stake)
	}
	proposal.SnapshotTotalStake = totalStake
	s.Proposals[id] = proposal

	return []types.Event{events.NewEvent(events.TypeGovernanceProposed, map[string]string{
		"proposalId": fmt.Sprintf("%d", id),
	})}, nil
}

func (c *Context) applyGovernanceVote(s *types.ChainState, tx *types.Tx, adm *admission, now int64) ([]types.Event, error) {
	var p types.GovernanceVotePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	proposal, ok := s.Proposals[p.ProposalID]
	if !ok {
		return nil, fmt.Errorf("%w: proposal %d", rerrors.ErrGovernanceStageViolation, p.ProposalID)
	}
	if proposal.Status != types.ProposalActive || now > proposal.End {
		return nil, fmt.Errorf("%w: proposal %d not active", rerrors.ErrGovernanceStageViolation, p.ProposalID)
	}
	voterKey := adm.from.String()
	if _, voted := proposal.Votes[voterKey]; voted {
		return nil, fmt.Errorf("%w: proposal %d already voted by %s", rerrors.ErrGovernanceStageViolation, p.ProposalID, voterKey)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	weight, ok := proposal.VoterWeights[voterKey]
	if !ok {
		weight = big.NewInt(0)
	}
	proposal.Votes[voterKey] = p.Choice
	switch p.Choice {
	case types.VoteFor:
		proposal.Tallies.For.Add(proposal.Tallies.For, weight)
	case types.VoteAgainst:
		proposal.Tallies.Against.Add(proposal.Tallies.Against, weight)
	case types.VoteAbstain:
		proposal.Tallies.Abstain.Add(proposal.Tallies.Abstain, weight)
	}

	closeGovernanceWindowIfDue(s, proposal, now)

	return []types.Event{events.NewEvent(events.TypeGovernanceVoted, map[string]string{
		"proposalId": fmt.Sprintf("%d", p.ProposalID),
	})}, nil
}

// closeGovernanceWindowIfDue transitions an Active proposal whose voting
// window has closed into Defeated (quorum or approval not met) or Queued
// (both met).
func closeGovernanceWindowIfDue(s *types.ChainState, proposal *types.Proposal, now int64) {
	if proposal.Status != types.ProposalActive || now < proposal.End {
		return
	}
	quorumMet := meetsBps(sumTurnout(proposal), proposal.SnapshotTotalStake, s.GovernanceParams.QuorumBps)
	approvalMet := meetsBps(proposal.Tallies.For, totalDecisive(proposal), s.GovernanceParams.ApprovalBps)
	if quorumMet && approvalMet {
		proposal.Status = types.ProposalQueued
		proposal.ETA = now + int64(s.GovernanceParams.TimelockMs)
	} else {
		proposal.Status = types.ProposalDefeated
	}
}

func sumTurnout(p *types.Proposal) *big.Int {
	sum := new(big.Int).Add(p.Tallies.For, p.Tallies.Against)
	return sum.Add(sum, p.Tallies.Abstain)
}

func totalDecisive(p *types.Proposal) *big.Int {
	return new(big.Int).Add(p.Tallies.For, p.Tallies.Against)
}

func meetsBps(part, whole *big.Int, bps uint32) bool {
	if whole == nil || whole.Sign() == 0 {
		return bps == 0
	}
	lhs := new(big.Int).Mul(part, big.NewInt(10_000))
	rhs := new(big.Int).Mul(whole, big.NewInt(int64(bps)))
	return lhs.Cmp(rhs) >= 0
}

func (c *Context) applyGovernanceBridgeApprove(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.GovernanceBridgeApprovePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	proposal, ok := s.Proposals[p.ProposalID]
	if !ok {
		return nil, fmt.Errorf("%w: proposal %d", rerrors.ErrGovernanceStageViolation, p.ProposalID)
	}
	if proposal.Status != types.ProposalQueued && proposal.Status != types.ProposalSucceeded {
		return nil, fmt.Errorf("%w: proposal %d not queued/succeeded", rerrors.ErrGovernanceStageViolation, p.ProposalID)
	}
	if !inRoster(s.GovernanceParams.MultisigRoster, adm.from.String()) {
		return nil, fmt.Errorf("%w: %s not in multisig roster", rerrors.ErrMultisigNotAuthorized, adm.from)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	voterKey := adm.from.String()
	if _, ok := proposal.Approvals[voterKey]; !ok {
		proposal.Approvals[voterKey] = struct{}{}
		proposal.ApprovalList = append(proposal.ApprovalList, voterKey)
	}

	return []types.Event{events.NewEvent(events.TypeGovernanceApproved, map[string]string{
		"proposalId": fmt.Sprintf("%d", p.ProposalID),
	})}, nil
}

func inRoster(roster []string, addr string) bool {
	for _, r := range roster {
		if r == addr {
			return true
		}
	}
	return false
}

func (c *Context) applyGovernanceExecute(s *types.ChainState, tx *types.Tx, adm *admission, now int64) ([]types.Event, error) {
	var p types.GovernanceExecutePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	proposal, ok := s.Proposals[p.ProposalID]
	if !ok {
		return nil, fmt.Errorf("%w: proposal %d", rerrors.ErrGovernanceStageViolation, p.ProposalID)
	}
	if proposal.Status != types.ProposalQueued {
		return nil, fmt.Errorf("%w: proposal %d not queued", rerrors.ErrGovernanceStageViolation, p.ProposalID)
	}
	if now < proposal.ETA {
		return nil, fmt.Errorf("%w: proposal %d eta not reached", rerrors.ErrGovernanceStageViolation, p.ProposalID)
	}
	threshold := s.GovernanceParams.MultisigThreshold
	if threshold > 0 && len(proposal.ApprovalList) < threshold {
		return nil, fmt.Errorf("%w: proposal %d needs %d approvals, has %d", rerrors.ErrMultisigNotAuthorized, p.ProposalID, threshold, len(proposal.ApprovalList))
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	proposal.Status = types.ProposalExecuted

	return []types.Event{events.NewEvent(events.TypeGovernanceExecuted, map[string]string{
		"proposalId": fmt.Sprintf("%d", p.ProposalID),
	})}, nil
}

func (c *Context) applySlash(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.SlashPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	v, ok := s.Validators[p.Validator]
	if !ok {
		return nil, fmt.Errorf("%w: validator %s", rerrors.ErrUnknownValidator, p.Validator)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	penalty := new(big.Int).Mul(v.Stake, big.NewInt(int64(p.PenaltyBps)))
	penalty.Div(penalty, big.NewInt(10_000))
	if penalty.Sign() <= 0 {
		return []types.Event{events.NewEvent(events.TypeSlash, map[string]string{
			"validator": p.Validator.String(), "amount": "0", "reason": p.Reason,
		})}, nil
	}

	delegatedTotal := big.NewInt(0)
	var delegations []*types.Delegation
	for _, d := range s.Delegations {
		if d.ValidatorID == p.Validator {
			delegatedTotal.Add(delegatedTotal, d.Stake)
			delegations = append(delegations, d)
		}
	}
	if delegatedTotal.Sign() > 0 {
		for _, d := range delegations {
			share := new(big.Int).Mul(penalty, d.Stake)
			share.Div(share, delegatedTotal)
			if share.Cmp(d.Stake) > 0 {
				share = new(big.Int).Set(d.Stake)
			}
			d.Stake.Sub(d.Stake, share)
		}
		kept := s.Delegations[:0]
		for _, d := range s.Delegations {
			if d.Stake.Sign() > 0 {
				kept = append(kept, d)
			}
		}
		s.Delegations = kept
	}
	v.Stake.Sub(v.Stake, penalty)
	if v.Stake.Sign() < 0 {
		v.Stake.SetInt64(0)
	}
	if v.Stake.Sign() == 0 {
		v.Status = types.ValidatorJailed
	}
	s.FeePools.Treasury.Add(s.FeePools.Treasury, penalty)

	return []types.Event{events.NewEvent(events.TypeSlash, map[string]string{
		"validator": p.Validator.String(), "amount": penalty.String(), "reason": p.Reason,
	})}, nil
}
