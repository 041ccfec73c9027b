package types

import (
	"math/big"

	"github.com/latticebft/corechain/crypto"
)

// ProposalStatus enumerates the governance lifecycle stages a proposal
// moves through from creation to execution or rejection.
type ProposalStatus uint8

const (
	ProposalPending ProposalStatus = iota
	ProposalActive
	ProposalDefeated
	ProposalSucceeded
	ProposalQueued
	ProposalExecuted
	ProposalCancelled
	ProposalExpired
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalPending:
		return "pending"
	case ProposalActive:
		return "active"
	case ProposalDefeated:
		return "defeated"
	case ProposalSucceeded:
		return "succeeded"
	case ProposalQueued:
		return "queued"
	case ProposalExecuted:
		return "executed"
	case ProposalCancelled:
		return "cancelled"
	case ProposalExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ProposalKind distinguishes a plain parameter-change proposal from one that
// requires multisig-bridge style approvals before execution.
type ProposalKind uint8

const (
	ProposalKindParameterChange ProposalKind = iota
	ProposalKindSystemUpgrade
	ProposalKindBridgeAction
)

// Tallies accumulates the weighted vote totals for a proposal.
type Tallies struct {
	For     *big.Int `json:"for"`
	Against *big.Int `json:"against"`
	Abstain *big.Int `json:"abstain"`
}

// Proposal is a governance item moving through the propose/vote/queue/
// execute lifecycle.
type Proposal struct {
	ID                 uint64                    `json:"id"`
	Kind               ProposalKind              `json:"kind"`
	Status             ProposalStatus            `json:"status"`
	Proposer           crypto.Address            `json:"proposer"`
	Start              int64                     `json:"start"`
	End                int64                     `json:"end"`
	ETA                int64                     `json:"eta"`
	SnapshotTotalStake *big.Int                  `json:"snapshotTotalStake"`
	Tallies            Tallies                   `json:"tallies"`
	Votes              map[string]VoteChoice     `json:"votes"`
	VoterWeights       map[string]*big.Int       `json:"voterWeights"`
	Approvals          map[string]struct{}       `json:"-"`
	ApprovalList       []string                  `json:"approvals,omitempty"`
	Payload            []byte                    `json:"payload,omitempty"`
}

// VoteChoice enumerates supported governance ballot selections.
type VoteChoice uint8

const (
	VoteFor VoteChoice = iota
	VoteAgainst
	VoteAbstain
)

// NewProposal allocates an empty proposal with initialized maps.
func NewProposal(id uint64, kind ProposalKind, proposer crypto.Address) *Proposal {
	return &Proposal{
		ID:       id,
		Kind:     kind,
		Status:   ProposalPending,
		Proposer: proposer,
		Tallies: Tallies{
			For:     big.NewInt(0),
			Against: big.NewInt(0),
			Abstain: big.NewInt(0),
		},
		Votes:        make(map[string]VoteChoice),
		VoterWeights: make(map[string]*big.Int),
		Approvals:    make(map[string]struct{}),
	}
}
