package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	rerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/core/events"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/zk"
)

// privacyWithdrawProgramID identifies the ZK program the withdraw path
// proves against, over the public inputs {nullifier, merkleRoot, recipient,
// amount, commitment}.
const privacyWithdrawProgramID = "privacy-withdraw-v1"

func (c *Context) applyPrivacyDeposit(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.PrivacyDepositPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	pool := s.DefaultPrivacyPool()
	if pool.HasCommitment(p.Commitment) {
		return nil, fmt.Errorf("%w: commitment already shielded", rerrors.ErrDoubleSpendNullifier)
	}
	sender := getOrCreateAccount(s, adm.from)
	total := new(big.Int).Add(p.Amount, adm.gasFee)
	if sender.Balance.Cmp(total) < 0 {
		return nil, fmt.Errorf("%w: sender %s balance %s < %s", rerrors.ErrInsufficientFunds, adm.from, sender.Balance, total)
	}
	sender.Balance.Sub(sender.Balance, total)
	c.routeGasFee(s, adm.gasFee)

	pool.Commitments = append(pool.Commitments, p.Commitment)
	pool.TotalShielded.Add(pool.TotalShielded, p.Amount)
	pool.RecomputeRoot()

	return []types.Event{events.NewEvent(events.TypePrivacyDeposit, map[string]string{
		"amount": p.Amount.String(),
	})}, nil
}

func (c *Context) applyPrivacyWithdraw(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.PrivacyWithdrawPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	pool := s.DefaultPrivacyPool()
	if pool.HasNullifier(p.Nullifier) {
		return nil, fmt.Errorf("%w: nullifier already spent", rerrors.ErrDoubleSpendNullifier)
	}
	if !bytesEqual(p.MerkleRoot, pool.MerkleRoot) {
		return nil, fmt.Errorf("%w: withdraw root does not match pool root", rerrors.ErrMerkleRootMismatch)
	}
	if !pool.HasCommitment(p.Commitment) {
		return nil, fmt.Errorf("%w: commitment %x", rerrors.ErrCommitmentUnknown, p.Commitment)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	artifact := zk.ProofArtifact{
		ProgramID:   privacyWithdrawProgramID,
		Commitments: [][]byte{p.Nullifier, p.MerkleRoot, p.Recipient.Bytes(), p.Amount.Bytes(), p.Commitment},
		Proof:       p.Proof,
	}
	if err := c.ZK.Verify(context.Background(), artifact); err != nil {
		return nil, fmt.Errorf("%w: %v", rerrors.ErrProofVerifyFailed, err)
	}

	pool.Nullifiers = append(pool.Nullifiers, p.Nullifier)
	pool.TotalShielded.Sub(pool.TotalShielded, p.Amount)

	recipient := getOrCreateAccount(s, p.Recipient)
	recipient.Balance.Add(recipient.Balance, p.Amount)

	return []types.Event{events.NewEvent(events.TypePrivacyWithdraw, map[string]string{
		"recipient": p.Recipient.String(), "amount": p.Amount.String(),
	})}, nil
}

func (c *Context) applySystemUpgrade(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.SystemUpgradePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	s.NextProposalID++
	id := s.NextProposalID
	proposal := types.NewProposal(id, types.ProposalKindSystemUpgrade, adm.from)
	proposal.Status = types.ProposalQueued
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	proposal.Payload = raw
	s.Proposals[id] = proposal

	return []types.Event{events.NewEvent(events.TypeSystemUpgradeQueued, map[string]string{
		"module": p.Module, "version": p.Version,
	})}, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
