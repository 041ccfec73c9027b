package runtime

import (
	"fmt"
	"math/big"

	rerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/core/events"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/domainvm"
)

func (c *Context) applyDomainCreate(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.DomainCreatePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	if err := p.RiskParams.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", rerrors.ErrRiskParamViolation, err)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}
	s.Domains[p.DomainID] = &types.DomainEntry{
		DomainID:      p.DomainID,
		Kind:          p.Kind,
		SecurityModel: p.SecurityModel,
		RiskParams:    p.RiskParams,
	}
	s.DomainState[p.DomainID] = types.NewDomainState()

	return []types.Event{events.NewEvent(events.TypeDomainCreated, map[string]string{
		"domain": p.DomainID.String(),
	})}, nil
}

func (c *Context) applyDomainConfigUpdate(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.DomainConfigUpdatePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	if err := p.RiskParams.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", rerrors.ErrRiskParamViolation, err)
	}
	domain, ok := s.Domains[p.DomainID]
	if !ok {
		return nil, fmt.Errorf("%w: domain %s", rerrors.ErrUnknownDomain, p.DomainID)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}
	domain.RiskParams = p.RiskParams

	return []types.Event{events.NewEvent(events.TypeDomainConfigUpdated, map[string]string{
		"domain": p.DomainID.String(),
	})}, nil
}

func (c *Context) applyDomainExecute(s *types.ChainState, tx *types.Tx, adm *admission, height uint64, now int64) ([]types.Event, error) {
	var p types.DomainExecutePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	domainState, ok := s.DomainState[p.DomainID]
	if !ok {
		return nil, fmt.Errorf("%w: domain %s", rerrors.ErrUnknownDomain, p.DomainID)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	vmCtx := &domainvm.Ctx{Height: height, Timestamp: now, State: domainState}
	receipt, err := c.VM.Execute(nil, domainvm.DomainCall{DomainID: p.DomainID, Call: p.Call}, vmCtx)
	if err != nil {
		return nil, err
	}
	s.DomainRoots[p.DomainID] = domainStateRoot(domainState)

	ev := append([]types.Event{events.NewEvent(events.TypeDomainExecuted, map[string]string{
		"domain": p.DomainID.String(),
	})}, receipt.Events...)
	return ev, nil
}

func (c *Context) applyCrossDomainSend(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.CrossDomainSendPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	fromState, ok := s.DomainState[p.FromDomain]
	if !ok {
		return nil, fmt.Errorf("%w: domain %s", rerrors.ErrUnknownDomain, p.FromDomain)
	}
	if _, ok := s.Domains[p.ToDomain]; !ok {
		return nil, fmt.Errorf("%w: domain %s", rerrors.ErrUnknownDomain, p.ToDomain)
	}
	sender := getOrCreateAccount(s, adm.from)
	total := new(big.Int).Add(new(big.Int).SetUint64(p.Fee), adm.gasFee)
	if sender.Balance.Cmp(total) < 0 {
		return nil, fmt.Errorf("%w: sender %s balance %s < %s", rerrors.ErrInsufficientFunds, adm.from, sender.Balance, total)
	}
	sender.Balance.Sub(sender.Balance, total)
	c.routeGasFee(s, adm.gasFee)

	msg := types.CrossDomainMessage{
		From: p.FromDomain, To: p.ToDomain, Nonce: fromState.NextOutSeq, Fee: p.Fee, Payload: p.Payload,
	}
	fromState.Outbox = append(fromState.Outbox, msg)
	fromState.NextOutSeq++
	s.DomainRoots[p.FromDomain] = domainStateRoot(fromState)

	return []types.Event{events.NewEvent(events.TypeCrossDomainSent, map[string]string{
		"from": p.FromDomain.String(), "to": p.ToDomain.String(),
	})}, nil
}

func (c *Context) applyCrossDomainRelay(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.CrossDomainRelayPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	toState, ok := s.DomainState[p.Message.To]
	if !ok {
		return nil, fmt.Errorf("%w: domain %s", rerrors.ErrUnknownDomain, p.Message.To)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	toState.Inbox = append(toState.Inbox, p.Message)
	toState.NextInSeq++
	s.DomainRoots[p.Message.To] = domainStateRoot(toState)

	return []types.Event{events.NewEvent(events.TypeCrossDomainRelayed, map[string]string{
		"to": p.Message.To.String(), "from": p.Message.From.String(),
	})}, nil
}

func (c *Context) applyRollupBatchCommit(s *types.ChainState, tx *types.Tx, adm *admission, height uint64) ([]types.Event, error) {
	var p types.RollupBatchCommitPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	if _, ok := s.Domains[p.DomainID]; !ok {
		return nil, fmt.Errorf("%w: domain %s", rerrors.ErrUnknownDomain, p.DomainID)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}
	s.DACommitments = append(s.DACommitments, types.DACommitmentRecord{
		BlockHeight: height, Root: p.Root, BlobIDs: []string{p.BlobID},
	})
	s.DomainRoots[p.DomainID] = p.Root

	return []types.Event{events.NewEvent(events.TypeRollupBatchCommitted, map[string]string{
		"domain": p.DomainID.String(), "blobId": p.BlobID,
	})}, nil
}

func (c *Context) applyRollupBridgeDeposit(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.RollupBridgeDepositPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	if _, ok := s.Domains[p.DomainID]; !ok {
		return nil, fmt.Errorf("%w: domain %s", rerrors.ErrUnknownDomain, p.DomainID)
	}
	sender := getOrCreateAccount(s, adm.from)
	total := new(big.Int).Add(p.Amount, adm.gasFee)
	if sender.Balance.Cmp(total) < 0 {
		return nil, fmt.Errorf("%w: sender %s balance %s < %s", rerrors.ErrInsufficientFunds, adm.from, sender.Balance, total)
	}
	sender.Balance.Sub(sender.Balance, total)
	c.routeGasFee(s, adm.gasFee)
	s.FeePools.Treasury.Add(s.FeePools.Treasury, p.Amount)

	return []types.Event{events.NewEvent(events.TypeRollupDeposit, map[string]string{
		"domain": p.DomainID.String(), "amount": p.Amount.String(),
	})}, nil
}

func (c *Context) applyRollupBridgeWithdraw(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.RollupBridgeWithdrawPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	if _, ok := s.Domains[p.DomainID]; !ok {
		return nil, fmt.Errorf("%w: domain %s", rerrors.ErrUnknownDomain, p.DomainID)
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}
	recipient := getOrCreateAccount(s, adm.from)
	recipient.Balance.Add(recipient.Balance, p.Amount)

	return []types.Event{events.NewEvent(events.TypeRollupWithdraw, map[string]string{
		"domain": p.DomainID.String(), "amount": p.Amount.String(),
	})}, nil
}

// domainStateRoot hashes a domain's kv entries, inbox/outbox messages, and
// sequence counters into leaves and folds them into the domain's root.
func domainStateRoot(ds *types.DomainState) []byte {
	return computeDomainRoot(ds)
}
