package runtime

import (
	"fmt"
	"math/big"

	rerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/core/events"
	"github.com/latticebft/corechain/core/types"
)

func (c *Context) chargeGasOnly(s *types.ChainState, adm *admission) error {
	sender := getOrCreateAccount(s, adm.from)
	if sender.Balance.Cmp(adm.gasFee) < 0 {
		return fmt.Errorf("%w: sender %s balance %s < gas fee %s", rerrors.ErrInsufficientFunds, adm.from, sender.Balance, adm.gasFee)
	}
	sender.Balance.Sub(sender.Balance, adm.gasFee)
	c.routeGasFee(s, adm.gasFee)
	return nil
}

func (c *Context) applyUnstake(s *types.ChainState, tx *types.Tx, adm *admission, height uint64) ([]types.Event, error) {
	var p types.UnstakePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	id := types.ValidatorID(tx.PublicKey)
	v, ok := s.Validators[id]
	if !ok {
		return nil, fmt.Errorf("%w: validator %s", rerrors.ErrUnknownValidator, id)
	}
	if v.Stake.Cmp(p.Amount) < 0 {
		return nil, fmt.Errorf("%w: validator %s stake %s < %s", rerrors.ErrInsufficientStake, id, v.Stake, p.Amount)
	}
	v.Stake.Sub(v.Stake, p.Amount)
	if v.Stake.Sign() == 0 {
		v.Status = types.ValidatorExited
	}

	vid := id
	s.PendingUnbonds = append(s.PendingUnbonds, &types.Unbonding{
		Owner:         adm.from,
		ValidatorID:   &vid,
		Amount:        new(big.Int).Set(p.Amount),
		ReleaseHeight: height + c.UnbondingDelayBlocks,
	})

	return []types.Event{events.NewEvent(events.TypeUnstake, map[string]string{
		"validator": id.String(), "amount": p.Amount.String(),
	})}, nil
}

func (c *Context) applyDelegate(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.DelegatePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	sender := getOrCreateAccount(s, adm.from)
	total := new(big.Int).Add(p.Amount, adm.gasFee)
	if sender.Balance.Cmp(total) < 0 {
		return nil, fmt.Errorf("%w: sender %s balance %s < %s", rerrors.ErrInsufficientFunds, adm.from, sender.Balance, total)
	}
	v, ok := s.Validators[p.Validator]
	if !ok {
		return nil, fmt.Errorf("%w: validator %s", rerrors.ErrUnknownValidator, p.Validator)
	}
	sender.Balance.Sub(sender.Balance, total)
	c.routeGasFee(s, adm.gasFee)
	v.Stake.Add(v.Stake, p.Amount)

	var delegation *types.Delegation
	for _, d := range s.Delegations {
		if d.Delegator.Equal(adm.from) && d.ValidatorID == p.Validator {
			delegation = d
			break
		}
	}
	if delegation == nil {
		delegation = &types.Delegation{Delegator: adm.from, ValidatorID: p.Validator, Stake: big.NewInt(0)}
		s.Delegations = append(s.Delegations, delegation)
	}
	delegation.Stake.Add(delegation.Stake, p.Amount)

	return []types.Event{events.NewEvent(events.TypeDelegate, map[string]string{
		"validator": p.Validator.String(), "amount": p.Amount.String(),
	})}, nil
}

func (c *Context) applyUndelegate(s *types.ChainState, tx *types.Tx, adm *admission, height uint64) ([]types.Event, error) {
	var p types.UndelegatePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	if err := c.chargeGasOnly(s, adm); err != nil {
		return nil, err
	}

	var delegation *types.Delegation
	for _, d := range s.Delegations {
		if d.Delegator.Equal(adm.from) && d.ValidatorID == p.Validator {
			delegation = d
			break
		}
	}
	if delegation == nil || delegation.Stake.Cmp(p.Amount) < 0 {
		return nil, fmt.Errorf("%w: delegation %s -> %s insufficient", rerrors.ErrInsufficientStake, adm.from, p.Validator)
	}
	v, ok := s.Validators[p.Validator]
	if !ok {
		return nil, fmt.Errorf("%w: validator %s", rerrors.ErrUnknownValidator, p.Validator)
	}

	delegation.Stake.Sub(delegation.Stake, p.Amount)
	v.Stake.Sub(v.Stake, p.Amount)
	if delegation.Stake.Sign() == 0 {
		for i, d := range s.Delegations {
			if d == delegation {
				s.Delegations = append(s.Delegations[:i], s.Delegations[i+1:]...)
				break
			}
		}
	}

	vid := p.Validator
	s.PendingUnbonds = append(s.PendingUnbonds, &types.Unbonding{
		Owner:         adm.from,
		ValidatorID:   &vid,
		Amount:        new(big.Int).Set(p.Amount),
		ReleaseHeight: height + c.UnbondingDelayBlocks,
	})

	return []types.Event{events.NewEvent(events.TypeUndelegate, map[string]string{
		"validator": p.Validator.String(), "amount": p.Amount.String(),
	})}, nil
}
