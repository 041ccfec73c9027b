package runtime

import (
	"fmt"
	"math/big"

	rerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/core/events"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// ApplyTx deterministically applies tx against the current chain state,
// returning the gas consumed and any events emitted, or a structured error.
// A failing tx produces no state mutation.
func (c *Context) ApplyTx(tx *types.Tx, height uint64, now int64) (*ApplyResult, error) {
	var result *ApplyResult
	err := c.Store.WithState(func(s *types.ChainState) error {
		sender, err := c.loadAccount(s, nil, tx)
		if err != nil {
			return err
		}
		adm, err := c.admit(tx, sender)
		if err != nil {
			return err
		}

		ev, err := c.dispatch(s, tx, adm, height, now)
		if err != nil {
			return err
		}

		sender = getOrCreateAccount(s, adm.from)
		sender.Nonce++
		s.Accounts[string(adm.from.Bytes())] = sender

		result = &ApplyResult{GasUsed: adm.gasUsed, Events: ev}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadAccount resolves tx's sender account (creating an empty one is NOT
// done here; admission only needs to read the current nonce, and a
// never-before-seen sender always has nonce 0, matching a freshly
// constructed Account).
func (c *Context) loadAccount(s *types.ChainState, _ *types.Account, tx *types.Tx) (*types.Account, error) {
	from, err := tx.From()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rerrors.ErrInvalidSignature, err)
	}
	if acc, ok := s.Accounts[string(from.Bytes())]; ok {
		return acc, nil
	}
	return types.NewAccount(from), nil
}

func getOrCreateAccount(s *types.ChainState, addr crypto.Address) *types.Account {
	key := string(addr.Bytes())
	if acc, ok := s.Accounts[key]; ok {
		return acc
	}
	acc := types.NewAccount(addr)
	s.Accounts[key] = acc
	return acc
}

// dispatch applies the payload-kind-specific semantics and returns the
// events produced. Each handler debits the sender itself: kinds that move
// value (Transfer, Stake, Delegate, CrossDomainSend, RollupBridgeDeposit,
// PrivacyDeposit) debit amount + gas_fee, the rest charge gas only through
// chargeGasOnly.
func (c *Context) dispatch(s *types.ChainState, tx *types.Tx, adm *admission, height uint64, now int64) ([]types.Event, error) {
	switch tx.PayloadKind {
	case types.PayloadTransfer:
		return c.applyTransfer(s, tx, adm)
	case types.PayloadStake:
		return c.applyStake(s, tx, adm)
	case types.PayloadUnstake:
		return c.applyUnstake(s, tx, adm, height)
	case types.PayloadDelegate:
		return c.applyDelegate(s, tx, adm)
	case types.PayloadUndelegate:
		return c.applyUndelegate(s, tx, adm, height)
	case types.PayloadDomainCreate:
		return c.applyDomainCreate(s, tx, adm)
	case types.PayloadDomainConfigUpdate:
		return c.applyDomainConfigUpdate(s, tx, adm)
	case types.PayloadDomainExecute:
		return c.applyDomainExecute(s, tx, adm, height, now)
	case types.PayloadCrossDomainSend:
		return c.applyCrossDomainSend(s, tx, adm)
	case types.PayloadCrossDomainRelay:
		return c.applyCrossDomainRelay(s, tx, adm)
	case types.PayloadRollupBatchCommit:
		return c.applyRollupBatchCommit(s, tx, adm, height)
	case types.PayloadRollupBridgeDeposit:
		return c.applyRollupBridgeDeposit(s, tx, adm)
	case types.PayloadRollupBridgeWithdraw:
		return c.applyRollupBridgeWithdraw(s, tx, adm)
	case types.PayloadGovernanceProposal:
		return c.applyGovernanceProposal(s, tx, adm, now)
	case types.PayloadGovernanceVote:
		return c.applyGovernanceVote(s, tx, adm, now)
	case types.PayloadGovernanceBridgeApprove:
		return c.applyGovernanceBridgeApprove(s, tx, adm)
	case types.PayloadGovernanceExecute:
		return c.applyGovernanceExecute(s, tx, adm, now)
	case types.PayloadSlash:
		return c.applySlash(s, tx, adm)
	case types.PayloadPrivacyDeposit:
		return c.applyPrivacyDeposit(s, tx, adm)
	case types.PayloadPrivacyWithdraw:
		return c.applyPrivacyWithdraw(s, tx, adm)
	case types.PayloadSystemUpgrade:
		return c.applySystemUpgrade(s, tx, adm)
	default:
		return nil, fmt.Errorf("runtime: unknown payload kind %d", tx.PayloadKind)
	}
}

func (c *Context) applyTransfer(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.TransferPayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	sender := getOrCreateAccount(s, adm.from)
	total := new(big.Int).Add(p.Amount, adm.gasFee)
	if sender.Balance.Cmp(total) < 0 {
		return nil, fmt.Errorf("%w: sender %s balance %s < %s", rerrors.ErrInsufficientFunds, adm.from, sender.Balance, total)
	}
	sender.Balance.Sub(sender.Balance, total)
	recipient := getOrCreateAccount(s, p.To)
	recipient.Balance.Add(recipient.Balance, p.Amount)
	c.routeGasFee(s, adm.gasFee)

	return []types.Event{events.NewEvent(events.TypeTransfer, map[string]string{
		"from": adm.from.String(), "to": p.To.String(), "amount": p.Amount.String(),
	})}, nil
}

func (c *Context) applyStake(s *types.ChainState, tx *types.Tx, adm *admission) ([]types.Event, error) {
	var p types.StakePayload
	if err := tx.DecodePayload(&p); err != nil {
		return nil, err
	}
	sender := getOrCreateAccount(s, adm.from)
	total := new(big.Int).Add(p.Amount, adm.gasFee)
	if sender.Balance.Cmp(total) < 0 {
		return nil, fmt.Errorf("%w: sender %s balance %s < %s", rerrors.ErrInsufficientFunds, adm.from, sender.Balance, total)
	}
	sender.Balance.Sub(sender.Balance, total)
	c.routeGasFee(s, adm.gasFee)

	id := types.ValidatorID(tx.PublicKey)
	v, ok := s.Validators[id]
	if !ok {
		v = types.NewValidator(adm.from, tx.PublicKey, p.Amount, 0)
		s.Validators[id] = v
	} else {
		v.Stake.Add(v.Stake, p.Amount)
		v.Status = types.ValidatorActive
	}

	return []types.Event{events.NewEvent(events.TypeStake, map[string]string{
		"validator": id.String(), "amount": p.Amount.String(),
	})}, nil
}
