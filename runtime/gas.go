package runtime

import (
	"fmt"
	"math/big"

	rerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// fixedCost returns the gas charged for each payload kind. Costs are
// deliberately coarse: the runtime doesn't meter per-opcode execution, only
// per-operation admission.
func fixedCost(kind types.PayloadKind) uint64 {
	switch kind {
	case types.PayloadTransfer:
		return 21_000
	case types.PayloadStake, types.PayloadUnstake, types.PayloadDelegate, types.PayloadUndelegate:
		return 40_000
	case types.PayloadDomainCreate, types.PayloadDomainConfigUpdate:
		return 60_000
	case types.PayloadDomainExecute:
		return 80_000
	case types.PayloadCrossDomainSend, types.PayloadCrossDomainRelay:
		return 50_000
	case types.PayloadRollupBatchCommit:
		return 45_000
	case types.PayloadRollupBridgeDeposit, types.PayloadRollupBridgeWithdraw:
		return 55_000
	case types.PayloadGovernanceProposal:
		return 70_000
	case types.PayloadGovernanceVote, types.PayloadGovernanceBridgeApprove, types.PayloadGovernanceExecute:
		return 35_000
	case types.PayloadSlash:
		return 30_000
	case types.PayloadPrivacyDeposit:
		return 90_000
	case types.PayloadPrivacyWithdraw:
		return 120_000
	case types.PayloadSystemUpgrade:
		return 50_000
	default:
		return 21_000
	}
}

// admission is the pre-execution gate: verify signature, check chain id and
// nonce, and compute the gas fee the sender will be charged.
type admission struct {
	from             crypto.Address
	gasUsed          uint64
	effectivePrice   *big.Int
	gasFee           *big.Int
}

func (c *Context) admit(tx *types.Tx, sender *types.Account) (*admission, error) {
	from, err := tx.From()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rerrors.ErrInvalidSignature, err)
	}
	if tx.ChainID != c.ChainID {
		return nil, fmt.Errorf("%w: tx chain %d != %d", rerrors.ErrWrongChainID, tx.ChainID, c.ChainID)
	}
	if sender.Nonce != tx.Nonce {
		return nil, fmt.Errorf("%w: sender nonce %d != tx nonce %d", rerrors.ErrBadNonce, sender.Nonce, tx.Nonce)
	}

	gasUsed := fixedCost(tx.PayloadKind)
	price := c.effectiveGasPrice(tx)

	gasFee := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), price)
	if gasFee.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative gas fee", rerrors.ErrOverflow)
	}

	return &admission{from: from, gasUsed: gasUsed, effectivePrice: price, gasFee: gasFee}, nil
}

// effectiveGasPrice prefers EIP-1559-style max_fee/max_priority_fee, falls
// back to gas_price, then falls back to base fee.
func (c *Context) effectiveGasPrice(tx *types.Tx) *big.Int {
	if tx.MaxFee != nil {
		candidate := new(big.Int).SetUint64(c.BaseFee)
		if tx.MaxPriorityFee != nil {
			candidate.Add(candidate, tx.MaxPriorityFee)
		}
		if candidate.Cmp(tx.MaxFee) > 0 {
			return new(big.Int).Set(tx.MaxFee)
		}
		return candidate
	}
	if tx.GasPrice != nil {
		return new(big.Int).Set(tx.GasPrice)
	}
	return new(big.Int).SetUint64(c.BaseFee)
}

// routeGasFee splits a gas fee: a burn share goes to treasury, a validator
// share goes to the l1_gas pool, and any remainder is discarded.
func (c *Context) routeGasFee(state *types.ChainState, fee *big.Int) {
	if fee == nil || fee.Sign() == 0 {
		return
	}
	burn := pct(fee, c.FeeSplit.L1GasBurnPct)
	validatorShare := pct(fee, c.FeeSplit.L1GasValidatorsPct)
	state.FeePools.Treasury.Add(state.FeePools.Treasury, burn)
	state.FeePools.L1Gas.Add(state.FeePools.L1Gas, validatorShare)
}

func pct(amount *big.Int, p uint8) *big.Int {
	n := new(big.Int).Mul(amount, big.NewInt(int64(p)))
	return n.Div(n, big.NewInt(100))
}
