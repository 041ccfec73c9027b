package runtime

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// withRewardParams installs RewardParams with MsPerYear equal to BlockTimeMs
// so blocksPerYear resolves to exactly 1 and a single ApplyBlock call mints
// one full year's worth of inflation — this keeps the expected mint amount
// simple arithmetic instead of a tiny truncated-integer-division fraction.
func withRewardParams(t *testing.T, c *Context, p types.RewardParams) {
	t.Helper()
	p.MsPerYear = uint64(c.BlockTimeMs)
	require.NoError(t, c.Store.WithState(func(s *types.ChainState) error {
		s.RewardParams = p
		return nil
	}))
}

// TestMintInflationSplitsAcrossTreasuryProposerBonusAndValidator checks the
// inflation-reward math for a single self-bonded validator: the bonded
// ratio sits below the target so the rate is gated to MaxInflationBps, and
// the mint splits exactly into treasury, proposer bonus, and the
// validator's own payout, increasing total_supply by exactly the minted
// amount.
func TestMintInflationSplitsAcrossTreasuryProposerBonusAndValidator(t *testing.T) {
	c := newTestContext(t, types.FeeSplit{})
	withRewardParams(t, c, types.RewardParams{
		BaseInflationBps: 500, MaxInflationBps: 2000, TargetStakeBps: 5000,
		TreasuryPct: 10, ProposerBonusPct: 20,
	})

	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := priv.PubKey().Address()
	fundAccount(t, c, addr, 1_000_000)

	stakeTx := signedTxWithGasPrice(t, priv, 0, types.PayloadStake, types.StakePayload{Amount: big.NewInt(100_000)}, -1, -1, 0)
	_, err = c.ApplyTx(stakeTx, 1, 0)
	require.NoError(t, err)
	validatorID := types.ValidatorID(priv.PubKey().Bytes())

	supplyBefore := new(big.Int).Set(c.Store.GetChainState().TotalSupply)
	balanceBefore, err := c.Store.GetAccount(addr)
	require.NoError(t, err)

	block := &types.Block{Header: &types.BlockHeader{Height: 2, ProposerID: validatorID}}
	_, err = c.ApplyBlock(block, 0)
	require.NoError(t, err)

	s := c.Store.GetChainState()
	// Bonded ratio is 100,000/1,000,000 = 10%, below the 50% target, so the
	// rate is gated to MaxInflationBps (20%): mint = 1,000,000 * 20% = 200,000.
	require.Equal(t, 0, new(big.Int).Sub(s.TotalSupply, supplyBefore).Cmp(big.NewInt(200_000)))
	require.Equal(t, uint64(2), s.LastRewardHeight)

	// Treasury gets 10% of the mint (20,000); of the 180,000 remainder the
	// proposer bonus takes 20% (36,000), leaving 144,000 for the sole
	// validator's pro-rata share — paid entirely to its owner since there are
	// no delegations.
	require.Equal(t, 0, s.FeePools.Treasury.Cmp(big.NewInt(20_000)))

	after, err := c.Store.GetAccount(addr)
	require.NoError(t, err)
	gained := new(big.Int).Sub(after.Balance, balanceBefore.Balance)
	require.Equal(t, 0, gained.Cmp(big.NewInt(180_000)))
}

func TestMintInflationNoOpWhenRewardParamsUnset(t *testing.T) {
	c := newTestContext(t, types.FeeSplit{})
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	fundAccount(t, c, priv.PubKey().Address(), 1_000_000)

	stakeTx := signedTxWithGasPrice(t, priv, 0, types.PayloadStake, types.StakePayload{Amount: big.NewInt(100_000)}, -1, -1, 0)
	_, err = c.ApplyTx(stakeTx, 1, 0)
	require.NoError(t, err)

	supplyBefore := new(big.Int).Set(c.Store.GetChainState().TotalSupply)
	block := &types.Block{Header: &types.BlockHeader{Height: 2}}
	_, err = c.ApplyBlock(block, 0)
	require.NoError(t, err)

	require.Equal(t, 0, c.Store.GetChainState().TotalSupply.Cmp(supplyBefore))
}

// TestMintInflationDelegatedShareNetsCommissionToValidator exercises the
// delegation/commission split: the delegated share of a validator's reward
// is reduced by the validator's commission rate before the remainder is paid
// out pro-rata to delegators, and the commission itself accrues to the
// validator's own payout.
func TestMintInflationDelegatedShareNetsCommissionToValidator(t *testing.T) {
	c := newTestContext(t, types.FeeSplit{})
	withRewardParams(t, c, types.RewardParams{
		BaseInflationBps: 500, MaxInflationBps: 2000, TargetStakeBps: 5000,
		TreasuryPct: 0, ProposerBonusPct: 0,
	})

	validatorPriv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	validatorAddr := validatorPriv.PubKey().Address()
	fundAccount(t, c, validatorAddr, 1_000_000)
	stakeTx := signedTxWithGasPrice(t, validatorPriv, 0, types.PayloadStake, types.StakePayload{Amount: big.NewInt(50_000)}, -1, -1, 0)
	_, err = c.ApplyTx(stakeTx, 1, 0)
	require.NoError(t, err)
	validatorID := types.ValidatorID(validatorPriv.PubKey().Bytes())

	delegatorPriv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	delegatorAddr := delegatorPriv.PubKey().Address()
	fundAccount(t, c, delegatorAddr, 1_000_000)
	delegateTx := signedTxWithGasPrice(t, delegatorPriv, 0, types.PayloadDelegate,
		types.DelegatePayload{Validator: validatorID, Amount: big.NewInt(50_000)}, -1, -1, 0)
	_, err = c.ApplyTx(delegateTx, 1, 0)
	require.NoError(t, err)

	require.NoError(t, c.Store.WithState(func(s *types.ChainState) error {
		s.Validators[validatorID].CommissionRate = 10
		return nil
	}))

	validatorBalanceBefore, err := c.Store.GetAccount(validatorAddr)
	require.NoError(t, err)
	delegatorBalanceBefore, err := c.Store.GetAccount(delegatorAddr)
	require.NoError(t, err)

	block := &types.Block{Header: &types.BlockHeader{Height: 2, ProposerID: validatorID}}
	_, err = c.ApplyBlock(block, 0)
	require.NoError(t, err)

	// TotalSupply is 2,000,000 (two 1,000,000 fundings) with 100,000 bonded
	// (5% bonded, below the 50% target) so rateBps = MaxInflationBps(20%):
	// mint = 2,000,000 * 20% = 400,000, all of which is validatorPool (no
	// treasury/proposer cut configured) since this is the sole validator.
	// Its 100,000 stake is half self (50,000) and half delegated (50,000), so
	// the 400,000 splits evenly into a 200,000 self share and a 200,000
	// delegated share. Commission takes 10% of the delegated share (20,000)
	// for the validator, leaving 180,000 paid out to the sole delegator.
	s := c.Store.GetChainState()
	validatorAfter, err := c.Store.GetAccount(validatorAddr)
	require.NoError(t, err)
	delegatorAfter, err := c.Store.GetAccount(delegatorAddr)
	require.NoError(t, err)

	validatorGain := new(big.Int).Sub(validatorAfter.Balance, validatorBalanceBefore.Balance)
	delegatorGain := new(big.Int).Sub(delegatorAfter.Balance, delegatorBalanceBefore.Balance)

	require.Equal(t, 0, validatorGain.Cmp(big.NewInt(220_000)))
	require.Equal(t, 0, delegatorGain.Cmp(big.NewInt(180_000)))
	require.Equal(t, 0, s.FeePools.Treasury.Sign())
}
