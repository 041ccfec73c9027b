package runtime

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// TestUnbondingDelayHonoured checks that Unstake at height H does not credit
// balance before block H+delay is applied, and the maturing block credits
// exactly the unstaked amount.
func TestUnbondingDelayHonoured(t *testing.T) {
	c := newTestContext(t, types.FeeSplit{})
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := priv.PubKey().Address()
	fundAccount(t, c, addr, 1_000_000)

	stakeTx := signedTxWithGasPrice(t, priv, 0, types.PayloadStake, types.StakePayload{Amount: big.NewInt(100_000)}, -1, -1, 0)
	_, err = c.ApplyTx(stakeTx, 1, 0)
	require.NoError(t, err)

	balanceAfterStake, err := c.Store.GetAccount(addr)
	require.NoError(t, err)

	unstakeTx := signedTxWithGasPrice(t, priv, 1, types.PayloadUnstake, types.UnstakePayload{Amount: big.NewInt(40_000)}, -1, -1, 0)
	const unstakeHeight = 10
	_, err = c.ApplyTx(unstakeTx, unstakeHeight, 0)
	require.NoError(t, err)

	id := types.ValidatorID(priv.PubKey().Bytes())
	v, err := c.Store.GetValidator(id)
	require.NoError(t, err)
	require.Equal(t, 0, v.Stake.Cmp(big.NewInt(60_000)))

	maturity := unstakeHeight + c.UnbondingDelayBlocks

	// One block short of maturity: the block-apply unbonding sweep must not
	// credit the balance yet.
	block := &types.Block{Header: &types.BlockHeader{Height: maturity - 1}}
	_, err = c.ApplyBlock(block, 0)
	require.NoError(t, err)
	stillPending, err := c.Store.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, balanceAfterStake.Balance, stillPending.Balance)

	// Exactly at maturity: credited.
	maturingBlock := &types.Block{Header: &types.BlockHeader{Height: maturity}}
	_, err = c.ApplyBlock(maturingBlock, 0)
	require.NoError(t, err)
	matured, err := c.Store.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Add(balanceAfterStake.Balance, big.NewInt(40_000)), matured.Balance)

	s := c.Store.GetChainState()
	require.Empty(t, s.PendingUnbonds)
}

func TestUnstakeUnknownValidatorFails(t *testing.T) {
	c := newTestContext(t, types.FeeSplit{})
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := priv.PubKey().Address()
	fundAccount(t, c, addr, 1_000)

	tx := signedTxWithGasPrice(t, priv, 0, types.PayloadUnstake, types.UnstakePayload{Amount: big.NewInt(1)}, -1, -1, 0)
	_, err = c.ApplyTx(tx, 1, 0)
	require.Error(t, err)
}

func TestDelegateAndUndelegateTrackPerDelegatorStake(t *testing.T) {
	c := newTestContext(t, types.FeeSplit{})

	validatorPriv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	validatorAddr := validatorPriv.PubKey().Address()
	fundAccount(t, c, validatorAddr, 1_000_000)
	stakeTx := signedTxWithGasPrice(t, validatorPriv, 0, types.PayloadStake, types.StakePayload{Amount: big.NewInt(100_000)}, -1, -1, 0)
	_, err = c.ApplyTx(stakeTx, 1, 0)
	require.NoError(t, err)
	validatorID := types.ValidatorID(validatorPriv.PubKey().Bytes())

	delegatorPriv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	delegatorAddr := delegatorPriv.PubKey().Address()
	fundAccount(t, c, delegatorAddr, 1_000_000)

	delegateTx := signedTxWithGasPrice(t, delegatorPriv, 0, types.PayloadDelegate, types.DelegatePayload{Validator: validatorID, Amount: big.NewInt(20_000)}, -1, -1, 0)
	_, err = c.ApplyTx(delegateTx, 1, 0)
	require.NoError(t, err)

	v, err := c.Store.GetValidator(validatorID)
	require.NoError(t, err)
	require.Equal(t, 0, v.Stake.Cmp(big.NewInt(120_000)))

	undelegateTx := signedTxWithGasPrice(t, delegatorPriv, 1, types.PayloadUndelegate, types.UndelegatePayload{Validator: validatorID, Amount: big.NewInt(5_000)}, -1, -1, 0)
	_, err = c.ApplyTx(undelegateTx, 2, 0)
	require.NoError(t, err)

	v, err = c.Store.GetValidator(validatorID)
	require.NoError(t, err)
	require.Equal(t, 0, v.Stake.Cmp(big.NewInt(115_000)))

	s := c.Store.GetChainState()
	require.Len(t, s.PendingUnbonds, 1)
}
