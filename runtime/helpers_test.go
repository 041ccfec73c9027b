package runtime

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticebft/corechain/core/genesis"
	"github.com/latticebft/corechain/core/state"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

const testChainID = 99

func newTestContext(t *testing.T, feeSplit types.FeeSplit) *Context {
	t.Helper()
	cfg := &genesis.Config{
		ChainID:              testChainID,
		MaxGasPerBlock:       10_000_000,
		BaseFee:              1,
		BlockTimeMs:          1000,
		UnbondingDelayBlocks: 5,
		SlashPenaltyBps:      1000,
		FeeSplit:             feeSplit,
	}
	mgr := state.NewManager(types.NewChainState())
	return NewContext(cfg, mgr)
}

func fundAccount(t *testing.T, c *Context, addr crypto.Address, balance int64) {
	t.Helper()
	require.NoError(t, c.Store.WithState(func(s *types.ChainState) error {
		acc := getOrCreateAccount(s, addr)
		acc.Balance = big.NewInt(balance)
		s.TotalSupply.Add(s.TotalSupply, big.NewInt(balance))
		return nil
	}))
}

// signedTx builds and signs a transaction carrying payload under kind, with
// the given nonce. maxFee/maxPriorityFee of -1 leave the
// corresponding EIP-1559-style field unset.
func signedTx(t *testing.T, priv *crypto.PrivateKey, nonce uint64, kind types.PayloadKind, payload interface{}, maxFee, maxPriorityFee int64) *types.Tx {
	t.Helper()
	return signedTxWithGasPrice(t, priv, nonce, kind, payload, maxFee, maxPriorityFee, -1)
}

// signedTxWithGasPrice is signedTx plus an explicit legacy gasPrice (-1 to
// leave it unset). Any field a caller needs set before signing must go
// through here rather than being mutated on an already-signed Tx, since the
// signature covers every field but Signature itself.
func signedTxWithGasPrice(t *testing.T, priv *crypto.PrivateKey, nonce uint64, kind types.PayloadKind, payload interface{}, maxFee, maxPriorityFee, gasPrice int64) *types.Tx {
	t.Helper()
	_, raw, err := types.EncodePayload(kind, payload)
	require.NoError(t, err)

	tx := &types.Tx{
		ChainID:     testChainID,
		Nonce:       nonce,
		GasLimit:    1_000_000,
		PayloadKind: kind,
		Payload:     raw,
	}
	if maxFee >= 0 {
		tx.MaxFee = big.NewInt(maxFee)
	}
	if maxPriorityFee >= 0 {
		tx.MaxPriorityFee = big.NewInt(maxPriorityFee)
	}
	if gasPrice >= 0 {
		tx.GasPrice = big.NewInt(gasPrice)
	}
	require.NoError(t, tx.Sign(priv))
	return tx
}
