package producer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticebft/corechain/consensus/bft"
	"github.com/latticebft/corechain/core/genesis"
	"github.com/latticebft/corechain/core/state"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
	"github.com/latticebft/corechain/da"
	"github.com/latticebft/corechain/mempool"
	"github.com/latticebft/corechain/network"
	"github.com/latticebft/corechain/runtime"
)

const producerTestChainID = 1

func newSignedTransferTx(t *testing.T, priv *crypto.PrivateKey, nonce uint64, to crypto.Address) *types.Tx {
	t.Helper()
	_, raw, err := types.EncodePayload(types.PayloadTransfer, types.TransferPayload{To: to, Amount: big.NewInt(1)})
	require.NoError(t, err)
	tx := &types.Tx{
		ChainID:     producerTestChainID,
		Nonce:       nonce,
		GasLimit:    1_000_000,
		MaxFee:      big.NewInt(1),
		PayloadKind: types.PayloadTransfer,
		Payload:     raw,
	}
	require.NoError(t, tx.Sign(priv))
	return tx
}

// newSingleValidatorNode builds a producer.Node that is the sole validator
// in its own roster (100% of stake), funded with a transfer tx already
// sitting in its mempool, wired to a fresh in-memory DA provider and a
// LocalBus port with no peers joined.
func newSingleValidatorNode(t *testing.T) (*Node, *crypto.PrivateKey, *mempool.Pool, func() []string) {
	t.Helper()
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := priv.PubKey().Address()

	account := types.NewAccount(addr)
	account.Balance = big.NewInt(1_000_000)

	mgr := state.NewManager(types.NewChainState())
	require.NoError(t, mgr.PutAccount(account))
	require.NoError(t, mgr.WithState(func(s *types.ChainState) error {
		s.TotalSupply.Add(s.TotalSupply, big.NewInt(1_000_000))
		return nil
	}))

	validator := types.NewValidator(addr, priv.PubKey().Bytes(), big.NewInt(100_000), 0)
	require.NoError(t, mgr.PutValidator(validator))

	cfg := &genesis.Config{
		ChainID:              producerTestChainID,
		MaxGasPerBlock:       10_000_000,
		BaseFee:              1,
		BlockTimeMs:          1000,
		UnbondingDelayBlocks: 5,
		SlashPenaltyBps:      1000,
	}
	rt := runtime.NewContext(cfg, mgr)
	engine := bft.NewEngine([]*types.Validator{validator}, 0, nil)
	pool := mempool.New()
	daProvider := da.NewMemoryProvider(256, 1, 3)
	netPort := network.NewLocalBus().Join("solo")

	node := NewNode(rt, engine, pool, daProvider, netPort, priv, nil,
		Config{BlockTimeMs: 1000, ViewTimeoutMs: 5000, MaxTxsPerBlock: 10}, make([]byte, crypto.HashSize), 0)

	var committed []string
	node.OnCommit(func(id string) { committed = append(committed, id) })

	tx := newSignedTransferTx(t, priv, 0, addr)
	ok, err := pool.Add(tx)
	require.NoError(t, err)
	require.True(t, ok)

	return node, priv, pool, func() []string { return committed }
}

// TestProduceTickSingleValidatorCommitsImmediately exercises one full
// production tick for the degenerate single-validator case: the sole
// validator is its own leader, its self-vote alone reaches the stake
// quorum, and the block drains straight through the commit queue.
func TestProduceTickSingleValidatorCommitsImmediately(t *testing.T) {
	node, _, pool, committed := newSingleValidatorNode(t)

	node.ProduceTick(1_000)

	require.Equal(t, uint64(1), node.Height())
	require.Equal(t, 0, pool.Len())
	require.Len(t, committed(), 1)
}

func TestProduceTickSkipsWhenMempoolEmpty(t *testing.T) {
	node, _, pool, committed := newSingleValidatorNode(t)
	require.Equal(t, 1, pool.Len())
	pool.Drain(0) // does not remove; drain the only tx explicitly instead
	for _, tx := range pool.Drain(0) {
		hash, err := tx.Hash()
		require.NoError(t, err)
		pool.Remove(hash)
	}
	require.Equal(t, 0, pool.Len())

	node.ProduceTick(1_000)

	require.Equal(t, uint64(0), node.Height())
	require.Empty(t, committed())
}

// TestProduceTickNonLeaderDoesNothing exercises the isLeader gate: a
// validator holding a minority of stake in a two-validator roster is not
// selected as view-0 leader and must not produce a block.
func TestProduceTickNonLeaderDoesNothing(t *testing.T) {
	leaderPriv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	leaderAddr := leaderPriv.PubKey().Address()
	leaderValidator := types.NewValidator(leaderAddr, leaderPriv.PubKey().Bytes(), big.NewInt(900_000), 0)

	minorityPriv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	minorityAddr := minorityPriv.PubKey().Address()
	minorityAccount := types.NewAccount(minorityAddr)
	minorityAccount.Balance = big.NewInt(1_000_000)
	minorityValidator := types.NewValidator(minorityAddr, minorityPriv.PubKey().Bytes(), big.NewInt(100_000), 0)

	mgr := state.NewManager(types.NewChainState())
	require.NoError(t, mgr.PutAccount(minorityAccount))
	require.NoError(t, mgr.PutValidator(leaderValidator))
	require.NoError(t, mgr.PutValidator(minorityValidator))
	require.NoError(t, mgr.WithState(func(s *types.ChainState) error {
		s.TotalSupply.Add(s.TotalSupply, big.NewInt(1_000_000))
		return nil
	}))

	cfg := &genesis.Config{ChainID: producerTestChainID, MaxGasPerBlock: 10_000_000, BaseFee: 1, BlockTimeMs: 1000, UnbondingDelayBlocks: 5}
	rt := runtime.NewContext(cfg, mgr)
	engine := bft.NewEngine([]*types.Validator{leaderValidator, minorityValidator}, 0, nil)
	pool := mempool.New()
	daProvider := da.NewMemoryProvider(256, 1, 3)
	netPort := network.NewLocalBus().Join("minority")

	node := NewNode(rt, engine, pool, daProvider, netPort, minorityPriv, nil,
		Config{BlockTimeMs: 1000, ViewTimeoutMs: 5000, MaxTxsPerBlock: 10}, make([]byte, crypto.HashSize), 0)

	tx := newSignedTransferTx(t, minorityPriv, 0, minorityAddr)
	_, err = pool.Add(tx)
	require.NoError(t, err)

	node.ProduceTick(1_000)

	require.Equal(t, uint64(0), node.Height())
	require.Equal(t, 1, pool.Len())
}

// TestNewNodeWithNilLocalKeyNeverProposes covers an observer replica: no
// local validator identity means ProduceTick is always a no-op regardless of
// mempool contents or leadership.
func TestNewNodeWithNilLocalKeyNeverProposes(t *testing.T) {
	node, _, pool, committed := newSingleValidatorNode(t)
	observer := NewNode(node.rt, node.engine, pool, node.da, node.net, nil, nil,
		Config{BlockTimeMs: 1000, ViewTimeoutMs: 5000, MaxTxsPerBlock: 10}, make([]byte, crypto.HashSize), 0)

	observer.ProduceTick(1_000)

	require.Equal(t, uint64(0), observer.Height())
	require.Empty(t, committed())
}
