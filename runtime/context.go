// Package runtime implements deterministic transaction application against
// a ChainState: the admission gate, per-payload-kind semantics, block
// application, inflation-reward minting, and gas fee routing.
package runtime

import (
	"github.com/latticebft/corechain/core/genesis"
	"github.com/latticebft/corechain/core/state"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/domainvm"
	"github.com/latticebft/corechain/zk"
)

// Context is the explicitly-constructed configuration every runtime
// operation is passed, built once at genesis and never held as a
// process-wide singleton.
type Context struct {
	ChainID               uint64
	MaxGasPerBlock        uint64
	BaseFee               uint64
	BlockTimeMs           uint64
	UnbondingDelayBlocks  uint64
	SlashPenaltyBps       uint32
	FeeSplit              types.FeeSplit

	Store   *state.Manager
	VM      domainvm.VM
	ZK      zk.Backend
}

// NewContext builds a runtime Context from a genesis Config and an
// already-constructed state Manager.
func NewContext(cfg *genesis.Config, store *state.Manager) *Context {
	vm := domainvm.NewMapVM()
	return &Context{
		ChainID:              cfg.ChainID,
		MaxGasPerBlock:       cfg.MaxGasPerBlock,
		BaseFee:              cfg.BaseFee,
		BlockTimeMs:          cfg.BlockTimeMs,
		UnbondingDelayBlocks: cfg.UnbondingDelayBlocks,
		SlashPenaltyBps:      cfg.SlashPenaltyBps,
		FeeSplit:             cfg.FeeSplit,
		Store:                store,
		VM:                   vm,
		ZK:                   zk.NewStubBackend(),
	}
}

// ApplyResult is the observable outcome of applying one transaction.
type ApplyResult struct {
	GasUsed uint64
	Events  []types.Event
}

// BlockResult is the observable outcome of applying a whole block.
type BlockResult struct {
	StateRoot []byte
	GasUsed   uint64
	Events    []types.Event
}
