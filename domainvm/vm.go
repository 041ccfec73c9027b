// Package domainvm defines the execution environment each registered domain
// plugs into, and a minimal in-memory reference VM used for domains that
// don't need a real EVM/WASM backend (tests, "custom" domain kinds). Real
// per-kind VM semantics are out of scope; this package fixes the boundary
// the execution runtime dispatches through.
package domainvm

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/latticebft/corechain/core/types"
)

// DomainCall is a single invocation dispatched into a domain's VM.
type DomainCall struct {
	DomainID uuid.UUID
	Call     []byte
}

// Ctx is the execution context a VM observes: the domain's current ledger,
// mutated in place, plus the height and timestamp of the block applying
// this call.
type Ctx struct {
	Height    uint64
	Timestamp int64
	State     *types.DomainState
}

// Receipt is the observable effect of one domain call.
type Receipt struct {
	GasUsed uint64
	Events  []types.Event
	Output  []byte
}

// VM executes a single domain call against its ledger.
type VM interface {
	Execute(ctx context.Context, call DomainCall, vmCtx *Ctx) (*Receipt, error)
}

// MapVM is a reference VM for domains that store opaque key/value state:
// a call's payload is interpreted as a tiny "set key to value" instruction
// and nothing else, enough to exercise the DomainExecute operation and its
// state-root wiring without a real bytecode interpreter.
type MapVM struct{}

// NewMapVM constructs the reference key/value VM.
func NewMapVM() *MapVM { return &MapVM{} }

// Execute applies call.Call as a "key\x00value" instruction to vmCtx.State.KV.
func (MapVM) Execute(ctx context.Context, call DomainCall, vmCtx *Ctx) (*Receipt, error) {
	if vmCtx == nil || vmCtx.State == nil {
		return nil, fmt.Errorf("domainvm: nil execution context")
	}
	sep := -1
	for i, b := range call.Call {
		if b == 0 {
			sep = i
			break
		}
	}
	if sep < 0 {
		return nil, fmt.Errorf("domainvm: call payload missing key/value separator")
	}
	key := string(call.Call[:sep])
	value := append([]byte(nil), call.Call[sep+1:]...)
	vmCtx.State.KV[key] = value

	receipt := &Receipt{
		GasUsed: uint64(len(call.Call)),
		Events: []types.Event{
			types.NewEvent("domain.kv_set", map[string]string{"key": key}),
		},
	}
	return receipt, nil
}
