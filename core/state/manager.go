// Package state owns the single mutable ChainState instance a replica
// holds, guarding it with a short-lived exclusive lock never held across a
// suspension point, and producing a deterministic state root commitment.
package state

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// Manager provides exclusive, atomic-from-the-caller's-perspective access to
// a ChainState: get/put accounts and validators, whole-state snapshot
// read/write, and commit.
type Manager struct {
	mu    sync.Mutex
	state *types.ChainState
}

// NewManager wraps an existing chain state (typically produced by genesis).
func NewManager(initial *types.ChainState) *Manager {
	if initial == nil {
		initial = types.NewChainState()
	}
	return &Manager{state: initial}
}

// GetAccount returns a defensive copy of the account at addr, or nil if it
// has never been observed.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.state.Accounts[string(addr.Bytes())]
	if !ok {
		return nil, nil
	}
	return acc.Clone(), nil
}

// PutAccount stores a copy of acc, creating it on first observation.
func (m *Manager) PutAccount(acc *types.Account) error {
	if acc == nil {
		return fmt.Errorf("state: nil account")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Accounts[string(acc.Address.Bytes())] = acc.Clone()
	return nil
}

// GetValidator returns a defensive copy of the validator with id, or nil.
func (m *Manager) GetValidator(id uuid.UUID) (*types.Validator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.state.Validators[id]
	if !ok {
		return nil, nil
	}
	return v.Clone(), nil
}

// PutValidator stores a copy of v, keyed by its UUIDv5 identity.
func (m *Manager) PutValidator(v *types.Validator) error {
	if v == nil {
		return fmt.Errorf("state: nil validator")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Validators[v.ID] = v.Clone()
	return nil
}

// Validators returns a stable, sorted-by-id snapshot of the validator set.
// Sorting makes leader selection and quorum iteration reproducible across
// replicas, since Go map iteration order is randomized.
func (m *Manager) Validators() []*types.Validator {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Validator, 0, len(m.state.Validators))
	for _, v := range m.state.Validators {
		out = append(out, v.Clone())
	}
	sortValidators(out)
	return out
}

func sortValidators(vs []*types.Validator) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && lessID(vs[j].ID, vs[j-1].ID); j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}

func lessID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// GetChainState returns the live ChainState pointer for callers (typically
// the runtime) that need to read-modify-write several collections inside a
// single apply_tx/apply_block call. Callers must hold no other lock across
// an await/channel-receive while using it; the runtime always finishes the
// read-modify-write synchronously before returning.
func (m *Manager) GetChainState() *types.ChainState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// WithState runs fn with exclusive access to the chain state, giving
// callers an atomic read-modify-write without managing the lock by hand.
func (m *Manager) WithState(fn func(*types.ChainState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

// PutChainState replaces the held state wholesale, used by replay/restore
// paths.
func (m *Manager) PutChainState(s *types.ChainState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// Commit folds every entity collection into leaves and returns the state
// root.
func (m *Manager) Commit() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ComputeStateRoot(m.state)
}
