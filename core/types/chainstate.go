package types

import (
	"math/big"

	"github.com/google/uuid"
)

// ChainState aggregates every keyed collection the runtime mutates. It is
// intentionally a plain data holder: locking and commitment live in
// core/state.Manager, which owns the only *ChainState instance a replica
// mutates.
type ChainState struct {
	Accounts    map[string]*Account               // keyed by address bytes
	Validators  map[uuid.UUID]*Validator           // keyed by validator id
	Delegations []*Delegation                      // compacted when stake hits 0
	Domains     map[uuid.UUID]*DomainEntry
	DomainState map[uuid.UUID]*DomainState
	DomainRoots map[uuid.UUID][]byte
	DACommitments []DACommitmentRecord
	Proposals   map[uint64]*Proposal
	NextProposalID uint64
	FeePools    FeePools
	PrivacyPools map[string]*PrivacyPool // keyed by pool name, e.g. "default"
	PendingUnbonds []*Unbonding

	GovernanceParams GovernanceParams
	RewardParams     RewardParams
	TotalSupply      *big.Int
	LastRewardHeight uint64
}

// DACommitmentRecord is the chain-state-visible record of a DA posting,
// distinct from da.DACommitment which additionally carries shard geometry
// needed only by the DA layer itself.
type DACommitmentRecord struct {
	BlockHeight uint64 `json:"blockHeight"`
	Root        []byte `json:"root"`
	BlobIDs     []string `json:"blobIds"`
}

// NewChainState returns an empty, genesis-ready chain state.
func NewChainState() *ChainState {
	return &ChainState{
		Accounts:     make(map[string]*Account),
		Validators:   make(map[uuid.UUID]*Validator),
		Domains:      make(map[uuid.UUID]*DomainEntry),
		DomainState:  make(map[uuid.UUID]*DomainState),
		DomainRoots:  make(map[uuid.UUID][]byte),
		Proposals:    make(map[uint64]*Proposal),
		FeePools:     NewFeePools(),
		PrivacyPools: map[string]*PrivacyPool{"default": NewPrivacyPool()},
		TotalSupply:  big.NewInt(0),
	}
}

// DefaultPrivacyPool returns the single privacy pool this node maintains.
func (c *ChainState) DefaultPrivacyPool() *PrivacyPool {
	pool, ok := c.PrivacyPools["default"]
	if !ok {
		pool = NewPrivacyPool()
		c.PrivacyPools["default"] = pool
	}
	return pool
}
