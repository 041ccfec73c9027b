package types

import (
	"math/big"

	"github.com/google/uuid"

	"github.com/latticebft/corechain/crypto"
)

// ValidatorNamespace is the fixed name-based UUID namespace (the standard
// OID namespace) validator identities are derived from, so identity stays
// stable across restarts without a separate registration step.
var ValidatorNamespace = uuid.NameSpaceOID

// ValidatorStatus enumerates the lifecycle states of a validator bond.
type ValidatorStatus uint8

const (
	ValidatorActive ValidatorStatus = iota
	ValidatorJailed
	ValidatorExited
)

func (s ValidatorStatus) String() string {
	switch s {
	case ValidatorActive:
		return "active"
	case ValidatorJailed:
		return "jailed"
	case ValidatorExited:
		return "exited"
	default:
		return "unknown"
	}
}

// ValidatorID derives the deterministic UUIDv5 identity for a validator's
// public key. Identity is stable across restarts because it is a pure
// function of the key material, never a randomly assigned sequence number.
func ValidatorID(pubkey []byte) uuid.UUID {
	return uuid.NewSHA1(ValidatorNamespace, pubkey)
}

// Validator is a staked consensus participant.
type Validator struct {
	Owner          crypto.Address  `json:"owner"`
	ID             uuid.UUID       `json:"id"`
	PubKey         []byte          `json:"pubKey"`
	Stake          *big.Int        `json:"stake"`
	Status         ValidatorStatus `json:"status"`
	CommissionRate uint8           `json:"commissionRate"`
}

// NewValidator constructs a validator record whose identity is derived from
// its public key.
func NewValidator(owner crypto.Address, pubkey []byte, stake *big.Int, commission uint8) *Validator {
	return &Validator{
		Owner:          owner,
		ID:             ValidatorID(pubkey),
		PubKey:         append([]byte(nil), pubkey...),
		Stake:          new(big.Int).Set(stake),
		Status:         ValidatorActive,
		CommissionRate: commission,
	}
}

// Clone returns a deep copy safe for independent mutation.
func (v *Validator) Clone() *Validator {
	if v == nil {
		return nil
	}
	clone := &Validator{
		Owner:          v.Owner,
		ID:             v.ID,
		Status:         v.Status,
		CommissionRate: v.CommissionRate,
		Stake:          new(big.Int),
	}
	if v.Stake != nil {
		clone.Stake.Set(v.Stake)
	}
	if v.PubKey != nil {
		clone.PubKey = append([]byte(nil), v.PubKey...)
	}
	return clone
}

// Delegation is a delegator's stake contribution to a validator's bond.
// Multiple rows per (delegator, validator) are allowed; callers compact them
// when stake reaches zero.
type Delegation struct {
	Delegator   crypto.Address `json:"delegator"`
	ValidatorID uuid.UUID      `json:"validatorId"`
	Stake       *big.Int       `json:"stake"`
}

// Unbonding is a pending stake release held until ReleaseHeight is reached.
type Unbonding struct {
	Owner         crypto.Address `json:"owner"`
	ValidatorID   *uuid.UUID     `json:"validatorId,omitempty"`
	Amount        *big.Int       `json:"amount"`
	ReleaseHeight uint64         `json:"releaseHeight"`
}
