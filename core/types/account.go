package types

import (
	"math/big"

	"github.com/latticebft/corechain/crypto"
)

// Account is a keyed ownership record for a single address. It is created on
// first funding or first observation as a transfer recipient, and mutated
// only by the runtime under the sender's nonce-monotonicity invariant.
type Account struct {
	Address     crypto.Address `json:"address"`
	Nonce       uint64         `json:"nonce"`
	Balance     *big.Int       `json:"balance"`
	CodeHash    []byte         `json:"codeHash,omitempty"`
	StorageRoot []byte         `json:"storageRoot,omitempty"`
}

// NewAccount constructs a zero-balance account for addr.
func NewAccount(addr crypto.Address) *Account {
	return &Account{Address: addr, Balance: big.NewInt(0)}
}

// Clone returns a deep copy safe for independent mutation.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{
		Address: a.Address,
		Nonce:   a.Nonce,
		Balance: new(big.Int),
	}
	if a.Balance != nil {
		clone.Balance.Set(a.Balance)
	}
	if a.CodeHash != nil {
		clone.CodeHash = append([]byte(nil), a.CodeHash...)
	}
	if a.StorageRoot != nil {
		clone.StorageRoot = append([]byte(nil), a.StorageRoot...)
	}
	return clone
}
