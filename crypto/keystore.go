package crypto

import "fmt"

// Keystore is a minimal in-memory holder for a single validator/operator
// signing key (disk persistence format is out of scope).
type Keystore struct {
	priv *PrivateKey
}

// NewKeystore wraps an existing private key.
func NewKeystore(priv *PrivateKey) (*Keystore, error) {
	if priv == nil {
		return nil, fmt.Errorf("keystore: private key required")
	}
	return &Keystore{priv: priv}, nil
}

// Key returns the held private key.
func (k *Keystore) Key() *PrivateKey {
	return k.priv
}
