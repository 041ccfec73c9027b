// Package crypto implements the validator and account key material used
// across the node: Ed25519 signing keys and BLAKE3-derived addresses.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"lukechampine.com/blake3"
)

// AddressPrefix defines the different types of human-readable address prefixes.
type AddressPrefix string

// AddressLength is the fixed size, in bytes, of a derived address.
const AddressLength = 32

const (
	// ValidatorPrefix renders addresses belonging to validator-owned keys.
	ValidatorPrefix AddressPrefix = "lbv"
	// AccountPrefix renders addresses belonging to ordinary user accounts.
	AccountPrefix AddressPrefix = "lba"
)

// Address represents a 32-byte BLAKE3 digest of an Ed25519 verifying key.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// NewAddress constructs an address from raw bytes, validating its length.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("address must be %d bytes long, got %d", AddressLength, len(b))
	}
	cloned := append([]byte(nil), b...)
	return Address{prefix: prefix, bytes: cloned}, nil
}

// MustNewAddress constructs an address and panics if the input is invalid.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

// DeriveAddress computes the canonical BLAKE3(pubkey) address for a verifying key.
func DeriveAddress(prefix AddressPrefix, pub ed25519.PublicKey) Address {
	digest := blake3.Sum256(pub)
	return MustNewAddress(prefix, digest[:])
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns a defensive copy of the address's raw bytes.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes...)
}

// IsZero reports whether the address has not been populated.
func (a Address) IsZero() bool {
	return len(a.bytes) == 0
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// Equal reports whether two addresses reference the same bytes.
func (a Address) Equal(other Address) bool {
	if len(a.bytes) != len(other.bytes) {
		return false
	}
	for i := range a.bytes {
		if a.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}

// MarshalJSON renders the address as its bech32 string so it participates
// correctly in any canonical JSON encoding (signing bytes, state leaves,
// block headers) instead of vanishing as an empty object.
func (a Address) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON parses the bech32 string produced by MarshalJSON.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	decoded, err := DecodeAddress(s)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// DecodeAddress parses a bech32-encoded address string.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// --- Key management ---

// PrivateKey wraps an Ed25519 signing key.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// PublicKey wraps an Ed25519 verifying key.
type PublicKey struct {
	key ed25519.PublicKey
}

// GeneratePrivateKey creates a new random Ed25519 key pair.
func GeneratePrivateKey() (*PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: priv}, nil
}

// PrivateKeyFromBytes reconstructs a key from its raw seed+suffix encoding.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 private key length %d", len(b))
	}
	cloned := append(ed25519.PrivateKey(nil), b...)
	return &PrivateKey{key: cloned}, nil
}

// Bytes returns the raw private key bytes.
func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.key...)
}

// PubKey derives the public half of the key pair.
func (k *PrivateKey) PubKey() *PublicKey {
	pub := k.key.Public().(ed25519.PublicKey)
	return &PublicKey{key: pub}
}

// Sign produces an Ed25519 signature over msg.
func (k *PrivateKey) Sign(msg []byte) []byte {
	return ed25519.Sign(k.key, msg)
}

// Bytes returns the raw public key bytes.
func (k *PublicKey) Bytes() []byte {
	return append([]byte(nil), k.key...)
}

// Address derives the account-prefixed address for this public key.
func (k *PublicKey) Address() Address {
	return DeriveAddress(AccountPrefix, k.key)
}

// ValidatorAddress derives the validator-prefixed address for this public key.
func (k *PublicKey) ValidatorAddress() Address {
	return DeriveAddress(ValidatorPrefix, k.key)
}

// Verify checks an Ed25519 signature against this public key.
func (k *PublicKey) Verify(msg, sig []byte) bool {
	if len(k.key) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(k.key, msg, sig)
}

// PublicKeyFromBytes reconstructs a public key from raw bytes.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid ed25519 public key length %d", len(b))
	}
	cloned := append(ed25519.PublicKey(nil), b...)
	return &PublicKey{key: cloned}, nil
}

// VerifySignature recovers nothing (Ed25519 is not recoverable) but checks
// that sig is a valid signature over msg under pub, and that pub derives the
// expected address. This mirrors the admission gate used throughout the
// runtime and consensus packages.
func VerifySignature(msg, sig, pubkeyBytes []byte, expected Address) error {
	pub, err := PublicKeyFromBytes(pubkeyBytes)
	if err != nil {
		return err
	}
	if !pub.Verify(msg, sig) {
		return fmt.Errorf("invalid signature")
	}
	if !pub.Address().Equal(expected) && !pub.ValidatorAddress().Equal(expected) {
		return fmt.Errorf("signature address mismatch")
	}
	return nil
}
