package types

import (
	"math/big"
	"sort"

	"github.com/latticebft/corechain/crypto"
)

// PrivacyPool is a shielded-value pool tracking commitments and spent
// nullifiers. The Merkle root is insertion-order independent: it is the
// BLAKE3 fold of the sorted per-commitment hashes.
type PrivacyPool struct {
	MerkleRoot     []byte     `json:"merkleRoot"`
	Commitments    [][]byte   `json:"commitments"`
	Nullifiers     [][]byte   `json:"nullifiers"`
	TotalShielded  *big.Int   `json:"totalShielded"`
}

// NewPrivacyPool returns an empty pool with a zero root.
func NewPrivacyPool() *PrivacyPool {
	return &PrivacyPool{
		MerkleRoot:    make([]byte, crypto.HashSize),
		TotalShielded: big.NewInt(0),
	}
}

// HasNullifier reports whether nullifier has already been spent.
func (p *PrivacyPool) HasNullifier(nullifier []byte) bool {
	for _, n := range p.Nullifiers {
		if bytesEqual(n, nullifier) {
			return true
		}
	}
	return false
}

// HasCommitment reports whether commitment is already a member of the pool.
func (p *PrivacyPool) HasCommitment(commitment []byte) bool {
	for _, c := range p.Commitments {
		if bytesEqual(c, commitment) {
			return true
		}
	}
	return false
}

// RecomputeRoot folds BLAKE3(c) for every commitment, sorted, into a single
// BLAKE3 hash. Recomputation is insertion-order independent by construction.
func (p *PrivacyPool) RecomputeRoot() {
	leaves := make([][]byte, 0, len(p.Commitments))
	for _, c := range p.Commitments {
		leaves = append(leaves, crypto.HashLeaf(c))
	}
	sort.Slice(leaves, func(i, j int) bool { return bytesLess(leaves[i], leaves[j]) })
	hasher := crypto.NewHasher()
	for _, leaf := range leaves {
		hasher.Write(leaf)
	}
	if len(leaves) == 0 {
		p.MerkleRoot = make([]byte, crypto.HashSize)
		return
	}
	sum := hasher.Sum(nil)
	p.MerkleRoot = sum
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func bytesLess(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
