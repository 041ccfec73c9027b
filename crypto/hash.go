package crypto

import "lukechampine.com/blake3"

// HashSize is the width, in bytes, of every digest produced in this package.
const HashSize = 32

// Hash256 computes the BLAKE3-256 digest of data.
func Hash256(data []byte) [HashSize]byte {
	return blake3.Sum256(data)
}

// HashLeaf hashes a single canonical-encoded entity into a commitment leaf.
func HashLeaf(data []byte) []byte {
	h := blake3.Sum256(data)
	return h[:]
}

// NewHasher returns a streaming BLAKE3 hasher, used when folding many leaves
// into a single root without allocating an intermediate buffer.
func NewHasher() *blake3.Hasher {
	return blake3.New(HashSize, nil)
}
