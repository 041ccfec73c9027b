package da

import (
	"fmt"

	"github.com/latticebft/corechain/crypto"
)

// MerkleTree is a binary BLAKE3 Merkle tree over shard hashes, grounded on
// the sibling-position proof shape used elsewhere in the pack's validator
// anchoring code, adapted here to BLAKE3 leaves instead of SHA256.
type MerkleTree struct {
	levels [][][]byte
	root   []byte
}

// Position records which side of a hash pair a sibling occupied.
type Position uint8

const (
	PositionLeft Position = iota
	PositionRight
)

// ProofNode is one step of a sampling proof's path from leaf to root.
type ProofNode struct {
	Hash     []byte   `json:"hash"`
	Position Position `json:"position"`
}

// BuildMerkleTree hashes each shard into a leaf and folds the tree upward,
// duplicating the last node at any odd-length level.
func BuildMerkleTree(shards [][]byte) (*MerkleTree, error) {
	if len(shards) == 0 {
		return nil, fmt.Errorf("da: cannot build tree from zero shards")
	}
	level := make([][]byte, len(shards))
	for i, s := range shards {
		level[i] = crypto.HashLeaf(s)
	}
	tree := &MerkleTree{levels: [][][]byte{level}}
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		tree.levels = append(tree.levels, next)
		level = next
	}
	tree.root = level[0]
	return tree, nil
}

func hashPair(left, right []byte) []byte {
	combined := make([]byte, 0, len(left)+len(right))
	combined = append(combined, left...)
	combined = append(combined, right...)
	return crypto.HashLeaf(combined)
}

// Root returns the tree's Merkle root.
func (t *MerkleTree) Root() []byte {
	return append([]byte(nil), t.root...)
}

// ShardCount reports how many leaves the tree was built from.
func (t *MerkleTree) ShardCount() int {
	return len(t.levels[0])
}

// ProveIndex builds a sampling proof for the shard at index.
func (t *MerkleTree) ProveIndex(index int) ([]ProofNode, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, fmt.Errorf("da: shard index %d out of range", index)
	}
	var path []ProofNode
	idx := index
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		var siblingIdx int
		var pos Position
		if idx%2 == 0 {
			siblingIdx = idx + 1
			pos = PositionRight
		} else {
			siblingIdx = idx - 1
			pos = PositionLeft
		}
		var sibling []byte
		if siblingIdx < len(nodes) {
			sibling = nodes[siblingIdx]
		} else {
			sibling = nodes[idx]
			pos = PositionRight
		}
		path = append(path, ProofNode{Hash: append([]byte(nil), sibling...), Position: pos})
		idx /= 2
	}
	return path, nil
}

// VerifyProof recomputes the root from shardHash walking proof and compares
// it against expectedRoot.
func VerifyProof(shardHash []byte, proof []ProofNode, expectedRoot []byte) bool {
	current := append([]byte(nil), shardHash...)
	for _, node := range proof {
		if node.Position == PositionLeft {
			current = hashPair(node.Hash, current)
		} else {
			current = hashPair(current, node.Hash)
		}
	}
	return bytesEqual(current, expectedRoot)
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
