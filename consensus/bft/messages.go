// Package bft implements a view-based, stake-weighted quorum-certificate
// consensus engine: a single block_tree of received proposals, vote tallies
// keyed by (block_id, view), and a commit queue the block producer drains.
package bft

import (
	"encoding/binary"

	"github.com/latticebft/corechain/core/types"
)

// SignedProposal wraps a block proposal with the proposer's public key and a
// signature over hash_block(block).
type SignedProposal struct {
	Block     *types.Block `json:"block"`
	PublicKey []byte       `json:"publicKey"`
	Signature []byte       `json:"signature"`
}

// SignedVote is one validator's vote for a block at a given view, signed
// over (block_id, view).
type SignedVote struct {
	BlockID   []byte `json:"blockId"`
	View      uint64 `json:"view"`
	PublicKey []byte `json:"publicKey"`
	Signature []byte `json:"signature"`
}

// Timeout notifies the engine that a validator's local round timer elapsed
// for a view.
type Timeout struct {
	View uint64 `json:"view"`
	From []byte `json:"from"`
}

// QuorumCertificate attests that at least quorum-threshold stake voted for
// BlockID at View.
type QuorumCertificate struct {
	BlockID    []byte   `json:"blockId"`
	View       uint64   `json:"view"`
	Signatures [][]byte `json:"signatures"`
	Voters     [][]byte `json:"voters"`
}

// voteSignBytes is the canonical message a vote's signature covers.
func voteSignBytes(blockID []byte, view uint64) []byte {
	buf := make([]byte, 0, len(blockID)+8)
	buf = append(buf, blockID...)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], view)
	return append(buf, tmp[:]...)
}
