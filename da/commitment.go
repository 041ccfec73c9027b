package da

import (
	"encoding/binary"
	"fmt"

	daerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/crypto"
)

// DACommitment is the chain-visible summary of a posted blob's shard
// geometry and Merkle root, enough for any replica to verify sampling
// proofs without holding the blob itself.
type DACommitment struct {
	BlobID      string `json:"blobId"`
	Root        []byte `json:"root"`
	TotalShards int    `json:"totalShards"`
	DataShards  int    `json:"dataShards"`
	ParityShards int   `json:"parityShards"`
	ShardSize   int    `json:"shardSize"`
	OriginalLen int    `json:"originalLen"`
}

// SamplingProof is a single-shard availability proof: the shard's own hash,
// its index, and the Merkle path connecting it to the commitment's root.
type SamplingProof struct {
	Index      int         `json:"index"`
	ShardHash  []byte      `json:"shardHash"`
	MerklePath []ProofNode `json:"merklePath"`
}

// Verify checks that proof is a valid inclusion proof of the shard at
// proof.Index against commitment's root.
func (c *DACommitment) Verify(proof SamplingProof) error {
	if proof.Index < 0 || proof.Index >= c.TotalShards {
		return fmt.Errorf("%w: index %d out of range [0,%d)", daerrors.ErrProofVerifyFailed, proof.Index, c.TotalShards)
	}
	if !VerifyProof(proof.ShardHash, proof.MerklePath, c.Root) {
		return fmt.Errorf("%w: sampling proof for blob %s shard %d", daerrors.ErrProofVerifyFailed, c.BlobID, proof.Index)
	}
	return nil
}

// SampleIndices deterministically derives n distinct shard indices to
// challenge for blobID, seeded from BLAKE3(blobID || counter) so every
// replica that samples the same blob picks the same indices without any
// coordination round.
func SampleIndices(blobID string, totalShards int, n int) []int {
	if totalShards <= 0 || n <= 0 {
		return nil
	}
	if n > totalShards {
		n = totalShards
	}
	seen := make(map[int]struct{}, n)
	out := make([]int, 0, n)
	var counter uint64
	for len(out) < n {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], counter)
		h := crypto.HashLeaf(append([]byte(blobID), buf[:]...))
		idx := int(binary.BigEndian.Uint64(h[:8]) % uint64(totalShards))
		counter++
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}
