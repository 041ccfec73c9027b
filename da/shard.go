// Package da implements the Data Availability layer: blobs are split into
// fixed-size data shards plus XOR-fold parity shards, committed to with a
// BLAKE3 Merkle tree, and sampled for random-spot availability proofs.
package da

import "fmt"

// DefaultShardSize is the fixed shard width used when a blob is split.
const DefaultShardSize = 256

// SplitShards divides data into fixed-size shards, zero-padding the final
// shard so every data shard has identical length, then appends parityCount
// XOR-fold parity shards computed across the data shards.
func SplitShards(data []byte, shardSize int, parityCount int) (dataShards [][]byte, parityShards [][]byte, err error) {
	if shardSize <= 0 {
		return nil, nil, fmt.Errorf("da: shardSize must be positive")
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("da: cannot shard empty blob")
	}

	count := (len(data) + shardSize - 1) / shardSize
	dataShards = make([][]byte, count)
	for i := 0; i < count; i++ {
		shard := make([]byte, shardSize)
		start := i * shardSize
		end := start + shardSize
		if end > len(data) {
			end = len(data)
		}
		copy(shard, data[start:end])
		dataShards[i] = shard
	}

	parityShards = make([][]byte, parityCount)
	for p := 0; p < parityCount; p++ {
		parity := make([]byte, shardSize)
		for i, shard := range dataShards {
			// Rotate the XOR pattern per parity shard so a second parity
			// shard is not simply a duplicate of the first.
			if (i+p)%(parityCount+1) == 0 {
				continue
			}
			for b := range parity {
				parity[b] ^= shard[b]
			}
		}
		parityShards[p] = parity
	}
	return dataShards, parityShards, nil
}

// JoinShards reassembles data shards (in order) back into the original blob,
// trimming the zero padding added to the final shard by originalLen.
func JoinShards(dataShards [][]byte, originalLen int) []byte {
	out := make([]byte, 0, len(dataShards)*len(firstNonEmpty(dataShards)))
	for _, s := range dataShards {
		out = append(out, s...)
	}
	if originalLen >= 0 && originalLen <= len(out) {
		out = out[:originalLen]
	}
	return out
}

func firstNonEmpty(shards [][]byte) []byte {
	if len(shards) == 0 {
		return nil
	}
	return shards[0]
}
