package da

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	daerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/crypto"
)

// Provider is the Data Availability layer's external interface: post a blob
// and get a commitment back, later produce and verify sampling proofs for
// it. Implementations may be in-memory (tests, single-node runs) or backed
// by a real shard-distribution network.
type Provider interface {
	Post(ctx context.Context, blob []byte) (*DACommitment, error)
	Commitment(ctx context.Context, blobID string) (*DACommitment, error)
	Sample(ctx context.Context, blobID string, index int) (*SamplingProof, error)
	Verify(ctx context.Context, blobID string, proof SamplingProof) error
}

type storedBlob struct {
	commitment  DACommitment
	dataShards  [][]byte
	parityShards [][]byte
}

// MemoryProvider is an in-process DA layer: it shards and commits blobs
// in memory and answers sampling challenges directly, used by single-node
// runs and tests in place of a networked shard-distribution service.
type MemoryProvider struct {
	shardSize    int
	parityCount  int
	sampleCount  int

	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

// NewMemoryProvider constructs an in-memory DA provider using shardSize-byte
// shards and parityCount XOR-fold parity shards per blob.
func NewMemoryProvider(shardSize, parityCount, sampleCount int) *MemoryProvider {
	if shardSize <= 0 {
		shardSize = DefaultShardSize
	}
	return &MemoryProvider{
		shardSize:   shardSize,
		parityCount: parityCount,
		sampleCount: sampleCount,
		blobs:       make(map[string]*storedBlob),
	}
}

// Post shards blob, computes its Merkle commitment, and assigns it a fresh
// blob id.
func (p *MemoryProvider) Post(ctx context.Context, blob []byte) (*DACommitment, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	dataShards, paritySh, err := SplitShards(blob, p.shardSize, p.parityCount)
	if err != nil {
		return nil, err
	}
	all := append(append([][]byte(nil), dataShards...), paritySh...)
	tree, err := BuildMerkleTree(all)
	if err != nil {
		return nil, err
	}
	blobID := uuid.New().String()
	commitment := DACommitment{
		BlobID:       blobID,
		Root:         tree.Root(),
		TotalShards:  len(all),
		DataShards:   len(dataShards),
		ParityShards: len(paritySh),
		ShardSize:    p.shardSize,
		OriginalLen:  len(blob),
	}

	p.mu.Lock()
	p.blobs[blobID] = &storedBlob{commitment: commitment, dataShards: dataShards, parityShards: paritySh}
	p.mu.Unlock()

	return &commitment, nil
}

// Commitment returns the previously-posted commitment for blobID.
func (p *MemoryProvider) Commitment(ctx context.Context, blobID string) (*DACommitment, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	stored, ok := p.blobs[blobID]
	if !ok {
		return nil, fmt.Errorf("%w: blob %s", daerrors.ErrDANotAvailable, blobID)
	}
	c := stored.commitment
	return &c, nil
}

// Sample produces an availability proof for the shard at index.
func (p *MemoryProvider) Sample(ctx context.Context, blobID string, index int) (*SamplingProof, error) {
	p.mu.RLock()
	stored, ok := p.blobs[blobID]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: blob %s", daerrors.ErrDANotAvailable, blobID)
	}
	all := append(append([][]byte(nil), stored.dataShards...), stored.parityShards...)
	tree, err := BuildMerkleTree(all)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(all) {
		return nil, fmt.Errorf("%w: index %d out of range", daerrors.ErrProofVerifyFailed, index)
	}
	path, err := tree.ProveIndex(index)
	if err != nil {
		return nil, err
	}
	shardHash := crypto.HashLeaf(all[index])
	return &SamplingProof{Index: index, ShardHash: shardHash, MerklePath: path}, nil
}

// Verify checks proof against the stored commitment for blobID.
func (p *MemoryProvider) Verify(ctx context.Context, blobID string, proof SamplingProof) error {
	commitment, err := p.Commitment(ctx, blobID)
	if err != nil {
		return err
	}
	return commitment.Verify(proof)
}

// SampleChallenge returns the deterministic challenge set for blobID, sized
// to the provider's configured sampleCount.
func (p *MemoryProvider) SampleChallenge(blobID string, totalShards int) []int {
	return SampleIndices(blobID, totalShards, p.sampleCount)
}
