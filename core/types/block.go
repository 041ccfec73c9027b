package types

import (
	"encoding/binary"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/latticebft/corechain/crypto"
)

// BlockHeader carries everything needed to identify and verify a block
// without re-executing its transactions.
type BlockHeader struct {
	ParentHash          []byte              `json:"parentHash"`
	Height              uint64              `json:"height"`
	Timestamp           int64               `json:"timestamp"`
	ProposerID          uuid.UUID           `json:"proposerId"`
	StateRoot           []byte              `json:"stateRoot"`
	L1TxRoot            []byte              `json:"l1TxRoot"`
	DACommitment        []byte              `json:"daCommitment,omitempty"`
	DomainRoots         map[uuid.UUID][]byte `json:"domainRoots,omitempty"`
	GasUsed             uint64              `json:"gasUsed"`
	GasLimit            uint64              `json:"gasLimit"`
	BaseFee             uint64              `json:"baseFee"`
	ConsensusMetadata   []byte              `json:"consensusMetadata,omitempty"`
}

// Block pairs a header with the ordered transactions it commits to and the
// DA blob identifiers that carry their serialized payload.
type Block struct {
	Header       *BlockHeader `json:"header"`
	Transactions []*Tx        `json:"transactions"`
	DABlobIDs    []string     `json:"daBlobIds"`
}

// canonicalHeaderBytes produces a deterministic encoding of the header for
// hashing: fixed field order, domain-root keys sorted.
func canonicalHeaderBytes(h *BlockHeader) []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, h.ParentHash...)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], h.Height)
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint64(tmp[:], uint64(h.Timestamp))
	buf = append(buf, tmp[:]...)
	buf = append(buf, h.ProposerID[:]...)
	buf = append(buf, h.StateRoot...)
	buf = append(buf, h.L1TxRoot...)
	buf = append(buf, h.DACommitment...)
	binary.BigEndian.PutUint64(tmp[:], h.GasUsed)
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint64(tmp[:], h.GasLimit)
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint64(tmp[:], h.BaseFee)
	buf = append(buf, tmp[:]...)
	keys := make([]uuid.UUID, 0, len(h.DomainRoots))
	for k := range h.DomainRoots {
		keys = append(keys, k)
	}
	sortUUIDs(keys)
	for _, k := range keys {
		buf = append(buf, k[:]...)
		buf = append(buf, h.DomainRoots[k]...)
	}
	buf = append(buf, h.ConsensusMetadata...)
	return buf
}

func sortUUIDs(ids []uuid.UUID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && lessUUID(ids[j], ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

func lessUUID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Hash computes the BLAKE3 digest over the header's canonical encoding.
func (h *BlockHeader) Hash() []byte {
	return crypto.HashLeaf(canonicalHeaderBytes(h))
}

// HashBlock computes the canonical block identifier: BLAKE3 over the header
// hash combined with a canonical encoding of the transaction list.
func HashBlock(b *Block) ([]byte, error) {
	if b == nil || b.Header == nil {
		return nil, nil
	}
	txBytes, err := json.Marshal(b.Transactions)
	if err != nil {
		return nil, err
	}
	combined := append(append([]byte(nil), b.Header.Hash()...), txBytes...)
	return crypto.HashLeaf(combined), nil
}
