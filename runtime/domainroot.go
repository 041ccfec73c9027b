package runtime

import (
	"encoding/binary"
	"sort"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// computeDomainRoot hashes a domain's kv entries, inbox, outbox, and
// sequence counters into leaves, sorts them, and folds them into a single
// BLAKE3 digest — the same order-independent commitment shape the state
// store uses for its own root, applied here at domain granularity.
func computeDomainRoot(ds *types.DomainState) []byte {
	if ds == nil {
		return make([]byte, crypto.HashSize)
	}
	var leaves [][]byte
	keys := make([]string, 0, len(ds.KV))
	for k := range ds.KV {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		leaves = append(leaves, crypto.HashLeaf(append([]byte(k+":"), ds.KV[k]...)))
	}
	for _, m := range ds.Inbox {
		leaves = append(leaves, crypto.HashLeaf(messageBytes(m)))
	}
	for _, m := range ds.Outbox {
		leaves = append(leaves, crypto.HashLeaf(messageBytes(m)))
	}
	var seqBuf [16]byte
	binary.BigEndian.PutUint64(seqBuf[:8], ds.NextInSeq)
	binary.BigEndian.PutUint64(seqBuf[8:], ds.NextOutSeq)
	leaves = append(leaves, crypto.HashLeaf(seqBuf[:]))

	if len(leaves) == 0 {
		return make([]byte, crypto.HashSize)
	}
	sort.Slice(leaves, func(i, j int) bool { return lessLeaf(leaves[i], leaves[j]) })
	h := crypto.NewHasher()
	for _, l := range leaves {
		h.Write(l)
	}
	return h.Sum(nil)
}

func messageBytes(m types.CrossDomainMessage) []byte {
	var buf []byte
	buf = append(buf, m.From[:]...)
	buf = append(buf, m.To[:]...)
	var tmp [16]byte
	binary.BigEndian.PutUint64(tmp[:8], m.Nonce)
	binary.BigEndian.PutUint64(tmp[8:], m.Fee)
	buf = append(buf, tmp[:]...)
	buf = append(buf, m.Payload...)
	return buf
}

func lessLeaf(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
