package state

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// ComputeStateRoot folds every entity in every collection into a single
// commitment: each becomes one leaf (BLAKE3 of its canonical JSON encoding),
// the leaves are sorted so the result does not depend on map iteration
// order, and the sorted leaves are folded into a single BLAKE3 hasher. A nil
// state yields 32 zero bytes; a non-nil state always contributes the
// fee-pool, parameter, supply and counter leaves, so its root is never all
// zeros.
func ComputeStateRoot(s *types.ChainState) []byte {
	if s == nil {
		return make([]byte, crypto.HashSize)
	}

	var leaves [][]byte
	leaves = appendLeaves(leaves, "account", sortedValues(s.Accounts))
	leaves = appendLeaves(leaves, "validator", sortedValidatorValues(s.Validators))
	for _, d := range s.Delegations {
		leaves = append(leaves, leafFor("delegation", d))
	}
	leaves = appendLeaves(leaves, "domain", sortedDomainValues(s.Domains))
	leaves = appendLeaves(leaves, "domainstate", sortedDomainStateValues(s.DomainState))
	leaves = appendLeaves(leaves, "domainroot", sortedDomainRootValues(s.DomainRoots))
	for _, rec := range s.DACommitments {
		leaves = append(leaves, leafFor("dacommitment", rec))
	}
	leaves = appendLeaves(leaves, "proposal", sortedProposalValues(s.Proposals))
	leaves = append(leaves, leafFor("feepools", s.FeePools))
	leaves = appendLeaves(leaves, "privacypool", sortedPrivacyValues(s.PrivacyPools))
	for _, u := range s.PendingUnbonds {
		leaves = append(leaves, leafFor("unbonding", u))
	}
	leaves = append(leaves, leafFor("governanceparams", s.GovernanceParams))
	leaves = append(leaves, leafFor("rewardparams", s.RewardParams))
	leaves = append(leaves, leafFor("supply", s.TotalSupply))
	leaves = append(leaves, leafFor("nextproposalid", s.NextProposalID))
	leaves = append(leaves, leafFor("lastrewardheight", s.LastRewardHeight))

	return foldHashes(leaves)
}

func leafFor(tag string, v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		panic("state: canonical encode failed: " + err.Error())
	}
	data := append([]byte(tag+":"), payload...)
	return crypto.HashLeaf(data)
}

func appendLeaves(leaves [][]byte, tag string, values []interface{}) [][]byte {
	for _, v := range values {
		leaves = append(leaves, leafFor(tag, v))
	}
	return leaves
}

// foldHashes sorts the leaves lexicographically and streams them into a
// single BLAKE3 hasher: order-independent, with the empty-leaf-set case
// special-cased to all-zero bytes rather than the hasher's digest of no
// input.
func foldHashes(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return make([]byte, crypto.HashSize)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return lessBytes(leaves[i], leaves[j])
	})
	h := crypto.NewHasher()
	for _, leaf := range leaves {
		h.Write(leaf)
	}
	return h.Sum(nil)
}

func lessBytes(a, b []byte) bool {
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

func sortedValues(m map[string]*types.Account) []interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func sortedUUIDKeys(keys []uuid.UUID) {
	sort.Slice(keys, func(i, j int) bool { return lessUUIDKey(keys[i], keys[j]) })
}

func lessUUIDKey(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func sortedValidatorValues(m map[uuid.UUID]*types.Validator) []interface{} {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortedUUIDKeys(keys)
	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func sortedDomainValues(m map[uuid.UUID]*types.DomainEntry) []interface{} {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortedUUIDKeys(keys)
	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func sortedDomainStateValues(m map[uuid.UUID]*types.DomainState) []interface{} {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortedUUIDKeys(keys)
	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func sortedDomainRootValues(m map[uuid.UUID][]byte) []interface{} {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortedUUIDKeys(keys)
	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, map[string]interface{}{"domainId": k, "root": m[k]})
	}
	return out
}

func sortedProposalValues(m map[uint64]*types.Proposal) []interface{} {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func sortedPrivacyValues(m map[string]*types.PrivacyPool) []interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
