// Package mempool holds pending transactions awaiting block inclusion,
// ordered by a fee-based priority score and capped at a fixed size.
package mempool

import (
	"encoding/hex"
	"math/big"
	"sort"
	"sync"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/observability/metrics"
)

// Cap is the maximum number of pending transactions held at once. Overflow
// drops new transactions.
const Cap = 10_000

// Pool is a priority-ordered, hash-deduplicated transaction pool. All state
// is owned behind a single lock so concurrent callers never interleave.
type Pool struct {
	mu     sync.Mutex
	byHash map[string]*types.Tx
	order  []string
}

// New constructs an empty pool.
func New() *Pool {
	return &Pool{byHash: make(map[string]*types.Tx)}
}

// Add inserts tx if it isn't already indexed and the pool has room. The
// returned bool reports whether tx was accepted; duplicates and overflow are
// not errors, just rejections.
func (p *Pool) Add(tx *types.Tx) (bool, error) {
	hash, err := tx.Hash()
	if err != nil {
		return false, err
	}
	key := hex.EncodeToString(hash)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byHash[key]; exists {
		metrics.Chain().IncMempoolRejection("duplicate")
		return false, nil
	}
	if len(p.byHash) >= Cap {
		metrics.Chain().IncMempoolRejection("full")
		return false, nil
	}
	p.byHash[key] = tx
	p.order = append(p.order, key)
	metrics.Chain().SetMempoolSize(float64(len(p.byHash)))
	return true, nil
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byHash)
}

// Remove drops tx by hash, e.g. once its containing block commits.
func (p *Pool) Remove(hash []byte) {
	key := hex.EncodeToString(hash)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byHash[key]; !ok {
		return
	}
	delete(p.byHash, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	metrics.Chain().SetMempoolSize(float64(len(p.byHash)))
}

// Drain returns up to limit pending transactions ordered by priority score
// descending. It does not remove anything; callers Remove once the block
// that included them commits.
func (p *Pool) Drain(limit int) []*types.Tx {
	p.mu.Lock()
	txs := make([]*types.Tx, 0, len(p.order))
	for _, k := range p.order {
		txs = append(txs, p.byHash[k])
	}
	p.mu.Unlock()

	sort.SliceStable(txs, func(i, j int) bool {
		return priority(txs[i]).Cmp(priority(txs[j])) > 0
	})
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}
	return txs
}

// priority scores a tx as max_fee+max_priority_fee (EIP-1559 style) when
// either is set, else gas_price, else zero.
func priority(tx *types.Tx) *big.Int {
	if tx.MaxFee != nil || tx.MaxPriorityFee != nil {
		total := big.NewInt(0)
		if tx.MaxFee != nil {
			total.Add(total, tx.MaxFee)
		}
		if tx.MaxPriorityFee != nil {
			total.Add(total, tx.MaxPriorityFee)
		}
		return total
	}
	if tx.GasPrice != nil {
		return tx.GasPrice
	}
	return big.NewInt(0)
}
