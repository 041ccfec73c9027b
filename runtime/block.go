package runtime

import (
	"fmt"

	rerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/core/events"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/observability/metrics"
)

// ApplyBlock applies every transaction in order, aborting the whole block
// on the first error or on exceeding the gas limit, credits matured
// unbondings, mints inflation rewards, and seals the state root.
func (c *Context) ApplyBlock(block *types.Block, now int64) (*BlockResult, error) {
	height := block.Header.Height
	var totalGas uint64
	var allEvents []types.Event

	for _, tx := range block.Transactions {
		res, err := c.ApplyTx(tx, height, now)
		if err != nil {
			metrics.Chain().IncTxApplied(fmt.Sprintf("%d", tx.PayloadKind), "rejected")
			return nil, fmt.Errorf("apply tx at height %d: %w", height, err)
		}
		metrics.Chain().IncTxApplied(fmt.Sprintf("%d", tx.PayloadKind), "applied")
		totalGas += res.GasUsed
		if totalGas > c.MaxGasPerBlock {
			return nil, fmt.Errorf("%w: height %d used %d > limit %d", rerrors.ErrBlockGasExceeded, height, totalGas, c.MaxGasPerBlock)
		}
		allEvents = append(allEvents, res.Events...)
	}

	c.creditMaturedUnbonds(height, &allEvents)
	c.mintInflation(block.Header.ProposerID, height, &allEvents)

	root := c.Store.Commit()
	metrics.Chain().ObserveBlockGasUsed(float64(totalGas))
	metrics.Chain().IncBlocksCommitted()

	return &BlockResult{StateRoot: root, GasUsed: totalGas, Events: allEvents}, nil
}

// creditMaturedUnbonds credits every pending unbonding entry with
// release_height <= height to its owner's balance and removes it.
func (c *Context) creditMaturedUnbonds(height uint64, allEvents *[]types.Event) {
	_ = c.Store.WithState(func(s *types.ChainState) error {
		var remaining []*types.Unbonding
		for _, u := range s.PendingUnbonds {
			if u.ReleaseHeight > height {
				remaining = append(remaining, u)
				continue
			}
			acc := getOrCreateAccount(s, u.Owner)
			acc.Balance.Add(acc.Balance, u.Amount)
			*allEvents = append(*allEvents, events.NewEvent(events.TypeUnbondingMatured, map[string]string{
				"owner": u.Owner.String(), "amount": u.Amount.String(),
			}))
		}
		s.PendingUnbonds = remaining
		return nil
	})
}
