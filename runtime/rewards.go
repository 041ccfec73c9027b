package runtime

import (
	"math/big"

	"github.com/google/uuid"

	"github.com/latticebft/corechain/core/events"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
	"github.com/latticebft/corechain/observability/metrics"
)

// mintInflation computes the per-block inflation mint, routes it between
// treasury, the block proposer's bonus, and validators (split further
// between self-stake and delegated stake, with commission deducted on the
// delegated portion), and increases total_supply by exactly the minted
// amount.
func (c *Context) mintInflation(proposerID uuid.UUID, height uint64, allEvents *[]types.Event) {
	_ = c.Store.WithState(func(s *types.ChainState) error {
		if s.TotalSupply == nil || s.TotalSupply.Sign() <= 0 || c.BlockTimeMs == 0 || s.RewardParams.MsPerYear == 0 {
			return nil
		}

		totalStake := big.NewInt(0)
		for _, v := range s.Validators {
			totalStake.Add(totalStake, v.Stake)
		}

		bondedBps := int64(0)
		if s.TotalSupply.Sign() > 0 {
			bonded := new(big.Int).Mul(totalStake, big.NewInt(10_000))
			bonded.Div(bonded, s.TotalSupply)
			bondedBps = bonded.Int64()
		}

		rateBps := s.RewardParams.MaxInflationBps
		if uint32(bondedBps) >= s.RewardParams.TargetStakeBps {
			rateBps = s.RewardParams.BaseInflationBps
		}
		if rateBps == 0 {
			return nil
		}

		blocksPerYear := s.RewardParams.MsPerYear / c.BlockTimeMs
		if blocksPerYear == 0 {
			return nil
		}

		mint := new(big.Int).Mul(s.TotalSupply, big.NewInt(int64(rateBps)))
		mint.Div(mint, big.NewInt(10_000))
		mint.Div(mint, new(big.Int).SetUint64(blocksPerYear))
		if mint.Sign() <= 0 {
			return nil
		}

		s.TotalSupply.Add(s.TotalSupply, mint)

		treasuryAmt := pctU8(mint, s.RewardParams.TreasuryPct)
		s.FeePools.Treasury.Add(s.FeePools.Treasury, treasuryAmt)
		remainder := new(big.Int).Sub(mint, treasuryAmt)

		proposerBonus := pctU8(remainder, s.RewardParams.ProposerBonusPct)
		if proposerBonus.Sign() > 0 {
			var proposerOwner crypto.Address
			for _, v := range s.Validators {
				if v.ID == proposerID {
					proposerOwner = v.Owner
					break
				}
			}
			if !proposerOwner.IsZero() {
				acc := getOrCreateAccount(s, proposerOwner)
				acc.Balance.Add(acc.Balance, proposerBonus)
			} else {
				s.FeePools.Treasury.Add(s.FeePools.Treasury, proposerBonus)
				proposerBonus = big.NewInt(0)
			}
		}
		validatorPool := new(big.Int).Sub(remainder, proposerBonus)

		if totalStake.Sign() > 0 {
			delegationsByValidator := make(map[uuid.UUID][]*types.Delegation)
			for _, d := range s.Delegations {
				delegationsByValidator[d.ValidatorID] = append(delegationsByValidator[d.ValidatorID], d)
			}

			for _, v := range s.Validators {
				if v.Stake.Sign() <= 0 {
					continue
				}
				validatorShare := new(big.Int).Mul(validatorPool, v.Stake)
				validatorShare.Div(validatorShare, totalStake)
				if validatorShare.Sign() <= 0 {
					continue
				}

				delegated := delegationsByValidator[v.ID]
				delegatedTotal := big.NewInt(0)
				for _, d := range delegated {
					delegatedTotal.Add(delegatedTotal, d.Stake)
				}

				delegatedShare := big.NewInt(0)
				if delegatedTotal.Sign() > 0 {
					delegatedShare = new(big.Int).Mul(validatorShare, delegatedTotal)
					delegatedShare.Div(delegatedShare, v.Stake)
				}
				selfShare := new(big.Int).Sub(validatorShare, delegatedShare)

				commission := pctU8(delegatedShare, v.CommissionRate)
				validatorPayout := new(big.Int).Add(selfShare, commission)
				delegatedRemainder := new(big.Int).Sub(delegatedShare, commission)

				ownerAcc := getOrCreateAccount(s, v.Owner)
				ownerAcc.Balance.Add(ownerAcc.Balance, validatorPayout)

				if delegatedTotal.Sign() > 0 && delegatedRemainder.Sign() > 0 {
					for _, d := range delegated {
						share := new(big.Int).Mul(delegatedRemainder, d.Stake)
						share.Div(share, delegatedTotal)
						if share.Sign() <= 0 {
							continue
						}
						delegatorAcc := getOrCreateAccount(s, d.Delegator)
						delegatorAcc.Balance.Add(delegatorAcc.Balance, share)
					}
				}
			}
		}

		s.LastRewardHeight = height
		metrics.Chain().IncInflationMinted()
		*allEvents = append(*allEvents, events.NewEvent(events.TypeInflationMinted, map[string]string{
			"amount": mint.String(), "height": uintToString(height),
		}))
		return nil
	})
}

func pctU8(amount *big.Int, p uint8) *big.Int {
	n := new(big.Int).Mul(amount, big.NewInt(int64(p)))
	return n.Div(n, big.NewInt(100))
}

func uintToString(v uint64) string {
	return big.NewInt(0).SetUint64(v).String()
}
