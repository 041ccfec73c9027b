package types

import "math/big"

// FeePools accumulates the protocol-level fee destinations: L1 gas,
// data-availability, sequencer, and treasury.
type FeePools struct {
	L1Gas      *big.Int `json:"l1Gas"`
	DA         *big.Int `json:"da"`
	Sequencer  *big.Int `json:"sequencer"`
	Treasury   *big.Int `json:"treasury"`
}

// NewFeePools returns a zeroed set of accumulators.
func NewFeePools() FeePools {
	return FeePools{
		L1Gas:     big.NewInt(0),
		DA:        big.NewInt(0),
		Sequencer: big.NewInt(0),
		Treasury:  big.NewInt(0),
	}
}

// FeeSplit controls gas fee routing percentages. Percentages are not
// required to sum to 100; the runtime never enforces that — a misconfigured
// split is the operator's responsibility.
type FeeSplit struct {
	L1GasBurnPct       uint8 `json:"l1GasBurnPct"`
	L1GasValidatorsPct uint8 `json:"l1GasValidatorsPct"`
	DAValidatorsPct    uint8 `json:"daValidatorsPct"`
	DANodesPct         uint8 `json:"daNodesPct"`
	DATreasuryPct      uint8 `json:"daTreasuryPct"`
	L2SequencerPct     uint8 `json:"l2SequencerPct"`
	L2DACostsPct       uint8 `json:"l2DaCostsPct"`
	L2L1RentPct        uint8 `json:"l2L1RentPct"`
}

// GovernanceParams captures the runtime's tunable governance knobs, owned by
// genesis and threaded explicitly rather than held as a package-level
// singleton.
type GovernanceParams struct {
	VotingPeriodMs   uint64 `json:"votingPeriodMs"`
	TimelockMs       uint64 `json:"timelockMs"`
	QuorumBps        uint32 `json:"quorumBps"`
	ApprovalBps      uint32 `json:"approvalBps"`
	MultisigRoster   []string `json:"multisigRoster"`
	MultisigThreshold int     `json:"multisigThreshold"`
}

// RewardParams controls inflation-rewards minting and distribution.
type RewardParams struct {
	BaseInflationBps  uint32 `json:"baseInflationBps"`
	MaxInflationBps   uint32 `json:"maxInflationBps"`
	TargetStakeBps    uint32 `json:"targetStakeBps"`
	TreasuryPct       uint8  `json:"treasuryPct"`
	ProposerBonusPct  uint8  `json:"proposerBonusPct"`
	MsPerYear         uint64 `json:"msPerYear"`
}
