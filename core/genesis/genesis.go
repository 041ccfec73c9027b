// Package genesis loads a GenesisSpec JSON document into the initial
// ChainState and runtime configuration a node starts from: a plain JSON
// struct, validated eagerly, with no hidden defaults the operator did not
// ask for.
package genesis

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// ValidatorSpec describes one genesis validator's bonded stake.
type ValidatorSpec struct {
	Owner      string `json:"owner"`
	PubKeyHex  string `json:"pubKey"`
	Stake      string `json:"stake"`
	Commission uint8  `json:"commission"`
}

// AccountSpec seeds an account's starting balance.
type AccountSpec struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// GenesisSpec is the wire format for a chain's starting conditions: initial
// validators and funded accounts, plus the block-production and fee
// parameters a fresh node needs before it can produce its first block.
type GenesisSpec struct {
	ChainID            uint64          `json:"chainId"`
	InitialValidators  []ValidatorSpec `json:"initialValidators"`
	InitialAccounts    []AccountSpec   `json:"initialAccounts"`
	BlockTimeMs        uint64          `json:"blockTimeMs"`
	MaxGasPerBlock     uint64          `json:"maxGasPerBlock"`
	BaseFee            uint64          `json:"baseFee"`
	DASampleCount      uint32          `json:"daSampleCount"`
	SlashingDoubleSignBps uint32       `json:"slashingDoubleSignBps"`
	FeeSplit           types.FeeSplit  `json:"feeSplit"`
	InitialTotalSupply string         `json:"initialTotalSupply,omitempty"`
	RewardParams       *types.RewardParams `json:"rewardParams,omitempty"`
	GovernanceParams   *types.GovernanceParams `json:"governanceParams,omitempty"`
	UnbondingDelayBlocks uint64        `json:"unbondingDelayBlocks"`
	SlashPenaltyBps    uint32          `json:"slashPenaltyBps"`
}

// Config is the fully-validated, decoded runtime configuration derived from
// a GenesisSpec. Unlike GenesisSpec it carries parsed big.Int amounts and
// typed addresses, ready for direct use by the runtime and producer.
type Config struct {
	ChainID               uint64
	BlockTimeMs           uint64
	MaxGasPerBlock        uint64
	BaseFee               uint64
	DASampleCount         uint32
	SlashingDoubleSignBps uint32
	FeeSplit              types.FeeSplit
	UnbondingDelayBlocks  uint64
	SlashPenaltyBps       uint32
}

// Load parses raw JSON bytes into a GenesisSpec and builds the initial
// ChainState plus runtime Config.
func Load(raw []byte) (*types.ChainState, *Config, error) {
	var spec GenesisSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, nil, fmt.Errorf("genesis: decode: %w", err)
	}
	return Build(&spec)
}

// Build constructs a ChainState and Config from an already-decoded spec.
func Build(spec *GenesisSpec) (*types.ChainState, *Config, error) {
	if spec.ChainID == 0 {
		return nil, nil, fmt.Errorf("genesis: chainId must be non-zero")
	}
	if spec.BlockTimeMs == 0 {
		return nil, nil, fmt.Errorf("genesis: blockTimeMs must be non-zero")
	}
	if spec.MaxGasPerBlock == 0 {
		return nil, nil, fmt.Errorf("genesis: maxGasPerBlock must be non-zero")
	}

	state := types.NewChainState()

	for _, a := range spec.InitialAccounts {
		addr, err := crypto.DecodeAddress(a.Address)
		if err != nil {
			return nil, nil, fmt.Errorf("genesis: account %q: %w", a.Address, err)
		}
		bal, ok := new(big.Int).SetString(a.Balance, 10)
		if !ok {
			return nil, nil, fmt.Errorf("genesis: account %q: invalid balance %q", a.Address, a.Balance)
		}
		acc := types.NewAccount(addr)
		acc.Balance = bal
		state.Accounts[string(addr.Bytes())] = acc
	}

	totalStake := big.NewInt(0)
	for _, v := range spec.InitialValidators {
		owner, err := crypto.DecodeAddress(v.Owner)
		if err != nil {
			return nil, nil, fmt.Errorf("genesis: validator owner %q: %w", v.Owner, err)
		}
		pubkey, err := decodeHex(v.PubKeyHex)
		if err != nil {
			return nil, nil, fmt.Errorf("genesis: validator pubkey: %w", err)
		}
		stake, ok := new(big.Int).SetString(v.Stake, 10)
		if !ok {
			return nil, nil, fmt.Errorf("genesis: validator %q: invalid stake %q", v.Owner, v.Stake)
		}
		val := types.NewValidator(owner, pubkey, stake, v.Commission)
		state.Validators[val.ID] = val
		totalStake.Add(totalStake, stake)
	}
	if len(spec.InitialValidators) == 0 {
		return nil, nil, fmt.Errorf("genesis: at least one validator is required")
	}

	if spec.InitialTotalSupply != "" {
		supply, ok := new(big.Int).SetString(spec.InitialTotalSupply, 10)
		if !ok {
			return nil, nil, fmt.Errorf("genesis: invalid initialTotalSupply %q", spec.InitialTotalSupply)
		}
		state.TotalSupply = supply
	} else {
		supply := big.NewInt(0)
		for _, acc := range state.Accounts {
			supply.Add(supply, acc.Balance)
		}
		supply.Add(supply, totalStake)
		state.TotalSupply = supply
	}

	if spec.RewardParams != nil {
		state.RewardParams = *spec.RewardParams
	}
	if spec.GovernanceParams != nil {
		state.GovernanceParams = *spec.GovernanceParams
	}

	cfg := &Config{
		ChainID:               spec.ChainID,
		BlockTimeMs:           spec.BlockTimeMs,
		MaxGasPerBlock:        spec.MaxGasPerBlock,
		BaseFee:               spec.BaseFee,
		DASampleCount:         spec.DASampleCount,
		SlashingDoubleSignBps: spec.SlashingDoubleSignBps,
		FeeSplit:              spec.FeeSplit,
		UnbondingDelayBlocks:  spec.UnbondingDelayBlocks,
		SlashPenaltyBps:       spec.SlashPenaltyBps,
	}
	return state, cfg, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
