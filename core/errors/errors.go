// Package errors collects the node's sentinel error kinds: one invalid
// condition per concern (signatures, nonces, funds, staking, domains, DA,
// consensus, governance), each wrapped with context via
// fmt.Errorf("%w", ...) at the call site rather than a generic error-code
// enum.
package errors

import "errors"

var (
	ErrInvalidSignature       = errors.New("invalid-signature")
	ErrWrongChainID           = errors.New("wrong-chain-id")
	ErrBadNonce               = errors.New("bad-nonce")
	ErrInsufficientFunds      = errors.New("insufficient-funds")
	ErrInsufficientStake      = errors.New("insufficient-stake")
	ErrUnknownValidator       = errors.New("unknown-validator")
	ErrUnknownDomain          = errors.New("unknown-domain")
	ErrRiskParamViolation     = errors.New("risk-param-violation")
	ErrDoubleSpendNullifier   = errors.New("double-spend-nullifier")
	ErrMerkleRootMismatch     = errors.New("merkle-root-mismatch")
	ErrCommitmentUnknown      = errors.New("commitment-unknown")
	ErrProofVerifyFailed      = errors.New("proof-verify-failed")
	ErrQuorumVoteRejected     = errors.New("quorum-vote-rejected")
	ErrBlockGasExceeded       = errors.New("block-gas-exceeded")
	ErrDANotAvailable         = errors.New("da-not-available")
	ErrDARootMismatch         = errors.New("da-root-mismatch")
	ErrGovernanceStageViolation = errors.New("governance-stage-violation")
	ErrMultisigNotAuthorized  = errors.New("multisig-not-authorized")
	ErrOverflow               = errors.New("overflow")
)
