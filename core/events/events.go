// Package events names the event types the runtime emits.
package events

const (
	TypeTransfer            = "transfer"
	TypeStake               = "stake"
	TypeUnstake              = "unstake"
	TypeDelegate             = "delegate"
	TypeUndelegate           = "undelegate"
	TypeUnbondingMatured     = "unbonding.matured"
	TypeDomainCreated        = "domain.created"
	TypeDomainConfigUpdated  = "domain.config_updated"
	TypeDomainExecuted       = "domain.executed"
	TypeCrossDomainSent      = "cross_domain.sent"
	TypeCrossDomainRelayed   = "cross_domain.relayed"
	TypeRollupBatchCommitted = "rollup.batch_committed"
	TypeRollupDeposit        = "rollup.bridge_deposit"
	TypeRollupWithdraw       = "rollup.bridge_withdraw"
	TypeGovernanceProposed   = "gov.proposed"
	TypeGovernanceVoted      = "gov.voted"
	TypeGovernanceFinalized  = "gov.finalized"
	TypeGovernanceQueued     = "gov.queued"
	TypeGovernanceApproved   = "gov.approved"
	TypeGovernanceExecuted   = "gov.executed"
	TypeSlash                = "slash"
	TypePrivacyDeposit       = "privacy.deposit"
	TypePrivacyWithdraw      = "privacy.withdraw"
	TypeSystemUpgradeQueued  = "system.upgrade_queued"
	TypeInflationMinted      = "inflation.minted"
	TypeGasRouted            = "gas.routed"
)
