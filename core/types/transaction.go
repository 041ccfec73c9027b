package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/latticebft/corechain/crypto"
)

// PayloadKind enumerates the transaction intents the execution runtime
// dispatches on, one per per-payload semantics the runtime implements.
type PayloadKind uint8

const (
	PayloadTransfer PayloadKind = iota
	PayloadStake
	PayloadUnstake
	PayloadDelegate
	PayloadUndelegate
	PayloadDomainCreate
	PayloadDomainConfigUpdate
	PayloadDomainExecute
	PayloadCrossDomainSend
	PayloadCrossDomainRelay
	PayloadRollupBatchCommit
	PayloadRollupBridgeDeposit
	PayloadRollupBridgeWithdraw
	PayloadGovernanceProposal
	PayloadGovernanceVote
	PayloadGovernanceBridgeApprove
	PayloadGovernanceExecute
	PayloadSlash
	PayloadPrivacyDeposit
	PayloadPrivacyWithdraw
	PayloadSystemUpgrade
)

// TransferPayload moves value from the sender to To.
type TransferPayload struct {
	To     crypto.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

// StakePayload bonds Amount from the sender's balance into their own
// validator record.
type StakePayload struct {
	Amount *big.Int `json:"amount"`
}

// UnstakePayload begins unbonding Amount from the sender's validator record.
type UnstakePayload struct {
	Amount *big.Int `json:"amount"`
}

// DelegatePayload bonds Amount from the sender's balance to Validator.
type DelegatePayload struct {
	Validator uuid.UUID `json:"validator"`
	Amount    *big.Int  `json:"amount"`
}

// UndelegatePayload begins unbonding Amount from an existing delegation.
type UndelegatePayload struct {
	Validator uuid.UUID `json:"validator"`
	Amount    *big.Int  `json:"amount"`
}

// DomainCreatePayload registers a new domain.
type DomainCreatePayload struct {
	DomainID      uuid.UUID     `json:"domainId"`
	Kind          DomainKind    `json:"kind"`
	SecurityModel SecurityModel `json:"securityModel"`
	RiskParams    RiskParams    `json:"riskParams"`
}

// DomainConfigUpdatePayload updates an existing domain's risk parameters.
type DomainConfigUpdatePayload struct {
	DomainID   uuid.UUID  `json:"domainId"`
	RiskParams RiskParams `json:"riskParams"`
}

// DomainExecutePayload dispatches a call into a domain's VM.
type DomainExecutePayload struct {
	DomainID uuid.UUID `json:"domainId"`
	Call     []byte    `json:"call"`
}

// CrossDomainSendPayload allocates and enqueues an outbound message.
type CrossDomainSendPayload struct {
	FromDomain uuid.UUID `json:"fromDomain"`
	ToDomain   uuid.UUID `json:"toDomain"`
	Fee        uint64    `json:"fee"`
	Payload    []byte    `json:"payload"`
}

// CrossDomainRelayPayload delivers a message into a destination inbox.
type CrossDomainRelayPayload struct {
	Message CrossDomainMessage `json:"message"`
}

// RollupBatchCommitPayload appends a DA commitment to a domain's rollup
// ledger.
type RollupBatchCommitPayload struct {
	DomainID uuid.UUID `json:"domainId"`
	BlobID   string    `json:"blobId"`
	Root     []byte    `json:"root"`
}

// RollupBridgeDepositPayload moves funds from L1 balance into the bridge
// treasury on behalf of a rollup domain.
type RollupBridgeDepositPayload struct {
	DomainID uuid.UUID `json:"domainId"`
	Amount   *big.Int  `json:"amount"`
}

// RollupBridgeWithdrawPayload credits the sender the mirror image of a prior
// deposit.
type RollupBridgeWithdrawPayload struct {
	DomainID uuid.UUID `json:"domainId"`
	Amount   *big.Int  `json:"amount"`
}

// GovernanceProposalPayload opens a new governance item.
type GovernanceProposalPayload struct {
	Kind    ProposalKind `json:"kind"`
	Payload []byte       `json:"payload"`
}

// GovernanceVotePayload casts a weighted ballot.
type GovernanceVotePayload struct {
	ProposalID uint64     `json:"proposalId"`
	Choice     VoteChoice `json:"choice"`
}

// GovernanceBridgeApprovePayload records a multisig roster approval for a
// bridge-style proposal.
type GovernanceBridgeApprovePayload struct {
	ProposalID uint64 `json:"proposalId"`
}

// GovernanceExecutePayload applies a queued proposal's effects.
type GovernanceExecutePayload struct {
	ProposalID uint64 `json:"proposalId"`
}

// SlashPayload records a stake penalty against Validator.
type SlashPayload struct {
	Validator   uuid.UUID `json:"validator"`
	PenaltyBps  uint32    `json:"penaltyBps"`
	Reason      string    `json:"reason"`
}

// PrivacyDepositPayload shields Amount under Commitment.
type PrivacyDepositPayload struct {
	Commitment []byte   `json:"commitment"`
	Amount     *big.Int `json:"amount"`
}

// PrivacyWithdrawPayload unshields Amount to Recipient, proving ownership of
// Commitment via a ZK proof over {nullifier, merkleRoot, recipient, amount,
// commitment}.
type PrivacyWithdrawPayload struct {
	Nullifier  []byte         `json:"nullifier"`
	Recipient  crypto.Address `json:"recipient"`
	Amount     *big.Int       `json:"amount"`
	MerkleRoot []byte         `json:"merkleRoot"`
	Commitment []byte         `json:"commitment"`
	Proof      []byte         `json:"proof"`
}

// SystemUpgradePayload queues a timelocked protocol upgrade.
type SystemUpgradePayload struct {
	Module  string `json:"module"`
	Version string `json:"version"`
}

// Tx is a signed transaction. The signing domain is BLAKE3 of a canonical
// encoding of every field except Signature.
type Tx struct {
	ChainID         uint64      `json:"chainId"`
	Nonce           uint64      `json:"nonce"`
	GasLimit        uint64      `json:"gasLimit"`
	MaxFee          *big.Int    `json:"maxFee,omitempty"`
	MaxPriorityFee  *big.Int    `json:"maxPriorityFee,omitempty"`
	GasPrice        *big.Int    `json:"gasPrice,omitempty"`
	PayloadKind     PayloadKind `json:"payloadKind"`
	Payload         json.RawMessage `json:"payload"`
	PublicKey       []byte      `json:"publicKey"`
	Signature       []byte      `json:"signature,omitempty"`

	cachedFrom *crypto.Address
}

// SigningBytes returns the canonical encoding signed over: every field
// except Signature.
func (tx *Tx) SigningBytes() ([]byte, error) {
	view := struct {
		ChainID        uint64          `json:"chainId"`
		Nonce          uint64          `json:"nonce"`
		GasLimit       uint64          `json:"gasLimit"`
		MaxFee         *big.Int        `json:"maxFee,omitempty"`
		MaxPriorityFee *big.Int        `json:"maxPriorityFee,omitempty"`
		GasPrice       *big.Int        `json:"gasPrice,omitempty"`
		PayloadKind    PayloadKind     `json:"payloadKind"`
		Payload        json.RawMessage `json:"payload"`
		PublicKey      []byte          `json:"publicKey"`
	}{tx.ChainID, tx.Nonce, tx.GasLimit, tx.MaxFee, tx.MaxPriorityFee, tx.GasPrice, tx.PayloadKind, tx.Payload, tx.PublicKey}
	return json.Marshal(view)
}

// Hash returns the BLAKE3 digest of the transaction's signing bytes.
func (tx *Tx) Hash() ([]byte, error) {
	b, err := tx.SigningBytes()
	if err != nil {
		return nil, err
	}
	return crypto.HashLeaf(b), nil
}

// Sign signs the transaction with priv, populating PublicKey and Signature.
func (tx *Tx) Sign(priv *crypto.PrivateKey) error {
	tx.PublicKey = priv.PubKey().Bytes()
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	tx.Signature = priv.Sign(hash)
	tx.cachedFrom = nil
	return nil
}

// From recovers the sender address, verifying the signature in the process.
func (tx *Tx) From() (crypto.Address, error) {
	if tx.cachedFrom != nil {
		return *tx.cachedFrom, nil
	}
	if len(tx.Signature) == 0 || len(tx.PublicKey) == 0 {
		return crypto.Address{}, fmt.Errorf("invalid-signature: transaction missing signature")
	}
	pub, err := crypto.PublicKeyFromBytes(tx.PublicKey)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("invalid-signature: %w", err)
	}
	hash, err := tx.Hash()
	if err != nil {
		return crypto.Address{}, err
	}
	if !pub.Verify(hash, tx.Signature) {
		return crypto.Address{}, fmt.Errorf("invalid-signature: signature does not verify")
	}
	addr := pub.Address()
	tx.cachedFrom = &addr
	return addr, nil
}

// DecodePayload unmarshals tx.Payload into dst.
func (tx *Tx) DecodePayload(dst interface{}) error {
	return json.Unmarshal(tx.Payload, dst)
}

// EncodePayload marshals src into tx.Payload alongside the matching kind.
func EncodePayload(kind PayloadKind, src interface{}) (PayloadKind, json.RawMessage, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return kind, nil, err
	}
	return kind, raw, nil
}
