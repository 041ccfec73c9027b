package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DomainKind enumerates the execution environments a domain may run.
type DomainKind uint8

const (
	DomainEVM DomainKind = iota
	DomainWASM
	DomainPrivacy
	DomainPayment
	DomainCustom
)

// SecurityModel describes whether a domain inherits validator-set security
// or is responsible for its own.
type SecurityModel uint8

const (
	SecuritySharedSecurity SecurityModel = iota
	SecurityOwnSecurity
)

// RiskParams is the bounded, validated configuration attached to a domain.
// Only maxLossBps and riskCap are enforced; everything else in the opaque
// JSON document is passed through untouched.
type RiskParams struct {
	MaxLossBps uint32          `json:"maxLossBps"`
	RiskCap    *json.Number    `json:"riskCap,omitempty"`
	Extra      json.RawMessage `json:"extra,omitempty"`
}

// Validate enforces bounded risk parameters: max_loss_bps <= 10000, and
// risk_cap > 0 when present.
func (r RiskParams) Validate() error {
	const maxBps = 10_000
	if r.MaxLossBps > maxBps {
		return fmt.Errorf("risk-param-violation: maxLossBps %d exceeds %d", r.MaxLossBps, maxBps)
	}
	if r.RiskCap != nil {
		f, err := r.RiskCap.Float64()
		if err != nil {
			return fmt.Errorf("risk-param-violation: riskCap not numeric: %w", err)
		}
		if f <= 0 {
			return fmt.Errorf("risk-param-violation: riskCap must be > 0 when present")
		}
	}
	return nil
}

// DomainEntry registers an isolated execution namespace with its own VM and
// state root.
type DomainEntry struct {
	DomainID      uuid.UUID     `json:"domainId"`
	Kind          DomainKind    `json:"kind"`
	SecurityModel SecurityModel `json:"securityModel"`
	RiskParams    RiskParams    `json:"riskParams"`
}

// CrossDomainMessage is ordered by Nonce per (From) pair; it lives in the
// outbox of its source domain and the inbox of its destination.
type CrossDomainMessage struct {
	From    uuid.UUID `json:"from"`
	To      uuid.UUID `json:"to"`
	Nonce   uint64    `json:"nonce"`
	Fee     uint64    `json:"fee"`
	Payload []byte    `json:"payload"`
}

// DomainState is the per-domain ledger of opaque key/value storage plus its
// cross-domain message queues.
type DomainState struct {
	KV         map[string][]byte     `json:"kv"`
	Inbox      []CrossDomainMessage  `json:"inbox"`
	Outbox     []CrossDomainMessage  `json:"outbox"`
	NextInSeq  uint64                `json:"nextInNonce"`
	NextOutSeq uint64                `json:"nextOutNonce"`
}

// NewDomainState returns an empty domain ledger.
func NewDomainState() *DomainState {
	return &DomainState{KV: make(map[string][]byte)}
}

// Clone returns a deep copy safe for independent mutation.
func (d *DomainState) Clone() *DomainState {
	if d == nil {
		return nil
	}
	clone := &DomainState{
		KV:         make(map[string][]byte, len(d.KV)),
		Inbox:      append([]CrossDomainMessage(nil), d.Inbox...),
		Outbox:     append([]CrossDomainMessage(nil), d.Outbox...),
		NextInSeq:  d.NextInSeq,
		NextOutSeq: d.NextOutSeq,
	}
	for k, v := range d.KV {
		clone.KV[k] = append([]byte(nil), v...)
	}
	return clone
}
