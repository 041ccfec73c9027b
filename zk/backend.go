// Package zk defines the proving/verification interface the privacy pool's
// withdraw operation depends on. Circuit internals are out
// of scope; this package only fixes the boundary a real backend would plug
// into, with a deterministic stub implementation for tests and single-node
// development.
package zk

import (
	"context"
	"fmt"

	"github.com/latticebft/corechain/crypto"
)

// ProofRequest carries everything a backend needs to produce a proof: which
// program to run, the private witness, and the public commitments the
// verifier will check the proof against.
type ProofRequest struct {
	ProgramID   string   `json:"programId"`
	Witness     []byte   `json:"witness"`
	Commitments [][]byte `json:"commitments"`
}

// ProofArtifact is an opaque proof blob alongside the public inputs it was
// produced for.
type ProofArtifact struct {
	ProgramID   string   `json:"programId"`
	Commitments [][]byte `json:"commitments"`
	Proof       []byte   `json:"proof"`
}

// Backend proves and verifies zero-knowledge statements. Real
// implementations wrap an actual proving system; corechain ships only the
// interface and a deterministic stand-in.
type Backend interface {
	Prove(ctx context.Context, req ProofRequest) (*ProofArtifact, error)
	Verify(ctx context.Context, artifact ProofArtifact) error
}

// StubBackend deterministically derives a "proof" as BLAKE3 over the
// program id and public commitments, and verifies by recomputing the same
// digest from the artifact's public inputs alone. It proves nothing
// cryptographically — the witness is accepted but not bound into the
// digest, so this stub is not zero-knowledge — but it gives the runtime's
// PrivacyWithdraw path a concrete, swappable backend to exercise without a
// real circuit.
type StubBackend struct{}

// NewStubBackend constructs the deterministic stand-in backend.
func NewStubBackend() *StubBackend { return &StubBackend{} }

func (StubBackend) Prove(ctx context.Context, req ProofRequest) (*ProofArtifact, error) {
	if req.ProgramID == "" {
		return nil, fmt.Errorf("zk: programId is required")
	}
	digest := digestFor(req.ProgramID, req.Commitments)
	return &ProofArtifact{ProgramID: req.ProgramID, Commitments: req.Commitments, Proof: digest}, nil
}

func (StubBackend) Verify(ctx context.Context, artifact ProofArtifact) error {
	if len(artifact.Proof) != crypto.HashSize {
		return fmt.Errorf("zk: malformed proof for program %s", artifact.ProgramID)
	}
	want := digestFor(artifact.ProgramID, artifact.Commitments)
	for i := range want {
		if artifact.Proof[i] != want[i] {
			return fmt.Errorf("zk: proof does not match public inputs for program %s", artifact.ProgramID)
		}
	}
	return nil
}

func digestFor(programID string, commitments [][]byte) []byte {
	data := []byte(programID)
	for _, c := range commitments {
		data = append(data, c...)
	}
	return crypto.HashLeaf(data)
}
