package bft

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/google/uuid"

	rerrors "github.com/latticebft/corechain/core/errors"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// voteTally accumulates stake-weighted votes for one (block_id, view) pair.
type voteTally struct {
	stake      *big.Int
	voters     map[uuid.UUID]bool
	signatures [][]byte
	voterKeys  [][]byte
}

// Engine is the view-based quorum-certificate consensus state machine.
// Every operation serialises through a single mutex: callers never observe
// interleaved state transitions.
type Engine struct {
	mu sync.Mutex

	log *slog.Logger

	validators []*types.Validator
	byID       map[uuid.UUID]*types.Validator
	totalStake *big.Int

	view   uint64
	height uint64

	lockedQC  *QuorumCertificate
	pendingQC *QuorumCertificate

	blockTree   map[string]*types.Block
	tallies     map[string]*voteTally
	commitQueue []string
}

// NewEngine constructs the engine over a fixed validator roster snapshot.
// The roster's order is significant: it is the order leader selection walks
// while subtracting stake.
func NewEngine(validators []*types.Validator, startHeight uint64, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	total := big.NewInt(0)
	byID := make(map[uuid.UUID]*types.Validator, len(validators))
	for _, v := range validators {
		total.Add(total, v.Stake)
		byID[v.ID] = v
	}
	return &Engine{
		log:        log,
		validators: validators,
		byID:       byID,
		totalStake: total,
		height:     startHeight,
		blockTree:  make(map[string]*types.Block),
		tallies:    make(map[string]*voteTally),
	}
}

// QuorumThreshold returns floor(2*total_stake/3)+1.
func (e *Engine) QuorumThreshold() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quorumThresholdLocked()
}

func (e *Engine) quorumThresholdLocked() *big.Int {
	t := new(big.Int).Mul(e.totalStake, big.NewInt(2))
	t.Div(t, big.NewInt(3))
	return t.Add(t, big.NewInt(1))
}

// LeaderForView selects the leader for a view by stake-weighted round-robin:
// slot = view mod total_stake, walking validators in stored order subtracting
// stake until slot < v.stake. An empty roster has no leader.
func (e *Engine) LeaderForView(view uint64) *types.Validator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leaderForViewLocked(view)
}

func (e *Engine) leaderForViewLocked(view uint64) *types.Validator {
	if len(e.validators) == 0 || e.totalStake.Sign() <= 0 {
		return nil
	}
	slot := new(big.Int).Mod(new(big.Int).SetUint64(view), e.totalStake)
	for _, v := range e.validators {
		if slot.Cmp(v.Stake) < 0 {
			return v
		}
		slot.Sub(slot, v.Stake)
	}
	return e.validators[len(e.validators)-1]
}

// View returns the engine's current view.
func (e *Engine) View() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Height returns the engine's current height.
func (e *Engine) Height() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height
}

// Propose verifies the proposer pubkey hashes to the block's proposer id,
// verifies the signature over hash_block(block), records the block, and
// advances the view. A proposal from a non-leader is accepted and merely
// logged: correctness relies on the 2/3 stake quorum, not on leader
// enforcement.
func (e *Engine) Propose(sp *SignedProposal) error {
	if sp == nil || sp.Block == nil || sp.Block.Header == nil {
		return fmt.Errorf("%w: nil proposal", rerrors.ErrInvalidSignature)
	}
	pub, err := crypto.PublicKeyFromBytes(sp.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: %v", rerrors.ErrInvalidSignature, err)
	}
	if types.ValidatorID(sp.PublicKey) != sp.Block.Header.ProposerID {
		return fmt.Errorf("%w: proposer pubkey does not hash to proposer id", rerrors.ErrInvalidSignature)
	}
	blockHash, err := types.HashBlock(sp.Block)
	if err != nil {
		return fmt.Errorf("hash block: %w", err)
	}
	if !pub.Verify(blockHash, sp.Signature) {
		return fmt.Errorf("%w: proposal signature", rerrors.ErrInvalidSignature)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if leader := e.leaderForViewLocked(e.view); leader == nil || leader.ID != sp.Block.Header.ProposerID {
		e.log.Warn("proposal from non-leader accepted", "view", e.view, "proposer", sp.Block.Header.ProposerID.String())
	}
	e.blockTree[hex.EncodeToString(blockHash)] = sp.Block
	e.view++
	return nil
}

// Vote verifies the voter is a known validator whose pubkey matches,
// verifies the signature over (block_id, view), deduplicates by voter, and
// forms a QuorumCertificate once cumulative stake reaches the quorum
// threshold. Duplicate votes are idempotent; an unknown voter or bad
// signature is rejected without mutating state.
func (e *Engine) Vote(sv *SignedVote) error {
	if sv == nil {
		return fmt.Errorf("%w: nil vote", rerrors.ErrInvalidSignature)
	}
	voterID := types.ValidatorID(sv.PublicKey)
	pub, err := crypto.PublicKeyFromBytes(sv.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: %v", rerrors.ErrInvalidSignature, err)
	}
	if !pub.Verify(voteSignBytes(sv.BlockID, sv.View), sv.Signature) {
		return fmt.Errorf("%w: vote signature", rerrors.ErrInvalidSignature)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.byID[voterID]
	if !ok {
		return fmt.Errorf("%w: unknown voter", rerrors.ErrQuorumVoteRejected)
	}

	key := tallyKey(sv.BlockID, sv.View)
	tally, ok := e.tallies[key]
	if !ok {
		tally = &voteTally{stake: big.NewInt(0), voters: make(map[uuid.UUID]bool)}
		e.tallies[key] = tally
	}
	if tally.voters[voterID] {
		return nil
	}
	tally.voters[voterID] = true
	tally.stake.Add(tally.stake, v.Stake)
	tally.signatures = append(tally.signatures, sv.Signature)
	tally.voterKeys = append(tally.voterKeys, sv.PublicKey)

	if tally.stake.Cmp(e.quorumThresholdLocked()) < 0 {
		return nil
	}

	qc := &QuorumCertificate{
		BlockID:    append([]byte(nil), sv.BlockID...),
		View:       sv.View,
		Signatures: tally.signatures,
		Voters:     tally.voterKeys,
	}
	e.pendingQC = qc
	e.lockedQC = qc
	e.commitQueue = append(e.commitQueue, hex.EncodeToString(sv.BlockID))
	e.log.Info("quorum reached", "view", sv.View, "blockId", hex.EncodeToString(sv.BlockID))
	return nil
}

// OnQC adopts the certificate, advances height, and enqueues the committed
// block's parent as a 3-chain commit approximation.
func (e *Engine) OnQC(qc *QuorumCertificate) {
	if qc == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lockedQC = qc
	e.height++
	if block, ok := e.blockTree[hex.EncodeToString(qc.BlockID)]; ok && block.Header != nil && len(block.Header.ParentHash) > 0 {
		e.commitQueue = append(e.commitQueue, hex.EncodeToString(block.Header.ParentHash))
	}
}

// OnTimeout advances the view only if it has not already moved past the
// timed-out view.
func (e *Engine) OnTimeout(view uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == view {
		e.view++
		e.log.Info("view timeout", "view", view, "newView", e.view)
	}
}

// PopCommit drains one block id from the commit queue, FIFO.
func (e *Engine) PopCommit() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.commitQueue) == 0 {
		return "", false
	}
	id := e.commitQueue[0]
	e.commitQueue = e.commitQueue[1:]
	return id, true
}

// RecordSlash hashes evidence and appends it to the commit queue as an
// observability artifact. Consensus never executes slashing itself: actual
// stake reduction happens through a Slash transaction applied by the
// runtime.
func (e *Engine) RecordSlash(evidence []byte) []byte {
	digest := crypto.HashLeaf(evidence)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commitQueue = append(e.commitQueue, "slash:"+hex.EncodeToString(digest))
	e.log.Warn("slash evidence recorded", "digest", hex.EncodeToString(digest))
	return digest
}

// PendingQC returns the most recently formed certificate.
func (e *Engine) PendingQC() *QuorumCertificate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingQC
}

// LockedQC returns the last certificate the engine has locked on.
func (e *Engine) LockedQC() *QuorumCertificate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lockedQC
}

// Validators returns the roster snapshot the engine was constructed with.
func (e *Engine) Validators() []*types.Validator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validators
}

// TotalStake returns the sum of roster stake at construction time.
func (e *Engine) TotalStake() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(big.Int).Set(e.totalStake)
}

func tallyKey(blockID []byte, view uint64) string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(blockID), view)
}
