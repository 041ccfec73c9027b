// Package producer implements the block production loop: a periodic tick
// that, when this replica is the leader, drains the mempool, submits the
// batch to the DA layer, executes and seals a block, proposes and
// self-votes it through consensus, and drains the commit queue. It also
// implements inbound-message handling from the network and runs every
// long-lived task through a cooperative errgroup.
package producer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/latticebft/corechain/consensus/bft"
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
	"github.com/latticebft/corechain/da"
	"github.com/latticebft/corechain/mempool"
	"github.com/latticebft/corechain/network"
	"github.com/latticebft/corechain/runtime"
)

// NetPort is the subset of network capabilities a producer Node needs: it
// can broadcast and it has an inbox of inbound messages and transactions.
type NetPort interface {
	network.Broadcaster
	network.Inbox
}

// Config tunes the production loop. Gas/fee parameters live on the
// runtime.Context already; this only carries loop timing and batch sizing.
type Config struct {
	BlockTimeMs    uint64
	ViewTimeoutMs  uint64
	MaxTxsPerBlock int
}

// Node drives block production and consensus message handling for one
// replica. Shared mutable state (chain head bookkeeping) is protected by a
// single mutex; the heavier state (ChainState, consensus engine, mempool)
// already own their own locks and are safe to call concurrently.
type Node struct {
	mu sync.Mutex

	log *slog.Logger
	cfg Config

	rt     *runtime.Context
	engine *bft.Engine
	pool   *mempool.Pool
	da     da.Provider
	net    NetPort

	localKey         *crypto.PrivateKey
	localValidatorID uuid.UUID
	hasLocal         bool

	parentHash []byte
	height     uint64

	blocks map[string]*types.Block

	onCommit func(blockID string)
}

// NewNode constructs a producer bound to genesisParentHash (typically the
// genesis block hash, or 32 zero bytes for a fresh chain) and genesisHeight.
// localKey may be nil for an observer replica that never proposes.
func NewNode(rt *runtime.Context, engine *bft.Engine, pool *mempool.Pool, daProvider da.Provider, net NetPort, localKey *crypto.PrivateKey, log *slog.Logger, cfg Config, genesisParentHash []byte, genesisHeight uint64) *Node {
	if log == nil {
		log = slog.Default()
	}
	n := &Node{
		log:        log,
		cfg:        cfg,
		rt:         rt,
		engine:     engine,
		pool:       pool,
		da:         daProvider,
		net:        net,
		localKey:   localKey,
		parentHash: append([]byte(nil), genesisParentHash...),
		height:     genesisHeight,
		blocks:     make(map[string]*types.Block),
	}
	if localKey != nil {
		n.hasLocal = true
		n.localValidatorID = types.ValidatorID(localKey.PubKey().Bytes())
	}
	return n
}

// OnCommit registers a callback invoked with each block id drained from the
// consensus commit queue. Tests use this to observe convergence.
func (n *Node) OnCommit(fn func(blockID string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onCommit = fn
}

// Height returns the last height this replica has executed.
func (n *Node) Height() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.height
}

// Run drives the production tick, the consensus timeout timer, and the
// inbound network listener concurrently as a cooperative task group. It
// returns when ctx is cancelled or a task fails.
func (n *Node) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.tickLoop(ctx) })
	g.Go(func() error { return n.timeoutLoop(ctx) })
	g.Go(func() error { return n.inboundLoop(ctx) })
	return g.Wait()
}

func (n *Node) tickLoop(ctx context.Context) error {
	interval := time.Duration(n.cfg.BlockTimeMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			n.ProduceTick(now.UnixMilli())
		}
	}
}

func (n *Node) timeoutLoop(ctx context.Context) error {
	interval := time.Duration(n.cfg.ViewTimeoutMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.engine.OnTimeout(n.engine.View())
		}
	}
}

func (n *Node) inboundLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case tx := <-n.net.Transactions():
			if _, err := n.pool.Add(tx); err != nil {
				n.log.Warn("inbound tx rejected", "err", err)
			}
		case msg := <-n.net.Messages():
			switch {
			case msg.Proposal != nil:
				n.HandleProposal(msg.Proposal, time.Now().UnixMilli())
			case msg.Vote != nil:
				n.HandleVote(msg.Vote)
			case msg.Timeout != nil:
				n.engine.OnTimeout(msg.Timeout.View)
			}
		}
	}
}

// ProduceTick runs one block-production tick's algorithm. It is exported so
// tests can drive production deterministically instead of waiting on a
// wall-clock ticker.
func (n *Node) ProduceTick(now int64) {
	if !n.hasLocal {
		return
	}
	view := n.engine.View()
	leader := n.engine.LeaderForView(view)
	isLeader := leader == nil || leader.ID == n.localValidatorID
	if !isLeader {
		return
	}
	if n.pool.Len() == 0 {
		return
	}

	n.mu.Lock()
	parentHash := append([]byte(nil), n.parentHash...)
	nextHeight := n.height + 1
	n.mu.Unlock()

	txs := n.pool.Drain(n.cfg.MaxTxsPerBlock)
	if len(txs) == 0 {
		return
	}

	batch, err := json.Marshal(txs)
	if err != nil {
		n.log.Error("serialize batch for DA", "err", err)
		return
	}
	commitment, err := n.da.Post(context.Background(), batch)
	if err != nil {
		n.log.Error("post batch to DA", "err", err)
		return
	}

	header := &types.BlockHeader{
		ParentHash:   parentHash,
		Height:       nextHeight,
		Timestamp:    now,
		ProposerID:   n.localValidatorID,
		DACommitment: commitment.Root,
		GasLimit:     n.rt.MaxGasPerBlock,
		BaseFee:      n.rt.BaseFee,
	}
	block := &types.Block{Header: header, Transactions: txs, DABlobIDs: []string{commitment.BlobID}}

	result, err := n.rt.ApplyBlock(block, now)
	if err != nil {
		n.log.Warn("block execution failed, skipping tick", "height", nextHeight, "err", err)
		return
	}
	header.StateRoot = result.StateRoot
	header.GasUsed = result.GasUsed

	sp, err := bft.SignProposal(n.localKey, block)
	if err != nil {
		n.log.Error("sign proposal", "err", err)
		return
	}
	blockID, err := types.HashBlock(block)
	if err != nil {
		n.log.Error("hash block", "err", err)
		return
	}

	if err := n.engine.Propose(sp); err != nil {
		n.log.Error("propose own block", "err", err)
		return
	}
	n.mu.Lock()
	n.blocks[hex.EncodeToString(blockID)] = block
	n.mu.Unlock()

	selfVote := bft.SignVote(n.localKey, blockID, view)
	if err := n.engine.Vote(selfVote); err != nil {
		n.log.Error("self-vote", "err", err)
	}

	if err := n.net.Broadcast(network.Message{Proposal: sp}); err != nil {
		n.log.Warn("broadcast proposal", "err", err)
	}
	if err := n.net.Broadcast(network.Message{Vote: selfVote}); err != nil {
		n.log.Warn("broadcast self-vote", "err", err)
	}

	n.advanceHead(blockID, nextHeight, txs)
	n.drainCommits()
}

// HandleProposal handles an inbound proposal: verify signatures and
// proposer identity (inside Engine.Propose), execute the block locally as a
// deterministic replay, and cast a vote.
func (n *Node) HandleProposal(sp *bft.SignedProposal, now int64) {
	if sp == nil || sp.Block == nil || sp.Block.Header == nil {
		return
	}
	view := n.engine.View()
	if err := n.engine.Propose(sp); err != nil {
		n.log.Warn("reject inbound proposal", "err", err)
		return
	}

	n.mu.Lock()
	expectedHeight := n.height + 1
	expectedParent := append([]byte(nil), n.parentHash...)
	n.mu.Unlock()

	blockID, err := types.HashBlock(sp.Block)
	if err != nil {
		n.log.Error("hash inbound block", "err", err)
		return
	}
	n.mu.Lock()
	n.blocks[hex.EncodeToString(blockID)] = sp.Block
	n.mu.Unlock()

	if sp.Block.Header.Height != expectedHeight || !bytesEqual(sp.Block.Header.ParentHash, expectedParent) {
		n.log.Debug("inbound proposal does not extend local head, not replaying", "height", sp.Block.Header.Height)
		return
	}

	if _, err := n.rt.ApplyBlock(sp.Block, now); err != nil {
		n.log.Warn("replay inbound block failed", "err", err)
		return
	}
	n.advanceHead(blockID, sp.Block.Header.Height, sp.Block.Transactions)

	if !n.hasLocal {
		n.drainCommits()
		return
	}
	vote := bft.SignVote(n.localKey, blockID, view)
	if err := n.engine.Vote(vote); err != nil {
		n.log.Error("vote on inbound proposal", "err", err)
	}
	if err := n.net.Broadcast(network.Message{Vote: vote}); err != nil {
		n.log.Warn("broadcast vote", "err", err)
	}
	n.drainCommits()
}

// HandleVote handles an inbound vote: verify and record it.
func (n *Node) HandleVote(sv *bft.SignedVote) {
	if err := n.engine.Vote(sv); err != nil {
		n.log.Warn("reject inbound vote", "err", err)
		return
	}
	n.drainCommits()
}

func (n *Node) advanceHead(blockID []byte, height uint64, txs []*types.Tx) {
	n.mu.Lock()
	n.parentHash = blockID
	n.height = height
	n.mu.Unlock()
	for _, tx := range txs {
		if hash, err := tx.Hash(); err == nil {
			n.pool.Remove(hash)
		}
	}
}

func (n *Node) drainCommits() {
	for {
		id, ok := n.engine.PopCommit()
		if !ok {
			return
		}
		n.log.Info("block committed", "blockId", id)
		n.mu.Lock()
		cb := n.onCommit
		n.mu.Unlock()
		if cb != nil {
			cb(id)
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
