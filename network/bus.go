// Package network implements the consensus network interface: broadcasting
// consensus messages and transactions. The core only depends on the
// Broadcaster/Inbox interfaces; this package ships an in-process bus
// implementation suitable for single-process multi-node tests and
// development. A production deployment would swap this for a gossipsub mesh
// over a QUIC transport without touching consensus or the producer loop.
package network

import (
	"sync"

	"github.com/latticebft/corechain/consensus/bft"
	"github.com/latticebft/corechain/core/types"
)

// Message is the sum type of everything exchanged over the consensus
// network: a proposal, a vote, or a timeout notification.
type Message struct {
	Proposal *bft.SignedProposal
	Vote     *bft.SignedVote
	Timeout  *bft.Timeout
}

// Broadcaster is the consensus network interface consensus and the block
// producer depend on to reach other replicas.
type Broadcaster interface {
	Broadcast(msg Message) error
	BroadcastTx(tx *types.Tx) error
}

// Inbox delivers messages and transactions addressed to the local node.
type Inbox interface {
	Messages() <-chan Message
	Transactions() <-chan *types.Tx
}

const inboxBuffer = 256

// LocalBus fans out messages between every node that has joined it,
// without delivering a node's own broadcasts back to itself. It is safe
// for concurrent use by multiple goroutines.
type LocalBus struct {
	mu    sync.Mutex
	nodes map[string]*NodePort
}

// NewLocalBus constructs an empty bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{nodes: make(map[string]*NodePort)}
}

// NodePort is one node's view of a LocalBus: it broadcasts to every other
// joined node and receives what they broadcast.
type NodePort struct {
	bus   *LocalBus
	id    string
	msgCh chan Message
	txCh  chan *types.Tx
}

// Join registers a new node under id and returns its port. Joining twice
// under the same id replaces the previous port.
func (b *LocalBus) Join(id string) *NodePort {
	port := &NodePort{
		bus:   b,
		id:    id,
		msgCh: make(chan Message, inboxBuffer),
		txCh:  make(chan *types.Tx, inboxBuffer),
	}
	b.mu.Lock()
	b.nodes[id] = port
	b.mu.Unlock()
	return port
}

// Leave removes a node from the bus; subsequent broadcasts no longer
// reach it.
func (b *LocalBus) Leave(id string) {
	b.mu.Lock()
	delete(b.nodes, id)
	b.mu.Unlock()
}

// Broadcast delivers msg to every other joined node's inbox. A full
// inbox drops the message for that node rather than blocking the
// broadcaster (the network layer is best-effort; consensus liveness
// relies on retransmission via timeouts, not delivery guarantees).
func (p *NodePort) Broadcast(msg Message) error {
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	for id, other := range p.bus.nodes {
		if id == p.id {
			continue
		}
		select {
		case other.msgCh <- msg:
		default:
		}
	}
	return nil
}

// BroadcastTx delivers tx to every other joined node's transaction inbox.
func (p *NodePort) BroadcastTx(tx *types.Tx) error {
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	for id, other := range p.bus.nodes {
		if id == p.id {
			continue
		}
		select {
		case other.txCh <- tx:
		default:
		}
	}
	return nil
}

// Messages returns the channel inbound consensus messages arrive on.
func (p *NodePort) Messages() <-chan Message { return p.msgCh }

// Transactions returns the channel inbound transactions arrive on.
func (p *NodePort) Transactions() <-chan *types.Tx { return p.txCh }
