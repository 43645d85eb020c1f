package node

import (
	"github.com/solheim-systems/simplecoin/internal/ledger"
	"github.com/solheim-systems/simplecoin/internal/ledgertypes"
	"github.com/solheim-systems/simplecoin/internal/p2p"
)

// Event types that cross the orchestrator's goroutines.

// mineRequest is submitted to the single mining goroutine by every surface
// that wants a batch of transactions folded into a block (HTTP handler,
// local CLI), preserving the single-writer assumption over the chain.
type mineRequest struct {
	transactions []*ledgertypes.Transaction
	result       chan<- mineResult
}

// mineResult reports the outcome of a mineRequest: the sealed block (nil if
// nothing in the batch was mineable) and whichever transactions were
// rejected against the chain at mine time.
type mineResult struct {
	block    *ledger.Block
	rejected []*ledgertypes.Transaction
	err      error
}

// PeerDiscoveredEvent signals that the handshake client added a new peer to
// the directory.
type PeerDiscoveredEvent struct {
	Peer p2p.Peer
}

// BlockMinedEvent signals that this node sealed a new block.
type BlockMinedEvent struct {
	Block *ledger.Block
}
