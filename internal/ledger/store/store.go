// Package store provides pluggable persistence for mined blocks. The chain
// itself (internal/ledger) stays storage-agnostic and in-memory, per spec
// section 3's "any ordered container" allowance; a ChainStore is an
// optional side channel the node orchestrator writes to after each mined
// block and reads from to rehydrate a chain on restart.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/solheim-systems/simplecoin/internal/ledger"
)

// ChainStore persists and retrieves sealed blocks keyed by their 1-based
// index.
type ChainStore interface {
	// Put persists block, keyed by block.Index.
	Put(block *ledger.Block) error
	// Get retrieves the block at index, reporting false if absent.
	Get(index uint64) (*ledger.Block, bool, error)
	// Height returns the highest stored block index, or 0 if empty.
	Height() (uint64, error)
	// Close releases any underlying resources.
	Close() error
}

func encodeBlock(b *ledger.Block) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("store: encode block %d: %w", b.Index, err)
	}
	return data, nil
}

func decodeBlock(data []byte) (*ledger.Block, error) {
	var b ledger.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("store: decode block: %w", err)
	}
	return &b, nil
}
