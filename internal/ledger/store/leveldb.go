package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	ds "github.com/ipfs/go-datastore"
	leveldb "github.com/ipfs/go-ds-leveldb"

	"github.com/solheim-systems/simplecoin/internal/ledger"
)

const heightKey = "height"

// LevelDBStore is an alternative ChainStore backend built on the
// IPFS-ecosystem LevelDB datastore binding, for deployments that already
// standardize on it for other node state.
type LevelDBStore struct {
	mu sync.Mutex
	ds *leveldb.Datastore
}

// NewLevelDBStore opens (creating if absent) a LevelDB datastore at path.
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	d, err := leveldb.NewDatastore(path, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open leveldb at %s: %w", path, err)
	}
	return &LevelDBStore{ds: d}, nil
}

func blockKey(index uint64) ds.Key {
	return ds.NewKey(fmt.Sprintf("/blocks/%020d", index))
}

// Put persists block keyed by its index and tracks the running height.
func (s *LevelDBStore) Put(block *ledger.Block) error {
	raw, err := encodeBlock(block)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := s.ds.Put(ctx, blockKey(block.Index), raw); err != nil {
		return fmt.Errorf("store: put block %d: %w", block.Index, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	height, err := s.heightLocked(ctx)
	if err != nil {
		return err
	}
	if block.Index > height {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, block.Index)
		if err := s.ds.Put(ctx, ds.NewKey("/"+heightKey), buf); err != nil {
			return fmt.Errorf("store: update height: %w", err)
		}
	}
	return nil
}

// Get retrieves the block at index.
func (s *LevelDBStore) Get(index uint64) (*ledger.Block, bool, error) {
	raw, err := s.ds.Get(context.Background(), blockKey(index))
	if err != nil {
		if err == ds.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: get block %d: %w", index, err)
	}
	b, err := decodeBlock(raw)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Height returns the highest stored block index.
func (s *LevelDBStore) Height() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heightLocked(context.Background())
}

func (s *LevelDBStore) heightLocked(ctx context.Context) (uint64, error) {
	raw, err := s.ds.Get(ctx, ds.NewKey("/"+heightKey))
	if err != nil {
		if err == ds.ErrNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("store: read height: %w", err)
	}
	return binary.BigEndian.Uint64(raw), nil
}

// Close releases the underlying LevelDB handle.
func (s *LevelDBStore) Close() error {
	if err := s.ds.Close(); err != nil {
		return fmt.Errorf("store: close leveldb: %w", err)
	}
	return nil
}
