package store

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	bolt "go.etcd.io/bbolt"

	"github.com/solheim-systems/simplecoin/internal/ledger"
)

var blocksBucket = []byte("blocks")

// BoltStore is the default ChainStore backend, a single bbolt file holding
// one key per block index. Block payloads are zstd-compressed before being
// written, the same compression scheme the teacher codebase applies to
// coinbase transaction bytes, repurposed here for whole block bodies.
type BoltStore struct {
	db      *bolt.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewBoltStore opens (creating if absent) a bbolt database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create bucket: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(64<<20))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create zstd decoder: %w", err)
	}

	return &BoltStore{db: db, encoder: encoder, decoder: decoder}, nil
}

func indexKey(index uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, index)
	return key
}

// Put persists block, compressed, keyed by its index.
func (s *BoltStore) Put(block *ledger.Block) error {
	raw, err := encodeBlock(block)
	if err != nil {
		return err
	}
	compressed := s.encoder.EncodeAll(raw, nil)

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).Put(indexKey(block.Index), compressed)
	})
}

// Get retrieves the block at index.
func (s *BoltStore) Get(index uint64) (*ledger.Block, bool, error) {
	var block *ledger.Block
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		compressed := tx.Bucket(blocksBucket).Get(indexKey(index))
		if compressed == nil {
			return nil
		}
		raw, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return fmt.Errorf("decompress block %d: %w", index, err)
		}
		b, err := decodeBlock(raw)
		if err != nil {
			return err
		}
		block = b
		found = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("store: get block %d: %w", index, err)
	}
	return block, found, nil
}

// Height returns the highest stored block index.
func (s *BoltStore) Height() (uint64, error) {
	var height uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(blocksBucket).Cursor()
		key, _ := c.Last()
		if key == nil {
			return nil
		}
		height = binary.BigEndian.Uint64(key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store: height: %w", err)
	}
	return height, nil
}

// Close releases the underlying bbolt file handle and the zstd decoder.
func (s *BoltStore) Close() error {
	s.decoder.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close bolt db: %w", err)
	}
	return nil
}
