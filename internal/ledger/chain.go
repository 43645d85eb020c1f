package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/solheim-systems/simplecoin/internal/ledgertypes"
	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// ErrPrevHashMismatch is returned by Chain.Verify when a block's PrevHash
// does not match its predecessor's CurrHash.
type ErrPrevHashMismatch struct{ Index uint64 }

func (e *ErrPrevHashMismatch) Error() string {
	return fmt.Sprintf("block %d: previous hash does not match", e.Index)
}

// ErrMissingPrevHash is returned by Chain.Verify when a non-genesis block
// carries the None sentinel PrevHash.
type ErrMissingPrevHash struct{ Index uint64 }

func (e *ErrMissingPrevHash) Error() string {
	return fmt.Sprintf("block %d: previous hash missing", e.Index)
}

// ErrMiningCancelled is returned by MineBlock when ctx is cancelled before
// a nonce satisfying the difficulty target is found. No chain mutation
// happens in this case.
var ErrMiningCancelled = errors.New("ledger: mining cancelled")

// ErrInsufficientBalance is returned by VerifyTransaction when the sender's
// balance cannot cover the transaction amount.
type ErrInsufficientBalance struct {
	Account string
	Have    int64
	Need    uint64
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d", e.Have, e.Need)
}

// Config holds the chain's tunable parameters, per spec section 6.
type Config struct {
	// Difficulty is the number of leading hex '0' characters required in a
	// sealed block's CurrHash.
	Difficulty int
	// MinerReward is the System->miner amount prepended to a mined block
	// when a miner wallet is supplied.
	MinerReward uint64
	// Seed is the System->creator amount of the genesis block.
	Seed uint64
}

// Chain is an ordered sequence of Blocks: enumerate in order, append at
// tail, random access by index. It is safe for concurrent use; per spec
// section 5 the chain is single-writer in practice (only the mining path
// mutates it). MineBlock holds the write lock for its whole nonce search,
// so reads issued during that search wait until the block is appended.
type Chain struct {
	mu     sync.RWMutex
	cfg    Config
	blocks []*Block
}

// NewChain builds a chain seeded with a single System->creator transaction
// of cfg.Seed coins, mined as the genesis block.
func NewChain(cfg Config, creator ledgertypes.Wallet) (*Chain, error) {
	c := &Chain{cfg: cfg}

	seedTx, err := ledgertypes.New(creator, cfg.Seed, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: create seed transaction: %w", err)
	}

	block, rejected, err := c.MineBlock(context.Background(), []*ledgertypes.Transaction{seedTx}, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: mine genesis block: %w", err)
	}
	if block == nil {
		return nil, fmt.Errorf("ledger: genesis transaction was rejected: %v", rejected)
	}
	return c, nil
}

// BlockReader is the read-only subset of store.ChainStore that ReplayChain
// needs; declared locally so internal/ledger does not import
// internal/ledger/store (store imports ledger, never the reverse).
type BlockReader interface {
	Get(index uint64) (*Block, bool, error)
}

// ReplayChain rebuilds an in-memory Chain by reading blocks [1, height]
// from reader, then verifies the whole rebuilt chain. Used at startup to
// rehydrate a chain a ChainStore had persisted across a restart.
func ReplayChain(cfg Config, reader BlockReader, height uint64) (*Chain, error) {
	c := &Chain{cfg: cfg, blocks: make([]*Block, 0, height)}
	for i := uint64(1); i <= height; i++ {
		block, ok, err := reader.Get(i)
		if err != nil {
			return nil, fmt.Errorf("ledger: replay block %d: %w", i, err)
		}
		if !ok {
			return nil, fmt.Errorf("ledger: replay block %d: not found", i)
		}
		c.appendBlock(block)
	}
	if err := c.Verify(); err != nil {
		return nil, fmt.Errorf("ledger: replayed chain failed verification: %w", err)
	}
	return c, nil
}

// FirstBlock returns the genesis block, or nil if the chain is empty.
func (c *Chain) FirstBlock() *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[0]
}

// LastBlock returns the tail block, or nil if the chain is empty.
func (c *Chain) LastBlock() *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1]
}

// Len returns the number of blocks currently in the chain.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// BlockAt returns the block at the given 1-indexed position, or nil if out
// of range.
func (c *Chain) BlockAt(index uint64) *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 1 || index > uint64(len(c.blocks)) {
		return nil
	}
	return c.blocks[index-1]
}

// Iterator returns a snapshot slice of blocks from startIndexOffset
// (0-based skip count) onward, in order.
func (c *Chain) Iterator(startIndexOffset int) []*Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if startIndexOffset < 0 {
		startIndexOffset = 0
	}
	if startIndexOffset >= len(c.blocks) {
		return nil
	}
	out := make([]*Block, len(c.blocks)-startIndexOffset)
	copy(out, c.blocks[startIndexOffset:])
	return out
}

// appendBlock appends to the tail. Caller must hold c.mu for writing.
func (c *Chain) appendBlock(b *Block) {
	c.blocks = append(c.blocks, b)
}

// Verify enumerates blocks in order: each self-verifies, each transaction
// is re-validated against cumulative balance as of the prior block, and
// each PrevHash matches its predecessor's CurrHash. Only the genesis block
// may carry the None sentinel. Reports the first offending block.
func (c *Chain) Verify() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var prev *Block
	for _, block := range c.blocks {
		if err := block.Verify(); err != nil {
			return fmt.Errorf("ledger: chain verify: %w", err)
		}

		for idx, tx := range block.Transactions {
			if err := c.verifyTransactionLocked(tx, block.Index-1); err != nil {
				return &ErrTransactionInvalid{Index: block.Index, Ordinal: idx + 1, Err: err}
			}
		}

		if block.PrevHash == NonePrevHash {
			if block != c.blocks[0] {
				return &ErrMissingPrevHash{Index: block.Index}
			}
		} else if prev == nil || block.PrevHash != prev.CurrHash {
			return &ErrPrevHashMismatch{Index: block.Index}
		}
		prev = block
	}
	return nil
}

// VerifyTransaction checks that tx can be completed against the chain.
// System transactions always succeed. upToBlockIndex, if non-nil, bounds
// the balance computation to [1, *upToBlockIndex]; nil means the whole
// chain. Also runs tx.Verify via signature recovery.
func (c *Chain) VerifyTransaction(tx *ledgertypes.Transaction, upToBlockIndex *uint64) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var idx uint64
	if upToBlockIndex != nil {
		idx = *upToBlockIndex
	} else if len(c.blocks) > 0 {
		idx = c.blocks[len(c.blocks)-1].Index
	}
	return c.verifyTransactionLocked(tx, idx)
}

func (c *Chain) verifyTransactionLocked(tx *ledgertypes.Transaction, upToBlockIndex uint64) error {
	if tx.IsSystem() {
		return nil
	}

	balance := c.getBalanceLocked(tx.Sender, upToBlockIndex)
	if balance < int64(tx.Amount) {
		return &ErrInsufficientBalance{Account: tx.Sender, Have: balance, Need: tx.Amount}
	}

	signerKey, err := walletkey.ParseCompositeKey(tx.Sender)
	if err != nil {
		return fmt.Errorf("ledger: parse sender identity: %w", err)
	}
	if err := tx.Verify(signerKey); err != nil {
		return fmt.Errorf("ledger: invalid transaction: %w", err)
	}
	return nil
}

// GetBalance returns accountKey's balance over [1, upToBlockIndex]
// (the whole chain if upToBlockIndex is nil). Unknown accounts return 0;
// the System account never carries a balance.
func (c *Chain) GetBalance(accountKey string, upToBlockIndex *uint64) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var idx uint64
	if upToBlockIndex != nil {
		idx = *upToBlockIndex
	} else if len(c.blocks) > 0 {
		idx = c.blocks[len(c.blocks)-1].Index
	}
	return c.getBalanceLocked(accountKey, idx)
}

func (c *Chain) getBalanceLocked(accountKey string, upToBlockIndex uint64) int64 {
	if accountKey == ledgertypes.SystemSender {
		return 0
	}

	var balance int64
	for _, block := range c.blocks {
		if block.Index > upToBlockIndex {
			break
		}
		for _, tx := range block.Transactions {
			if tx.Sender == accountKey {
				balance -= int64(tx.Amount)
			}
			if tx.Recv == accountKey {
				balance += int64(tx.Amount)
			}
		}
	}
	return balance
}

// MineBlock verifies each candidate transaction against the current chain
// (not against its siblings in the same batch, so a batch that only
// validates as a sequence must be submitted sequentially), collects
// failures as rejected, optionally prepends a miner reward, then searches
// nonces until CurrHash has Config.Difficulty leading hex zeros. Returns
// the sealed block (nil if nothing was mineable) and the rejected
// transactions. The context may be used to cancel an in-progress search;
// a cancellation returns ErrMiningCancelled and appends nothing.
func (c *Chain) MineBlock(ctx context.Context, transactions []*ledgertypes.Transaction, miner *ledgertypes.Wallet) (*Block, []*ledgertypes.Transaction, error) {
	var rejected []*ledgertypes.Transaction
	var accepted []*ledgertypes.Transaction

	for _, tx := range transactions {
		if err := c.VerifyTransaction(tx, nil); err != nil {
			rejected = append(rejected, tx)
			continue
		}
		accepted = append(accepted, tx)
	}

	if len(accepted) == 0 {
		return nil, rejected, nil
	}

	if miner != nil {
		reward, err := ledgertypes.New(*miner, c.cfg.MinerReward, nil)
		if err != nil {
			return nil, rejected, fmt.Errorf("ledger: create reward transaction: %w", err)
		}
		accepted = append([]*ledgertypes.Transaction{reward}, accepted...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var tail *Block
	if len(c.blocks) > 0 {
		tail = c.blocks[len(c.blocks)-1]
	}

	block, err := newBlock(accepted, tail)
	if err != nil {
		return nil, rejected, fmt.Errorf("ledger: construct block: %w", err)
	}
	block.CurrHash = block.sha256Hex()

	target := zeroPrefix(c.cfg.Difficulty)
	for !hasPrefix(block.CurrHash, target) {
		select {
		case <-ctx.Done():
			return nil, rejected, ErrMiningCancelled
		default:
		}
		block.Nonce++
		block.CurrHash = block.sha256Hex()
	}

	c.appendBlock(block)
	return block, rejected, nil
}

func zeroPrefix(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
