// Package ledger implements the block chain: block construction with its
// Merkle summarization, and the chain itself (append, verify, mine, balance
// query), held in memory. Persistence lives in internal/ledger/store;
// ReplayChain rebuilds a chain from it.
package ledger

import (
	"fmt"
	"strconv"
	"time"

	"github.com/solheim-systems/simplecoin/internal/ledgertypes"
	"github.com/solheim-systems/simplecoin/pkg/rsaprim"
	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// NonePrevHash is the sentinel prevHash value carried by the genesis block.
const NonePrevHash = "None"

// ErrBlockHashMismatch is returned by Block.Verify when currHash does not
// match the recomputed digest.
type ErrBlockHashMismatch struct{ Index uint64 }

func (e *ErrBlockHashMismatch) Error() string {
	return fmt.Sprintf("block %d: hash mismatch", e.Index)
}

// ErrMerkleMismatch is returned by Block.Verify when the Merkle root does
// not match the recomputed reduction.
type ErrMerkleMismatch struct{ Index uint64 }

func (e *ErrMerkleMismatch) Error() string {
	return fmt.Sprintf("block %d: merkle root mismatch", e.Index)
}

// ErrTransactionInvalid wraps a per-transaction verification failure with
// its block and ordinal, per the propagation policy in spec section 7.
type ErrTransactionInvalid struct {
	Index   uint64
	Ordinal int
	Err     error
}

func (e *ErrTransactionInvalid) Error() string {
	return fmt.Sprintf("block %d: transaction %d: %v", e.Index, e.Ordinal, e.Err)
}

func (e *ErrTransactionInvalid) Unwrap() error { return e.Err }

// Block is an indexed header binding a Merkle root over its transactions,
// chained by previous-hash, carrying a mining nonce.
type Block struct {
	Index        uint64                     `json:"index"`
	Timestamp    float64                    `json:"timestamp"`
	PrevHash     string                     `json:"prevHash"`
	Transactions []*ledgertypes.Transaction `json:"transactions"`
	MerkleRoot   string                     `json:"merkleRoot"`
	Nonce        uint64                     `json:"nonce"`
	CurrHash     string                     `json:"currHash"`
}

// newBlock constructs an unsealed block (currHash unset, nonce zero) binding
// txs to tail, or to the genesis position if tail is nil. txs must be
// non-empty; callers are expected to have already verified them.
func newBlock(txs []*ledgertypes.Transaction, tail *Block) (*Block, error) {
	if len(txs) == 0 {
		return nil, fmt.Errorf("ledger: block requires at least one transaction")
	}

	b := &Block{
		Index:        1,
		Timestamp:    nowFunc(),
		PrevHash:     NonePrevHash,
		Transactions: txs,
	}
	if tail != nil {
		b.Index = tail.Index + 1
		b.PrevHash = tail.CurrHash
	}
	b.MerkleRoot = b.generateMerkleRoot()
	return b, nil
}

var nowFunc = func() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// generateMerkleRoot reduces the per-transaction leaves
// SHA256(unsignedDigestHex ‖ tx.Hash) pairwise via queue semantics: dequeue
// two from the front, enqueue their combined hash, repeat until one
// element remains. An odd count at any level leaves its trailing leaf to
// pair with the next-produced hash rather than duplicating it — this is
// deliberate and must be preserved bit-for-bit (spec section 4.6 / 9).
func (b *Block) generateMerkleRoot() string {
	q := make([]string, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		leaf := rsaprim.SHA256Hex([]byte(unsignedDigestHex(tx) + tx.Hash))
		q = append(q, leaf)
	}

	for len(q) > 1 {
		left := q[0]
		right := q[1]
		q = q[2:]
		combined := rsaprim.SHA256Hex([]byte(left + right))
		q = append(q, combined)
	}
	return q[0]
}

// unsignedDigestHex exposes the transaction's pre-signature digest for
// Merkle leaf construction. ledgertypes.Transaction keeps this unexported
// at the type level, so block reconstructs it the same way Transaction does
// internally: SHA256(recv ‖ sender-or-System ‖ amount ‖ timestamp).
func unsignedDigestHex(tx *ledgertypes.Transaction) string {
	sender := tx.Sender
	data := tx.Recv + sender + strconv.FormatUint(tx.Amount, 10) + strconv.FormatFloat(tx.Timestamp, 'f', -1, 64)
	return rsaprim.SHA256Hex([]byte(data))
}

// sha256Hex computes the block's currHash input: SHA256(index ‖ timestamp ‖
// prevHash ‖ merkleRoot ‖ nonce).
func (b *Block) sha256Hex() string {
	data := strconv.FormatUint(b.Index, 10) +
		strconv.FormatFloat(b.Timestamp, 'f', -1, 64) +
		b.PrevHash +
		b.MerkleRoot +
		strconv.FormatUint(b.Nonce, 10)
	return rsaprim.SHA256Hex([]byte(data))
}

// Verify recomputes currHash and the Merkle root and checks each
// transaction. A transaction's signer identity (sender, or receiver for
// System transactions) IS the wire form of its public composite key, so no
// external key lookup is needed — it is parsed directly from the stored
// identity string. Reports the first offending transaction as
// ErrTransactionInvalid.
func (b *Block) Verify() error {
	if b.sha256Hex() != b.CurrHash {
		return &ErrBlockHashMismatch{Index: b.Index}
	}

	for idx, tx := range b.Transactions {
		signerID := tx.Sender
		if tx.IsSystem() {
			signerID = tx.Recv
		}
		pub, err := walletkey.ParseCompositeKey(signerID)
		if err != nil {
			return &ErrTransactionInvalid{Index: b.Index, Ordinal: idx + 1, Err: fmt.Errorf("parse signer identity: %w", err)}
		}
		if err := tx.Verify(pub); err != nil {
			return &ErrTransactionInvalid{Index: b.Index, Ordinal: idx + 1, Err: err}
		}
	}

	if b.generateMerkleRoot() != b.MerkleRoot {
		return &ErrMerkleMismatch{Index: b.Index}
	}
	return nil
}
