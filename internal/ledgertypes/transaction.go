// Package ledgertypes holds the wallet and transaction types shared by the
// block chain and its callers. A Transaction is immutable once constructed:
// construction signs itself and self-verifies before returning.
package ledgertypes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/solheim-systems/simplecoin/pkg/rsaprim"
	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// SystemSender is the sentinel sender identity for miner-reward and
// genesis-seed transactions.
const SystemSender = "System"

// ErrHashMismatch is returned by Verify when the signature does not recover
// the transaction's unsigned digest.
var ErrHashMismatch = errors.New("ledgertypes: hash mismatch")

// ErrNonPositiveAmount is returned by Verify when amount <= 0.
var ErrNonPositiveAmount = errors.New("ledgertypes: amount must be positive")

// Wallet is a named identity: a public composite key, and optionally the
// matching private key for locally controlled identities.
type Wallet struct {
	Name    string
	Public  walletkey.CompositeKey
	Private *walletkey.CompositeKey
}

// ID returns the wire-form public key that identifies this wallet's account
// on the chain.
func (w Wallet) ID() string {
	return w.Public.Wire()
}

// Transaction is a signed value transfer. Sender is the wire-form public key
// of the sender, or SystemSender for mint/reward transactions.
type Transaction struct {
	Timestamp float64
	Recv      string
	Sender    string
	Amount    uint64
	Hash      string
}

// New constructs and signs a transaction. If sender is nil the transaction
// is a System transaction (e.g. a miner reward) signed with the receiver's
// private key; otherwise it is signed with the sender's private key. The
// constructed transaction self-verifies before being returned.
func New(recv Wallet, amount uint64, sender *Wallet) (*Transaction, error) {
	tx := &Transaction{
		Timestamp: nowFunc(),
		Recv:      recv.ID(),
		Sender:    SystemSender,
		Amount:    amount,
	}

	signer := recv
	if sender != nil {
		tx.Sender = sender.ID()
		signer = *sender
	}
	if signer.Private == nil {
		return nil, fmt.Errorf("ledgertypes: signer %q has no private key", signer.Name)
	}

	digest := tx.digest()
	sig, err := rsaprim.Sign(*signer.Private, digest)
	if err != nil {
		return nil, fmt.Errorf("ledgertypes: sign transaction: %w", err)
	}
	tx.Hash = sig

	if err := tx.Verify(signer.Public); err != nil {
		return nil, err
	}
	return tx, nil
}

// nowFunc is a seam for deterministic tests; production code uses wall time.
var nowFunc = func() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// digest computes the unsigned SHA-256 hex digest over (recv, sender-or-
// System, amount, timestamp), matching spec section 3.
func (tx *Transaction) digest() string {
	data := tx.Recv + tx.Sender + strconv.FormatUint(tx.Amount, 10) + formatTimestamp(tx.Timestamp)
	return rsaprim.SHA256Hex([]byte(data))
}

func formatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', -1, 64)
}

// Verify recomputes the unsigned digest and checks it against Hash using the
// public key of the sender (or the receiver, for System transactions); it
// also asserts Amount > 0. The caller supplies the relevant public key
// because Transaction stores only wire-form identities, not key material.
func (tx *Transaction) Verify(signerPublic walletkey.CompositeKey) error {
	if tx.Amount == 0 {
		return ErrNonPositiveAmount
	}
	return tx.verifyAgainst(signerPublic)
}

func (tx *Transaction) verifyAgainst(signerPublic walletkey.CompositeKey) error {
	if err := rsaprim.Verify(signerPublic, tx.digest(), tx.Hash); err != nil {
		if errors.Is(err, rsaprim.ErrHashMismatch) {
			return ErrHashMismatch
		}
		return fmt.Errorf("ledgertypes: verify signature: %w", err)
	}
	return nil
}

// IsSystem reports whether this is a System-originated transaction (mint or
// miner reward).
func (tx *Transaction) IsSystem() bool {
	return tx.Sender == SystemSender
}

// txWire is the stable, non-reflective wire schema for a transaction, per
// spec section 6: {timestamp, recv, sender|null, amount, hash}.
type txWire struct {
	Timestamp float64 `json:"timestamp"`
	Recv      string  `json:"recv"`
	Sender    *string `json:"sender"`
	Amount    uint64  `json:"amount"`
	Hash      string  `json:"hash"`
}

// MarshalJSON encodes the transaction using the stable wire schema, emitting
// a null sender for System transactions.
func (tx Transaction) MarshalJSON() ([]byte, error) {
	w := txWire{
		Timestamp: tx.Timestamp,
		Recv:      tx.Recv,
		Amount:    tx.Amount,
		Hash:      tx.Hash,
	}
	if !tx.IsSystem() {
		sender := tx.Sender
		w.Sender = &sender
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the stable wire schema, defaulting a null or absent
// sender to SystemSender.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var w txWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("ledgertypes: decode transaction: %w", err)
	}
	tx.Timestamp = w.Timestamp
	tx.Recv = w.Recv
	tx.Amount = w.Amount
	tx.Hash = w.Hash
	if w.Sender != nil && *w.Sender != "" {
		tx.Sender = *w.Sender
	} else {
		tx.Sender = SystemSender
	}
	return nil
}
