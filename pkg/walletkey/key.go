// Package walletkey implements the wire codec that turns big integers into
// the little-endian base64 form used on disk and on the wire, and the
// CompositeKey concatenation of an exponent and a modulus.
package walletkey

import (
	"encoding/base64"
	"fmt"
	"math/big"
)

// IntToWire encodes n as base64 of its little-endian minimal byte
// representation. Zero encodes as the empty string.
func IntToWire(n *big.Int) string {
	return base64.StdEncoding.EncodeToString(LittleEndianBytes(n))
}

// WireToInt decodes the inverse of IntToWire.
func WireToInt(s string) (*big.Int, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("walletkey: decode base64: %w", err)
	}
	return FromLittleEndianBytes(b), nil
}

// LittleEndianBytes returns the minimal little-endian byte representation of
// n (ceil(bit_length/8) bytes; zero encodes as an empty slice).
func LittleEndianBytes(n *big.Int) []byte {
	be := n.Bytes() // big-endian, minimal, stdlib representation
	out := make([]byte, len(be))
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out
}

// FromLittleEndianBytes is the inverse of LittleEndianBytes.
func FromLittleEndianBytes(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

// CompositeKey is a (exponent, modulus) pair: either a public key
// (exponent = e) or a private key (exponent = d).
type CompositeKey struct {
	Exponent *big.Int
	Modulus  *big.Int
}

// Wire serializes the composite key as the concatenation of two equal-length
// base64 fields: the exponent half and the modulus half. The halves are
// zero-padded (trailing, i.e. high-order for little-endian) to match
// whichever is longer, which does not change the decoded integer.
func (k CompositeKey) Wire() string {
	eb, nb := LittleEndianBytes(k.Exponent), LittleEndianBytes(k.Modulus)
	width := len(eb)
	if len(nb) > width {
		width = len(nb)
	}
	eb = padRight(eb, width)
	nb = padRight(nb, width)
	return base64.StdEncoding.EncodeToString(eb) + base64.StdEncoding.EncodeToString(nb)
}

func padRight(b []byte, width int) []byte {
	if len(b) >= width {
		return b
	}
	out := make([]byte, width)
	copy(out, b)
	return out
}

// ParseCompositeKey splits a wire-form composite key string at its midpoint
// and decodes each half.
func ParseCompositeKey(s string) (CompositeKey, error) {
	if len(s)%2 != 0 {
		return CompositeKey{}, fmt.Errorf("walletkey: composite key has odd length %d", len(s))
	}
	mid := len(s) / 2
	exp, err := WireToInt(s[:mid])
	if err != nil {
		return CompositeKey{}, fmt.Errorf("walletkey: parse exponent half: %w", err)
	}
	mod, err := WireToInt(s[mid:])
	if err != nil {
		return CompositeKey{}, fmt.Errorf("walletkey: parse modulus half: %w", err)
	}
	return CompositeKey{Exponent: exp, Modulus: mod}, nil
}

// Equal reports whether two composite keys serialize identically.
func (k CompositeKey) Equal(other CompositeKey) bool {
	return k.Wire() == other.Wire()
}
