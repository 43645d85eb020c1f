package p2p

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var nonceUpperBound = big.NewInt(1_000_000_000)

// generateNonce returns a random handshake nonce in [0, 1e9), decimal
// encoded so its little-endian integer interpretation stays comfortably
// under any RSA modulus produced by internal/keygen.
func generateNonce() (string, error) {
	n, err := rand.Int(rand.Reader, nonceUpperBound)
	if err != nil {
		return "", fmt.Errorf("p2p: generate nonce: %w", err)
	}
	return n.String(), nil
}
