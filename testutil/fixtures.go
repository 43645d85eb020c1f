// Package testutil provides shared fixtures for exercising the ledger,
// peer-discovery, and node packages without re-deriving RSA-style keys or
// chain setup in every test file.
package testutil

import (
	"github.com/solheim-systems/simplecoin/internal/keygen"
	"github.com/solheim-systems/simplecoin/internal/ledger"
	"github.com/solheim-systems/simplecoin/internal/ledgertypes"
)

// TestKeyBits is the prime bit length used for fixture key pairs: large
// enough to sign a 64-character SHA-256 hex digest, small enough that
// Generate returns quickly in a test run.
const TestKeyBits = 288

// NewTestWallet generates a fresh composite key pair and wraps it in a
// named Wallet with both halves populated.
func NewTestWallet(name string) (ledgertypes.Wallet, error) {
	kp, err := keygen.Generate(TestKeyBits)
	if err != nil {
		return ledgertypes.Wallet{}, err
	}
	return ledgertypes.Wallet{Name: name, Public: kp.Public, Private: &kp.Private}, nil
}

// SampleChainConfig returns a chain configuration cheap enough for tests:
// difficulty 1 still requires a real proof-of-work search but completes
// quickly, alongside a modest seed and reward.
func SampleChainConfig() ledger.Config {
	return ledger.Config{Difficulty: 1, MinerReward: 10, Seed: 100}
}
