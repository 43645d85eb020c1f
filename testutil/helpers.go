package testutil

import (
	"testing"

	"github.com/solheim-systems/simplecoin/internal/ledgertypes"
)

// MustWallet generates a test wallet or fails the test.
func MustWallet(t *testing.T, name string) ledgertypes.Wallet {
	t.Helper()
	w, err := NewTestWallet(name)
	if err != nil {
		t.Fatalf("generate test wallet %q: %v", name, err)
	}
	return w
}
