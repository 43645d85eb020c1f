// Package p2p implements peer discovery: a UDP-broadcast beacon, the
// receiver side that reacts to beacons by initiating a `/peer` handshake,
// and the shared peer directory both populate. See spec section 4.8.
package p2p

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/solheim-systems/simplecoin/internal/keygen"
	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

const identityKeyName = "node_identity"

// LoadOrCreateIdentity loads this node's persistent composite key pair from
// dataDir, or generates and saves a new one if absent. This ensures the
// node authenticates its `/peer` handshakes and UDP beacon under a stable
// public key across restarts, mirroring how the original bootstrapped its
// own Server_*.key identity on first run.
func LoadOrCreateIdentity(dataDir string, bits int) (keygen.KeyPair, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return keygen.KeyPair{}, fmt.Errorf("p2p: create data dir: %w", err)
	}
	return keygen.LoadOrGenerate(dataDir, identityKeyName, bits)
}

// identityPublicKeyPath returns the path LoadOrCreateIdentity persists the
// public half of the node identity to, for callers that only need to read
// the public key without loading the private half (e.g. status reporting).
func identityPublicKeyPath(dataDir string) string {
	return filepath.Join(dataDir, identityKeyName+"_public.key")
}

// ReadIdentityPublicKey reads just the public half of a previously created
// node identity.
func ReadIdentityPublicKey(dataDir string) (walletkey.CompositeKey, error) {
	return keygen.LoadKeyFile(identityPublicKeyPath(dataDir))
}
