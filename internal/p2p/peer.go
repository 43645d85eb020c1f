package p2p

import (
	"fmt"
	"sync"

	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// Peer is a discovered node: its public key, network address, and the
// handshake nonce last exchanged with it.
type Peer struct {
	PublicKey walletkey.CompositeKey
	IP        string
	Port      int
	Nonce     string
}

// Key returns the directory key "ip:port" for this peer.
func (p Peer) Key() string {
	return fmt.Sprintf("%s:%d", p.IP, p.Port)
}

// Wire converts a Peer to its over-the-wire form.
func (p Peer) Wire() PeerWire {
	return PeerWire{PublicKey: p.PublicKey.Wire(), IP: p.IP, Port: p.Port, Nonce: p.Nonce}
}

// Directory is the shared peer map keyed by "ip:port", guarded by a single
// mutex. All reads and writes, including the snapshot built for an HTTP
// response, happen under it; per spec section 5 the mutex MUST be released
// before any network I/O, so callers copy out, release, then act.
type Directory struct {
	mu    sync.Mutex
	peers map[string]Peer
}

// NewDirectory returns an empty peer directory.
func NewDirectory() *Directory {
	return &Directory{peers: make(map[string]Peer)}
}

// Snapshot returns a copy of all currently known peers.
func (d *Directory) Snapshot() []Peer {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Peer, 0, len(d.peers))
	for _, p := range d.peers {
		out = append(out, p)
	}
	return out
}

// SnapshotExcluding returns a copy of all known peers other than the one
// keyed by exclude.
func (d *Directory) SnapshotExcluding(exclude string) []Peer {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Peer, 0, len(d.peers))
	for key, p := range d.peers {
		if key == exclude {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Has reports whether key is already present.
func (d *Directory) Has(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.peers[key]
	return ok
}

// InsertIfAbsent adds p under its Key() if not already present, returning
// whether it was inserted.
func (d *Directory) InsertIfAbsent(p Peer) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := p.Key()
	if _, exists := d.peers[key]; exists {
		return false
	}
	d.peers[key] = p
	return true
}

// Len returns the number of known peers.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.peers)
}

// SnapshotExcludingThenInsert atomically returns a snapshot of all
// currently known peers other than p, then inserts p if its key was not
// already present. This gives the /peer handler the single critical
// section spec section 4.8 describes: "while inserting, it returns the
// snapshot of all previously known peers (not including the caller)".
func (d *Directory) SnapshotExcludingThenInsert(p Peer) []Peer {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := p.Key()
	out := make([]Peer, 0, len(d.peers))
	for k, existing := range d.peers {
		if k == key {
			continue
		}
		out = append(out, existing)
	}
	if _, exists := d.peers[key]; !exists {
		d.peers[key] = p
	}
	return out
}

// MergeIfAbsent inserts each candidate whose key is not already present,
// returning how many were newly added.
func (d *Directory) MergeIfAbsent(candidates []Peer) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	added := 0
	for _, p := range candidates {
		key := p.Key()
		if _, exists := d.peers[key]; exists {
			continue
		}
		d.peers[key] = p
		added++
	}
	return added
}
