package p2p

// CoinName identifies this protocol family on the wire, per spec section
// 4.8's beacon payload.
const CoinName = "simplecoin"

// ReceivePort is the fixed UDP port the receiver binds to and the beacon
// broadcasts to, per spec section 6. The beacon sends from an ephemeral port.
const ReceivePort = 5001

// BroadcastIntervalSeconds is how often, in seconds, the beacon radiates its
// identity, per spec section 4.8.
const BroadcastIntervalSeconds = 3

// BeaconMessage is the UDP broadcast payload: {coin, id}.
type BeaconMessage struct {
	Coin string `json:"coin"`
	ID   string `json:"id"`
}

// ipNoncePayload is the plaintext the receiver encrypts under the peer's
// public key before POSTing it to /peer.
type ipNoncePayload struct {
	Address string `json:"address"`
	Nonce   string `json:"nonce"`
}

// HandshakeRequest is the body of POST /peer.
type HandshakeRequest struct {
	// Data is ipNoncePayload, JSON-encoded then encrypted under the
	// server's public key.
	Data string `json:"data"`
	// ID is the caller's public composite key, wire form.
	ID string `json:"id"`
}

// PeerWire is the over-the-wire representation of a directory entry.
type PeerWire struct {
	PublicKey string `json:"publicKey"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	Nonce     string `json:"nonce"`
}

// HandshakeResponse is the body returned by POST /peer.
type HandshakeResponse struct {
	// Peers is a snapshot of previously known peers, not including the
	// caller.
	Peers []PeerWire `json:"peers"`
	// ID is the responder's own peer info.
	ID PeerWire `json:"id"`
	// Nonce is the caller's nonce, re-encrypted under the responder's
	// private key (a signature the caller verifies with the responder's
	// public key).
	Nonce string `json:"nonce"`
}
