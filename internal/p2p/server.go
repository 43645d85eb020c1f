package p2p

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/solheim-systems/simplecoin/internal/keygen"
	"github.com/solheim-systems/simplecoin/internal/metrics"
	"github.com/solheim-systems/simplecoin/pkg/rsaprim"
	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// Server answers the /peer handshake described in spec section 4.8.
type Server struct {
	identity  keygen.KeyPair
	directory *Directory
	self      Peer
	logger    *zap.Logger
}

// NewServer returns a Server that authenticates handshakes under identity
// and advertises this node's own ip/port/nonce as selfIP/selfPort under
// meNonce in every response's id field.
func NewServer(identity keygen.KeyPair, directory *Directory, selfIP string, selfPort int, logger *zap.Logger) *Server {
	return &Server{
		identity:  identity,
		directory: directory,
		self:      Peer{PublicKey: identity.Public, IP: selfIP, Port: selfPort},
		logger:    logger,
	}
}

// HandlePeer implements POST /peer: it decrypts the caller's ip/nonce
// payload, atomically records the caller in the directory while taking a
// snapshot of everyone already known, and replies with that snapshot plus
// this node's own identity and an echo of the caller's nonce signed under
// this node's private key.
func (s *Server) HandlePeer(w http.ResponseWriter, r *http.Request) {
	var req HandshakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed handshake request", http.StatusBadRequest)
		return
	}

	callerPublic, err := walletkey.ParseCompositeKey(req.ID)
	if err != nil {
		http.Error(w, "malformed caller public key", http.StatusBadRequest)
		return
	}

	plaintext, err := rsaprim.DecryptWithKey(s.identity.Private, req.Data)
	if err != nil {
		http.Error(w, "undecryptable payload", http.StatusBadRequest)
		return
	}

	var payload ipNoncePayload
	if err := json.Unmarshal([]byte(plaintext), &payload); err != nil {
		http.Error(w, "malformed ip/nonce payload", http.StatusBadRequest)
		return
	}

	host, portStr, err := net.SplitHostPort(payload.Address)
	if err != nil {
		http.Error(w, "malformed caller address", http.StatusBadRequest)
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		http.Error(w, "malformed caller port", http.StatusBadRequest)
		return
	}

	meNonce, err := generateNonce()
	if err != nil {
		http.Error(w, "nonce generation failed", http.StatusInternalServerError)
		return
	}
	encryptedMeNonce, err := rsaprim.EncryptWithKey(s.identity.Private, meNonce)
	if err != nil {
		http.Error(w, "nonce signing failed", http.StatusInternalServerError)
		return
	}
	echoedNonce, err := rsaprim.EncryptWithKey(s.identity.Private, payload.Nonce)
	if err != nil {
		http.Error(w, "nonce echo failed", http.StatusInternalServerError)
		return
	}

	caller := Peer{PublicKey: callerPublic, IP: host, Port: port, Nonce: payload.Nonce}
	known := s.directory.SnapshotExcludingThenInsert(caller)

	selfWithNonce := s.self
	selfWithNonce.Nonce = encryptedMeNonce

	wirePeers := make([]PeerWire, 0, len(known))
	for _, p := range known {
		wirePeers = append(wirePeers, p.Wire())
	}

	resp := HandshakeResponse{
		Peers: wirePeers,
		ID:    selfWithNonce.Wire(),
		Nonce: echoedNonce,
	}

	metrics.HandshakesAccepted.Inc()
	s.logger.Debug("handshake accepted", zap.String("peer", caller.Key()))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Debug("handshake response encode failed", zap.Error(err))
	}
}
