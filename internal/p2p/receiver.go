package p2p

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/solheim-systems/simplecoin/internal/keygen"
	"github.com/solheim-systems/simplecoin/pkg/rsaprim"
	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// udpReceiveTimeout is the socket read deadline applied every iteration so
// the receiver loop can observe context cancellation promptly, per spec
// section 5.
const udpReceiveTimeout = 3 * time.Second

// handshakeHTTPTimeout bounds the outbound POST issued during a handshake;
// spec section 5 requires a finite timeout to preserve liveness.
const handshakeHTTPTimeout = 5 * time.Second

// Receiver listens for beacon datagrams and, for each one, drives the
// client side of the `/peer` handshake described in spec section 4.8.
type Receiver struct {
	identity   keygen.KeyPair
	directory  *Directory
	ledgerPort int
	logger     *zap.Logger
	client     *http.Client

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	// OnPeerDiscovered, if set, is called after a handshake successfully adds
	// the responding peer to the directory. Peers merged in from the
	// responder's snapshot are not reported through it. It must not block.
	OnPeerDiscovered func(Peer)
}

// NewReceiver returns a Receiver that authenticates handshakes under
// identity and merges successful peers into directory. ledgerPort is the
// port the outbound /peer POST is addressed to: every node is assumed to
// serve its HTTP API on that same port, per spec's fixed LEDGER_PORT
// convention. The port itself is not sent to the peer.
func NewReceiver(identity keygen.KeyPair, directory *Directory, ledgerPort int, logger *zap.Logger) *Receiver {
	return &Receiver{
		identity:   identity,
		directory:  directory,
		ledgerPort: ledgerPort,
		logger:     logger,
		client:     &http.Client{Timeout: handshakeHTTPTimeout},
		limiters:   make(map[string]*rate.Limiter),
	}
}

// limiterFor returns (creating if absent) a per-remote-address rate
// limiter, so a single noisy beacon source cannot monopolize the
// handshake path.
func (r *Receiver) limiterFor(addr string) *rate.Limiter {
	r.limiterMu.Lock()
	defer r.limiterMu.Unlock()
	lim, ok := r.limiters[addr]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Second), 3)
		r.limiters[addr] = lim
	}
	return lim
}

// Run binds RECEIVE_PORT and processes beacon datagrams until ctx is
// cancelled. Per spec section 5 the socket wait and any outbound HTTP POST
// issued during the handshake are this goroutine's suspension points; the
// handshake therefore runs synchronously within the receive loop.
func (r *Receiver) Run(ctx context.Context) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: ReceivePort})
	if err != nil {
		return fmt.Errorf("p2p: bind receive port %d: %w", ReceivePort, err)
	}
	defer conn.Close()

	buf := make([]byte, 2048)
	r.logger.Info("receiver started", zap.Int("port", ReceivePort))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("receiver stopped")
			return nil
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(udpReceiveTimeout)); err != nil {
			return fmt.Errorf("p2p: set read deadline: %w", err)
		}
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			r.logger.Debug("receive failed", zap.Error(err))
			continue
		}

		r.handleBeacon(buf[:n], addr)
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// handleBeacon parses a beacon datagram and, if well formed, drives a
// handshake with its sender. Any failure (decode error, decrypt error,
// nonce mismatch, timeout) is swallowed here: the peer is simply not
// added, matching spec section 7's propagation policy.
func (r *Receiver) handleBeacon(data []byte, addr *net.UDPAddr) {
	var msg BeaconMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.logger.Debug("malformed beacon payload", zap.Error(err))
		return
	}
	if msg.Coin != CoinName {
		return
	}

	if !r.limiterFor(addr.IP.String()).Allow() {
		return
	}

	peerPublic, err := walletkey.ParseCompositeKey(msg.ID)
	if err != nil {
		r.logger.Debug("invalid beacon public key", zap.Error(err))
		return
	}

	if err := r.handshake(peerPublic, addr); err != nil {
		r.logger.Debug("handshake failed", zap.String("peer", addr.String()), zap.Error(err))
	}
}

func (r *Receiver) handshake(peerPublic walletkey.CompositeKey, addr *net.UDPAddr) error {
	sendNonce, err := generateNonce()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(ipNoncePayload{Address: addr.String(), Nonce: sendNonce})
	if err != nil {
		return fmt.Errorf("encode ip/nonce payload: %w", err)
	}
	encryptedData, err := rsaprim.EncryptWithKey(peerPublic, string(payload))
	if err != nil {
		return fmt.Errorf("encrypt ip/nonce payload: %w", err)
	}

	reqBody, err := json.Marshal(HandshakeRequest{Data: encryptedData, ID: r.identity.Public.Wire()})
	if err != nil {
		return fmt.Errorf("encode handshake request: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/peer", addr.IP.String(), r.ledgerPort)
	resp, err := r.client.Post(url, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("post handshake: %w", err)
	}
	defer resp.Body.Close()

	var hsResp HandshakeResponse
	if err := json.NewDecoder(resp.Body).Decode(&hsResp); err != nil {
		return fmt.Errorf("decode handshake response: %w", err)
	}

	responderPublic, err := walletkey.ParseCompositeKey(hsResp.ID.PublicKey)
	if err != nil {
		return fmt.Errorf("parse responder public key: %w", err)
	}

	recovered, err := rsaprim.DecryptWithKey(responderPublic, hsResp.Nonce)
	if err != nil {
		return fmt.Errorf("decrypt nonce echo: %w", err)
	}
	if recovered != sendNonce {
		return fmt.Errorf("nonce mismatch: sent %s, recovered %s", sendNonce, recovered)
	}

	responderPeer := Peer{
		PublicKey: responderPublic,
		IP:        hsResp.ID.IP,
		Port:      hsResp.ID.Port,
		Nonce:     hsResp.ID.Nonce,
	}
	if r.directory.InsertIfAbsent(responderPeer) && r.OnPeerDiscovered != nil {
		r.OnPeerDiscovered(responderPeer)
	}

	candidates := make([]Peer, 0, len(hsResp.Peers))
	for _, pw := range hsResp.Peers {
		pub, err := walletkey.ParseCompositeKey(pw.PublicKey)
		if err != nil {
			continue
		}
		candidates = append(candidates, Peer{PublicKey: pub, IP: pw.IP, Port: pw.Port, Nonce: pw.Nonce})
	}
	r.directory.MergeIfAbsent(candidates)

	return nil
}
