// Package node wires together the chain, peer directory, UDP beacon,
// handshake client/server, and HTTP API into a running ledger node.
package node

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solheim-systems/simplecoin/internal/keygen"
	"github.com/solheim-systems/simplecoin/internal/ledger"
	"github.com/solheim-systems/simplecoin/internal/ledger/store"
	"github.com/solheim-systems/simplecoin/internal/ledgertypes"
	"github.com/solheim-systems/simplecoin/internal/metrics"
	"github.com/solheim-systems/simplecoin/internal/p2p"
)

// Config holds everything needed to bring up a node, bound from CLI flags
// in cmd/ledgerd.
type Config struct {
	DataDir     string
	HTTPPort    int
	RSABits     int
	Difficulty  int
	MinerReward uint64
	Seed        uint64
	// Mine, if true, makes this node prepend a miner reward to blocks it
	// seals, paid to its own node identity.
	Mine bool
	// AdvertiseIP is the address this node reports as its own in a /peer
	// handshake response's id field. If empty, it is auto-detected the same
	// way the original resolved its own hostname IP on startup.
	AdvertiseIP string
}

// ChainConfig projects the chain-relevant fields of Config into a
// ledger.Config, for cmd/ledgerd's startup/replay path.
func ChainConfig(cfg Config) ledger.Config {
	return ledger.Config{
		Difficulty:  cfg.Difficulty,
		MinerReward: cfg.MinerReward,
		Seed:        cfg.Seed,
	}
}

// Node is a running ledger node: the single writer of the chain, the HTTP
// API, the UDP beacon/receiver, and the /peer handshake server.
type Node struct {
	cfg       Config
	logger    *zap.Logger
	identity  keygen.KeyPair
	chain     *ledger.Chain
	chainStore store.ChainStore
	directory *p2p.Directory

	beacon   *p2p.Beacon
	receiver *p2p.Receiver
	server   *p2p.Server
	httpSrv  *http.Server

	mineCh    chan mineRequest
	events    chan interface{}
	startedAt time.Time
}

// New constructs a Node. If dataDir already holds a persisted chain (via
// chainStore), the caller is responsible for replaying it before bringing
// traffic up; New itself only wires components, it does not seed or
// replay.
func New(cfg Config, logger *zap.Logger, identity keygen.KeyPair, chain *ledger.Chain, chainStore store.ChainStore) *Node {
	directory := p2p.NewDirectory()
	advertiseIP := cfg.AdvertiseIP
	if advertiseIP == "" {
		advertiseIP = detectLocalIP(logger)
	}

	metrics.Difficulty.Set(float64(cfg.Difficulty))

	n := &Node{
		cfg:        cfg,
		logger:     logger,
		identity:   identity,
		chain:      chain,
		chainStore: chainStore,
		directory:  directory,
		beacon:     p2p.NewBeacon(identity, logger),
		receiver:   p2p.NewReceiver(identity, directory, cfg.HTTPPort, logger),
		server:     p2p.NewServer(identity, directory, advertiseIP, cfg.HTTPPort, logger),
		mineCh:     make(chan mineRequest, 64),
		events:     make(chan interface{}, 64),
		startedAt:  time.Now(),
	}
	n.receiver.OnPeerDiscovered = func(p p2p.Peer) {
		n.emit(PeerDiscoveredEvent{Peer: p})
	}
	return n
}

// emit sends an event to the node's event stream without blocking if
// nothing is currently reading it.
func (n *Node) emit(event interface{}) {
	select {
	case n.events <- event:
	default:
	}
}

// detectLocalIP mirrors the original's
// socket.gethostbyname(socket.gethostname()) self-addressing, via the
// standard trick of opening a UDP "connection" to an external address and
// reading back the local address it would be sent from (no packets are
// actually sent).
func detectLocalIP(logger *zap.Logger) string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		logger.Debug("local ip auto-detect failed, falling back to loopback", zap.Error(err))
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// Chain returns the node's chain, for read-only API handlers.
func (n *Node) Chain() *ledger.Chain { return n.chain }

// Directory returns the node's peer directory, for read-only API handlers.
func (n *Node) Directory() *p2p.Directory { return n.directory }

// Identity returns the node's own composite key pair.
func (n *Node) Identity() keygen.KeyPair { return n.identity }

// PeerHandler exposes the /peer handshake HTTP handler for the API router
// to mount.
func (n *Node) PeerHandler() http.HandlerFunc { return n.server.HandlePeer }

// SubmitTransactions enqueues a batch of transactions for the single mining
// goroutine and blocks until they have been folded into a block (or
// rejected), or ctx is cancelled. Matches spec section 6's `POST
// /transactions` contract: the whole batch is submitted to mineBlock
// together, so transactions that only validate as a sequence must be
// submitted one call at a time.
func (n *Node) SubmitTransactions(ctx context.Context, txs []*ledgertypes.Transaction) (*ledger.Block, []*ledgertypes.Transaction, error) {
	resultCh := make(chan mineResult, 1)
	req := mineRequest{transactions: txs, result: resultCh}

	select {
	case n.mineCh <- req:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	select {
	case res := <-resultCh:
		return res.block, res.rejected, res.err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// Run starts the beacon, receiver, mining loop, and HTTP server, and blocks
// until ctx is cancelled, then shuts everything down.
func (n *Node) Run(ctx context.Context, mux http.Handler) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := n.beacon.Run(ctx); err != nil {
			n.logger.Error("beacon stopped with error", zap.Error(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := n.receiver.Run(ctx); err != nil {
			n.logger.Error("receiver stopped with error", zap.Error(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n.runMiningLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n.logEvents(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n.reportUptime(ctx)
	}()

	n.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", n.cfg.HTTPPort),
		Handler: mux,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.logger.Info("http server listening", zap.Int("port", n.cfg.HTTPPort))
		if err := n.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.logger.Error("http server stopped with error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.httpSrv.Shutdown(shutdownCtx); err != nil {
		n.logger.Debug("http server shutdown error", zap.Error(err))
	}
	if n.chainStore != nil {
		if err := n.chainStore.Close(); err != nil {
			n.logger.Debug("chain store close error", zap.Error(err))
		}
	}

	wg.Wait()
	return nil
}

// reportUptime sets the UptimeSeconds gauge on a fixed interval until ctx is
// cancelled.
func (n *Node) reportUptime(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UptimeSeconds.Set(time.Since(n.startedAt).Seconds())
		}
	}
}

// logEvents drains the node's event stream and logs each one, standing in
// for a real subscriber (a future status endpoint or CLI) until one exists.
func (n *Node) logEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-n.events:
			switch e := event.(type) {
			case PeerDiscoveredEvent:
				n.logger.Info("peer discovered", zap.String("peer", e.Peer.Key()))
			case BlockMinedEvent:
				n.logger.Info("block mined", zap.Uint64("index", e.Block.Index))
			}
		}
	}
}

// runMiningLoop is the single writer of the chain: it drains mineCh one
// request at a time, mines, persists the sealed block if a store is
// configured, and reports metrics.
func (n *Node) runMiningLoop(ctx context.Context) {
	var minerWallet *ledgertypes.Wallet
	if n.cfg.Mine {
		minerWallet = &ledgertypes.Wallet{
			Name:    "node",
			Public:  n.identity.Public,
			Private: &n.identity.Private,
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-n.mineCh:
			block, rejected, err := n.chain.MineBlock(ctx, req.transactions, minerWallet)
			if err != nil {
				req.result <- mineResult{rejected: rejected, err: err}
				continue
			}
			metrics.TransactionsRejected.Add(float64(len(rejected)))

			if block != nil {
				metrics.TransactionsAccepted.Add(float64(len(block.Transactions)))
				metrics.BlocksMined.Inc()
				metrics.ChainHeight.Set(float64(n.chain.Len()))
				metrics.PeersConnected.Set(float64(n.directory.Len()))

				if n.chainStore != nil {
					if err := n.chainStore.Put(block); err != nil {
						n.logger.Error("persist mined block failed", zap.Uint64("index", block.Index), zap.Error(err))
					}
				}

				n.emit(BlockMinedEvent{Block: block})
			}

			req.result <- mineResult{block: block, rejected: rejected}
		}
	}
}
