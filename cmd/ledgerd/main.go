// Command ledgerd runs a simplecoin ledger node: it loads or creates the
// node's own identity and the chain-creator wallet, seeds or replays the
// chain, and serves the HTTP API and peer-discovery substrate until
// interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solheim-systems/simplecoin/internal/api"
	"github.com/solheim-systems/simplecoin/internal/keygen"
	"github.com/solheim-systems/simplecoin/internal/ledger"
	"github.com/solheim-systems/simplecoin/internal/ledger/store"
	"github.com/solheim-systems/simplecoin/internal/ledgertypes"
	"github.com/solheim-systems/simplecoin/internal/node"
	"github.com/solheim-systems/simplecoin/internal/p2p"
)

func main() {
	cfg := node.Config{}
	var storeBackend string
	var verbose bool

	root := &cobra.Command{
		Use:   "ledgerd",
		Short: "Run a simplecoin ledger node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, storeBackend, verbose)
		},
	}

	identityCmd := &cobra.Command{
		Use:   "identity",
		Short: "Print this node's public key without starting it",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := p2p.ReadIdentityPublicKey(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("ledgerd: read node identity: %w", err)
			}
			fmt.Println(pub.Wire())
			return nil
		},
	}
	identityCmd.Flags().StringVar(&cfg.DataDir, "data-dir", "./data", "directory holding key files and the persisted chain")
	root.AddCommand(identityCmd)

	flags := root.Flags()
	flags.StringVar(&cfg.DataDir, "data-dir", "./data", "directory holding key files and the persisted chain")
	flags.IntVar(&cfg.HTTPPort, "port", 5000, "HTTP API / peer-handshake port (LEDGER_PORT)")
	flags.IntVar(&cfg.RSABits, "rsa-bits", keygen.DefaultBits, "bit length of each RSA prime factor")
	flags.IntVar(&cfg.Difficulty, "difficulty", 4, "number of leading hex zeros required of a sealed block hash")
	flags.Uint64Var(&cfg.MinerReward, "reward", 10, "System->miner reward amount per mined block")
	flags.Uint64Var(&cfg.Seed, "seed", 100, "genesis System->creator seed amount")
	flags.BoolVar(&cfg.Mine, "mine", true, "prepend a miner reward to blocks this node seals")
	flags.StringVar(&cfg.AdvertiseIP, "advertise-ip", "", "IP address this node reports as its own (auto-detected if empty)")
	flags.StringVar(&storeBackend, "store", "bolt", "chain persistence backend: bolt, leveldb, or memory")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg node.Config, storeBackend string, verbose bool) error {
	logger, err := buildLogger(verbose)
	if err != nil {
		return fmt.Errorf("ledgerd: build logger: %w", err)
	}
	defer logger.Sync()

	identity, err := p2p.LoadOrCreateIdentity(cfg.DataDir, cfg.RSABits)
	if err != nil {
		return fmt.Errorf("ledgerd: load node identity: %w", err)
	}

	creatorKP, err := keygen.LoadOrGenerate(cfg.DataDir, "creator", cfg.RSABits)
	if err != nil {
		return fmt.Errorf("ledgerd: load creator wallet: %w", err)
	}
	creator := ledgertypes.Wallet{Name: "creator", Public: creatorKP.Public, Private: &creatorKP.Private}

	chainStore, err := openStore(storeBackend, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("ledgerd: open chain store: %w", err)
	}

	chain, err := loadOrSeedChain(chainStore, node.ChainConfig(cfg), creator)
	if err != nil {
		return fmt.Errorf("ledgerd: initialize chain: %w", err)
	}

	n := node.New(cfg, logger, identity, chain, chainStore)
	_, router := api.New(n.Chain(), n, n.Directory(), n.PeerHandler(), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("ledgerd starting",
		zap.String("identity", identity.Public.Wire()[:16]+"..."),
		zap.Int("port", cfg.HTTPPort),
		zap.Int("difficulty", cfg.Difficulty),
	)
	return n.Run(ctx, router)
}

func openStore(backend, dataDir string) (store.ChainStore, error) {
	switch backend {
	case "bolt":
		return store.NewBoltStore(dataDir + "/chain.bolt")
	case "leveldb":
		return store.NewLevelDBStore(dataDir + "/chain.leveldb")
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("ledgerd: unknown store backend %q", backend)
	}
}

func loadOrSeedChain(chainStore store.ChainStore, cfg ledger.Config, creator ledgertypes.Wallet) (*ledger.Chain, error) {
	height, err := chainStore.Height()
	if err != nil {
		return nil, fmt.Errorf("read store height: %w", err)
	}
	if height == 0 {
		chain, err := ledger.NewChain(cfg, creator)
		if err != nil {
			return nil, err
		}
		if err := chainStore.Put(chain.FirstBlock()); err != nil {
			return nil, fmt.Errorf("persist genesis block: %w", err)
		}
		return chain, nil
	}
	return ledger.ReplayChain(cfg, chainStore, height)
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
