package node

import (
	"context"
	"math/big"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/solheim-systems/simplecoin/internal/keygen"
	"github.com/solheim-systems/simplecoin/internal/ledger"
	"github.com/solheim-systems/simplecoin/internal/ledger/store"
	"github.com/solheim-systems/simplecoin/internal/ledgertypes"
	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// Precomputed RSA-style key pairs, reused to avoid prime-search cost.
var (
	creatorModulus, _ = new(big.Int).SetString("188863072133939186552223888142388787393750445093705808527939117276601379940080297302469800303034923826610613714519894144646149271941272879058632919825494121042719001019701317", 10)
	creatorExponent   = big.NewInt(65537)
	creatorD, _       = new(big.Int).SetString("42742528432650045240743163540105749341961130378714993852120069387468936131822801922428843698968457813204457280549174716994476176839176274276115584416284567128028175535311873", 10)

	identityModulus, _ = new(big.Int).SetString("159406611382894938288945984011124060954600744471175281602208954040971063083704068255831023917658267517775748412460840469299958439755446379025555529165702029190689933588258229", 10)
	identityExponent   = big.NewInt(65537)
	identityD, _       = new(big.Int).SetString("47259875477511156307951545986788234193629437799638917276209163938173363988531212081889333871815655753376492821846404422527491479466304504580177619505864843492762533802167113", 10)

	recvModulus, _ = new(big.Int).SetString("184316862780166861372425469454988145554563748545234738369955976728552252274377705820671077506305190337593906738710823335444723424169009855384894525771657510076470413056824987", 10)
	recvExponent   = big.NewInt(65537)
	recvD, _       = new(big.Int).SetString("154769691558285587503027999596830075194366505122187663262539441160702488592875467736046849398060531294494227843494718697449835094847213359611384575430471905865166201029965713", 10)
)

func testCreatorWallet() ledgertypes.Wallet {
	pub := walletkey.CompositeKey{Exponent: creatorExponent, Modulus: creatorModulus}
	priv := walletkey.CompositeKey{Exponent: creatorD, Modulus: creatorModulus}
	return ledgertypes.Wallet{Name: "creator", Public: pub, Private: &priv}
}

func testIdentity() keygen.KeyPair {
	return keygen.KeyPair{
		Public:  walletkey.CompositeKey{Exponent: identityExponent, Modulus: identityModulus},
		Private: walletkey.CompositeKey{Exponent: identityD, Modulus: identityModulus},
	}
}

func testRecvWallet() ledgertypes.Wallet {
	pub := walletkey.CompositeKey{Exponent: recvExponent, Modulus: recvModulus}
	priv := walletkey.CompositeKey{Exponent: recvD, Modulus: recvModulus}
	return ledgertypes.Wallet{Name: "recv", Public: pub, Private: &priv}
}

func newTestNode(t *testing.T) *Node {
	t.Helper()
	creator := testCreatorWallet()
	cfg := Config{Difficulty: 1, MinerReward: 10, Seed: 100, Mine: true, AdvertiseIP: "127.0.0.1"}

	chain, err := ledger.NewChain(ChainConfig(cfg), creator)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	n := New(cfg, zap.NewNop(), testIdentity(), chain, store.NewMemoryStore())
	return n
}

func TestSubmitTransactionsMinesAndPersists(t *testing.T) {
	n := newTestNode(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.runMiningLoop(ctx)

	creator := testCreatorWallet()
	recv := testRecvWallet()
	tx, err := ledgertypes.New(recv, 10, &creator)
	if err != nil {
		t.Fatalf("New tx: %v", err)
	}

	submitCtx, submitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer submitCancel()

	block, rejected, err := n.SubmitTransactions(submitCtx, []*ledgertypes.Transaction{tx})
	if err != nil {
		t.Fatalf("SubmitTransactions: %v", err)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %d, want 0", len(rejected))
	}
	if block == nil {
		t.Fatalf("expected a mined block")
	}
	if n.Chain().Len() != 2 {
		t.Errorf("chain length = %d, want 2 (genesis + mined)", n.Chain().Len())
	}
	if got := n.Chain().GetBalance(recv.ID(), nil); got != 10 {
		t.Errorf("balance(recv) = %d, want 10", got)
	}
	if _, ok, err := n.chainStore.Get(block.Index); err != nil || !ok {
		t.Errorf("store.Get(%d) = (_, %v, %v), want the mined block persisted", block.Index, ok, err)
	}
}

func TestSubmitTransactionsRejectsInsufficientBalance(t *testing.T) {
	n := newTestNode(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.runMiningLoop(ctx)

	recv := testRecvWallet()
	creator := testCreatorWallet()
	// recv has no balance yet, so recv->creator must be rejected.
	tx, err := ledgertypes.New(creator, 10, &recv)
	if err != nil {
		t.Fatalf("New tx: %v", err)
	}

	submitCtx, submitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer submitCancel()

	block, rejected, err := n.SubmitTransactions(submitCtx, []*ledgertypes.Transaction{tx})
	if err != nil {
		t.Fatalf("SubmitTransactions: %v", err)
	}
	if block != nil {
		t.Errorf("expected no block mined, got one")
	}
	if len(rejected) != 1 {
		t.Errorf("rejected = %d, want 1", len(rejected))
	}
	if n.Chain().Len() != 1 {
		t.Errorf("chain length = %d, want 1 (genesis only)", n.Chain().Len())
	}
}

func TestSubmitTransactionsContextCancelledBeforeAccepted(t *testing.T) {
	n := newTestNode(t)
	// Deliberately do not start runMiningLoop: mineCh is never drained.

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	creator := testCreatorWallet()
	recv := testRecvWallet()
	tx, err := ledgertypes.New(recv, 10, &creator)
	if err != nil {
		t.Fatalf("New tx: %v", err)
	}

	_, _, err = n.SubmitTransactions(ctx, []*ledgertypes.Transaction{tx})
	if err != context.DeadlineExceeded {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestDetectLocalIPNeverEmpty(t *testing.T) {
	// detectLocalIP should never panic and always return a non-empty string,
	// even in environments without outbound network access.
	ip := detectLocalIP(zap.NewNop())
	if ip == "" {
		t.Errorf("detectLocalIP() returned empty string")
	}
}
