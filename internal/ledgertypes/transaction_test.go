package ledgertypes

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// testModulus is large enough (576 bits) to comfortably exceed any 64-hex-
// character SHA-256 digest interpreted as a little-endian integer, unlike
// the tiny toy modulus used to exercise the rsaprim primitive in isolation.
var testModulus, _ = new(big.Int).SetString("186076019867990108117047372371147615783429032100132005932709757025490200789340163265491239626464468286767531292930068188272278609378756685185972448410939864136687202112424789", 10)
var testTotient, _ = new(big.Int).SetString("186076019867990108117047372371147615783429032100132005932709757025490200789340163265490372244078694508767375804716292157696301758771012063649306963801606805012318839601638124", 10)
var testE = big.NewInt(65537)
var testD, _ = new(big.Int).SetString("75677407167880866407552690284580749059180576187450119568037076212786911391108422901237169565187199954784101113857943622247543022693784511718702836766529254936880637666387881", 10)

func testWallet(name string) Wallet {
	pub := walletkey.CompositeKey{Exponent: testE, Modulus: testModulus}
	priv := walletkey.CompositeKey{Exponent: testD, Modulus: testModulus}
	return Wallet{Name: name, Public: pub, Private: &priv}
}

func TestNewOrdinaryTransaction(t *testing.T) {
	a := testWallet("A")
	b := testWallet("B")

	tx, err := New(b, 40, &a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tx.Sender != a.ID() {
		t.Errorf("Sender = %q, want %q", tx.Sender, a.ID())
	}
	if tx.Recv != b.ID() {
		t.Errorf("Recv = %q, want %q", tx.Recv, b.ID())
	}
	if tx.IsSystem() {
		t.Error("ordinary transaction reported as System")
	}
	if err := tx.Verify(a.Public); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestNewSystemTransaction(t *testing.T) {
	miner := testWallet("Miner")

	tx, err := New(miner, 10, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !tx.IsSystem() {
		t.Error("System transaction not reported as System")
	}
	if tx.Sender != SystemSender {
		t.Errorf("Sender = %q, want %q", tx.Sender, SystemSender)
	}
	// System transactions are signed with the receiver's key.
	if err := tx.Verify(miner.Public); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestNewRejectsMissingPrivateKey(t *testing.T) {
	a := testWallet("A")
	a.Private = nil
	b := testWallet("B")

	if _, err := New(b, 5, &a); err == nil {
		t.Error("expected error when sender has no private key")
	}
}

func TestVerifyRejectsNonPositiveAmount(t *testing.T) {
	a := testWallet("A")
	b := testWallet("B")

	tx, err := New(b, 40, &a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tx.Amount = 0

	if err := tx.Verify(a.Public); err != ErrNonPositiveAmount {
		t.Errorf("Verify = %v, want ErrNonPositiveAmount", err)
	}
}

func TestVerifyDetectsTamperedAmount(t *testing.T) {
	a := testWallet("A")
	b := testWallet("B")

	tx, err := New(b, 40, &a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tx.Amount = 41 // tampered after signing; digest no longer matches

	if err := tx.Verify(a.Public); err != ErrHashMismatch {
		t.Errorf("Verify = %v, want ErrHashMismatch", err)
	}
}

func TestMarshalJSONOmitsSenderForSystem(t *testing.T) {
	miner := testWallet("Miner")
	tx, err := New(miner, 10, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal to map: %v", err)
	}
	if raw["sender"] != nil {
		t.Errorf("sender = %v, want null", raw["sender"])
	}
}

func TestUnmarshalJSONRoundTrip(t *testing.T) {
	a := testWallet("A")
	b := testWallet("B")
	tx, err := New(b, 40, &a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Transaction
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Sender != tx.Sender || got.Recv != tx.Recv || got.Amount != tx.Amount || got.Hash != tx.Hash {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, *tx)
	}
}

func TestUnmarshalJSONDefaultsNullSenderToSystem(t *testing.T) {
	raw := `{"timestamp":1.0,"recv":"x","sender":null,"amount":10,"hash":"y"}`
	var tx Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if tx.Sender != SystemSender {
		t.Errorf("Sender = %q, want %q", tx.Sender, SystemSender)
	}
}
