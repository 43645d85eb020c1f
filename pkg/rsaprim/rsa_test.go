package rsaprim

import (
	"math/big"
	"testing"

	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// toyKeyPair returns a tiny RSA key pair (e=17, d=2753, n=3233, from the
// textbook p=61, q=53 example) suitable only for exercising the primitive,
// never for anything resembling real security.
func toyKeyPair() (pub, priv walletkey.CompositeKey) {
	n := big.NewInt(3233)
	pub = walletkey.CompositeKey{Exponent: big.NewInt(17), Modulus: n}
	priv = walletkey.CompositeKey{Exponent: big.NewInt(2753), Modulus: n}
	return pub, priv
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	pub, priv := toyKeyPair()

	// Single byte message so its integer value stays well under n = 3233.
	msg := "A"
	ciphertext, err := EncryptWithKey(pub, msg)
	if err != nil {
		t.Fatalf("EncryptWithKey: %v", err)
	}

	plain, err := DecryptWithKey(priv, ciphertext)
	if err != nil {
		t.Fatalf("DecryptWithKey: %v", err)
	}
	if plain != msg {
		t.Errorf("decrypted %q, want %q", plain, msg)
	}
}

func TestSignVerify(t *testing.T) {
	pub, priv := toyKeyPair()
	digest := "a" // single hex character stand-in digest: 0x61 = 97, well under n

	sig, err := Sign(priv, digest)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := Verify(pub, digest, sig); err != nil {
		t.Errorf("Verify: %v", err)
	}
	if err := Verify(pub, "b", sig); err != ErrHashMismatch {
		t.Errorf("Verify with wrong digest = %v, want ErrHashMismatch", err)
	}
}

func TestEncryptMessageTooLarge(t *testing.T) {
	pub, _ := toyKeyPair()
	// A long message's little-endian integer interpretation vastly exceeds
	// the toy modulus.
	if _, err := EncryptWithKey(pub, "this message is far too long for n=3233"); err != ErrMessageTooLarge {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestSHA256Hex(t *testing.T) {
	got := SHA256Hex([]byte(""))
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("SHA256Hex(\"\") = %s, want %s", got, want)
	}
}
