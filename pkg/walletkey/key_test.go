package walletkey

import (
	"math/big"
	"testing"
)

func TestIntWireRoundTrip(t *testing.T) {
	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(255),
		big.NewInt(256),
		new(big.Int).Exp(big.NewInt(2), big.NewInt(4096), nil),
	}

	for _, n := range cases {
		wire := IntToWire(n)
		got, err := WireToInt(wire)
		if err != nil {
			t.Fatalf("WireToInt(%s): %v", n, err)
		}
		if got.Cmp(n) != 0 {
			t.Errorf("round trip of %s produced %s", n, got)
		}
	}
}

func TestIntToWireZero(t *testing.T) {
	if got := IntToWire(big.NewInt(0)); got != "" {
		t.Errorf("IntToWire(0) = %q, want empty string", got)
	}
}

func TestCompositeKeyWireRoundTrip(t *testing.T) {
	k := CompositeKey{
		Exponent: new(big.Int).Exp(big.NewInt(2), big.NewInt(3001), nil),
		Modulus:  new(big.Int).Exp(big.NewInt(2), big.NewInt(4096), nil),
	}

	wire := k.Wire()
	if len(wire)%2 != 0 {
		t.Fatalf("wire form has odd length %d, halves must be equal", len(wire))
	}

	got, err := ParseCompositeKey(wire)
	if err != nil {
		t.Fatalf("ParseCompositeKey: %v", err)
	}
	if got.Exponent.Cmp(k.Exponent) != 0 {
		t.Errorf("exponent round trip mismatch")
	}
	if got.Modulus.Cmp(k.Modulus) != 0 {
		t.Errorf("modulus round trip mismatch")
	}
}

func TestCompositeKeyEqual(t *testing.T) {
	a := CompositeKey{Exponent: big.NewInt(65537), Modulus: big.NewInt(3233)}
	b := CompositeKey{Exponent: big.NewInt(65537), Modulus: big.NewInt(3233)}
	c := CompositeKey{Exponent: big.NewInt(17), Modulus: big.NewInt(3233)}

	if !a.Equal(b) {
		t.Error("identical composite keys should be equal")
	}
	if a.Equal(c) {
		t.Error("different composite keys should not be equal")
	}
}
