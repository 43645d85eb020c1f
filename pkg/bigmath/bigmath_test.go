package bigmath

import (
	"math/big"
	"testing"
)

func TestPowMod(t *testing.T) {
	got := PowMod(big.NewInt(4), big.NewInt(13), big.NewInt(497))
	want := big.NewInt(445)
	if got.Cmp(want) != 0 {
		t.Errorf("PowMod(4, 13, 497) = %s, want %s", got, want)
	}
}

func TestExtGCD(t *testing.T) {
	a, b := big.NewInt(240), big.NewInt(46)
	gcd, x, y := ExtGCD(a, b)

	if gcd.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("gcd = %s, want 2", gcd)
	}

	// a*x + b*y should equal gcd.
	lhs := new(big.Int).Add(new(big.Int).Mul(a, x), new(big.Int).Mul(b, y))
	if lhs.Cmp(gcd) != 0 {
		t.Errorf("a*x + b*y = %s, want %s", lhs, gcd)
	}
}

func TestModInverse(t *testing.T) {
	inv, err := ModInverse(big.NewInt(3), big.NewInt(11))
	if err != nil {
		t.Fatalf("ModInverse: %v", err)
	}
	if inv.Cmp(big.NewInt(4)) != 0 {
		t.Errorf("inverse of 3 mod 11 = %s, want 4", inv)
	}

	if _, err := ModInverse(big.NewInt(2), big.NewInt(4)); err != ErrNoInverse {
		t.Errorf("expected ErrNoInverse, got %v", err)
	}
}
