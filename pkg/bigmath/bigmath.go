// Package bigmath wraps the arbitrary-precision primitives the RSA-style
// crypto layer is built on: modular exponentiation and the extended
// Euclidean algorithm used to derive modular inverses.
package bigmath

import (
	"errors"
	"math/big"
)

// ErrNoInverse is returned when a modular inverse does not exist because
// the operands are not coprime.
var ErrNoInverse = errors.New("bigmath: no modular inverse (gcd != 1)")

// PowMod computes base^exp mod m for non-negative base, exp and a positive
// modulus m.
func PowMod(base, exp, m *big.Int) *big.Int {
	return new(big.Int).Exp(base, exp, m)
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b *big.Int) *big.Int {
	return new(big.Int).GCD(nil, nil, abs(a), abs(b))
}

// ExtGCD runs the extended Euclidean algorithm and returns (gcd, x, y) such
// that a*x + b*y = gcd(a, b).
func ExtGCD(a, b *big.Int) (gcd, x, y *big.Int) {
	gcd, x, y = new(big.Int), new(big.Int), new(big.Int)
	gcd.GCD(x, y, abs(a), abs(b))
	return gcd, x, y
}

// ModInverse returns the multiplicative inverse of a modulo m. It fails
// with ErrNoInverse when gcd(a, m) != 1.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	inv := new(big.Int).ModInverse(a, m)
	if inv == nil {
		return nil, ErrNoInverse
	}
	return inv, nil
}

func abs(n *big.Int) *big.Int {
	if n.Sign() < 0 {
		return new(big.Int).Abs(n)
	}
	return n
}
