// Package rsaprim implements the textbook RSA-style primitive this ledger
// uses for both confidentiality and signing. It is deliberately simple (no
// padding scheme) and MUST NOT be treated as production-grade cryptography;
// see spec section 9 ("RSA as both signature and envelope").
package rsaprim

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/solheim-systems/simplecoin/pkg/bigmath"
	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// ErrMessageTooLarge is returned when the integer interpretation of a
// plaintext message is not smaller than the modulus, in which case the
// primitive is undefined (spec section 4.3, edge case).
var ErrMessageTooLarge = errors.New("rsaprim: message integer >= modulus")

// ErrHashMismatch is returned by Verify when the recovered digest does not
// match the expected one.
var ErrHashMismatch = errors.New("rsaprim: hash mismatch")

// Encrypt interprets the UTF-8 bytes of msg as a little-endian integer m
// with m < n, and returns intToWire(m^exponent mod n).
func Encrypt(exponent, modulus *big.Int, msg string) (string, error) {
	m := walletkey.FromLittleEndianBytes([]byte(msg))
	if m.Cmp(modulus) >= 0 {
		return "", ErrMessageTooLarge
	}
	c := bigmath.PowMod(m, exponent, modulus)
	return walletkey.IntToWire(c), nil
}

// Decrypt is the inverse of Encrypt: it decodes wire as an integer, raises
// it to exponent mod modulus, and interprets the result as UTF-8 text.
func Decrypt(exponent, modulus *big.Int, wire string) (string, error) {
	c, err := walletkey.WireToInt(wire)
	if err != nil {
		return "", fmt.Errorf("rsaprim: decode ciphertext: %w", err)
	}
	m := bigmath.PowMod(c, exponent, modulus)
	return string(walletkey.LittleEndianBytes(m)), nil
}

// EncryptWithKey splits a composite key and calls Encrypt.
func EncryptWithKey(key walletkey.CompositeKey, msg string) (string, error) {
	return Encrypt(key.Exponent, key.Modulus, msg)
}

// DecryptWithKey splits a composite key and calls Decrypt.
func DecryptWithKey(key walletkey.CompositeKey, wire string) (string, error) {
	return Decrypt(key.Exponent, key.Modulus, wire)
}

// Sign signs digestHex (a 64-character hex SHA-256 digest) with the signer's
// private composite key. Signing is implemented as EncryptWithKey under the
// private key, per spec section 9.
func Sign(private walletkey.CompositeKey, digestHex string) (string, error) {
	return EncryptWithKey(private, digestHex)
}

// Verify checks that signature decrypts under the signer's public composite
// key to exactly digestHex.
func Verify(public walletkey.CompositeKey, digestHex, signature string) error {
	recovered, err := DecryptWithKey(public, signature)
	if err != nil {
		return fmt.Errorf("rsaprim: decrypt signature: %w", err)
	}
	if recovered != digestHex {
		return ErrHashMismatch
	}
	return nil
}

// SHA256Hex returns the hex-encoded SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
