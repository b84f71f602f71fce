// Package jwtx wraps golang-jwt with the single signing scheme this service
// uses: HMAC-SHA-256 over a shared symmetric secret. The verifier refuses any
// other algorithm in the token header, which closes the classic
// algorithm-substitution hole where an attacker re-signs a token with "none"
// or an asymmetric scheme.
package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the smallest secret accepted for HS256. Anything shorter
// than the hash output weakens the MAC.
const MinKeyBytes = 32

var (
	ErrKeyTooShort = errors.New("jwtx: signing key shorter than 32 bytes")

	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Signer holds the symmetric key and produces signed compact tokens.
type Signer struct {
	key []byte
}

// NewSigner creates an HS256 signer from the shared secret.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) < MinKeyBytes {
		return nil, ErrKeyTooShort
	}
	return &Signer{key: secret}, nil
}

// Alg returns the JOSE algorithm name.
func (s *Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign serializes and signs the claims into a compact JWT string.
func (s *Signer) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}
