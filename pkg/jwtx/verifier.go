package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates HS256 tokens against the shared secret and the
// configured issuer/audience expectations.
type Verifier struct {
	key      []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewVerifier creates a verifier bound to the given secret, issuer and
// audience. Leeway allows small clock skew on exp/nbf checks.
func NewVerifier(secret []byte, issuer, audience string, leeway time.Duration) (*Verifier, error) {
	if len(secret) < MinKeyBytes {
		return nil, ErrKeyTooShort
	}
	return &Verifier{key: secret, issuer: issuer, audience: audience, leeway: leeway}, nil
}

// Verify checks signature, algorithm, issuer, audience and lifetime, and
// returns the claims when everything holds.
func (v *Verifier) Verify(token string) (Claims, error) {
	return v.parse(token, true)
}

// VerifyExpired checks signature, algorithm, issuer and audience but
// deliberately skips the expiry check. The refresh flow uses this to trust
// the identity claims of an access token that has already run out.
func (v *Verifier) VerifyExpired(token string) (Claims, error) {
	return v.parse(token, false)
}

func (v *Verifier) parse(token string, checkExpiry bool) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Claims are validated by hand below so the expired path can share
		// the issuer/audience checks.
		jwt.WithoutClaimsValidation(),
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return v.key, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.audience); err != nil {
		return Claims{}, err
	}
	if checkExpiry {
		if err := claims.ValidateExpiryWithLeeway(time.Now(), v.leeway); err != nil {
			return Claims{}, err
		}
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrAlgMismatch), errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// An unexpected "alg" header surfaces from the keyfunc; treat both
		// cases as a signature-level failure.
		if errors.Is(err, ErrAlgMismatch) {
			return ErrAlgMismatch
		}
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrInvalidSig
	}
}
