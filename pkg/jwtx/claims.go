package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshTokenTTL is the lifetime of the refresh window granted at login.
// This is a fixed policy constant: a refresh never extends the window, so a
// session that only ever refreshes still ends at most 7 days after login.
const RefreshTokenTTL = 7 * 24 * time.Hour

// Claims are the access-token claims embedded in every JWT this service
// signs. The subject is the username; Roles mirrors the role set the user
// held at issuance time. Role changes take effect at the next issuance, not
// retroactively on already-minted tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Roles the subject held when the token was minted, e.g. ["Admin","User"].
	Roles []string `json:"roles,omitempty"`
}

// NewAccessClaims builds minimally-correct access-token claims.
func NewAccessClaims(
	username string,
	roles []string,
	ttl time.Duration,
	issuer, audience string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
}

// HasRole reports whether the claims carry the given role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if the expected audience is present.
func (c *Claims) ValidateAudience(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if !slices.Contains(c.Audience, expected) {
		return ErrAudience
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry(now time.Time) error {
	return c.ValidateExpiryWithLeeway(now, 0)
}

// ValidateExpiryWithLeeway adds a grace period for clock skew. Leeway widens
// the acceptance window on both ends: exp is forgiven up to leeway after the
// deadline, and nbf is honoured up to leeway early.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
