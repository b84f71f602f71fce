package domain

import "time"

// User is the credential record owned by the store. RefreshTokenHash holds
// the SHA-256 fingerprint of the single live refresh token; the opaque value
// itself is never persisted. RefreshTokenExpiresAt is only meaningful while
// RefreshTokenHash is set.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string // argon2id encoded

	Roles []string

	RefreshTokenHash      *string
	RefreshTokenExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLiveRefreshToken reports whether the user holds a refresh token that is
// still inside its window at the given instant.
func (u User) HasLiveRefreshToken(now time.Time) bool {
	return u.RefreshTokenHash != nil && u.RefreshTokenExpiresAt.After(now)
}
