package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			// Verify PHC format
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"),
				"hash should be in PHC format")

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	password := "samepassword"

	hash1, err := HashPassword(password)
	require.NoError(t, err)

	hash2, err := HashPassword(password)
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "same password should produce different hashes")
}

func TestVerifyPassword(t *testing.T) {
	password := "Secr3t!"

	hash, err := HashPassword(password)
	require.NoError(t, err)

	t.Run("correct password verifies", func(t *testing.T) {
		require.NoError(t, VerifyPassword(password, hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		err := VerifyPassword("not-the-password", hash)
		require.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("malformed hash fails", func(t *testing.T) {
		require.Error(t, VerifyPassword(password, "not-a-phc-string"))
		require.Error(t, VerifyPassword(password, "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"))
	})
}
