package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"128-bit token", TokenSize128},
		{"256-bit token", TokenSize256},
		{"custom size", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			raw, err := base64.RawURLEncoding.DecodeString(token)
			require.NoError(t, err, "token should be base64url without padding")
			require.Len(t, raw, tt.size)

			// Verify token is unique (generate another and compare)
			token2, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	fp1 := FingerprintToken("some-token")
	fp2 := FingerprintToken("some-token")
	fp3 := FingerprintToken("other-token")

	require.Equal(t, fp1, fp2, "fingerprint must be deterministic")
	require.NotEqual(t, fp1, fp3)
	require.Len(t, fp1, 43, "base64url SHA-256 is 43 chars")
}
