package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/seldemircin/minimal-api/internal/api/domain"
	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/seldemircin/minimal-api/internal/api/store/drivers/sqlite"
	"github.com/seldemircin/minimal-api/pkg/clock"
	"github.com/seldemircin/minimal-api/pkg/cryptox"
	"github.com/seldemircin/minimal-api/pkg/jwtx"
	"github.com/seldemircin/minimal-api/pkg/validatorx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://auth.test"
	testAudience = "https://api.test"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type authFixture struct {
	svc      *AuthService
	store    store.Store
	verifier *jwtx.Verifier
	clock    *clock.Fixed
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewSigner(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifier(testSecret, testIssuer, testAudience, 0)
	require.NoError(t, err)

	clk := &clock.Fixed{Instant: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := AuthConfig{
		AccessTokenTTL: 10 * time.Minute,
		Issuer:         testIssuer,
		Audience:       testAudience,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &authFixture{
		svc:      NewAuthService(st, signer, verifier, validatorx.New(), clk, cfg, logger),
		store:    st,
		verifier: verifier,
		clock:    clk,
	}
}

func registerTestUser(t *testing.T, fx *authFixture, username string, roles ...string) domain.User {
	t.Helper()

	u, err := fx.svc.Register(context.Background(), &RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Email:     username + "@example.com",
		Password:  "correct horse battery",
		Roles:     roles,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with hashed password and roles", func(t *testing.T) {
		fx := newAuthFixture(t)

		u := registerTestUser(t, fx, "alice", "Admin", "User")
		require.NotEmpty(t, u.ID)

		stored, err := fx.store.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotEqual(t, "correct horse battery", stored.PasswordHash)
		require.NoError(t, cryptox.VerifyPassword("correct horse battery", stored.PasswordHash))
		require.ElementsMatch(t, []string{"Admin", "User"}, stored.Roles)

		// Timestamps come from the service clock, not the storage layer.
		require.WithinDuration(t, fx.clock.Now(), stored.CreatedAt, time.Second)
		require.WithinDuration(t, fx.clock.Now(), stored.UpdatedAt, time.Second)
	})

	t.Run("nil input", func(t *testing.T) {
		fx := newAuthFixture(t)

		_, err := fx.svc.Register(ctx, nil)
		require.ErrorIs(t, err, ErrMissingInput)
	})

	t.Run("validation failures reported before any write", func(t *testing.T) {
		fx := newAuthFixture(t)

		_, err := fx.svc.Register(ctx, &RegisterInput{
			Username: "al", // too short
			Email:    "not-an-email",
			Password: "short",
		})

		var ve *validatorx.ValidationError
		require.ErrorAs(t, err, &ve)
		require.Len(t, ve.Violations, 3)

		_, err = fx.store.Users().GetUserByUsername(ctx, "al")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		fx := newAuthFixture(t)

		registerTestUser(t, fx, "alice")
		_, err := fx.svc.Register(ctx, &RegisterInput{
			Username: "Alice",
			Email:    "other@example.com",
			Password: "another password",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestValidateLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		fx := newAuthFixture(t)
		registerTestUser(t, fx, "alice")

		out, err := fx.svc.ValidateLogin(ctx, LoginInput{Username: "alice", Password: "correct horse battery"})
		require.NoError(t, err)
		require.True(t, out.Authenticated)
		require.Equal(t, "alice", out.User.Username)
	})

	t.Run("wrong password is a rejection, not an error", func(t *testing.T) {
		fx := newAuthFixture(t)
		registerTestUser(t, fx, "alice")

		out, err := fx.svc.ValidateLogin(ctx, LoginInput{Username: "alice", Password: "wrong"})
		require.NoError(t, err)
		require.False(t, out.Authenticated)
		require.Zero(t, out.User)
	})

	t.Run("unknown username looks the same as wrong password", func(t *testing.T) {
		fx := newAuthFixture(t)

		out, err := fx.svc.ValidateLogin(ctx, LoginInput{Username: "nobody", Password: "whatever"})
		require.NoError(t, err)
		require.False(t, out.Authenticated)
	})

	t.Run("absent credentials are a rejection too", func(t *testing.T) {
		fx := newAuthFixture(t)

		out, err := fx.svc.ValidateLogin(ctx, LoginInput{})
		require.NoError(t, err)
		require.False(t, out.Authenticated)
	})
}

func TestIssueTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("access token carries subject and roles", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice", "Admin")

		pair, err := fx.svc.IssueTokens(ctx, u, true)
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)

		claims, err := fx.verifier.VerifyExpired(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, []string{"Admin"}, claims.Roles)
		require.Equal(t, testIssuer, claims.Issuer)
	})

	t.Run("refresh token is persisted before the pair is returned", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice")

		pair, err := fx.svc.IssueTokens(ctx, u, true)
		require.NoError(t, err)

		stored, err := fx.store.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, stored.RefreshTokenHash)
		require.Equal(t, cryptox.FingerprintToken(pair.RefreshToken), *stored.RefreshTokenHash)
		require.WithinDuration(t, fx.clock.Now().Add(jwtx.RefreshTokenTTL),
			stored.RefreshTokenExpiresAt, time.Second)
	})

	t.Run("roles are read at issuance, not from the passed value", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice", "User")

		// Role granted after the caller loaded its User value.
		require.NoError(t, fx.store.Users().AddUserRoles(ctx, u.ID, []string{"Admin"}, fx.clock.Now()))

		pair, err := fx.svc.IssueTokens(ctx, u, true)
		require.NoError(t, err)

		claims, err := fx.verifier.VerifyExpired(pair.AccessToken)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"User", "Admin"}, claims.Roles)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, fx *authFixture, u domain.User) domain.TokenPair {
		t.Helper()
		pair, err := fx.svc.IssueTokens(ctx, u, true)
		require.NoError(t, err)
		return pair
	}

	t.Run("rotates the pair", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice", "User")
		pair := login(t, fx, u)

		// The access token has run out; refresh must still accept it.
		fx.clock.Advance(time.Hour)

		fresh, err := fx.svc.Refresh(ctx, pair)
		require.NoError(t, err)
		require.NotEqual(t, pair.AccessToken, fresh.AccessToken)
		require.NotEqual(t, pair.RefreshToken, fresh.RefreshToken)

		claims, err := fx.verifier.VerifyExpired(fresh.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
	})

	t.Run("old refresh token is dead after rotation", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice")
		pair := login(t, fx, u)

		fresh, err := fx.svc.Refresh(ctx, pair)
		require.NoError(t, err)

		_, err = fx.svc.Refresh(ctx, pair)
		require.ErrorIs(t, err, ErrInvalidToken)

		// The rotated pair still works.
		_, err = fx.svc.Refresh(ctx, fresh)
		require.NoError(t, err)
	})

	t.Run("refresh does not extend the window", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice")
		pair := login(t, fx, u)

		windowEnd := fx.clock.Now().Add(jwtx.RefreshTokenTTL)

		fx.clock.Advance(3 * 24 * time.Hour)
		pair, err := fx.svc.Refresh(ctx, pair)
		require.NoError(t, err)

		stored, err := fx.store.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.WithinDuration(t, windowEnd, stored.RefreshTokenExpiresAt, time.Second)

		// Past the original window the rotated token is refused too.
		fx.clock.Advance(5 * 24 * time.Hour)
		_, err = fx.svc.Refresh(ctx, pair)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered access token", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice")
		pair := login(t, fx, u)

		pair.AccessToken = pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
		_, err := fx.svc.Refresh(ctx, pair)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("access token signed with a different key", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice")
		pair := login(t, fx, u)

		otherSigner, err := jwtx.NewSigner([]byte("ffffffffffffffffffffffffffffffff"))
		require.NoError(t, err)
		forged, err := otherSigner.Sign(jwtx.NewAccessClaims(
			"alice", nil, time.Minute, testIssuer, testAudience, fx.clock.Now()))
		require.NoError(t, err)

		pair.AccessToken = forged
		_, err = fx.svc.Refresh(ctx, pair)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong refresh token for a valid access token", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice")
		pair := login(t, fx, u)

		other, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)
		pair.RefreshToken = other

		_, err = fx.svc.Refresh(ctx, pair)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown subject", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice")
		pair := login(t, fx, u)

		signer, err := jwtx.NewSigner(testSecret)
		require.NoError(t, err)
		ghost, err := signer.Sign(jwtx.NewAccessClaims(
			"ghost", nil, time.Minute, testIssuer, testAudience, fx.clock.Now()))
		require.NoError(t, err)

		pair.AccessToken = ghost
		_, err = fx.svc.Refresh(ctx, pair)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing tokens", func(t *testing.T) {
		fx := newAuthFixture(t)

		_, err := fx.svc.Refresh(ctx, domain.TokenPair{})
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("concurrent rotation loses the compare-and-swap", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice")
		pair := login(t, fx, u)

		// Simulate a second rotation landing between this request's read
		// and write by swapping the stored fingerprint out from under it.
		current := cryptox.FingerprintToken(pair.RefreshToken)
		err := fx.store.Users().SwapRefreshToken(ctx, u.ID, current, "someone-else-rotated", fx.clock.Now())
		require.NoError(t, err)

		_, err = fx.svc.Refresh(ctx, pair)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("roles picked up at refresh", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := registerTestUser(t, fx, "alice", "User")
		pair := login(t, fx, u)

		require.NoError(t, fx.store.Users().AddUserRoles(ctx, u.ID, []string{"Admin"}, fx.clock.Now()))

		fresh, err := fx.svc.Refresh(ctx, pair)
		require.NoError(t, err)

		claims, err := fx.verifier.VerifyExpired(fresh.AccessToken)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"User", "Admin"}, claims.Roles)
	})
}
