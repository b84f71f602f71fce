package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seldemircin/minimal-api/internal/api/domain"
	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/seldemircin/minimal-api/pkg/clock"
	"github.com/seldemircin/minimal-api/pkg/cryptox"
	"github.com/seldemircin/minimal-api/pkg/idx"
	"github.com/seldemircin/minimal-api/pkg/jwtx"
	"github.com/seldemircin/minimal-api/pkg/validatorx"
)

var (
	// ErrMissingInput reports a nil or empty request body.
	ErrMissingInput = errors.New("service: missing input")

	// ErrInvalidToken covers every way a refresh request can fail token
	// checks: bad signature, wrong algorithm, wrong issuer or audience,
	// unknown subject, mismatched or expired refresh token. Callers get one
	// uniform rejection so the response does not leak which check failed.
	ErrInvalidToken = errors.New("service: invalid client request, tokens rejected")
)

// RegisterInput carries the fields a new account is created from. Roles are
// assigned verbatim; there is no self-service role escalation check here
// because registration is an open endpoint and roles default to none.
type RegisterInput struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Username  string   `json:"userName" validate:"required,min=3,max=64"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8,max=128"`
	Roles     []string `json:"roles" validate:"dive,oneof=Admin User"`
}

// LoginInput carries the credentials presented at login.
type LoginInput struct {
	Username string `json:"userName"`
	Password string `json:"password"`
}

// LoginOutcome is the result of a credential check. Rejection is a normal
// outcome, not an error: Authenticated is false and User is zero when the
// username is unknown or the password does not match.
type LoginOutcome struct {
	Authenticated bool
	User          domain.User
}

// AuthConfig carries token policy for the auth service.
type AuthConfig struct {
	// AccessTokenTTL is the lifetime of issued access tokens.
	AccessTokenTTL time.Duration

	// Issuer and Audience are stamped into every access token and enforced
	// on refresh.
	Issuer   string
	Audience string
}

// AuthService implements registration, login and the token lifecycle:
// issuance at login and rotation at refresh.
type AuthService struct {
	store    store.Store
	signer   *jwtx.Signer
	verifier *jwtx.Verifier
	validate validatorx.FieldValidator
	clock    clock.Clock
	cfg      AuthConfig
	logger   *slog.Logger
}

func NewAuthService(
	st store.Store,
	signer *jwtx.Signer,
	verifier *jwtx.Verifier,
	validate validatorx.FieldValidator,
	clk clock.Clock,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthService {
	if clk == nil {
		clk = clock.System{}
	}
	return &AuthService{
		store:    st,
		signer:   signer,
		verifier: verifier,
		validate: validate,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("service", "auth")),
	}
}

// Register validates the input, hashes the password and persists the new
// user with any requested roles. A nil input or a validation failure is
// reported before anything is written; the raw password is never stored.
func (s *AuthService) Register(ctx context.Context, in *RegisterInput) (domain.User, error) {
	if in == nil {
		return domain.User{}, ErrMissingInput
	}
	if err := s.validate.Validate(in); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Users().CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	if len(in.Roles) > 0 {
		if err := s.store.Users().AddUserRoles(ctx, user.ID, in.Roles, now); err != nil {
			return domain.User{}, fmt.Errorf("assign roles: %w", err)
		}
		user.Roles = in.Roles
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// ValidateLogin checks the presented credentials against the stored password
// hash. Absent credentials, an unknown username and a wrong password all
// produce the same unauthenticated outcome; rejection is never an error.
func (s *AuthService) ValidateLogin(ctx context.Context, in LoginInput) (LoginOutcome, error) {
	if in.Username == "" || in.Password == "" {
		return LoginOutcome{}, nil
	}

	user, err := s.store.Users().GetUserByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.WarnContext(ctx, "login rejected: unknown username",
				slog.String("username", in.Username))
			return LoginOutcome{}, nil
		}
		return LoginOutcome{}, err
	}

	if err := cryptox.VerifyPassword(in.Password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			s.logger.WarnContext(ctx, "login rejected: wrong password",
				slog.String("username", in.Username))
			return LoginOutcome{}, nil
		}
		return LoginOutcome{}, err
	}

	return LoginOutcome{Authenticated: true, User: user}, nil
}

// IssueTokens mints an access token and a fresh refresh token for the user.
// Roles are read from the store at issuance time rather than from the passed
// value, so role changes made since login are reflected immediately.
//
// When extend is true (the login path) the refresh window is reset to
// RefreshTokenTTL from now. When extend is false the stored window is left
// as-is, so a session that only ever refreshes still ends when the original
// window closes.
func (s *AuthService) IssueTokens(ctx context.Context, user domain.User, extend bool) (domain.TokenPair, error) {
	return s.issue(ctx, user, extend, "")
}

// Refresh validates an expired access token plus its companion refresh token
// and, when both hold, rotates the pair. The access token's signature,
// algorithm, issuer and audience are all enforced; only its expiry is
// forgiven. The presented refresh token must match the stored one exactly
// and the stored window must still be open. Every failure maps to
// ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, pair domain.TokenPair) (domain.TokenPair, error) {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return domain.TokenPair{}, ErrInvalidToken
	}

	claims, err := s.verifier.VerifyExpired(pair.AccessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "refresh rejected: access token failed verification",
			slog.String("reason", err.Error()))
		return domain.TokenPair{}, ErrInvalidToken
	}

	user, err := s.store.Users().GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidToken
		}
		return domain.TokenPair{}, err
	}

	now := s.clock.Now()
	presented := cryptox.FingerprintToken(pair.RefreshToken)
	if user.RefreshTokenHash == nil ||
		*user.RefreshTokenHash != presented ||
		!user.RefreshTokenExpiresAt.After(now) {
		s.logger.WarnContext(ctx, "refresh rejected: refresh token mismatched or expired",
			slog.String("user_id", user.ID))
		return domain.TokenPair{}, ErrInvalidToken
	}

	fresh, err := s.issue(ctx, user, false, presented)
	if err != nil {
		if errors.Is(err, store.ErrTokenConflict) {
			// Another refresh rotated the token between our read and write.
			return domain.TokenPair{}, ErrInvalidToken
		}
		return domain.TokenPair{}, err
	}
	return fresh, nil
}

// issue mints and persists a token pair. expectCurrent is the fingerprint
// the stored refresh token must still hold for the write to land; empty
// means overwrite unconditionally (login path). The new refresh token is
// persisted before the pair is returned, so a returned pair is always
// usable for a later refresh.
func (s *AuthService) issue(ctx context.Context, user domain.User, extend bool, expectCurrent string) (domain.TokenPair, error) {
	roles, err := s.store.Users().GetUserRoles(ctx, user.ID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("load roles: %w", err)
	}

	now := s.clock.Now()
	claims := jwtx.NewAccessClaims(user.Username, roles, s.cfg.AccessTokenTTL, s.cfg.Issuer, s.cfg.Audience, now)
	access, err := s.signer.Sign(claims)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	fingerprint := cryptox.FingerprintToken(refresh)

	switch {
	case expectCurrent != "":
		err = s.store.Users().SwapRefreshToken(ctx, user.ID, expectCurrent, fingerprint, now)
	case extend:
		err = s.store.Users().SetRefreshTokenWithExpiry(ctx, user.ID, fingerprint, now.Add(jwtx.RefreshTokenTTL), now)
	default:
		err = s.store.Users().SetRefreshToken(ctx, user.ID, fingerprint, now)
	}
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
