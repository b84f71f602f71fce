package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/seldemircin/minimal-api/internal/api/domain"
	"github.com/seldemircin/minimal-api/internal/api/service"
	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/seldemircin/minimal-api/pkg/httpx"
	"github.com/seldemircin/minimal-api/pkg/slogx"
	"github.com/seldemircin/minimal-api/pkg/validatorx"
)

type AuthHandler struct {
	AuthService *service.AuthService
	Logger      *slog.Logger
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"userName"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles,omitempty"`
}

// HandleRegister godoc
//
//	@Summary		Register Endpoint
//	@Description	Create a new user account with an optional role set
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		service.RegisterInput	true	"Registration fields"
//	@Success		201		{object}	RegisterResponse		"id, userName, email, roles"
//	@Failure		400		{object}	httpx.ErrorResponse		"error, description, violations"
//	@Failure		409		{object}	httpx.ErrorResponse		"error, description"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var in *service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, err := h.AuthService.Register(ctx, in)
	if err != nil {
		var ve *validatorx.ValidationError
		switch {
		case errors.Is(err, service.ErrMissingInput):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Request body is required")
		case errors.As(err, &ve):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:       "invalid_request",
				Description: "Validation failed",
				Violations:  ve.Messages(),
			})
		case errors.Is(err, store.ErrAlreadyExists):
			httpx.WriteError(w, http.StatusConflict, "conflict", "Username is already taken")
		default:
			log.Error("failed to register user", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to register user")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, RegisterResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.Roles,
	})
}

// HandleLogin godoc
//
//	@Summary		Login Endpoint
//	@Description	Exchange username and password for an access/refresh token pair
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		service.LoginInput	true	"Credentials"
//	@Success		200		{object}	domain.TokenPair	"accessToken, refreshToken"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, description"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, description"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var in service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	outcome, err := h.AuthService.ValidateLogin(ctx, in)
	if err != nil {
		log.Error("failed to validate login", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to process login")
		return
	}
	if !outcome.Authenticated {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Username or password is incorrect")
		return
	}

	pair, err := h.AuthService.IssueTokens(ctx, outcome.User, true)
	if err != nil {
		log.Error("failed to issue tokens", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to issue tokens")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleRefresh godoc
//
//	@Summary		Refresh Endpoint
//	@Description	Rotate an expired access token and its refresh token for a fresh pair
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		domain.TokenPair	true	"Expired access token and current refresh token"
//	@Success		200		{object}	domain.TokenPair	"accessToken, refreshToken"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, description"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, description"
//	@Router			/api/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var pair domain.TokenPair
	if err := json.NewDecoder(r.Body).Decode(&pair); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	fresh, err := h.AuthService.Refresh(ctx, pair)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			// One uniform rejection regardless of which check failed.
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_grant", "Invalid client request")
			return
		}
		log.Error("failed to refresh tokens", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to refresh tokens")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, fresh)
}
