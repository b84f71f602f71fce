package http

import (
	"net/http"

	"github.com/seldemircin/minimal-api/pkg/httpx"
)

// UserInfoHandler reads identity from the verified token, not the database,
// so it reflects exactly what the presented access token asserts.
type UserInfoHandler struct{}

// UserInfoResponse echoes the authenticated subject and roles.
type UserInfoResponse struct {
	Username string   `json:"userName"`
	Roles    []string `json:"roles,omitempty"`
}

// ServeHTTP godoc
//
//	@Summary	Current User Endpoint
//	@Tags		User
//	@Produce	json
//	@Success	200	{object}	UserInfoResponse	"userName, roles"
//	@Failure	401	{object}	httpx.ErrorResponse	"error, description"
//	@Security	BearerAuth
//	@Router		/api/user [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	httpx.WriteJSON(w, http.StatusOK, UserInfoResponse{
		Username: httpx.UsernameFromContext(ctx),
		Roles:    httpx.RolesFromContext(ctx),
	})
}
