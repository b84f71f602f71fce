package httpx

import (
	"net/http"
	"strings"

	"github.com/seldemircin/minimal-api/pkg/jwtx"
	"github.com/seldemircin/minimal-api/pkg/slogx"
)

// TokenVerifier validates a compact token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (jwtx.Claims, error)
}

// AuthnMiddleware extracts and verifies the bearer token, then injects the
// subject and roles into the request context for downstream handlers.
func AuthnMiddleware(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Warn("jwt verify failed", "err", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
