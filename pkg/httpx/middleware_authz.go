package httpx

import (
	"net/http"
	"strings"
)

// RequireAnyRole the caller must hold at least one of the listed roles.
func RequireAnyRole(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, role := range required {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range RolesFromContext(r.Context()) {
				if _, ok := want[role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeBearerRoleError(w, required...)
		})
	}
}

// RFC 6750-compliant error response for insufficient permissions.
func writeBearerRoleError(w http.ResponseWriter, required ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("insufficient_role"))
}
