package httpx

import (
	"context"

	"github.com/seldemircin/minimal-api/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUsername ctxKey = "username"
	CtxKeyRoles    ctxKey = "roles"
	CtxKeyClaims   ctxKey = "claims"
)

// UsernameFromContext returns the authenticated subject, or "" when the
// request carried no valid token.
func UsernameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUsername).(string); ok {
		return v
	}
	return ""
}

// RolesFromContext returns the roles carried by the authenticated token,
// or nil when the request carried no valid token.
func RolesFromContext(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyRoles).([]string); ok {
		return v
	}
	return nil
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUsername, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyRoles, c.Roles)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}
