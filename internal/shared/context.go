package shared

import (
	"context"

	"github.com/trove-market/trove/internal/roles"
)

// Claims is the verified identity attached to a request: who is calling
// and with which privilege level. The values come from the bearer
// credential and are trusted once the token checks out.
type Claims struct {
	UserID   int64
	Username string
	Role     roles.Role
}

type claimsContextKey struct{}

// ContextWithClaims stores the verified claims in context.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// ClaimsFromContext extracts the claims from context, nil when the
// request was not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return c
}
