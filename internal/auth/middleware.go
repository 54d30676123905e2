package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trove-market/trove/internal/platform/httpx"
	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
)

// GateChecker answers whether a user currently holds one of the gated
// roles. It reads the live user record, so tokens issued before a role
// change do not carry stale privileges through a gate.
type GateChecker interface {
	CountWithRoleAmong(ctx context.Context, userID int64, gate roles.Gate) (int64, error)
}

// Middleware wires bearer-token verification and endpoint role gates.
type Middleware struct {
	Tokens *TokenManager
	Users  GateChecker
	Logger *slog.Logger
}

// Authenticate verifies the Authorization bearer token and stores the
// identity claims in the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		if raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		claims, err := m.Tokens.Verify(raw, PurposeAccess)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid bearer token")
			return
		}
		ctx := shared.ContextWithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole enforces a coarse per-endpoint allow-list. It is a plain
// set-membership check on the caller's live role, layered on top of the
// ownership scope the services apply themselves.
func (m Middleware) RequireRole(gate ...roles.Role) func(http.Handler) http.Handler {
	g := roles.Gate(gate)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := shared.ClaimsFromContext(r.Context())
			if claims == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			count, err := m.Users.CountWithRoleAmong(r.Context(), claims.UserID, g)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("role gate check", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if count == 0 {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
