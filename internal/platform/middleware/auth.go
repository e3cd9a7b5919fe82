package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"zkkyc/internal/platform/token"
)

type contextKeyPrincipal struct{}

// GetPrincipal retrieves the authenticated principal from the context.
// Returns nil if the request carried no valid bearer token.
func GetPrincipal(ctx context.Context) *token.Principal {
	if p, ok := ctx.Value(contextKeyPrincipal{}).(*token.Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal injects a principal into a context. Used by tests that skip
// the HTTP middleware chain.
func WithPrincipal(ctx context.Context, p *token.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal{}, p)
}

// Principal resolves an optional Bearer token into a principal on the context.
// Requests without a token pass through unauthenticated; role enforcement
// happens in RequireRole on the routes that need it.
func Principal(tokens *token.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found {
				writeAuthError(w, http.StatusUnauthorized, "bearer token required")
				return
			}
			principal, err := tokens.Validate(raw)
			if err != nil {
				logger.WarnContext(r.Context(), "bearer token rejected",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				writeAuthError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose principal is missing or has a different role.
// Admin principals pass any role gate.
func RequireRole(role token.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if principal.Role != role && principal.Role != token.RoleAdmin {
				writeAuthError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminToken gates administrative endpoints behind a shared secret.
// Uses constant-time comparison to prevent timing attacks.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(expectedToken)) != 1 {
				logger.WarnContext(r.Context(), "admin token mismatch",
					"request_id", GetRequestID(r.Context()),
				)
				writeAuthError(w, http.StatusUnauthorized, "admin token required")
				return
			}

			ctx := r.Context()
			// Capture admin actor identifier for audit attribution.
			if actorID := r.Header.Get("X-Admin-Actor-ID"); actorID != "" {
				ctx = WithPrincipal(ctx, &token.Principal{ID: actorID, Role: token.RoleAdmin})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	code := "unauthorized"
	if status == http.StatusForbidden {
		code = "forbidden"
	}
	_, _ = w.Write([]byte(`{"error":"` + code + `","error_description":"` + description + `"}`))
}
