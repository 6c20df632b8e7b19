// Package auth guards routes with bearer-token authentication and role
// checks.
//
// Beyond signature validation, every request consults the principal
// revocation list: access revocation deletes the principal and pushes its ID
// onto that list, so tokens minted before the revocation die immediately
// instead of living out their expiry.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "atrium/pkg/domain"
	request "atrium/pkg/platform/middleware/request"
	"atrium/pkg/requestcontext"
)

// Claims is what the token validator hands back for an authenticated request.
type Claims struct {
	PrincipalID id.PrincipalID
	TenantID    id.TenantID
	Role        id.Role
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RevocationChecker reports whether a principal has been revoked since the
// token was issued.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, principalID id.PrincipalID) (bool, error)
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

// RequireAuth validates the Authorization header and injects principal,
// tenant, and role into the request context.
func RequireAuth(validator TokenValidator, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				writeUnauthorized(w, "Authorization header required")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			revoked, err := revocations.IsRevoked(ctx, claims.PrincipalID)
			if err != nil {
				// Fail closed: an unreachable revocation list must not let a
				// possibly-revoked principal through.
				logger.ErrorContext(ctx, "revocation check failed",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Unable to verify token")
				return
			}
			if revoked {
				logger.WarnContext(ctx, "unauthorized access - revoked principal",
					"principal_id", claims.PrincipalID.String(),
					"request_id", requestID,
				)
				writeUnauthorized(w, "Access has been revoked")
				return
			}

			ctx = requestcontext.WithPrincipalID(ctx, claims.PrincipalID)
			ctx = requestcontext.WithTenantID(ctx, claims.TenantID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only callers whose context carries one of the given
// roles. Mount inside a RequireAuth group.
func RequireRole(logger *slog.Logger, roles ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			callerRole := requestcontext.Role(ctx)
			for _, role := range roles {
				if callerRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(ctx, "forbidden - insufficient role",
				"role", callerRole.String(),
				"request_id", request.GetRequestID(ctx),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"insufficient role"}`))
		})
	}
}
