package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gameshelf/gameshelf-server/internal/auth"
	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// claimsKey is the context key for verified access-token claims.
const claimsKey ctxKey = "claims"

// setClaims stores verified claims in context.
func setClaims(ctx context.Context, claims *auth.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// claimsFrom returns the verified claims, or nil for anonymous requests.
func claimsFrom(ctx context.Context) *auth.AccessClaims {
	claims, _ := ctx.Value(claimsKey).(*auth.AccessClaims)
	return claims
}

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	claims, err := RequireClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// RequireClaims returns the verified claims or a 401.
func RequireClaims(ctx context.Context) (*auth.AccessClaims, error) {
	claims := claimsFrom(ctx)
	if claims == nil || claims.UserID == "" {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return claims, nil
}

// RequireAdmin validates the user is authenticated and has admin role.
// Returns the user ID if successful, error otherwise.
func RequireAdmin(ctx context.Context) (string, error) {
	claims, err := RequireClaims(ctx)
	if err != nil {
		return "", err
	}
	if !claims.IsAdmin {
		return "", domainerrors.Forbidden("Admin access required")
	}
	return claims.UserID, nil
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return authHeader[7:]
}

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the claims in context. If no token is present or it is invalid, the request
// continues anonymously; handlers decide whether that is acceptable.
func authMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authService.VerifyAccessToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setClaims(r.Context(), claims)))
		})
	}
}
