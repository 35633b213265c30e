package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/auth"
)

// Auth failure messages.
const (
	MessageTokenRequired = "token required"
	MessageInvalidToken  = "invalid token"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// claimsKey is the context key for the verified token claims.
type claimsKey struct{}

// Auth rejects requests without a valid bearer token. A missing header or a
// header without the exact "Bearer " scheme is 401; a token that fails
// verification is 403. Verified claims are stored in the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, r, models.NewUnauthorized(MessageTokenRequired))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				writeError(w, r, models.NewForbidden(MessageInvalidToken))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the verified claims, or nil for unauthenticated requests.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

// GetUserID returns the authenticated user's ID.
func GetUserID(ctx context.Context) (int64, bool) {
	claims := GetClaims(ctx)
	if claims == nil {
		return 0, false
	}
	return claims.UserID, true
}
