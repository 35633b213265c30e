package middleware

import (
	"context"
	"net/http"

	"github.com/plantwatch/plantwatch/internal/api/models"
)

type errorDetailKey struct{}

// ErrorDetail controls whether internal error text is echoed to clients in
// the "error" field of failure envelopes. It is enabled outside production.
func ErrorDetail(expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), errorDetailKey{}, expose)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ErrorDetailExposed reports whether internal error text may be sent to the client.
func ErrorDetailExposed(ctx context.Context) bool {
	expose, _ := ctx.Value(errorDetailKey{}).(bool)
	return expose
}

// writeError writes an error envelope. Middleware cannot use the response
// package, which imports this one.
func writeError(w http.ResponseWriter, r *http.Request, body *models.ErrorBody) {
	body.Write(w, GetRequestID(r.Context()))
}
