package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api/models"
)

// Recovery turns panics into a 500 error envelope.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error().
					Str("request_id", GetRequestID(r.Context())).
					Interface("error", rec).
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")

				body := models.NewInternalError("an unexpected error occurred")
				if ErrorDetailExposed(r.Context()) {
					body.WithDetail(fmt.Sprint(rec))
				}
				writeError(w, r, body)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
