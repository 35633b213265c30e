package middleware

import (
	"net/http"
	"strings"

	"github.com/plantwatch/plantwatch/internal/api/models"
)

// ContentTypeJSON defaults the response Content-Type to application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects POST and PUT bodies declared as anything but JSON.
// Requests without a Content-Type are let through for simple device clients.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
				writeError(w, r, models.NewError(http.StatusUnsupportedMediaType, "Content-Type must be application/json"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
