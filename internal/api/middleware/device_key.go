package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/plantwatch/plantwatch/internal/api/models"
)

// DeviceKeyHeader carries the shared device key on ingestion requests.
const DeviceKeyHeader = "X-Device-Key"

// DeviceKey guards device-facing endpoints with a shared key. An empty key
// leaves the endpoints open.
func DeviceKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		expected := []byte(key)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := []byte(r.Header.Get(DeviceKeyHeader))
			if subtle.ConstantTimeCompare(presented, expected) != 1 {
				writeError(w, r, models.NewUnauthorized("invalid device key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
