package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
)

func TestDeviceKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		key        string
		presented  string
		wantStatus int
	}{
		{"open when unset", "", "", http.StatusOK},
		{"open ignores header", "", "anything", http.StatusOK},
		{"matching key", "s3cret", "s3cret", http.StatusOK},
		{"missing key", "s3cret", "", http.StatusUnauthorized},
		{"wrong key", "s3cret", "s3cre", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.DeviceKey(tt.key)(ok)

			req := httptest.NewRequest(http.MethodPost, "/reports", http.NoBody)
			if tt.presented != "" {
				req.Header.Set(middleware.DeviceKeyHeader, tt.presented)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "invalid device key", decodeEnvelope(t, rec)["message"])
			}
		})
	}
}
