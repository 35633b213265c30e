package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
)

func TestErrorDetail(t *testing.T) {
	for _, expose := range []bool{true, false} {
		var got bool
		handler := middleware.ErrorDetail(expose)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = middleware.ErrorDetailExposed(r.Context())
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		assert.Equal(t, expose, got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	assert.False(t, middleware.ErrorDetailExposed(req.Context()))
}

func TestRecovery(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	t.Run("hides detail", func(t *testing.T) {
		handler := middleware.ErrorDetail(false)(middleware.Recovery(zerolog.Nop())(panicking))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "an unexpected error occurred", body["message"])
		assert.NotContains(t, body, "error")
	})

	t.Run("exposes detail", func(t *testing.T) {
		handler := middleware.ErrorDetail(true)(middleware.Recovery(zerolog.Nop())(panicking))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "boom", decodeEnvelope(t, rec)["error"])
	})
}

func TestRequireJSON(t *testing.T) {
	handler := middleware.RequireJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		method      string
		contentType string
		want        int
	}{
		{http.MethodPost, "application/json", http.StatusOK},
		{http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{http.MethodPost, "", http.StatusOK},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodPut, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{http.MethodGet, "text/plain", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/user", http.NoBody)
		if tt.contentType != "" {
			req.Header.Set("Content-Type", tt.contentType)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, tt.want, rec.Code, "%s %q", tt.method, tt.contentType)
	}
}
