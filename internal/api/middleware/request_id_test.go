package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
)

func serveRequestID(incoming string) (ctxID, headerID string) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	if incoming != "" {
		req.Header.Set("X-Request-Id", incoming)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	return ctxID, w.Header().Get("X-Request-Id")
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	ctxID, headerID := serveRequestID("")

	assert.True(t, strings.HasPrefix(ctxID, "req_"))
	assert.Equal(t, ctxID, headerID)

	other, _ := serveRequestID("")
	assert.NotEqual(t, ctxID, other)
}

func TestRequestID_PreservesExistingID(t *testing.T) {
	ctxID, headerID := serveRequestID("existing_request_id")

	assert.Equal(t, "existing_request_id", ctxID)
	assert.Equal(t, "existing_request_id", headerID)
}

func TestRequestID_ReplacesUnsafeID(t *testing.T) {
	for _, incoming := range []string{
		strings.Repeat("a", 65),
		"has space",
		"line\nbreak",
	} {
		ctxID, _ := serveRequestID(incoming)
		assert.True(t, strings.HasPrefix(ctxID, "req_"), "incoming %q", incoming)
	}
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}
