package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
)

func logOnce(t *testing.T, handler func(zerolog.Logger) http.Handler, req *http.Request) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	handler(zerolog.New(&buf)).ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_LogsRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/sensor/3", http.NoBody)
	req.Header.Set("User-Agent", "esp32-client")

	entry := logOnce(t, func(log zerolog.Logger) http.Handler {
		return middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("response body"))
		}))
	}, req)

	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/sensor/3", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(13), entry["bytes"])
	assert.Equal(t, "esp32-client", entry["user_agent"])
	assert.Contains(t, entry, "duration")
}

func TestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusConflict, "warn"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		entry := logOnce(t, func(log zerolog.Logger) http.Handler {
			return middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
		}, httptest.NewRequest(http.MethodPost, "/reports", http.NoBody))

		assert.Equal(t, tt.level, entry["level"], "status %d", tt.status)
		assert.Equal(t, float64(tt.status), entry["status"])
	}
}

func TestLogger_IncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/user", http.NoBody)
	req.Header.Set("X-Request-Id", "abc-123")

	entry := logOnce(t, func(log zerolog.Logger) http.Handler {
		return middleware.RequestID(middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
	}, req)

	assert.Equal(t, "abc-123", entry["request_id"])
}

func TestLogger_IncludesTraceID(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer func() { _ = tp.Shutdown(context.Background()) }()

	entry := logOnce(t, func(log zerolog.Logger) http.Handler {
		return middleware.Tracing("test-service")(middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
	}, httptest.NewRequest(http.MethodGet, "/sensor", http.NoBody))

	traceID, ok := entry["trace_id"].(string)
	require.True(t, ok)
	assert.Len(t, traceID, 32)

	spanID, ok := entry["span_id"].(string)
	require.True(t, ok)
	assert.Len(t, spanID, 16)
}
