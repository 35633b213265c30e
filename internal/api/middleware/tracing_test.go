package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
)

func setupTestTracer() (*tracetest.SpanRecorder, func()) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return sr, func() {
		_ = tp.Shutdown(context.Background())
	}
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, attr := range span.Attributes() {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_NamesSpanByRoute(t *testing.T) {
	sr, cleanup := setupTestTracer()
	defer cleanup()

	r := chi.NewRouter()
	r.Use(middleware.Tracing("plantwatch-api"))
	r.Get("/sensor/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, trace.SpanFromContext(r.Context()).SpanContext().IsValid())
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sensor/42", http.NoBody))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /sensor/{id}", spans[0].Name())

	route, ok := spanAttr(spans[0], "http.route")
	require.True(t, ok)
	assert.Equal(t, "/sensor/{id}", route.AsString())

	path, ok := spanAttr(spans[0], "url.path")
	require.True(t, ok)
	assert.Equal(t, "/sensor/42", path.AsString())
}

func TestTracing_PropagatesContext(t *testing.T) {
	sr, cleanup := setupTestTracer()
	defer cleanup()

	handler := middleware.Tracing("plantwatch-api")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/user", http.NoBody)
	req.Header.Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "GET unmatched", spans[0].Name())
}

func TestTracing_RecordsStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantError bool
	}{
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		sr, cleanup := setupTestTracer()

		handler := middleware.Tracing("plantwatch-api")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reports", http.NoBody))

		spans := sr.Ended()
		require.Len(t, spans, 1)

		code, ok := spanAttr(spans[0], "http.response.status_code")
		require.True(t, ok)
		assert.Equal(t, int64(tt.status), code.AsInt64())

		if tt.wantError {
			assert.Equal(t, codes.Error, spans[0].Status().Code)
			assert.Equal(t, "Internal Server Error", spans[0].Status().Description)
		} else {
			assert.Equal(t, codes.Unset, spans[0].Status().Code)
		}
		cleanup()
	}
}

func TestTracing_IncludesRequestID(t *testing.T) {
	sr, cleanup := setupTestTracer()
	defer cleanup()

	handler := middleware.RequestID(middleware.Tracing("plantwatch-api")(okHandler()))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sensor", http.NoBody))

	spans := sr.Ended()
	require.Len(t, spans, 1)

	id, ok := spanAttr(spans[0], "request.id")
	require.True(t, ok)
	assert.Contains(t, id.AsString(), "req_")
}
