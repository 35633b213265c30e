package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/provider/resilience"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestProviderStatus(t *testing.T) {
	failedAt := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		state gobreaker.State
		want  models.HealthStatus
	}{
		{"closed", gobreaker.StateClosed, models.HealthStatusOK},
		{"half open", gobreaker.StateHalfOpen, models.HealthStatusDegraded},
		{"open", gobreaker.StateOpen, models.HealthStatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := providerStatus(&resilience.ProviderHealth{
				Name:          "expo",
				CircuitState:  tt.state,
				LastFailureAt: &failedAt,
				LastError:     "expo returned 502",
			})

			assert.Equal(t, "expo", ps.Provider)
			assert.Equal(t, tt.want, ps.Status)
			assert.Nil(t, ps.LastSuccessAt)
			require.NotNil(t, ps.LastFailureAt)
			assert.Equal(t, failedAt, ps.LastFailureAt.Time())
			require.NotNil(t, ps.Message)
			assert.Equal(t, "expo returned 502", *ps.Message)
		})
	}
}

func TestSystemStatus_DatabaseDown(t *testing.T) {
	h := NewOpsHandler(OpsConfig{
		DB: pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/ops/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusFail, status.Status)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, "postgres", status.Subsystems[0].Name)
	assert.Equal(t, models.HealthStatusFail, status.Subsystems[0].Status)
	assert.Empty(t, status.Providers)
}

func TestReadinessCheck_PingHasDeadline(t *testing.T) {
	var hadDeadline bool
	h := NewOpsHandler(OpsConfig{
		DB: pingFunc(func(ctx context.Context) error {
			_, hadDeadline = ctx.Deadline()
			return nil
		}),
	})

	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/ops/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hadDeadline)
}
