// Package handler provides HTTP handlers for the PlantWatch API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/api/response"
	"github.com/plantwatch/plantwatch/internal/provider/resilience"
)

const readyTimeout = 2 * time.Second

// Pinger checks connectivity to a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
	providers *resilience.Registry
}

// OpsConfig holds the dependencies reported by the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// DB is pinged by the readiness check. Optional.
	DB Pinger

	// Providers supplies outbound provider health. Optional.
	Providers *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		db:        cfg.DB,
		providers: cfg.Providers,
	}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /ops/ready - 503 until the database answers.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	db := h.databaseStatus(r.Context())

	health := models.Health{
		Status: db.Status,
		Time:   models.Timestamp(time.Now()),
	}
	if db.Status != models.HealthStatusOK {
		health.Details = map[string]interface{}{"database": *db.Detail}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /ops/status - subsystem and push provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.databaseStatus(r.Context())},
		Providers:  []models.ProviderStatus{},
	}
	if status.Subsystems[0].Status != models.HealthStatusOK {
		status.Status = models.HealthStatusFail
	}

	if h.providers != nil {
		for _, ph := range h.providers.GetAllHealth() {
			ps := providerStatus(ph)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) databaseStatus(ctx context.Context) models.SubsystemStatus {
	sub := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
	if h.db == nil {
		return sub
	}

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		detail := "database unreachable"
		sub.Status = models.HealthStatusFail
		sub.Detail = &detail
	}
	return sub
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{Provider: ph.Name, Status: models.HealthStatusOK}

	switch {
	case ph.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case ph.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}

	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
