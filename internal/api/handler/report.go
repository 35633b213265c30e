package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/api/response"
	"github.com/plantwatch/plantwatch/internal/report"
)

// ReportHandler handles reading ingestion and listing.
type ReportHandler struct {
	reports *report.Service
	logger  zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *report.Service, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// Create handles POST /reports - store a reading sent by a device.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ReportCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.reports.Ingest(r.Context(), &req); err != nil {
		if writeValidation(w, r, err) {
			return
		}
		serverError(w, r, h.logger, "save report", err)
		return
	}

	response.Message(w, r, "report saved")
}

// List handles GET /reports - readings of all the caller's sensors, newest first.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, r, middleware.MessageTokenRequired)
		return
	}

	reports, err := h.reports.ListForUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, report.ErrNoSensors) || errors.Is(err, report.ErrNoReports) {
			response.NotFound(w, r, err.Error())
			return
		}
		serverError(w, r, h.logger, "list reports", err)
		return
	}

	response.JSON(w, r, http.StatusOK, reports)
}
