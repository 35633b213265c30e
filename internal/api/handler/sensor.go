package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/api/response"
	"github.com/plantwatch/plantwatch/internal/sensor"
)

// SensorHandler handles sensor registry endpoints.
type SensorHandler struct {
	sensors *sensor.Service
	logger  zerolog.Logger
}

// NewSensorHandler creates a new SensorHandler.
func NewSensorHandler(sensors *sensor.Service, logger zerolog.Logger) *SensorHandler {
	return &SensorHandler{sensors: sensors, logger: logger}
}

// Create handles POST /sensor - register a sensor for the caller.
func (h *SensorHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, r, middleware.MessageTokenRequired)
		return
	}

	var req models.SensorCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.sensors.Register(r.Context(), userID, &req)
	if err != nil {
		switch {
		case writeValidation(w, r, err):
		case errors.Is(err, sensor.ErrSensorExists):
			response.Conflict(w, r, "sensor already registered")
		default:
			serverError(w, r, h.logger, "register sensor", err)
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.SensorCreatedResponse{
		Message: "sensor registered",
		Sensor:  created,
	})
}

// List handles GET /sensor - the caller's sensors.
func (h *SensorHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, r, middleware.MessageTokenRequired)
		return
	}

	sensors, err := h.sensors.List(r.Context(), userID)
	if err != nil {
		serverError(w, r, h.logger, "list sensors", err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SensorListResponse{
		Message:  "sensors retrieved",
		Sensores: sensors,
	})
}

// Get handles GET /sensor/{id} - one of the caller's sensors with its readings.
func (h *SensorHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, r, middleware.MessageTokenRequired)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, r, "id must be a positive integer", []models.FieldError{
			{Field: "id", Message: "must be a positive integer", Code: "INVALID"},
		})
		return
	}

	detail, err := h.sensors.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, sensor.ErrSensorNotFound) {
			response.NotFound(w, r, "sensor not found")
			return
		}
		serverError(w, r, h.logger, "get sensor", err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SensorDetailResponse{
		Message:   "sensor retrieved",
		Resultado: detail,
	})
}

// OwnerContact handles POST /token - who owns a sensor and their push token.
func (h *SensorHandler) OwnerContact(w http.ResponseWriter, r *http.Request) {
	var req models.OwnerContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, err := h.sensors.OwnerContact(r.Context(), req.SensorID)
	if err != nil {
		switch {
		case writeValidation(w, r, err):
		case errors.Is(err, sensor.ErrSensorNotFound):
			response.NotFound(w, r, "sensor not found")
		default:
			serverError(w, r, h.logger, "owner contact", err)
		}
		return
	}

	response.JSON(w, r, http.StatusOK, contact)
}
