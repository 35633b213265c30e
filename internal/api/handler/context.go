package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/api/response"
)

// maxBodyBytes bounds request bodies. Every JSON body in the API is tiny.
const maxBodyBytes = 64 << 10

// GetUserID retrieves the authenticated user ID from the context.
// This is a convenience wrapper around middleware.GetUserID.
func GetUserID(ctx context.Context) (int64, bool) {
	return middleware.GetUserID(ctx)
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}
	return true
}

// writeValidation writes a 400 if err is a validation error.
func writeValidation(w http.ResponseWriter, r *http.Request, err error) bool {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	response.BadRequest(w, r, "missing required fields", verr.Errors)
	return true
}

// serverError logs an unexpected failure and writes a 500.
func serverError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, msg string, err error) {
	logger.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("path", r.URL.Path).
		Msg(msg)
	response.InternalError(w, r, "server error", err)
}
