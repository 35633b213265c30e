// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
	"github.com/plantwatch/plantwatch/internal/api/models"
)

// JSON writes a JSON response with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Token writes a 200 {"message": ..., "token": ...} body.
func Token(w http.ResponseWriter, r *http.Request, message, token string) {
	JSON(w, r, http.StatusOK, models.TokenResponse{Message: message, Token: token})
}

// Message writes a 200 {"message": ...} body.
func Message(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusOK, models.MessageResponse{Message: message})
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, r *http.Request, body *models.ErrorBody) {
	body.Write(w, middleware.GetRequestID(r.Context()))
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, r *http.Request, message string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(message, errors))
}

// Unauthorized writes a 401 Unauthorized error response.
func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, models.NewUnauthorized(message))
}

// Forbidden writes a 403 Forbidden error response.
func Forbidden(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, models.NewForbidden(message))
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, models.NewNotFound(message))
}

// Conflict writes a 409 Conflict error response.
func Conflict(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, models.NewConflict(message))
}

// InternalError writes a 500 Internal Server Error response. The raw error
// text is only included when error detail is exposed for the request.
func InternalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	body := models.NewInternalError(message)
	if err != nil && middleware.ErrorDetailExposed(r.Context()) {
		body.WithDetail(err.Error())
	}
	Error(w, r, body)
}

// ServiceUnavailable writes a 503 Service Unavailable error response.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, models.NewServiceUnavailable(message))
}
