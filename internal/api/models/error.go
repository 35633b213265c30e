package models

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON envelope written for every failed request:
// {"message": "...", "token": null}. Token is always null on failures; the
// field is kept because the app reads it on every response.
type ErrorBody struct {
	// Status is the HTTP status code. It is not serialized.
	Status int `json:"-"`

	// Message is a human-readable description of the failure.
	Message string `json:"message"`

	// Token is always null on error responses.
	Token *string `json:"token"`

	// Errors contains structured field validation errors.
	Errors []FieldError `json:"errors,omitempty"`

	// Error carries the raw internal error text. Only set outside production.
	Error string `json:"error,omitempty"`
}

// NewError creates a new ErrorBody with the given status and message.
func NewError(status int, message string) *ErrorBody {
	return &ErrorBody{
		Status:  status,
		Message: message,
	}
}

// WithErrors adds field errors to the body.
func (e *ErrorBody) WithErrors(errors []FieldError) *ErrorBody {
	e.Errors = errors
	return e
}

// WithDetail attaches raw error detail to the body.
func (e *ErrorBody) WithDetail(detail string) *ErrorBody {
	e.Error = detail
	return e
}

// Write writes the body as JSON to the ResponseWriter.
func (e *ErrorBody) Write(w http.ResponseWriter, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}

// NewBadRequest creates a 400 Bad Request body.
func NewBadRequest(message string, errors []FieldError) *ErrorBody {
	return NewError(http.StatusBadRequest, message).WithErrors(errors)
}

// NewUnauthorized creates a 401 Unauthorized body.
func NewUnauthorized(message string) *ErrorBody {
	return NewError(http.StatusUnauthorized, message)
}

// NewForbidden creates a 403 Forbidden body.
func NewForbidden(message string) *ErrorBody {
	return NewError(http.StatusForbidden, message)
}

// NewNotFound creates a 404 Not Found body.
func NewNotFound(message string) *ErrorBody {
	return NewError(http.StatusNotFound, message)
}

// NewConflict creates a 409 Conflict body.
func NewConflict(message string) *ErrorBody {
	return NewError(http.StatusConflict, message)
}

// NewTooManyRequests creates a 429 Too Many Requests body.
func NewTooManyRequests(message string) *ErrorBody {
	return NewError(http.StatusTooManyRequests, message)
}

// NewInternalError creates a 500 Internal Server Error body.
func NewInternalError(message string) *ErrorBody {
	return NewError(http.StatusInternalServerError, message)
}

// NewServiceUnavailable creates a 503 Service Unavailable body.
func NewServiceUnavailable(message string) *ErrorBody {
	return NewError(http.StatusServiceUnavailable, message)
}
