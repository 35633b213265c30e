package models

import "fmt"

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationError is returned by services when a request fails validation.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + e.Errors[0].Field + " " + e.Errors[0].Message
}

// TooLong returns a TOO_LONG field error for a value over max bytes.
func TooLong(field string, maxBytes int) FieldError {
	return FieldError{Field: field, Message: fmt.Sprintf("must be at most %d bytes", maxBytes), Code: "TOO_LONG"}
}

// Required returns a REQUIRED field error for the named field.
func Required(field string) FieldError {
	return FieldError{Field: field, Message: "is required", Code: "REQUIRED"}
}
