// Package user provides account registration, login and profile services.
package user

import (
	"errors"
	"time"

	"github.com/plantwatch/plantwatch/internal/api/models"
)

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// Repository errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	Gmail        string
	PasswordHash string
	ExpoToken    *string
	CreatedAt    time.Time
}

// RegisterRequest is the body of POST /user.
type RegisterRequest struct {
	Username  string  `json:"username"`
	Gmail     string  `json:"gmail"`
	Password  string  `json:"password"`
	TokenExpo *string `json:"tokenExpo,omitempty"`
}

// Validate validates the registration request.
func (r *RegisterRequest) Validate() []models.FieldError {
	var errs []models.FieldError

	if r.Username == "" {
		errs = append(errs, models.Required("username"))
	}
	if r.Gmail == "" {
		errs = append(errs, models.Required("gmail"))
	}
	if r.Password == "" {
		errs = append(errs, models.Required("password"))
	} else if len(r.Password) > MaxPasswordBytes {
		errs = append(errs, models.TooLong("password", MaxPasswordBytes))
	}

	return errs
}

// LoginRequest is the body of PUT /user.
type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	TokenExpo string `json:"tokenExpo"`
}

// Validate validates the login request. The push token is part of the
// login contract and is required like the credentials.
func (r *LoginRequest) Validate() []models.FieldError {
	var errs []models.FieldError

	if r.Username == "" {
		errs = append(errs, models.Required("username"))
	}
	if r.Password == "" {
		errs = append(errs, models.Required("password"))
	}
	if r.TokenExpo == "" {
		errs = append(errs, models.Required("tokenExpo"))
	}

	return errs
}
