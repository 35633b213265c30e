package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/plantwatch/plantwatch/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Rate limits per endpoint category.
var (
	// AuthRateLimit applies to registration and login (10 req/min per IP).
	AuthRateLimit = RateLimitConfig{RequestLimit: 10, WindowLength: time.Minute}

	// IngestRateLimit applies to device endpoints (120 req/min per IP).
	IngestRateLimit = RateLimitConfig{RequestLimit: 120, WindowLength: time.Minute}

	// StandardRateLimit applies to authenticated endpoints (100 req/min per user).
	StandardRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits by client IP (as resolved by chi's RealIP middleware).
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitExceeded(cfg)),
	)
}

// RateLimitByUser limits by authenticated user, falling back to client IP.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByUserOrIP),
		httprate.WithLimitHandler(rateLimitExceeded(cfg)),
	)
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID, ok := GetUserID(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10), nil
	}
	return httprate.KeyByRealIP(r)
}

func rateLimitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		writeError(w, r, models.NewTooManyRequests("rate limit exceeded, try again later"))
	}
}
