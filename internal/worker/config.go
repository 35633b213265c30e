package worker

import (
	"errors"
	"os"
	"time"
)

// Configuration errors.
var (
	ErrMissingProject      = errors.New("PUBSUB_PROJECT_ID is required")
	ErrMissingSubscription = errors.New("PUBSUB_ALERT_SUBSCRIPTION is required")
)

// Config holds configuration for the alert worker.
type Config struct {
	// ProjectID is the Google Cloud project holding the subscription.
	ProjectID string

	// Subscription is the alert subscription to receive from.
	Subscription string

	// Port serves the health endpoint (default: 8080).
	Port string

	// Version is reported by the health endpoint.
	Version string

	// ShutdownTimeout bounds the health server shutdown (default: 30 seconds).
	ShutdownTimeout time.Duration
}

// ConfigFromEnv reads PUBSUB_PROJECT_ID, PUBSUB_ALERT_SUBSCRIPTION, APP_PORT
// and WORKER_SHUTDOWN_TIMEOUT.
func ConfigFromEnv() Config {
	cfg := Config{
		ProjectID:       os.Getenv("PUBSUB_PROJECT_ID"),
		Subscription:    os.Getenv("PUBSUB_ALERT_SUBSCRIPTION"),
		Port:            os.Getenv("APP_PORT"),
		ShutdownTimeout: 30 * time.Second,
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if d, err := time.ParseDuration(os.Getenv("WORKER_SHUTDOWN_TIMEOUT")); err == nil && d > 0 {
		cfg.ShutdownTimeout = d
	}
	return cfg
}

// Validate reports missing settings.
func (c Config) Validate() error {
	var errs []error
	if c.ProjectID == "" {
		errs = append(errs, ErrMissingProject)
	}
	if c.Subscription == "" {
		errs = append(errs, ErrMissingSubscription)
	}
	return errors.Join(errs...)
}
