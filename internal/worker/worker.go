// Package worker runs the alert notification worker: a Pub/Sub consumer
// plus the health endpoint probed by the hosting platform.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Consumer receives and processes alerts until its context is cancelled.
type Consumer interface {
	Start(ctx context.Context) error
}

// Worker supervises a Consumer and its health endpoint.
type Worker struct {
	cfg      Config
	consumer Consumer
	logger   zerolog.Logger
	running  atomic.Bool
}

// HealthResponse is the body served by /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Consumer string `json:"consumer"`
}

// New creates a worker.
func New(cfg Config, consumer Consumer, logger zerolog.Logger) *Worker {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Worker{
		cfg:      cfg,
		consumer: consumer,
		logger:   logger,
	}
}

// Handler returns the health endpoint mux.
func (w *Worker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", w.health)
	return mux
}

func (w *Worker) health(rw http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "healthy", Version: w.cfg.Version, Consumer: "running"}
	status := http.StatusOK
	if !w.running.Load() {
		resp.Status = "unhealthy"
		resp.Consumer = "stopped"
		status = http.StatusServiceUnavailable
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		w.logger.Error().Err(err).Msg("failed to encode health response")
	}
}

// Run serves the health endpoint and runs the consumer. It returns when ctx
// is cancelled, the consumer stops or the health server fails.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &http.Server{
		Addr:         ":" + w.cfg.Port,
		Handler:      w.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		w.logger.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	consumerDone := make(chan error, 1)
	w.running.Store(true)
	go func() {
		consumerDone <- w.consumer.Start(ctx)
	}()

	var runErr error
	consumerStopped := false
	select {
	case <-ctx.Done():
	case err := <-consumerDone:
		consumerStopped = true
		if err != nil {
			runErr = fmt.Errorf("consumer: %w", err)
		}
	case err := <-serverErr:
		runErr = fmt.Errorf("health server: %w", err)
	}
	w.running.Store(false)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), w.cfg.ShutdownTimeout)
	defer shutdownCancel()

	if !consumerStopped {
		select {
		case err := <-consumerDone:
			if err != nil && runErr == nil && !errors.Is(err, context.Canceled) {
				runErr = fmt.Errorf("consumer: %w", err)
			}
		case <-shutdownCtx.Done():
			w.logger.Warn().Msg("consumer did not stop before shutdown timeout")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		w.logger.Error().Err(err).Msg("health server forced to shutdown")
	}

	w.logger.Info().Msg("worker stopped")
	return runErr
}
