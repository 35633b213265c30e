// Package main provides the entrypoint for the PlantWatch alert worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/database"
	"github.com/plantwatch/plantwatch/internal/notify"
	"github.com/plantwatch/plantwatch/internal/provider/resilience"
	"github.com/plantwatch/plantwatch/internal/report"
	"github.com/plantwatch/plantwatch/internal/sensor"
	"github.com/plantwatch/plantwatch/internal/telemetry"
	"github.com/plantwatch/plantwatch/internal/user"
	"github.com/plantwatch/plantwatch/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "plantwatch-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting PlantWatch worker")

	cfg := worker.ConfigFromEnv()
	cfg.Version = Version
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid worker configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	alertMetrics, err := notify.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize alert metrics")
	}

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// Owner lookups go through the same sensor service as the API.
	sensorService := sensor.NewService(sensor.ServiceConfig{
		Repo:    sensor.NewPostgresRepository(pool),
		Users:   user.NewPostgresRepository(pool),
		Reports: report.NewPostgresRepository(pool),
	})

	expoCfg := resilience.DefaultClientConfig("expo")
	expoCfg.Registry = resilience.NewRegistry()
	expo := notify.NewExpoClient(notify.ExpoConfig{
		URL:         os.Getenv("EXPO_PUSH_URL"),
		AccessToken: os.Getenv("EXPO_ACCESS_TOKEN"),
		Client:      resilience.NewClient(expoCfg),
	})

	processor := notify.NewProcessor(notify.ProcessorConfig{
		Owners:  sensorService,
		Sender:  expo,
		Ledger:  notify.NewPostgresLedger(pool),
		Metrics: alertMetrics,
		Logger:  log,
	})

	consumer, err := notify.NewPubSubConsumer(ctx, notify.PubSubConsumerConfig{
		ProjectID:        cfg.ProjectID,
		SubscriptionName: cfg.Subscription,
		Processor:        processor,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create alert consumer")
	}
	defer func() {
		if closeErr := consumer.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close alert consumer")
		}
	}()

	if err := worker.New(cfg, consumer, log).Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker exited with error")
	}
}
