// Package main provides the entrypoint for the PlantWatch API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api"
	"github.com/plantwatch/plantwatch/internal/api/middleware"
	"github.com/plantwatch/plantwatch/internal/auth"
	"github.com/plantwatch/plantwatch/internal/database"
	"github.com/plantwatch/plantwatch/internal/mqtt"
	"github.com/plantwatch/plantwatch/internal/notify"
	"github.com/plantwatch/plantwatch/internal/provider/resilience"
	"github.com/plantwatch/plantwatch/internal/report"
	"github.com/plantwatch/plantwatch/internal/sensor"
	"github.com/plantwatch/plantwatch/internal/telemetry"
	"github.com/plantwatch/plantwatch/internal/tsdb"
	"github.com/plantwatch/plantwatch/internal/user"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "plantwatch-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting PlantWatch API")

	port := envOrDefault("APP_PORT", "8080")
	env := envOrDefault("APP_ENV", "development")

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)

	tp, err := telemetry.Init(ctx, telemetryCfg)
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

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	alertMetrics, err := notify.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize alert metrics")
		os.Exit(1)
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	if dbConfig.AutoMigrate {
		applied, migrateErr := database.Migrate(ctx, pool)
		if migrateErr != nil {
			log.Fatal().Err(migrateErr).Msg("failed to apply migrations")
		}
		log.Info().Int("applied", applied).Msg("database migrations applied")
	}

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     os.Getenv("JWT_ISSUER"),
		Audience:   os.Getenv("JWT_AUDIENCE"),
	})
	hasher := auth.NewPasswordHasher(envInt("BCRYPT_COST", auth.DefaultPasswordCost))

	// Initialize repositories and services
	userRepo := user.NewPostgresRepository(pool)
	sensorRepo := sensor.NewPostgresRepository(pool)
	reportRepo := report.NewPostgresRepository(pool)

	userService := user.NewService(userRepo, jwtService, hasher)
	sensorService := sensor.NewService(sensor.ServiceConfig{
		Repo:    sensorRepo,
		Users:   userRepo,
		Reports: reportRepo,
	})
	log.Info().Msg("user and sensor services initialized")

	// Initialize alert delivery
	providers := resilience.NewRegistry()
	expoCfg := resilience.DefaultClientConfig("expo")
	expoCfg.Registry = providers
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
		Logger:  log.With().Str("component", "alerts").Logger(),
	})

	var alerter report.Alerter
	var dispatcher *notify.Dispatcher
	var publisher *notify.PubSubPublisher

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	alertTopic := os.Getenv("PUBSUB_ALERT_TOPIC")
	if projectID != "" && alertTopic != "" {
		publisher, err = notify.NewPubSubPublisher(ctx, notify.PubSubPublisherConfig{
			ProjectID: projectID,
			Topic:     alertTopic,
			Logger:    log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create alert publisher")
		}
		alerter = publisher
		log.Info().Str("topic", alertTopic).Msg("alerts published to pubsub")
	} else {
		dispatcher = notify.NewDispatcher(notify.DispatcherConfig{
			Processor: processor,
			Workers:   envInt("ALERT_WORKERS", 2),
			QueueSize: envInt("ALERT_QUEUE_SIZE", 100),
			Logger:    log.With().Str("component", "alerts").Logger(),
		})
		dispatcher.Start()
		alerter = dispatcher
		log.Info().Msg("alerts delivered in-process")
	}

	// Optional InfluxDB mirror
	var sink report.Sink
	var influx *tsdb.Client
	if influxURL := os.Getenv("INFLUX_URL"); influxURL != "" {
		influx = tsdb.New(tsdb.Config{
			URL:    influxURL,
			Token:  os.Getenv("INFLUX_TOKEN"),
			Org:    os.Getenv("INFLUX_ORG"),
			Bucket: os.Getenv("INFLUX_BUCKET"),
		}, log.With().Str("component", "tsdb").Logger())

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if pingErr := influx.Ping(pingCtx); pingErr != nil {
			log.Warn().Err(pingErr).Msg("influxdb not reachable, readings will be retried in batches")
		}
		cancel()

		sink = influx
		log.Info().Str("url", influxURL).Msg("readings mirrored to influxdb")
	}

	reportService := report.NewService(report.ServiceConfig{
		Repo:      reportRepo,
		Sensors:   sensorService,
		Alerter:   alerter,
		Threshold: envFloat("ALERT_THRESHOLD", report.DefaultAlertThreshold),
		Sink:      sink,
		Logger:    log.With().Str("component", "reports").Logger(),
	})
	log.Info().Msg("report service initialized")

	// Optional MQTT ingestion
	var mqttClient *mqtt.Client
	if brokerURL := os.Getenv("MQTT_BROKER_URL"); brokerURL != "" {
		mqttCfg := mqtt.Config{
			BrokerURL:   brokerURL,
			ClientID:    envOrDefault("MQTT_CLIENT_ID", serviceName),
			Username:    os.Getenv("MQTT_USERNAME"),
			Password:    os.Getenv("MQTT_PASSWORD"),
			TopicPrefix: envOrDefault("MQTT_TOPIC_PREFIX", mqtt.DefaultTopicPrefix),
			QoS:         1,
		}
		mqttLog := log.With().Str("component", "mqtt").Logger()

		mqttClient, err = mqtt.Connect(mqttCfg, mqttLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		subscriber := mqtt.NewReportSubscriber(reportService, mqttCfg.TopicPrefix, mqttLog)
		if err := subscriber.Subscribe(mqttClient, mqttCfg.QoS); err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe to reading topics")
		}
		log.Info().Str("topic", subscriber.Topic()).Msg("mqtt ingestion enabled")
	}

	deviceKey := os.Getenv("INGEST_API_KEY")
	if deviceKey == "" {
		log.Warn().Msg("INGEST_API_KEY not set - reading ingestion is open to any caller")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		ServiceName:   serviceName,
		Metrics:       httpMetrics,
		Tokens:        jwtService,
		UserService:   userService,
		SensorService: sensorService,
		ReportService: reportService,
		DeviceKey:     deviceKey,
		ExposeErrors:  env != "production",
		RequireTLS:    os.Getenv("REQUIRE_TLS") == "true",
		DB:            pool,
		Providers:     providers,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Ingestion has stopped; drain what it produced.
	if mqttClient != nil {
		mqttClient.Close()
	}
	if dispatcher != nil {
		if err := dispatcher.Close(ctx); err != nil {
			log.Error().Err(err).Msg("alert queue not drained")
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close alert publisher")
		}
	}
	if influx != nil {
		influx.Close()
	}

	log.Info().Msg("server stopped")
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func envFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return v
}
