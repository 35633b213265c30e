package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/report"
)

// publishTimeout bounds waiting for a publish acknowledgement.
const publishTimeout = 30 * time.Second

// PubSubPublisherConfig holds configuration for the alert publisher.
type PubSubPublisherConfig struct {
	ProjectID string
	Topic     string
	Logger    zerolog.Logger
}

// PubSubPublisher publishes alerts to a Pub/Sub topic for the worker. It
// implements report.Alerter.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewPubSubPublisher creates a new alert publisher.
func NewPubSubPublisher(ctx context.Context, cfg PubSubPublisherConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.Topic),
		topic:     cfg.Topic,
		logger:    cfg.Logger,
	}, nil
}

// Enqueue implements report.Alerter. The publish result is awaited in the
// background so ingestion never waits on Pub/Sub.
func (p *PubSubPublisher) Enqueue(ctx context.Context, alert report.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	result := p.publisher.Publish(context.WithoutCancel(ctx), &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"sensor_id": alert.SensorID,
		},
	})

	go func() {
		waitCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if _, err := result.Get(waitCtx); err != nil {
			p.logger.Error().
				Err(err).
				Str("topic", p.topic).
				Int64("report_id", alert.ReportID).
				Msg("failed to publish alert")
		}
	}()

	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// PubSubConsumerConfig holds configuration for the alert consumer.
type PubSubConsumerConfig struct {
	ProjectID        string
	SubscriptionName string
	Processor        *Processor
	Logger           zerolog.Logger
}

// PubSubConsumer receives alerts from a subscription and processes them.
type PubSubConsumer struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	handler          *MessageHandler
	logger           zerolog.Logger
}

// NewPubSubConsumer creates a new alert consumer.
func NewPubSubConsumer(ctx context.Context, cfg PubSubConsumerConfig) (*PubSubConsumer, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubConsumer{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		handler:          NewMessageHandler(cfg.Processor, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start receives messages until ctx is cancelled.
func (c *PubSubConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("subscription", c.subscriptionName).
		Msg("starting alert consumer")

	return c.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.handler.Handle(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (c *PubSubConsumer) Close() error {
	return c.client.Close()
}

// MessageHandler decodes and processes one alert message.
type MessageHandler struct {
	processor *Processor
	logger    zerolog.Logger
}

// NewMessageHandler creates a handler around the processor.
func NewMessageHandler(processor *Processor, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{processor: processor, logger: logger}
}

// Handle reports whether the message should be acknowledged. Malformed
// messages are acknowledged so they are not redelivered forever.
func (h *MessageHandler) Handle(ctx context.Context, messageID string, data []byte) bool {
	start := time.Now()
	logger := h.logger.With().Str("message_id", messageID).Logger()

	var alert report.Alert
	if err := json.Unmarshal(data, &alert); err != nil {
		logger.Error().Err(err).Msg("dropping malformed alert message")
		return true
	}
	if alert.ReportID == 0 || alert.SensorID == "" {
		logger.Error().Msg("dropping alert message without report or sensor id")
		return true
	}

	logger = logger.With().
		Int64("report_id", alert.ReportID).
		Str("sensor_id", alert.SensorID).
		Logger()

	outcome, err := h.processor.Process(ctx, alert)
	if err != nil {
		logger.Error().Err(err).Msg("alert delivery failed, will retry")
		return false
	}

	logOutcome(logger.With().Dur("duration", time.Since(start)).Logger(), outcome)
	return true
}
