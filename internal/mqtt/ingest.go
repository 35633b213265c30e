package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/report"
)

// DefaultTopicPrefix is used when Config.TopicPrefix is empty.
const DefaultTopicPrefix = "plantwatch"

// ingestTimeout bounds storing one MQTT reading.
const ingestTimeout = 10 * time.Second

// ErrInvalidMessage is returned for topics or payloads that are not readings.
var ErrInvalidMessage = errors.New("invalid reading message")

// Ingester stores a reading.
type Ingester interface {
	Ingest(ctx context.Context, req *models.ReportCreateRequest) (*report.Report, error)
}

// ReportSubscriber turns messages on <prefix>/sensors/<sensorID>/reports into readings.
type ReportSubscriber struct {
	ingester Ingester
	prefix   string
	logger   zerolog.Logger
}

// NewReportSubscriber creates a subscriber for the given topic prefix.
func NewReportSubscriber(ingester Ingester, prefix string, logger zerolog.Logger) *ReportSubscriber {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &ReportSubscriber{ingester: ingester, prefix: prefix, logger: logger}
}

// Topic returns the wildcard topic filter to subscribe to.
func (s *ReportSubscriber) Topic() string {
	return s.prefix + "/sensors/+/reports"
}

// Subscribe attaches the subscriber to a connected client.
func (s *ReportSubscriber) Subscribe(c *Client, qos byte) error {
	return c.Subscribe(s.Topic(), qos, s.HandleMessage)
}

// HandleMessage stores the reading carried by one message.
func (s *ReportSubscriber) HandleMessage(topic string, payload []byte) error {
	sensorID, err := s.sensorIDFromTopic(topic)
	if err != nil {
		return err
	}

	value, err := parseValue(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	rep, err := s.ingester.Ingest(ctx, &models.ReportCreateRequest{SensorID: sensorID, Value: &value})
	if err != nil {
		return fmt.Errorf("ingest reading for %s: %w", sensorID, err)
	}

	s.logger.Debug().
		Int64("report_id", rep.ID).
		Str("sensor_id", sensorID).
		Float64("value", value).
		Msg("mqtt reading stored")

	return nil
}

func (s *ReportSubscriber) sensorIDFromTopic(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, s.prefix+"/sensors/")
	if !ok {
		return "", fmt.Errorf("%w: unexpected topic %q", ErrInvalidMessage, topic)
	}
	sensorID, ok := strings.CutSuffix(rest, "/reports")
	if !ok || sensorID == "" || strings.Contains(sensorID, "/") {
		return "", fmt.Errorf("%w: unexpected topic %q", ErrInvalidMessage, topic)
	}
	return sensorID, nil
}

// parseValue accepts {"value": n} or a bare number.
func parseValue(payload []byte) (float64, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return 0, fmt.Errorf("%w: empty payload", ErrInvalidMessage)
	}

	if payload[0] == '{' {
		var body struct {
			Value *float64 `json:"value"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		if body.Value == nil {
			return 0, fmt.Errorf("%w: value is required", ErrInvalidMessage)
		}
		return *body.Value, nil
	}

	value, err := strconv.ParseFloat(string(payload), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return value, nil
}
