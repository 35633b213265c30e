package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/report"
	"github.com/plantwatch/plantwatch/internal/sensor"
)

// AlertTitle is the title of every threshold alert notification.
const AlertTitle = "Alerta de sensor"

// Outcome is the terminal result of processing one alert.
type Outcome string

const (
	OutcomeDelivered     Outcome = "delivered"
	OutcomeRejected      Outcome = "rejected"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeUnknownSensor Outcome = "unknown_sensor"
	OutcomeNoPushToken   Outcome = "no_push_token"
)

// OwnerResolver finds the owner contact for a sensor identifier.
type OwnerResolver interface {
	OwnerContact(ctx context.Context, sensorID string) (*models.OwnerContact, error)
}

// Sender delivers a push message.
type Sender interface {
	Send(ctx context.Context, msg PushMessage) (bool, error)
}

// ProcessorConfig holds the collaborators of the processor.
type ProcessorConfig struct {
	Owners OwnerResolver
	Sender Sender
	Ledger Ledger

	// Metrics records outcomes. Optional.
	Metrics *Metrics

	Logger zerolog.Logger
}

// Processor turns an alert into at most one push notification.
type Processor struct {
	owners  OwnerResolver
	sender  Sender
	ledger  Ledger
	metrics *Metrics
	logger  zerolog.Logger
}

// NewProcessor creates a new alert processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	ledger := cfg.Ledger
	if ledger == nil {
		ledger = NewMemoryLedger()
	}

	return &Processor{
		owners:  cfg.Owners,
		sender:  cfg.Sender,
		ledger:  ledger,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Process delivers the alert to the sensor's owner. A returned error is
// transient: the claim has been released and the alert may be retried. Every
// non-error Outcome is final.
func (p *Processor) Process(ctx context.Context, alert report.Alert) (Outcome, error) {
	start := time.Now()

	outcome, err := p.process(ctx, alert)
	if err != nil {
		p.metrics.record(outcomeError, time.Since(start))
		return "", err
	}

	p.metrics.record(string(outcome), time.Since(start))
	return outcome, nil
}

func (p *Processor) process(ctx context.Context, alert report.Alert) (Outcome, error) {
	claimed, err := p.ledger.Claim(ctx, alert.ReportID)
	if err != nil {
		return "", err
	}
	if !claimed {
		return OutcomeDuplicate, nil
	}

	outcome, err := p.deliver(ctx, alert)
	if err != nil {
		if relErr := p.ledger.Release(context.WithoutCancel(ctx), alert.ReportID); relErr != nil {
			p.logger.Error().Err(relErr).Int64("report_id", alert.ReportID).Msg("failed to release alert claim")
		}
		return "", err
	}

	return outcome, nil
}

func (p *Processor) deliver(ctx context.Context, alert report.Alert) (Outcome, error) {
	owner, err := p.owners.OwnerContact(ctx, alert.SensorID)
	if err != nil {
		if errors.Is(err, sensor.ErrSensorNotFound) {
			return OutcomeUnknownSensor, nil
		}
		return "", fmt.Errorf("resolving owner of %s: %w", alert.SensorID, err)
	}

	if owner.ExpoToken == nil || *owner.ExpoToken == "" {
		return OutcomeNoPushToken, nil
	}

	ok, err := p.sender.Send(ctx, BuildAlertMessage(*owner.ExpoToken, owner.SensorName, alert))
	if err != nil {
		return "", err
	}
	if !ok {
		return OutcomeRejected, nil
	}

	return OutcomeDelivered, nil
}

// BuildAlertMessage builds the push message for an alert.
func BuildAlertMessage(to, sensorName string, alert report.Alert) PushMessage {
	name := sensorName
	if name == "" {
		name = alert.SensorID
	}

	return PushMessage{
		To:    to,
		Sound: "default",
		Title: AlertTitle,
		Body:  fmt.Sprintf("El sensor %s registró un valor de %g", name, alert.Value),
		Data:  map[string]any{"id": alert.ReportID},
	}
}
