package notify

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/plantwatch/plantwatch/internal/notify"

// outcomeError labels alerts that failed transiently.
const outcomeError = "error"

// Metrics holds the alert delivery instruments.
type Metrics struct {
	processed metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMetrics creates the alert delivery instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	processed, err := meter.Int64Counter(
		"alerts.processed",
		metric.WithDescription("Threshold alerts processed, by outcome"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"alerts.processing.duration",
		metric.WithDescription("Time to process one threshold alert in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{processed: processed, duration: duration}, nil
}

// record is safe on a nil receiver.
func (m *Metrics) record(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	// Background context: the alert context may already be cancelled.
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("alert.outcome", outcome))
	m.processed.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
