package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/report"
)

// Dispatcher errors.
var (
	ErrQueueFull        = errors.New("alert queue is full")
	ErrDispatcherClosed = errors.New("alert dispatcher is closed")
)

// DispatcherConfig holds configuration for the in-process dispatcher.
type DispatcherConfig struct {
	Processor *Processor

	// Workers is the number of delivery goroutines (default: 2).
	Workers int

	// QueueSize bounds pending alerts (default: 100).
	QueueSize int

	// Timeout bounds the delivery of a single alert (default: 30 seconds).
	Timeout time.Duration

	Logger zerolog.Logger
}

// Dispatcher delivers alerts on a bounded in-process queue. It implements
// report.Alerter; Enqueue never waits for delivery.
type Dispatcher struct {
	processor *Processor
	queue     chan report.Alert
	workers   int
	timeout   time.Duration
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Call Start to begin delivery.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Dispatcher{
		processor: cfg.Processor,
		queue:     make(chan report.Alert, queueSize),
		workers:   workers,
		timeout:   timeout,
		logger:    cfg.Logger,
	}
}

// Start launches the workers. They exit once Close drains the queue.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
}

// Enqueue implements report.Alerter.
func (d *Dispatcher) Enqueue(_ context.Context, alert report.Alert) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- alert:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting alerts and waits for queued ones to be processed or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for alert := range d.queue {
		d.handle(alert)
	}
}

func (d *Dispatcher) handle(alert report.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	logger := d.logger.With().
		Int64("report_id", alert.ReportID).
		Str("sensor_id", alert.SensorID).
		Logger()

	outcome, err := d.processor.Process(ctx, alert)
	if err != nil {
		logger.Error().Err(err).Msg("alert delivery failed")
		return
	}

	logOutcome(logger, outcome)
}

func logOutcome(logger zerolog.Logger, outcome Outcome) {
	switch outcome {
	case OutcomeDelivered:
		logger.Info().Str("outcome", string(outcome)).Msg("alert delivered")
	case OutcomeRejected:
		logger.Warn().Str("outcome", string(outcome)).Msg("push provider rejected alert")
	default:
		logger.Debug().Str("outcome", string(outcome)).Msg("alert skipped")
	}
}
