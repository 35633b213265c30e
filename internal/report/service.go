package report

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api/models"
)

// DefaultAlertThreshold is the reading value above which an alert is raised.
const DefaultAlertThreshold = 500

// SensorDirectory resolves the sensors owned by a user.
type SensorDirectory interface {
	ListSensorInfo(ctx context.Context, ownerID int64) ([]SensorInfo, error)
}

// Alerter accepts threshold alerts for asynchronous delivery.
// Enqueue must not block on delivery.
type Alerter interface {
	Enqueue(ctx context.Context, alert Alert) error
}

// Sink mirrors persisted readings to a secondary store.
type Sink interface {
	Record(ctx context.Context, r *Report)
}

// ServiceConfig holds configuration for the report service.
type ServiceConfig struct {
	Repo    Repository
	Sensors SensorDirectory

	// Alerter receives readings above Threshold. Optional.
	Alerter Alerter

	// Threshold is the alert threshold, used as given. Readings strictly
	// above it alert, so zero alerts on every positive reading.
	Threshold float64

	// Sink mirrors readings after they are stored. Optional.
	Sink Sink

	Logger zerolog.Logger
}

// Service provides reading ingestion and query operations.
type Service struct {
	repo      Repository
	sensors   SensorDirectory
	alerter   Alerter
	threshold float64
	sink      Sink
	logger    zerolog.Logger
}

// NewService creates a new report service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		sensors:   cfg.Sensors,
		alerter:   cfg.Alerter,
		threshold: cfg.Threshold,
		sink:      cfg.Sink,
		logger:    cfg.Logger,
	}
}

// Ingest stores a reading for the given sensor identifier. The sensor is not
// required to be registered. Alerting and mirroring happen after the write and
// never fail the call.
func (s *Service) Ingest(ctx context.Context, req *models.ReportCreateRequest) (*Report, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &models.ValidationError{Errors: errs}
	}

	rep := &Report{
		Valor:    *req.Value,
		SensorID: req.SensorID,
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, err
	}

	if s.sink != nil {
		s.sink.Record(ctx, rep)
	}

	if s.alerter != nil && rep.Valor > s.threshold {
		alert := Alert{
			ReportID: rep.ID,
			SensorID: rep.SensorID,
			Value:    rep.Valor,
			FiredAt:  time.Now().UTC(),
		}
		if err := s.alerter.Enqueue(ctx, alert); err != nil {
			s.logger.Warn().
				Err(err).
				Int64("report_id", rep.ID).
				Str("sensor_id", rep.SensorID).
				Msg("threshold alert not enqueued")
		}
	}

	return rep, nil
}

// ListForUser returns the readings of every sensor the user owns, newest
// first, each enriched with its sensor's metadata. It returns ErrNoSensors or
// ErrNoReports instead of an empty list.
func (s *Service) ListForUser(ctx context.Context, ownerID int64) ([]models.ReportWithSensor, error) {
	sensors, err := s.sensors.ListSensorInfo(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(sensors) == 0 {
		return nil, ErrNoSensors
	}

	ids := make([]string, 0, len(sensors))
	byID := make(map[string]SensorInfo, len(sensors))
	for _, si := range sensors {
		ids = append(ids, si.SensorID)
		byID[si.SensorID] = si
	}

	reports, err := s.repo.ListBySensorIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrNoReports
	}

	out := make([]models.ReportWithSensor, 0, len(reports))
	for _, rep := range reports {
		item := models.ReportWithSensor{
			Fecha:    models.Timestamp(rep.Fecha),
			Valor:    rep.Valor,
			SensorID: rep.SensorID,
		}
		if si, ok := byID[rep.SensorID]; ok {
			name, desc := si.SensorUsername, si.SensorDescripction
			item.SensorUsername = &name
			item.SensorDescripction = &desc
		}
		out = append(out, item)
	}

	return out, nil
}

// ToAPIReport converts a domain Report to an API Report.
func ToAPIReport(r *Report) models.Report {
	return models.Report{
		ID:       r.ID,
		Valor:    r.Valor,
		SensorID: r.SensorID,
		Fecha:    models.Timestamp(r.Fecha),
	}
}
