package report_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/report"
)

type stubDirectory struct {
	sensors map[int64][]report.SensorInfo
	err     error
}

func (d *stubDirectory) ListSensorInfo(_ context.Context, ownerID int64) ([]report.SensorInfo, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.sensors[ownerID], nil
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []report.Alert
	err    error
}

func (a *recordingAlerter) Enqueue(_ context.Context, alert report.Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
	return a.err
}

type recordingSink struct {
	reports []*report.Report
}

func (s *recordingSink) Record(_ context.Context, r *report.Report) {
	s.reports = append(s.reports, r)
}

func float(v float64) *float64 { return &v }

func TestService_Ingest(t *testing.T) {
	repo := report.NewInMemoryRepository()
	sink := &recordingSink{}
	svc := report.NewService(report.ServiceConfig{Repo: repo, Sink: sink, Logger: zerolog.Nop()})

	rep, err := svc.Ingest(context.Background(), &models.ReportCreateRequest{SensorID: "S1", Value: float(42)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rep.ID)
	assert.Equal(t, 42.0, rep.Valor)
	assert.False(t, rep.Fecha.IsZero())
	require.Len(t, sink.reports, 1)
	assert.Equal(t, rep.ID, sink.reports[0].ID)
}

func TestService_Ingest_Validation(t *testing.T) {
	svc := report.NewService(report.ServiceConfig{Repo: report.NewInMemoryRepository()})

	tests := []struct {
		name  string
		req   models.ReportCreateRequest
		field string
	}{
		{"missing sensor", models.ReportCreateRequest{Value: float(1)}, "sensorID"},
		{"missing value", models.ReportCreateRequest{SensorID: "S1"}, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(context.Background(), &tt.req)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Errors[0].Field)
		})
	}
}

func TestService_Ingest_ZeroValueAccepted(t *testing.T) {
	svc := report.NewService(report.ServiceConfig{Repo: report.NewInMemoryRepository()})

	rep, err := svc.Ingest(context.Background(), &models.ReportCreateRequest{SensorID: "S1", Value: float(0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rep.Valor)
}

func TestService_Ingest_NotIdempotent(t *testing.T) {
	repo := report.NewInMemoryRepository()
	svc := report.NewService(report.ServiceConfig{Repo: repo})
	ctx := context.Background()

	first, err := svc.Ingest(ctx, &models.ReportCreateRequest{SensorID: "S1", Value: float(7)})
	require.NoError(t, err)
	second, err := svc.Ingest(ctx, &models.ReportCreateRequest{SensorID: "S1", Value: float(7)})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.Fecha.After(first.Fecha))

	all, err := repo.ListBySensorIDs(ctx, []string{"S1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_Ingest_Threshold(t *testing.T) {
	alerter := &recordingAlerter{}
	svc := report.NewService(report.ServiceConfig{
		Repo:      report.NewInMemoryRepository(),
		Alerter:   alerter,
		Threshold: report.DefaultAlertThreshold,
		Logger:    zerolog.Nop(),
	})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, &models.ReportCreateRequest{SensorID: "S1", Value: float(500)})
	require.NoError(t, err)
	assert.Empty(t, alerter.alerts, "threshold is exclusive")

	rep, err := svc.Ingest(ctx, &models.ReportCreateRequest{SensorID: "S1", Value: float(501)})
	require.NoError(t, err)
	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, rep.ID, alerter.alerts[0].ReportID)
	assert.Equal(t, "S1", alerter.alerts[0].SensorID)
	assert.Equal(t, 501.0, alerter.alerts[0].Value)
}

func TestService_Ingest_ZeroThreshold(t *testing.T) {
	alerter := &recordingAlerter{}
	svc := report.NewService(report.ServiceConfig{
		Repo:      report.NewInMemoryRepository(),
		Alerter:   alerter,
		Threshold: 0,
		Logger:    zerolog.Nop(),
	})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, &models.ReportCreateRequest{SensorID: "S1", Value: float(0)})
	require.NoError(t, err)
	assert.Empty(t, alerter.alerts)

	_, err = svc.Ingest(ctx, &models.ReportCreateRequest{SensorID: "S1", Value: float(1)})
	require.NoError(t, err)
	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, 1.0, alerter.alerts[0].Value)
}

func TestService_Ingest_AlertFailureDoesNotFail(t *testing.T) {
	alerter := &recordingAlerter{err: errors.New("queue full")}
	svc := report.NewService(report.ServiceConfig{
		Repo:      report.NewInMemoryRepository(),
		Alerter:   alerter,
		Threshold: 10,
		Logger:    zerolog.Nop(),
	})

	rep, err := svc.Ingest(context.Background(), &models.ReportCreateRequest{SensorID: "S1", Value: float(11)})
	require.NoError(t, err)
	assert.NotZero(t, rep.ID)
	assert.Len(t, alerter.alerts, 1)
}

func TestService_ListForUser(t *testing.T) {
	repo := report.NewInMemoryRepository()
	dir := &stubDirectory{sensors: map[int64][]report.SensorInfo{
		1: {
			{SensorID: "S1", SensorUsername: "Soil A", SensorDescripction: "desc a"},
			{SensorID: "S2", SensorUsername: "Soil B", SensorDescripction: "desc b"},
		},
	}}
	svc := report.NewService(report.ServiceConfig{Repo: repo, Sensors: dir})
	ctx := context.Background()

	for _, r := range []struct {
		sensor string
		value  float64
	}{{"S1", 1}, {"S2", 2}, {"S1", 3}, {"OTHER", 99}} {
		_, err := svc.Ingest(ctx, &models.ReportCreateRequest{SensorID: r.sensor, Value: float(r.value)})
		require.NoError(t, err)
	}

	got, err := svc.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 3.0, got[0].Valor)
	assert.Equal(t, 2.0, got[1].Valor)
	assert.Equal(t, 1.0, got[2].Valor)

	assert.Equal(t, "S2", got[1].SensorID)
	require.NotNil(t, got[1].SensorUsername)
	assert.Equal(t, "Soil B", *got[1].SensorUsername)
	assert.Equal(t, "desc b", *got[1].SensorDescripction)
}

func TestService_ListForUser_NotFound(t *testing.T) {
	repo := report.NewInMemoryRepository()
	dir := &stubDirectory{sensors: map[int64][]report.SensorInfo{
		2: {{SensorID: "S9", SensorUsername: "Quiet"}},
	}}
	svc := report.NewService(report.ServiceConfig{Repo: repo, Sensors: dir})
	ctx := context.Background()

	_, err := svc.ListForUser(ctx, 1)
	assert.ErrorIs(t, err, report.ErrNoSensors)

	_, err = svc.ListForUser(ctx, 2)
	assert.ErrorIs(t, err, report.ErrNoReports)
}

func TestService_ListForUser_DirectoryError(t *testing.T) {
	boom := errors.New("boom")
	svc := report.NewService(report.ServiceConfig{
		Repo:    report.NewInMemoryRepository(),
		Sensors: &stubDirectory{err: boom},
	})

	_, err := svc.ListForUser(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}
