package sensor

import (
	"context"
	"errors"
	"fmt"

	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/report"
	"github.com/plantwatch/plantwatch/internal/user"
)

// ServiceConfig holds the collaborators of the sensor service.
type ServiceConfig struct {
	Repo    Repository
	Users   user.Repository
	Reports report.Repository
}

// Service provides sensor registry operations.
type Service struct {
	repo    Repository
	users   user.Repository
	reports report.Repository
}

// NewService creates a new sensor service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:    cfg.Repo,
		users:   cfg.Users,
		reports: cfg.Reports,
	}
}

// Register binds a new sensor to its owner. Identifiers are unique across all
// users; the store's constraint is authoritative over the pre-check.
func (s *Service) Register(ctx context.Context, ownerID int64, req *models.SensorCreateRequest) (*models.Sensor, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &models.ValidationError{Errors: errs}
	}

	exists, err := s.repo.ExistsBySensorID(ctx, req.SensorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSensorExists
	}

	sn := &Sensor{
		SensorID:           req.SensorID,
		SensorUsername:     req.SensorUsername,
		SensorDescripction: req.SensorDescripction,
		UsuarioID:          ownerID,
	}
	if err := s.repo.Create(ctx, sn); err != nil {
		return nil, err
	}

	result := toAPISensor(sn)
	return &result, nil
}

// List returns the owner's sensors projected to identifier and name.
func (s *Service) List(ctx context.Context, ownerID int64) ([]models.SensorSummary, error) {
	sensors, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]models.SensorSummary, 0, len(sensors))
	for _, sn := range sensors {
		out = append(out, models.SensorSummary{
			SensorID:       sn.SensorID,
			SensorUsername: sn.SensorUsername,
		})
	}

	return out, nil
}

// Get returns one of the owner's sensors with its readings, newest first.
// A sensor owned by someone else is reported as ErrSensorNotFound.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (*models.SensorDetail, error) {
	sn, err := s.repo.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	reports, err := s.reports.ListBySensorIDs(ctx, []string{sn.SensorID})
	if err != nil {
		return nil, err
	}

	reportes := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		reportes = append(reportes, report.ToAPIReport(r))
	}

	return &models.SensorDetail{
		ID:                 sn.ID,
		SensorUsername:     sn.SensorUsername,
		SensorDescripction: sn.SensorDescripction,
		SensorID:           sn.SensorID,
		Reportes:           reportes,
	}, nil
}

// ListSensorInfo returns the metadata of the owner's sensors.
func (s *Service) ListSensorInfo(ctx context.Context, ownerID int64) ([]report.SensorInfo, error) {
	sensors, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]report.SensorInfo, 0, len(sensors))
	for _, sn := range sensors {
		out = append(out, report.SensorInfo{
			SensorID:           sn.SensorID,
			SensorUsername:     sn.SensorUsername,
			SensorDescripction: sn.SensorDescripction,
		})
	}

	return out, nil
}

// OwnerContact resolves who owns a sensor and their push token.
func (s *Service) OwnerContact(ctx context.Context, sensorID string) (*models.OwnerContact, error) {
	if sensorID == "" {
		return nil, &models.ValidationError{Errors: []models.FieldError{models.Required("sensorID")}}
	}

	sn, err := s.repo.FindBySensorID(ctx, sensorID)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.FindByID(ctx, sn.UsuarioID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, fmt.Errorf("owner of sensor %s: %w", sensorID, ErrSensorNotFound)
		}
		return nil, err
	}

	return &models.OwnerContact{
		Username:   owner.Username,
		SensorName: sn.SensorUsername,
		ExpoToken:  owner.ExpoToken,
	}, nil
}

func toAPISensor(sn *Sensor) models.Sensor {
	return models.Sensor{
		ID:                 sn.ID,
		SensorID:           sn.SensorID,
		SensorUsername:     sn.SensorUsername,
		SensorDescripction: sn.SensorDescripction,
		UsuarioID:          sn.UsuarioID,
	}
}
