package sensor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantwatch/plantwatch/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL sensor repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectSensor = `
	SELECT id, sensor_id, sensor_username, sensor_descripction, usuario_id
	FROM sensors
`

// ExistsBySensorID reports whether any user registered the identifier.
func (r *PostgresRepository) ExistsBySensorID(ctx context.Context, sensorID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sensors WHERE sensor_id = $1)`, sensorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sensor exists: %w", err)
	}
	return exists, nil
}

// Create inserts a sensor and sets its ID.
func (r *PostgresRepository) Create(ctx context.Context, s *Sensor) error {
	query := `
		INSERT INTO sensors (sensor_id, sensor_username, sensor_descripction, usuario_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query, s.SensorID, s.SensorUsername, s.SensorDescripction, s.UsuarioID).Scan(&s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSensorExists
		}
		return fmt.Errorf("insert sensor: %w", err)
	}

	return nil
}

// ListByOwner returns the sensors owned by a user, in registration order.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*Sensor, error) {
	rows, err := r.pool.Query(ctx, selectSensor+" WHERE usuario_id = $1 ORDER BY id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("query sensors: %w", err)
	}
	defer rows.Close()

	var sensors []*Sensor
	for rows.Next() {
		var s Sensor
		if err := rows.Scan(&s.ID, &s.SensorID, &s.SensorUsername, &s.SensorDescripction, &s.UsuarioID); err != nil {
			return nil, err
		}
		sensors = append(sensors, &s)
	}

	return sensors, rows.Err()
}

// FindOwned retrieves a sensor by internal ID only if ownerID owns it.
func (r *PostgresRepository) FindOwned(ctx context.Context, id, ownerID int64) (*Sensor, error) {
	return r.scanSensor(ctx, selectSensor+" WHERE id = $1 AND usuario_id = $2", id, ownerID)
}

// FindBySensorID retrieves a sensor by its external identifier.
func (r *PostgresRepository) FindBySensorID(ctx context.Context, sensorID string) (*Sensor, error) {
	return r.scanSensor(ctx, selectSensor+" WHERE sensor_id = $1", sensorID)
}

func (r *PostgresRepository) scanSensor(ctx context.Context, query string, args ...interface{}) (*Sensor, error) {
	var s Sensor

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID,
		&s.SensorID,
		&s.SensorUsername,
		&s.SensorDescripction,
		&s.UsuarioID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, err
	}

	return &s, nil
}
