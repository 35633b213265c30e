package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL report repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a reading. Fecha is assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, rep *Report) error {
	query := `
		INSERT INTO reports (valor, sensor_id)
		VALUES ($1, $2)
		RETURNING id, fecha
	`

	if err := r.pool.QueryRow(ctx, query, rep.Valor, rep.SensorID).Scan(&rep.ID, &rep.Fecha); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	return nil
}

// ListBySensorIDs returns every reading for the given sensors, newest first.
func (r *PostgresRepository) ListBySensorIDs(ctx context.Context, sensorIDs []string) ([]*Report, error) {
	if len(sensorIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, valor, sensor_id, fecha
		FROM reports
		WHERE sensor_id = ANY($1)
		ORDER BY fecha DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, sensorIDs)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.Valor, &rep.SensorID, &rep.Fecha); err != nil {
			return nil, err
		}
		reports = append(reports, &rep)
	}

	return reports, rows.Err()
}
