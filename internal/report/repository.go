package report

import "context"

// Repository defines the interface for reading persistence.
type Repository interface {
	// Create inserts a reading and sets its ID and server-assigned Fecha.
	Create(ctx context.Context, r *Report) error

	// ListBySensorIDs returns every reading for the given sensor identifiers,
	// newest first (Fecha descending, then ID descending).
	ListBySensorIDs(ctx context.Context, sensorIDs []string) ([]*Report, error)
}
