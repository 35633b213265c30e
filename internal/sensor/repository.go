package sensor

import "context"

// Repository defines the interface for sensor persistence.
type Repository interface {
	// ExistsBySensorID reports whether any user registered the identifier.
	ExistsBySensorID(ctx context.Context, sensorID string) (bool, error)

	// Create inserts a sensor and sets its ID.
	// Returns ErrSensorExists if the identifier is taken.
	Create(ctx context.Context, s *Sensor) error

	// ListByOwner returns the sensors owned by a user.
	ListByOwner(ctx context.Context, ownerID int64) ([]*Sensor, error)

	// FindOwned retrieves a sensor by internal ID only if ownerID owns it.
	FindOwned(ctx context.Context, id, ownerID int64) (*Sensor, error)

	// FindBySensorID retrieves a sensor by its external identifier.
	FindBySensorID(ctx context.Context, sensorID string) (*Sensor, error)
}
