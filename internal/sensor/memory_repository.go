package sensor

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	sensors map[int64]*Sensor
}

// NewInMemoryRepository creates a new in-memory sensor repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sensors: make(map[int64]*Sensor),
	}
}

// ExistsBySensorID reports whether any user registered the identifier.
func (r *InMemoryRepository) ExistsBySensorID(_ context.Context, sensorID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.findBySensorID(sensorID) != nil, nil
}

// Create inserts a sensor and sets its ID.
func (r *InMemoryRepository) Create(_ context.Context, s *Sensor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findBySensorID(s.SensorID) != nil {
		return ErrSensorExists
	}

	r.nextID++
	s.ID = r.nextID
	stored := *s
	r.sensors[s.ID] = &stored

	return nil
}

// ListByOwner returns the sensors owned by a user, in registration order.
func (r *InMemoryRepository) ListByOwner(_ context.Context, ownerID int64) ([]*Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Sensor
	for _, s := range r.sensors {
		if s.UsuarioID == ownerID {
			c := *s
			out = append(out, &c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// FindOwned retrieves a sensor by internal ID only if ownerID owns it.
func (r *InMemoryRepository) FindOwned(_ context.Context, id, ownerID int64) (*Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sensors[id]
	if !ok || s.UsuarioID != ownerID {
		return nil, ErrSensorNotFound
	}

	c := *s
	return &c, nil
}

// FindBySensorID retrieves a sensor by its external identifier.
func (r *InMemoryRepository) FindBySensorID(_ context.Context, sensorID string) (*Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.findBySensorID(sensorID)
	if s == nil {
		return nil, ErrSensorNotFound
	}

	c := *s
	return &c, nil
}

func (r *InMemoryRepository) findBySensorID(sensorID string) *Sensor {
	for _, s := range r.sensors {
		if s.SensorID == sensorID {
			return s
		}
	}
	return nil
}
