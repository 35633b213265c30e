package report

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	last    time.Time
	reports []*Report
	now     func() time.Time
}

// NewInMemoryRepository creates a new in-memory report repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{now: time.Now}
}

// Create inserts a reading. Timestamps are strictly increasing so that
// insertion order is also Fecha order.
func (r *InMemoryRepository) Create(_ context.Context, rep *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fecha := r.now().UTC().Truncate(time.Millisecond)
	if !fecha.After(r.last) {
		fecha = r.last.Add(time.Millisecond)
	}
	r.last = fecha

	r.nextID++
	rep.ID = r.nextID
	rep.Fecha = fecha

	stored := *rep
	r.reports = append(r.reports, &stored)

	return nil
}

// ListBySensorIDs returns every reading for the given sensors, newest first.
func (r *InMemoryRepository) ListBySensorIDs(_ context.Context, sensorIDs []string) ([]*Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(sensorIDs))
	for _, id := range sensorIDs {
		wanted[id] = struct{}{}
	}

	var out []*Report
	for _, rep := range r.reports {
		if _, ok := wanted[rep.SensorID]; ok {
			c := *rep
			out = append(out, &c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Fecha.Equal(out[j].Fecha) {
			return out[i].Fecha.After(out[j].Fecha)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}
