// Package sensor provides the sensor registry: registration, owner-scoped
// lookups and owner contact resolution for push alerts.
package sensor

import "errors"

// Repository errors.
var (
	ErrSensorNotFound = errors.New("sensor not found")
	ErrSensorExists   = errors.New("sensor already registered")
)

// Sensor is a registered device bound to its owning user.
type Sensor struct {
	ID                 int64
	SensorID           string
	SensorUsername     string
	SensorDescripction string
	UsuarioID          int64
}
