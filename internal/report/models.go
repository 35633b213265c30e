// Package report provides reading ("reporte") ingestion and query services.
package report

import (
	"errors"
	"time"
)

// Errors returned by ListForUser. They share a status but keep distinct messages.
var (
	ErrNoSensors = errors.New("no sensors registered")
	ErrNoReports = errors.New("no reports found")
)

// Report is a single timestamped measurement from a sensor.
type Report struct {
	ID       int64
	Valor    float64
	SensorID string
	Fecha    time.Time
}

// SensorInfo is the sensor metadata a reading is enriched with.
type SensorInfo struct {
	SensorID           string
	SensorUsername     string
	SensorDescripction string
}

// Alert is raised when an ingested reading exceeds the alert threshold.
type Alert struct {
	ReportID int64     `json:"report_id"`
	SensorID string    `json:"sensor_id"`
	Value    float64   `json:"value"`
	FiredAt  time.Time `json:"fired_at"`
}
