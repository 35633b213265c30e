package models

// Report is a single stored reading.
type Report struct {
	ID       int64     `json:"id"`
	Valor    float64   `json:"valor"`
	SensorID string    `json:"sensorID"`
	Fecha    Timestamp `json:"fecha"`
}

// ReportWithSensor is a reading enriched with its sensor's metadata, returned
// by GET /reports. The sensor fields are null when the sensor is gone.
type ReportWithSensor struct {
	Fecha              Timestamp `json:"fecha"`
	Valor              float64   `json:"valor"`
	SensorID           string    `json:"sensorID"`
	SensorUsername     *string   `json:"sensorUsername"`
	SensorDescripction *string   `json:"sensorDescripction"`
}

// ReportCreateRequest is the body of POST /reports. Value is a pointer so a
// zero reading is distinguishable from a missing one.
type ReportCreateRequest struct {
	SensorID string   `json:"sensorID"`
	Value    *float64 `json:"value"`
}

// Validate validates the ingestion request.
func (r *ReportCreateRequest) Validate() []FieldError {
	var errs []FieldError

	if r.SensorID == "" {
		errs = append(errs, Required("sensorID"))
	}
	if r.Value == nil {
		errs = append(errs, Required("value"))
	}

	return errs
}

// MessageResponse is a bare {"message": ...} body.
type MessageResponse struct {
	Message string `json:"message"`
}
