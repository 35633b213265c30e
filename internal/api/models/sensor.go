package models

// Sensor is a registered sensor as returned after registration.
type Sensor struct {
	ID                 int64  `json:"id"`
	SensorID           string `json:"sensorID"`
	SensorUsername     string `json:"sensorUsername"`
	SensorDescripction string `json:"sensorDescripction"`
	UsuarioID          int64  `json:"usuarioId"`
}

// SensorSummary is the projection returned by GET /sensor.
type SensorSummary struct {
	SensorID       string `json:"sensorID"`
	SensorUsername string `json:"sensorUsername"`
}

// SensorDetail is a sensor together with its readings, returned by GET /sensor/{id}.
type SensorDetail struct {
	ID                 int64    `json:"id"`
	SensorUsername     string   `json:"sensorUsername"`
	SensorDescripction string   `json:"sensorDescripction"`
	SensorID           string   `json:"sensorID"`
	Reportes           []Report `json:"reportes"`
}

// SensorCreateRequest is the body of POST /sensor.
type SensorCreateRequest struct {
	SensorID           string `json:"sensorID"`
	SensorUsername     string `json:"sensorUsername"`
	SensorDescripction string `json:"sensorDescripction"`
}

// Validate validates the sensor registration request.
func (r *SensorCreateRequest) Validate() []FieldError {
	var errs []FieldError

	if r.SensorID == "" {
		errs = append(errs, Required("sensorID"))
	}
	if r.SensorUsername == "" {
		errs = append(errs, Required("sensorUsername"))
	}
	if r.SensorDescripction == "" {
		errs = append(errs, Required("sensorDescripction"))
	}

	return errs
}

// SensorCreatedResponse is returned by POST /sensor.
type SensorCreatedResponse struct {
	Message string  `json:"message"`
	Token   *string `json:"token"`
	Sensor  *Sensor `json:"sensor"`
}

// SensorListResponse is returned by GET /sensor.
type SensorListResponse struct {
	Message  string          `json:"message"`
	Sensores []SensorSummary `json:"sensores"`
	Token    *string         `json:"token"`
}

// SensorDetailResponse is returned by GET /sensor/{id}.
type SensorDetailResponse struct {
	Message   string        `json:"message"`
	Resultado *SensorDetail `json:"resultado"`
	Token     *string       `json:"token"`
}

// OwnerContact is returned by POST /token: who owns a sensor and where to push.
type OwnerContact struct {
	Username   string  `json:"username"`
	SensorName string  `json:"sensorName"`
	ExpoToken  *string `json:"expoToken"`
}

// OwnerContactRequest is the body of POST /token.
type OwnerContactRequest struct {
	SensorID string `json:"sensorID"`
}
