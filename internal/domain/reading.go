package domain

import "time"

// SensorRow is one row of the sensor table as returned by the source. Nil
// fields are missing cells (SQL NULL).
type SensorRow struct {
	Timestamp   *string
	Location    *string
	Temperature *float64
	SmokeLevel  *float64

	// Key is the value of the configured join column, empty when the table
	// does not carry one.
	Key string
}

// SensorReading is a sensor row that survived cleaning: complete and within
// physical bounds.
type SensorReading struct {
	Timestamp   string  `json:"timestamp"`
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	SmokeLevel  float64 `json:"smoke_level"`
	Key         string  `json:"key,omitempty"`
}

// EngineeredReading carries the derived model features alongside the reading.
type EngineeredReading struct {
	SensorReading

	Time          time.Time `json:"time"`
	FireRiskScore float64   `json:"fire_risk_score"`
	HourOfDay     int       `json:"hour_of_day"` // 0-23
	DayOfWeek     int       `json:"day_of_week"` // Monday=0 .. Sunday=6
}

// FeatureNames lists the classifier inputs in the order returned by Features.
var FeatureNames = []string{"Temperature", "SmokeLevel", "HourOfDay", "DayOfWeek"}

// Features returns the classifier input vector for the reading.
func (r EngineeredReading) Features() []float64 {
	return []float64{r.Temperature, r.SmokeLevel, float64(r.HourOfDay), float64(r.DayOfWeek)}
}

// IncidentRecord is one historical fire incident. Guidance and AssessedAt are
// filled by ApplyGuidance.
type IncidentRecord struct {
	IncidentID string    `json:"incident_id"`
	Severity   int       `json:"incident_severity"`
	Guidance   string    `json:"guidance,omitempty"`
	AssessedAt time.Time `json:"assessed_at,omitzero"`
}

// LabeledExample pairs one engineered reading with the severity of the
// incident it was joined to.
type LabeledExample struct {
	Reading  EngineeredReading
	Severity int
}
