package models

import (
	"errors"
	"math"
	"time"
)

// Reading is a single multi-metric measurement reported by one sensor.
type Reading struct {
	SensorID    string    `db:"sensor_id" json:"sensor_id"`
	Temperature float64   `db:"temperature" json:"temperature"`
	Humidity    float64   `db:"humidity" json:"humidity"`
	Vibration   float64   `db:"vibration" json:"vibration"`
	Load        float64   `db:"load" json:"load"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
}

// Validation errors
var (
	ErrEmptySensorID    = errors.New("sensor_id cannot be empty")
	ErrSensorIDTooLong  = errors.New("sensor_id exceeds maximum length")
	ErrMetricNotFinite  = errors.New("metric value must be finite")
	ErrMissingMetric    = errors.New("all four metrics are required")
	ErrInvalidTimestamp = errors.New("invalid timestamp format")
)

// MaxSensorIDLength matches the sensor_readings.sensor_id column width.
const MaxSensorIDLength = 100

// Validate checks that the reading has a sensor ID and finite metric values.
func (r *Reading) Validate() error {
	if r.SensorID == "" {
		return ErrEmptySensorID
	}

	if len(r.SensorID) > MaxSensorIDLength {
		return ErrSensorIDTooLong
	}

	for _, v := range []float64{r.Temperature, r.Humidity, r.Vibration, r.Load} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrMetricNotFinite
		}
	}

	return nil
}

// Metric returns the named metric value. Valid names are listed in
// MetricNames; anything else returns false.
func (r *Reading) Metric(name string) (float64, bool) {
	switch name {
	case "temperature":
		return r.Temperature, true
	case "humidity":
		return r.Humidity, true
	case "vibration":
		return r.Vibration, true
	case "load":
		return r.Load, true
	default:
		return 0, false
	}
}

// MetricNames lists the metrics every reading carries.
var MetricNames = []string{"temperature", "humidity", "vibration", "load"}

// ValidMetric reports whether name is one of the reading metrics.
func ValidMetric(name string) bool {
	_, ok := (&Reading{}).Metric(name)
	return ok
}
