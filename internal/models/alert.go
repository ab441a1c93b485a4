package models

import "time"

// AlertType identifies which metric of a reading breached its threshold.
type AlertType string

const (
	AlertTemperatureHigh AlertType = "temperature_high"
	AlertVibrationHigh   AlertType = "vibration_high"
	AlertHumidityHigh    AlertType = "humidity_high"
	AlertLoadHigh        AlertType = "load_high"
)

// IsValid checks if the alert type is one of the known threshold breaches.
func (t AlertType) IsValid() bool {
	switch t {
	case AlertTemperatureHigh, AlertVibrationHigh, AlertHumidityHigh, AlertLoadHigh:
		return true
	default:
		return false
	}
}

// Alert records that one metric of one reading exceeded its configured
// threshold. Alerts are immutable once created.
type Alert struct {
	SensorID  string    `db:"sensor_id" json:"sensor_id"`
	AlertType AlertType `db:"alert_type" json:"alert_type"`
	Value     float64   `db:"value" json:"value"`
	Threshold float64   `db:"threshold" json:"threshold"`
	Message   string    `db:"message" json:"message"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Thresholds holds the per-metric breach boundaries. They are fixed at
// startup and shared by all evaluations; there is no per-sensor tuning.
type Thresholds struct {
	Temperature float64
	Vibration   float64
	Humidity    float64
	Load        float64
}

// DefaultThresholds returns the fleet-wide default breach boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Temperature: 50.0,
		Vibration:   80.0,
		Humidity:    90.0,
		Load:        95.0,
	}
}
