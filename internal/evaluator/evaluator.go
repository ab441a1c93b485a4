// Package evaluator maps one reading plus the configured thresholds to the
// set of alerts the reading triggers. It is pure: no I/O, no clock, no
// shared state.
package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"sensorfleet/internal/models"
)

// Evaluate returns one alert per metric that strictly exceeds its threshold.
// Equality never triggers. Emission follows a fixed metric order but
// consumers must not depend on it.
func Evaluate(r *models.Reading, t models.Thresholds) []models.Alert {
	var alerts []models.Alert

	checks := []struct {
		metric    string
		value     float64
		threshold float64
		alertType models.AlertType
	}{
		{"temperature", r.Temperature, t.Temperature, models.AlertTemperatureHigh},
		{"vibration", r.Vibration, t.Vibration, models.AlertVibrationHigh},
		{"humidity", r.Humidity, t.Humidity, models.AlertHumidityHigh},
		{"load", r.Load, t.Load, models.AlertLoadHigh},
	}

	for _, c := range checks {
		if c.value > c.threshold {
			alerts = append(alerts, models.Alert{
				SensorID:  r.SensorID,
				AlertType: c.alertType,
				Value:     c.value,
				Threshold: c.threshold,
				Message: fmt.Sprintf("%s %s exceeds threshold %s",
					c.metric, formatValue(c.value), formatValue(c.threshold)),
				Timestamp: r.Timestamp,
			})
		}
	}

	return alerts
}

// formatValue renders a float the way downstream consumers already expect:
// shortest round-trip form, always with a decimal point (50.0, not 50).
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
