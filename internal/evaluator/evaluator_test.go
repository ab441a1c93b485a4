package evaluator

import (
	"reflect"
	"testing"
	"time"

	"sensorfleet/internal/models"
)

func testReading(temp, hum, vib, load float64) *models.Reading {
	return &models.Reading{
		SensorID:    "s1",
		Temperature: temp,
		Humidity:    hum,
		Vibration:   vib,
		Load:        load,
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEvaluate(t *testing.T) {
	thresholds := models.DefaultThresholds()

	tests := []struct {
		name      string
		reading   *models.Reading
		wantTypes []models.AlertType
	}{
		{
			name:      "no breaches",
			reading:   testReading(20, 40, 10, 30),
			wantTypes: nil,
		},
		{
			name:      "temperature only",
			reading:   testReading(62.5, 40, 10, 20),
			wantTypes: []models.AlertType{models.AlertTemperatureHigh},
		},
		{
			name:      "humidity only",
			reading:   testReading(20, 95, 10, 20),
			wantTypes: []models.AlertType{models.AlertHumidityHigh},
		},
		{
			name:    "all four breached",
			reading: testReading(55, 95, 85, 99),
			wantTypes: []models.AlertType{
				models.AlertTemperatureHigh,
				models.AlertVibrationHigh,
				models.AlertHumidityHigh,
				models.AlertLoadHigh,
			},
		},
		{
			name:      "exactly at threshold never triggers",
			reading:   testReading(50.0, 90.0, 80.0, 95.0),
			wantTypes: nil,
		},
		{
			name:      "two of four",
			reading:   testReading(51, 40, 81, 20),
			wantTypes: []models.AlertType{models.AlertTemperatureHigh, models.AlertVibrationHigh},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := Evaluate(tt.reading, thresholds)

			if len(alerts) != len(tt.wantTypes) {
				t.Fatalf("expected %d alerts, got %d: %+v", len(tt.wantTypes), len(alerts), alerts)
			}

			for i, want := range tt.wantTypes {
				a := alerts[i]
				if a.AlertType != want {
					t.Errorf("alert %d: expected type %s, got %s", i, want, a.AlertType)
				}
				if a.SensorID != tt.reading.SensorID {
					t.Errorf("alert %d: sensor_id not copied: %s", i, a.SensorID)
				}
				if !a.Timestamp.Equal(tt.reading.Timestamp) {
					t.Errorf("alert %d: timestamp not copied from reading", i)
				}
			}
		})
	}
}

func TestEvaluateAlertFields(t *testing.T) {
	alerts := Evaluate(testReading(62.5, 40, 10, 20), models.DefaultThresholds())

	if len(alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(alerts))
	}

	a := alerts[0]
	if a.Value != 62.5 {
		t.Errorf("expected value 62.5, got %v", a.Value)
	}
	if a.Threshold != 50.0 {
		t.Errorf("expected threshold 50.0, got %v", a.Threshold)
	}
	if a.Message != "temperature 62.5 exceeds threshold 50.0" {
		t.Errorf("unexpected message: %q", a.Message)
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	reading := testReading(55, 95, 10, 20)
	thresholds := models.DefaultThresholds()

	first := Evaluate(reading, thresholds)
	for i := 0; i < 10; i++ {
		if got := Evaluate(reading, thresholds); !reflect.DeepEqual(first, got) {
			t.Fatalf("evaluation not deterministic: run %d gave %+v, want %+v", i, got, first)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{50, "50.0"},
		{62.5, "62.5"},
		{80.25, "80.25"},
		{0, "0.0"},
		{99.9, "99.9"},
	}

	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
