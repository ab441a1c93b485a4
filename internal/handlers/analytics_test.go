package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sensorfleet/internal/storage"
)

func f64(v float64) *float64 { return &v }

type mockAggregator struct {
	summary *storage.MetricSummary
	ranks   []storage.SensorRank
	stats   *storage.SensorStats

	gotMetric   string
	gotSensorID string
	gotSince    time.Time
}

func (m *mockAggregator) Averages(ctx context.Context, sensorID string, since time.Time) (*storage.MetricSummary, error) {
	m.gotSensorID = sensorID
	m.gotSince = since
	return m.summary, nil
}

func (m *mockAggregator) Maximums(ctx context.Context, sensorID string, since time.Time) (*storage.MetricSummary, error) {
	m.gotSensorID = sensorID
	return m.summary, nil
}

func (m *mockAggregator) TopSensors(ctx context.Context, metric string, since time.Time, limit int) ([]storage.SensorRank, error) {
	m.gotMetric = metric
	return m.ranks, nil
}

func (m *mockAggregator) Stats(ctx context.Context, sensorID string, since time.Time) (*storage.SensorStats, error) {
	m.gotSensorID = sensorID
	return m.stats, nil
}

func TestAnalyticsAverage(t *testing.T) {
	agg := &mockAggregator{
		summary: &storage.MetricSummary{
			Temperature: f64(21.456),
			Humidity:    f64(40.1),
			Vibration:   f64(5),
			Load:        f64(30.999),
		},
	}
	h := NewAnalyticsHandler(agg)

	req := httptest.NewRequest(http.MethodGet, "/analytics/average?sensor_id=s1&hours=6", nil)
	w := httptest.NewRecorder()
	h.Average(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if agg.gotSensorID != "s1" {
		t.Errorf("sensor_id not forwarded: %s", agg.gotSensorID)
	}

	var resp struct {
		SensorID    string             `json:"sensor_id"`
		PeriodHours int                `json:"period_hours"`
		Average     map[string]float64 `json:"average"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.SensorID != "s1" || resp.PeriodHours != 6 {
		t.Errorf("unexpected envelope: %+v", resp)
	}
	if resp.Average["temperature"] != 21.46 {
		t.Errorf("expected temperature rounded to 21.46, got %v", resp.Average["temperature"])
	}
	if resp.Average["load"] != 31.0 {
		t.Errorf("expected load rounded to 31.0, got %v", resp.Average["load"])
	}
}

func TestAnalyticsAverageNoData(t *testing.T) {
	h := NewAnalyticsHandler(&mockAggregator{summary: &storage.MetricSummary{}})

	req := httptest.NewRequest(http.MethodGet, "/analytics/average", nil)
	w := httptest.NewRecorder()
	h.Average(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp["sensor_id"] != "all" || resp["message"] != "no data" {
		t.Errorf("unexpected no-data response: %v", resp)
	}
}

func TestAnalyticsTopSensors(t *testing.T) {
	agg := &mockAggregator{
		ranks: []storage.SensorRank{{SensorID: "s9", Average: 88.888, Maximum: 99.9}},
	}
	h := NewAnalyticsHandler(agg)

	req := httptest.NewRequest(http.MethodGet, "/analytics/top-sensors?metric=temperature", nil)
	w := httptest.NewRecorder()
	h.TopSensors(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if agg.gotMetric != "temperature" {
		t.Errorf("metric not forwarded: %s", agg.gotMetric)
	}

	var resp struct {
		Metric     string               `json:"metric"`
		TopSensors []storage.SensorRank `json:"top_sensors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp.TopSensors) != 1 || resp.TopSensors[0].Average != 88.89 {
		t.Errorf("unexpected ranking: %+v", resp.TopSensors)
	}
}

func TestAnalyticsTopSensorsInvalidMetric(t *testing.T) {
	h := NewAnalyticsHandler(&mockAggregator{})

	req := httptest.NewRequest(http.MethodGet, "/analytics/top-sensors?metric=voltage", nil)
	w := httptest.NewRecorder()
	h.TopSensors(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown metric, got %d", w.Code)
	}
}

func TestAnalyticsTopSensorsDefaultsToLoad(t *testing.T) {
	agg := &mockAggregator{}
	h := NewAnalyticsHandler(agg)

	req := httptest.NewRequest(http.MethodGet, "/analytics/top-sensors", nil)
	h.TopSensors(httptest.NewRecorder(), req)

	if agg.gotMetric != "load" {
		t.Errorf("expected default metric load, got %s", agg.gotMetric)
	}
}

func TestAnalyticsSensorStats(t *testing.T) {
	agg := &mockAggregator{
		stats: &storage.SensorStats{
			Count:          3,
			AvgTemperature: f64(20), MaxTemperature: f64(30), MinTemperature: f64(10),
			AvgHumidity: f64(40), MaxHumidity: f64(50), MinHumidity: f64(30),
			AvgVibration: f64(5), MaxVibration: f64(8), MinVibration: f64(2),
			AvgLoad: f64(60), MaxLoad: f64(70), MinLoad: f64(50),
		},
	}
	h := NewAnalyticsHandler(agg)

	req := httptest.NewRequest(http.MethodGet, "/analytics/sensor-stats/s1", nil)
	w := httptest.NewRecorder()
	h.SensorStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if agg.gotSensorID != "s1" {
		t.Errorf("sensor_id not parsed from path: %s", agg.gotSensorID)
	}

	var resp struct {
		ReadingsCount int64              `json:"readings_count"`
		Temperature   map[string]float64 `json:"temperature"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.ReadingsCount != 3 || resp.Temperature["avg"] != 20 {
		t.Errorf("unexpected stats: %+v", resp)
	}
}

func TestAnalyticsSensorStatsNoData(t *testing.T) {
	h := NewAnalyticsHandler(&mockAggregator{stats: &storage.SensorStats{}})

	req := httptest.NewRequest(http.MethodGet, "/analytics/sensor-stats/s1", nil)
	w := httptest.NewRecorder()
	h.SensorStats(w, req)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp["message"] != "no data" {
		t.Errorf("expected no data message, got %v", resp)
	}
}
