package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"sensorfleet/internal/models"
)

// ReadingStore persists and queries raw sensor readings.
type ReadingStore struct {
	db *sqlx.DB
}

// NewReadingStore wraps a connection pool.
func NewReadingStore(db *sqlx.DB) *ReadingStore {
	return &ReadingStore{db: db}
}

// Insert appends one reading. Readings are never updated or deleted.
func (s *ReadingStore) Insert(ctx context.Context, r *models.Reading) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sensor_readings (sensor_id, temperature, humidity, vibration, load, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.SensorID, r.Temperature, r.Humidity, r.Vibration, r.Load, r.Timestamp)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// ListBySensor returns the most recent readings for one sensor, newest first.
func (s *ReadingStore) ListBySensor(ctx context.Context, sensorID string, limit int) ([]models.Reading, error) {
	out := []models.Reading{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT sensor_id, temperature, humidity, vibration, load, timestamp
		 FROM sensor_readings
		 WHERE sensor_id = $1
		 ORDER BY timestamp DESC
		 LIMIT $2`,
		sensorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return out, nil
}

// MetricSummary holds one aggregate per metric. Fields are nil when no
// readings matched the window.
type MetricSummary struct {
	Temperature *float64 `db:"temperature"`
	Humidity    *float64 `db:"humidity"`
	Vibration   *float64 `db:"vibration"`
	Load        *float64 `db:"load"`
}

// Empty reports whether the window matched no readings.
func (m *MetricSummary) Empty() bool {
	return m.Temperature == nil
}

// Averages returns the per-metric average over the window starting at since.
// Empty sensorID aggregates across the whole fleet.
func (s *ReadingStore) Averages(ctx context.Context, sensorID string, since time.Time) (*MetricSummary, error) {
	return s.summarize(ctx, "AVG", sensorID, since)
}

// Maximums returns the per-metric maximum over the window starting at since.
func (s *ReadingStore) Maximums(ctx context.Context, sensorID string, since time.Time) (*MetricSummary, error) {
	return s.summarize(ctx, "MAX", sensorID, since)
}

func (s *ReadingStore) summarize(ctx context.Context, fn, sensorID string, since time.Time) (*MetricSummary, error) {
	var out MetricSummary
	query := fmt.Sprintf(
		`SELECT %[1]s(temperature) AS temperature, %[1]s(humidity) AS humidity,
		        %[1]s(vibration) AS vibration, %[1]s(load) AS load
		 FROM sensor_readings WHERE timestamp >= $1`, fn)

	var err error
	if sensorID != "" {
		err = s.db.GetContext(ctx, &out, query+` AND sensor_id = $2`, since, sensorID)
	} else {
		err = s.db.GetContext(ctx, &out, query, since)
	}
	if err != nil {
		return nil, fmt.Errorf("summarize readings: %w", err)
	}
	return &out, nil
}

// SensorRank is one entry of the top-sensors ranking.
type SensorRank struct {
	SensorID string  `db:"sensor_id" json:"sensor_id"`
	Average  float64 `db:"avg_value" json:"average"`
	Maximum  float64 `db:"max_value" json:"maximum"`
}

// TopSensors ranks sensors by the average of one metric over the window.
// The metric name is validated against the fixed metric set before being
// interpolated into the query.
func (s *ReadingStore) TopSensors(ctx context.Context, metric string, since time.Time, limit int) ([]SensorRank, error) {
	if !models.ValidMetric(metric) {
		return nil, fmt.Errorf("invalid metric %q", metric)
	}

	out := []SensorRank{}
	query := fmt.Sprintf(
		`SELECT sensor_id, AVG(%[1]s) AS avg_value, MAX(%[1]s) AS max_value
		 FROM sensor_readings
		 WHERE timestamp >= $1
		 GROUP BY sensor_id
		 ORDER BY avg_value DESC
		 LIMIT $2`, metric)
	if err := s.db.SelectContext(ctx, &out, query, since, limit); err != nil {
		return nil, fmt.Errorf("top sensors: %w", err)
	}
	return out, nil
}

// SensorStats aggregates one sensor's readings over a window.
type SensorStats struct {
	Count          int64    `db:"count"`
	AvgTemperature *float64 `db:"avg_temperature"`
	MaxTemperature *float64 `db:"max_temperature"`
	MinTemperature *float64 `db:"min_temperature"`
	AvgHumidity    *float64 `db:"avg_humidity"`
	MaxHumidity    *float64 `db:"max_humidity"`
	MinHumidity    *float64 `db:"min_humidity"`
	AvgVibration   *float64 `db:"avg_vibration"`
	MaxVibration   *float64 `db:"max_vibration"`
	MinVibration   *float64 `db:"min_vibration"`
	AvgLoad        *float64 `db:"avg_load"`
	MaxLoad        *float64 `db:"max_load"`
	MinLoad        *float64 `db:"min_load"`
}

// Stats returns count plus avg/max/min per metric for one sensor.
func (s *ReadingStore) Stats(ctx context.Context, sensorID string, since time.Time) (*SensorStats, error) {
	var out SensorStats
	err := s.db.GetContext(ctx, &out,
		`SELECT COUNT(*) AS count,
		        AVG(temperature) AS avg_temperature, MAX(temperature) AS max_temperature, MIN(temperature) AS min_temperature,
		        AVG(humidity) AS avg_humidity, MAX(humidity) AS max_humidity, MIN(humidity) AS min_humidity,
		        AVG(vibration) AS avg_vibration, MAX(vibration) AS max_vibration, MIN(vibration) AS min_vibration,
		        AVG(load) AS avg_load, MAX(load) AS max_load, MIN(load) AS min_load
		 FROM sensor_readings
		 WHERE sensor_id = $1 AND timestamp >= $2`,
		sensorID, since)
	if err != nil {
		return nil, fmt.Errorf("sensor stats: %w", err)
	}
	return &out, nil
}
