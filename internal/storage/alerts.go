package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sensorfleet/internal/models"
)

// AlertStore persists and queries derived alerts.
type AlertStore struct {
	db *sqlx.DB
}

// NewAlertStore wraps a connection pool.
func NewAlertStore(db *sqlx.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Insert appends one alert row. Each breached metric of a reading is
// persisted independently.
func (s *AlertStore) Insert(ctx context.Context, a *models.Alert) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (sensor_id, alert_type, value, threshold, message, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.SensorID, a.AlertType, a.Value, a.Threshold, a.Message, a.Timestamp)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// List returns the most recent alerts, newest first. Empty sensorID returns
// alerts for the whole fleet.
func (s *AlertStore) List(ctx context.Context, sensorID string, limit int) ([]models.Alert, error) {
	out := []models.Alert{}
	var err error
	if sensorID != "" {
		err = s.db.SelectContext(ctx, &out,
			`SELECT sensor_id, alert_type, value, threshold, message, timestamp
			 FROM alerts
			 WHERE sensor_id = $1
			 ORDER BY timestamp DESC
			 LIMIT $2`,
			sensorID, limit)
	} else {
		err = s.db.SelectContext(ctx, &out,
			`SELECT sensor_id, alert_type, value, threshold, message, timestamp
			 FROM alerts
			 ORDER BY timestamp DESC
			 LIMIT $1`,
			limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}

// AlertStats summarizes the alerts table.
type AlertStats struct {
	Total  int64            `json:"total_alerts"`
	ByType map[string]int64 `json:"by_type"`
}

// Stats returns the total alert count and a per-type breakdown.
func (s *AlertStore) Stats(ctx context.Context) (*AlertStats, error) {
	stats := &AlertStats{ByType: map[string]int64{}}

	if err := s.db.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM alerts`); err != nil {
		return nil, fmt.Errorf("alert stats: %w", err)
	}

	rows := []struct {
		AlertType string `db:"alert_type"`
		Count     int64  `db:"count"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT alert_type, COUNT(*) AS count FROM alerts GROUP BY alert_type`)
	if err != nil {
		return nil, fmt.Errorf("alert stats by type: %w", err)
	}
	for _, row := range rows {
		stats.ByType[row.AlertType] = row.Count
	}
	return stats, nil
}
