// Package storage holds the Postgres adapters for raw readings and derived
// alerts, plus the aggregation queries the analytics service serves.
package storage

import (
	"context"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Connect opens a Postgres connection pool for the given DSN.
func Connect(dsn string) (*sqlx.DB, error) {
	return sqlx.Connect("pgx", dsn)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sensor_readings (
		id BIGSERIAL PRIMARY KEY,
		sensor_id VARCHAR(100) NOT NULL,
		temperature DOUBLE PRECISION NOT NULL,
		humidity DOUBLE PRECISION NOT NULL,
		vibration DOUBLE PRECISION NOT NULL,
		load DOUBLE PRECISION NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_id ON sensor_readings(sensor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_timestamp ON sensor_readings(timestamp)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id BIGSERIAL PRIMARY KEY,
		sensor_id VARCHAR(100) NOT NULL,
		alert_type VARCHAR(50) NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		threshold DOUBLE PRECISION NOT NULL,
		message TEXT,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_sensor ON alerts(sensor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp)`,
}

// InitSchema creates the readings and alerts tables if they do not exist.
// There is no migration tooling; the schema is append-only.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
