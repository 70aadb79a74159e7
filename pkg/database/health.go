package database

import (
	"context"
	"database/sql"
	"time"
)

// HealthStatus reports the outcome of a database health check.
type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	LatencyMs int64         `json:"latency_ms"`
	OpenConns int           `json:"open_conns"`
	InUse     int           `json:"in_use"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	Latency   time.Duration `json:"-"`
}

// Health pings the database and returns pool statistics.
func Health(ctx context.Context, db *sql.DB) (HealthStatus, error) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	stats := db.Stats()
	status := HealthStatus{
		Healthy:   err == nil,
		Latency:   latency,
		LatencyMs: latency.Milliseconds(),
		OpenConns: stats.OpenConnections,
		InUse:     stats.InUse,
		CheckedAt: time.Now(),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status, err
}
