package metrics

import (
	"database/sql"
	"time"
)

type PoolHealth string

const (
	PoolHealthy   PoolHealth = "healthy"
	PoolDegraded  PoolHealth = "degraded"
	PoolSaturated PoolHealth = "saturated"
)

// DBStats is a snapshot of a database/sql pool.
type DBStats struct {
	Open         int
	InUse        int
	Idle         int
	MaxOpen      int
	WaitCount    int64
	WaitDuration time.Duration
}

func SnapshotDB(db *sql.DB) DBStats {
	if db == nil {
		return DBStats{}
	}
	s := db.Stats()
	return DBStats{
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		MaxOpen:      s.MaxOpenConnections,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}

// Health grades pool pressure. An unlimited pool is always healthy.
func (s DBStats) Health() PoolHealth {
	if s.MaxOpen == 0 {
		return PoolHealthy
	}
	utilization := float64(s.InUse) / float64(s.MaxOpen)
	switch {
	case utilization >= 0.95:
		return PoolSaturated
	case utilization >= 0.8, s.WaitDuration > 5*time.Second:
		return PoolDegraded
	}
	return PoolHealthy
}

func (s DBStats) ToMap() map[string]any {
	return map[string]any{
		"open":             s.Open,
		"in_use":           s.InUse,
		"idle":             s.Idle,
		"max_open":         s.MaxOpen,
		"wait_count":       s.WaitCount,
		"wait_duration_ms": s.WaitDuration.Milliseconds(),
		"health":           string(s.Health()),
	}
}
