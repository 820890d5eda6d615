package database

import "time"

// HealthStatus is what test-db, check and /health report for either backend
type HealthStatus struct {
	Healthy      bool              `json:"healthy"`
	Timestamp    time.Time         `json:"timestamp"`
	ResponseTime time.Duration     `json:"response_time"`
	Error        string            `json:"error,omitempty"`
	Stats        PoolStats         `json:"stats"`
	Session      map[string]string `json:"session,omitempty"` // postgres runtime params
}

// PoolStats is connection pool usage; SQLite fills the database/sql subset
type PoolStats struct {
	AcquireCount         int64         `json:"acquire_count"`
	AcquireDuration      time.Duration `json:"acquire_duration"`
	AcquiredConns        int32         `json:"acquired_conns"`
	CanceledAcquireCount int64         `json:"canceled_acquire_count"`
	ConstructingConns    int32         `json:"constructing_conns"`
	EmptyAcquireCount    int64         `json:"empty_acquire_count"`
	IdleConns            int32         `json:"idle_conns"`
	MaxConns             int32         `json:"max_conns"`
	TotalConns           int32         `json:"total_conns"`
}
