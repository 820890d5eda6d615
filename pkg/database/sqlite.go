package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/wonny/ibdscreener/pkg/config"
)

// SQLiteDB wraps a database/sql handle on an ibd_data.db style file
// ⭐ SSOT: SQLite 연결은 이 패키지에서만 생성
type SQLiteDB struct {
	DB   *sql.DB
	Path string
}

// NewSQLite opens the configured SQLite file read-only
func NewSQLite(cfg *config.Config) (*SQLiteDB, error) {
	return OpenSQLite(cfg.SQLite.Path, cfg.SQLite.BusyTimeout, true)
}

// OpenSQLite opens path; readOnly=false is only used to build fixtures
func OpenSQLite(path string, busyTimeout time.Duration, readOnly bool) (*SQLiteDB, error) {
	// modernc.org/sqlite uses "sqlite" driver name (not "sqlite3")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyTimeout.Milliseconds())
	if readOnly {
		dsn += "&mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &SQLiteDB{DB: db, Path: path}, nil
}

// Close closes the handle
func (s *SQLiteDB) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Ping checks the file is readable
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// HealthCheck mirrors DB.HealthCheck for the SQLite backend
func (s *SQLiteDB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Timestamp: time.Now()}

	start := time.Now()
	if err := s.DB.PingContext(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)

	stats := s.DB.Stats()
	status.Stats = PoolStats{
		AcquireCount:    stats.WaitCount,
		AcquireDuration: stats.WaitDuration,
		AcquiredConns:   int32(stats.InUse),
		IdleConns:       int32(stats.Idle),
		MaxConns:        int32(stats.MaxOpenConnections),
		TotalConns:      int32(stats.OpenConnections),
	}
	status.Healthy = true
	return status, nil
}
