package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ibdscreener/pkg/config"
)

const applicationName = "ibdscreener"

// DB is the read-only pool over the market schema
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool    *pgxpool.Pool
	session map[string]string
}

// New opens the market data pool.
// Every pooled session is read-only and carries DB_STATEMENT_TIMEOUT, so one
// slow universe scan fails as an upstream error instead of pinning a connection.
// ⭐ SSOT: 유일하게 pgxpool.NewWithConfig()를 호출하는 함수
func New(cfg *config.Config) (*DB, error) {
	poolCfg, err := poolConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create market data pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach market data database: %w", err)
	}

	return &DB{Pool: pool, session: sessionParams(poolCfg)}, nil
}

// poolConfig maps DB_* settings onto pgxpool without connecting
func poolConfig(dc config.DatabaseConfig) (*pgxpool.Config, error) {
	if dc.URL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	poolCfg, err := pgxpool.ParseConfig(dc.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// 0 이하 값은 pgx 기본값 유지
	if dc.MaxConns > 0 {
		poolCfg.MaxConns = int32(dc.MaxConns)
	}
	if dc.MinConns > 0 {
		poolCfg.MinConns = min(int32(dc.MinConns), poolCfg.MaxConns)
	}
	if dc.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = dc.MaxConnLifetime
	}
	if dc.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = dc.MaxConnIdleTime
	}

	// 스크리너는 시장 데이터를 읽기만 함
	params := poolCfg.ConnConfig.RuntimeParams
	params["default_transaction_read_only"] = "on"
	params["application_name"] = applicationName
	if dc.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(dc.StatementTimeout.Milliseconds(), 10)
	}

	return poolCfg, nil
}

// sessionParams is the subset of runtime params reported by HealthCheck
func sessionParams(poolCfg *pgxpool.Config) map[string]string {
	out := make(map[string]string, 3)
	for _, k := range []string{"default_transaction_read_only", "statement_timeout", "application_name"} {
		if v, ok := poolCfg.ConnConfig.RuntimeParams[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Close closes the pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// HealthCheck pings the database and reports pool usage and session settings
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Timestamp: time.Now(), Session: db.session}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)
	status.Stats = db.poolStats()
	status.Healthy = true
	return status, nil
}

func (db *DB) poolStats() PoolStats {
	stats := db.Pool.Stat()
	return PoolStats{
		AcquireCount:         stats.AcquireCount(),
		AcquireDuration:      stats.AcquireDuration(),
		AcquiredConns:        stats.AcquiredConns(),
		CanceledAcquireCount: stats.CanceledAcquireCount(),
		ConstructingConns:    stats.ConstructingConns(),
		EmptyAcquireCount:    stats.EmptyAcquireCount(),
		IdleConns:            stats.IdleConns(),
		MaxConns:             stats.MaxConns(),
		TotalConns:           stats.TotalConns(),
	}
}
