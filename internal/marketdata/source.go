package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/ibdscreener/pkg/config"
	"github.com/wonny/ibdscreener/pkg/database"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// Source is the guarded store the engine reads from, plus its lifecycle
type Source struct {
	*Guard
	Backend string

	health func(ctx context.Context) (*database.HealthStatus, error)
	close  func()
}

// GuardOptionsFromConfig maps the screening config onto GuardOptions
func GuardOptionsFromConfig(cfg *config.Config) GuardOptions {
	return GuardOptions{
		Serialize:       cfg.Screening.SerializeReads,
		ReadsPerSecond:  cfg.Screening.ReadsPerSecond,
		Burst:           cfg.Screening.ReadBurst,
		BreakerFailures: cfg.Screening.BreakerFailures,
		BreakerTimeout:  cfg.Screening.BreakerTimeout,
	}
}

// Open connects the configured backend (postgres | sqlite | fixture) and guards it
func Open(cfg *config.Config, opts GuardOptions, log *logger.Logger) (*Source, error) {
	switch cfg.DataSource {
	case config.DataSourcePostgres:
		db, err := database.New(cfg)
		if err != nil {
			return nil, err
		}
		return &Source{
			Guard:   NewGuard(NewPostgres(db.Pool), opts, log),
			Backend: config.DataSourcePostgres,
			health:  db.HealthCheck,
			close:   db.Close,
		}, nil

	case config.DataSourceSQLite:
		db, err := database.NewSQLite(cfg)
		if err != nil {
			return nil, err
		}
		return &Source{
			Guard:   NewGuard(NewSQLite(db.DB), opts, log),
			Backend: config.DataSourceSQLite,
			health:  db.HealthCheck,
			close:   func() { _ = db.Close() },
		}, nil

	case config.DataSourceFixture:
		return OpenFixture(cfg.FixturePath, opts, log)

	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

// OpenFixture guards a JSON fixture store
func OpenFixture(path string, opts GuardOptions, log *logger.Logger) (*Source, error) {
	mem, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	return NewMemorySource(mem, opts, log), nil
}

// NewMemorySource guards an in-memory store
func NewMemorySource(mem *Memory, opts GuardOptions, log *logger.Logger) *Source {
	return &Source{
		Guard:   NewGuard(mem, opts, log),
		Backend: "memory",
		health: func(ctx context.Context) (*database.HealthStatus, error) {
			return &database.HealthStatus{Healthy: true, Timestamp: time.Now()}, nil
		},
		close: func() {},
	}
}

// HealthCheck reports backend health
func (s *Source) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	return s.health(ctx)
}

// Status is what /health and the check command report about the source
type Status struct {
	Backend string                 `json:"backend"`
	Breaker string                 `json:"breaker"` // closed | half-open | open
	Store   *database.HealthStatus `json:"store"`
}

// Status combines backend health with the circuit breaker state.
// An open breaker is an error: every read is refused until it half-opens.
func (s *Source) Status(ctx context.Context) (*Status, error) {
	st := &Status{Backend: s.Backend, Breaker: s.BreakerState()}

	health, err := s.HealthCheck(ctx)
	st.Store = health
	if err != nil {
		return st, err
	}
	if st.Breaker == gobreaker.StateOpen.String() {
		return st, fmt.Errorf("market data reads refused: %w", gobreaker.ErrOpenState)
	}
	return st, nil
}

// Close releases the backend connection
func (s *Source) Close() {
	s.close()
}
