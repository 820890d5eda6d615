package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/wonny/ibdscreener/internal/marketdata"
	"github.com/wonny/ibdscreener/internal/resultstore"
	"github.com/wonny/ibdscreener/internal/screenconfig"
	"github.com/wonny/ibdscreener/internal/screener"
	"github.com/wonny/ibdscreener/internal/telemetry"
	"github.com/wonny/ibdscreener/pkg/config"
	"github.com/wonny/ibdscreener/pkg/logger"
	"github.com/wonny/ibdscreener/pkg/redis"
)

// cachePrefix namespaces every Redis key this service writes
const cachePrefix = "screener"

// app bundles the dependencies shared by the commands
// ⭐ SSOT: 의존성 조립은 여기서만 (커맨드마다 중복 조립 금지)
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *telemetry.Metrics
	source  *marketdata.Source
	engine  *screener.Engine
}

// loadConfig applies the global flags on top of .env / environment
func loadConfig() (*config.Config, error) {
	if fixtureFile != "" {
		_ = os.Setenv("DATA_SOURCE", config.DataSourceFixture)
		_ = os.Setenv("FIXTURE_PATH", fixtureFile)
	}
	if env != "" {
		_ = os.Setenv("ENV", env)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if screenersFile != "" {
		cfg.Screening.ConfigPath = screenersFile
	}
	return cfg, nil
}

// newApp loads config, opens the guarded data source and builds the engine.
// Logs go to logOut so command output on stdout stays clean.
func newApp(logOut io.Writer, observers ...screener.Observer) (*app, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.NewWithWriter(cfg, logOut)

	return buildApp(cfg, log, observers...)
}

// buildApp assembles the app for commands that need the logger first (api, scheduler)
func buildApp(cfg *config.Config, log *logger.Logger, observers ...screener.Observer) (*app, error) {
	// 3. Metrics (engine observer + data error hook)
	metrics := telemetry.New()

	// 4. Open data source
	opts := marketdata.GuardOptionsFromConfig(cfg)
	opts.OnError = metrics.DataError
	source, err := marketdata.Open(cfg, opts, log)
	if err != nil {
		return nil, fmt.Errorf("open data source: %w", err)
	}

	// 5. Screener thresholds
	screenCfg, err := screenconfig.LoadOrDefault(cfg.Screening.ConfigPath)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("load screener config: %w", err)
	}

	// 6. Engine
	engine, err := screener.NewEngine(source, screenCfg, screener.Options{
		Benchmark: cfg.Screening.Benchmark,
		Workers:   cfg.Screening.Workers,
		Observer:  screener.Observers(append([]screener.Observer{metrics}, observers...)...),
	}, log)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"data_source": source.Backend,
		"benchmark":   cfg.Screening.Benchmark,
		"workers":     cfg.Screening.Workers,
		"config_hash": engine.ConfigHash(),
	}).Debug("Screening engine ready")

	return &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		source:  source,
		engine:  engine,
	}, nil
}

// openRedis connects Redis; a failed connection degrades to a disabled client
func (a *app) openRedis() *redis.Client {
	client, err := redis.New(a.cfg)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, results stay in process")
		return redis.Wrap(nil)
	}
	return client
}

// newStore keeps runs in Redis (when enabled) and in process
func (a *app) newStore(client *redis.Client) *resultstore.Store {
	return resultstore.New(redis.NewCache(client, cachePrefix), a.cfg.Screening.ResultTTL, a.log)
}

// Close releases the data source
func (a *app) Close() {
	a.source.Close()
}
