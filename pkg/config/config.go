package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Data source identifiers
const (
	DataSourcePostgres = "postgres"
	DataSourceSQLite   = "sqlite"
	DataSourceFixture  = "fixture" // JSON snapshot, 개발/데모용
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market data store
	DataSource  string // postgres | sqlite | fixture
	Database    DatabaseConfig
	SQLite      SQLiteConfig
	FixturePath string

	// Redis (result cache)
	Redis RedisConfig

	// Screening engine
	Screening ScreeningConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// 스크리닝 세션 쿼리 상한 (0 = 서버 기본값)
	StatementTimeout time.Duration
}

// SQLiteConfig points at an ibd_data.db style database file
type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ScreeningConfig controls how the engine drives the data-access layer
type ScreeningConfig struct {
	Benchmark  string // RS STS% benchmark ticker
	ConfigPath string // optional screener threshold YAML
	Workers    int    // tickers evaluated concurrently per screener

	// Data-access guard
	ReadsPerSecond  float64 // 0 = unlimited
	ReadBurst       int
	SerializeReads  bool // store is not safe for concurrent reads
	BreakerFailures int  // consecutive upstream failures before the breaker opens
	BreakerTimeout  time.Duration

	// Scheduling / caching
	Schedule  string // cron (with seconds)
	ResultTTL time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DataSource: getEnv("DATA_SOURCE", DataSourcePostgres),
		Database: DatabaseConfig{
			URL:              getEnv("DATABASE_URL", ""),
			MaxConns:         getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", "30s"),
		},
		SQLite: SQLiteConfig{
			Path:        getEnv("SQLITE_PATH", ""),
			BusyTimeout: getEnvAsDuration("SQLITE_BUSY_TIMEOUT", "5s"),
		},
		FixturePath: getEnv("FIXTURE_PATH", ""),

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Screening: ScreeningConfig{
			Benchmark:       getEnv("SCREENER_BENCHMARK", "SPY"),
			ConfigPath:      getEnv("SCREENER_CONFIG", ""),
			Workers:         getEnvAsInt("SCREENER_WORKERS", 8),
			ReadsPerSecond:  getEnvAsFloat("SCREENER_READS_PER_SECOND", 0),
			ReadBurst:       getEnvAsInt("SCREENER_READ_BURST", 16),
			SerializeReads:  getEnvAsBool("SCREENER_SERIALIZE_READS", false),
			BreakerFailures: getEnvAsInt("SCREENER_BREAKER_FAILURES", 3),
			BreakerTimeout:  getEnvAsDuration("SCREENER_BREAKER_TIMEOUT", "30s"),
			Schedule:        getEnv("SCREENER_SCHEDULE", "0 30 17 * * 1-5"),
			ResultTTL:       getEnvAsDuration("SCREENER_RESULT_TTL", "72h"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.DataSource {
	case DataSourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
	case DataSourceSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required when DATA_SOURCE=sqlite")
		}
	case DataSourceFixture:
		if c.FixturePath == "" {
			return fmt.Errorf("FIXTURE_PATH is required when DATA_SOURCE=fixture")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: postgres, sqlite, fixture")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Screening.Workers < 1 {
		return fmt.Errorf("SCREENER_WORKERS must be >= 1")
	}

	if c.Screening.Benchmark == "" {
		return fmt.Errorf("SCREENER_BENCHMARK must not be empty")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
