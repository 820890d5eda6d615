package logger_test

import (
	"errors"

	"github.com/wonny/ibdscreener/pkg/config"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Screening run started")
	log.Warnf("Benchmark %s has %d bars, need %d", "SPY", 90, 126)
}

// Example_withFields demonstrates structured logging per screener and ticker
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "debug",
		LogFormat: "json",
	}

	log := logger.New(cfg).WithComponent("screener")

	log.WithFields(map[string]interface{}{
		"screener":  "Up on Volume",
		"ticker":    "NVDA",
		"failed_at": "ad_rating",
		"reason":    "missing_field",
	}).Debug("Ticker excluded")

	log.WithError(errors.New("connection refused")).
		WithField("op", "price_history").
		Error("Screening run aborted")
}
