package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/ibdscreener/pkg/logger"
)

// HealthChecker is a dependency that can be pinged
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker
type HealthCheckFunc func(ctx context.Context) error

// Ping calls f
func (f HealthCheckFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthCheckJob pings the market data store and the result cache
// so outages show up before the daily run does
type HealthCheckJob struct {
	checks map[string]HealthChecker
	logger *logger.Logger
}

// NewHealthCheckJob creates a new health check job
func NewHealthCheckJob(checks map[string]HealthChecker, log *logger.Logger) *HealthCheckJob {
	return &HealthCheckJob{
		checks: checks,
		logger: log.WithComponent("job.health"),
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "health_check"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *HealthCheckJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run pings every dependency; the first failure fails the job
func (j *HealthCheckJob) Run(ctx context.Context) error {
	var failed error
	for name, check := range j.checks {
		if err := check.Ping(ctx); err != nil {
			j.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			if failed == nil {
				failed = fmt.Errorf("%s: %w", name, err)
			}
			continue
		}
		j.logger.WithField("dependency", name).Debug("Health check ok")
	}
	return failed
}
