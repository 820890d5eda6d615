package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/scheduler"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// DefaultScreeningSchedule: weekdays 17:30, after the US close settles
const DefaultScreeningSchedule = "0 30 17 * * 1-5"

// Runner runs every screener once (screener.Engine)
type Runner interface {
	RunAll(ctx context.Context) (*contracts.ScreeningRun, error)
}

// RunStore keeps completed runs (resultstore.Store)
type RunStore interface {
	Save(ctx context.Context, run *contracts.ScreeningRun) error
}

// ScreeningJob runs all six screeners and stores the run
// ⭐ SSOT: 스크리닝 스케줄은 이 Job에서만
//
// Websocket subscribers are notified by the store once Save has
// recorded the run (resultstore.Store.OnSave), not by the job.
type ScreeningJob struct {
	runner   Runner
	store    RunStore
	schedule string
	logger   *logger.Logger
}

// NewScreeningJob creates the scheduled screening job
func NewScreeningJob(runner Runner, store RunStore, schedule string, log *logger.Logger) *ScreeningJob {
	if schedule == "" {
		schedule = DefaultScreeningSchedule
	}
	return &ScreeningJob{
		runner:   runner,
		store:    store,
		schedule: schedule,
		logger:   log.WithComponent("job.screening"),
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "screening"
}

// Schedule returns the cron schedule (with seconds)
func (j *ScreeningJob) Schedule() string {
	return j.schedule
}

// Run executes one screening run
func (j *ScreeningJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled screening run")

	run, err := j.runner.RunAll(ctx)
	if err != nil {
		// 데이터 접근 실패만 재시도
		if !contracts.IsUpstream(err) && !errors.Is(err, context.Canceled) {
			return scheduler.Permanent(fmt.Errorf("screening run: %w", err))
		}
		return fmt.Errorf("screening run: %w", err)
	}

	if err := j.store.Save(ctx, run); err != nil {
		// 결과는 프로세스 내에 남아 있으므로 재시도하지 않음
		j.logger.WithError(err).Warn("Screening run not cached")
	}

	counts := make(map[string]interface{}, len(run.Results))
	for _, res := range run.Results {
		counts[res.Name] = res.Count()
	}
	j.logger.WithFields(counts).WithField("run_id", run.RunID).Info("Scheduled screening run completed")
	return nil
}
