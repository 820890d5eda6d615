package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // --tz 는 시스템 zoneinfo 없이도 동작

	"github.com/spf13/cobra"

	"github.com/wonny/ibdscreener/internal/resultstore"
	"github.com/wonny/ibdscreener/internal/scheduler"
	"github.com/wonny/ibdscreener/internal/scheduler/jobs"
	"github.com/wonny/ibdscreener/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

이 명령어는:
- 스케줄러 데몬 시작
- 등록된 작업 조회
- 특정 작업 즉시 실행

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/screener scheduler start
  go run ./cmd/screener scheduler list
  go run ./cmd/screener scheduler run screening`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- screening: 평일 17:30 (미 동부 기준, SCREENER_SCHEDULE 로 변경) 6개 스크리너 실행 후 저장
- health_check: 5분마다 (데이터 소스 / Redis)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

// scheduleZone is where cron expressions are evaluated (US market close)
var scheduleZone string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringVar(&scheduleZone, "tz", "America/New_York", "cron 기준 타임존")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== IBD Screener Scheduler ===")

	a, err := newApp(os.Stdout)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	client := a.openRedis()
	defer client.Close()

	sched, err := newScheduler(a, a.newStore(client), client)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	sched, err := newScheduler(a, a.newStore(redis.Wrap(nil)), redis.Wrap(nil))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp(os.Stderr)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	client := a.openRedis()
	defer client.Close()

	sched, err := newScheduler(a, a.newStore(client), client)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJobSync(cmd.Context(), jobName)
	if err != nil {
		PrintError(fmt.Sprintf("Job %s failed: %v", jobName, err))
		return err
	}
	if !result.Success {
		PrintError(fmt.Sprintf("Job %s failed after %s: %s", jobName, result.Duration.Round(time.Millisecond), result.Error))
		return errors.New(result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s", result.JobName, result.Duration.Round(time.Millisecond)))
	return nil
}

// newScheduler registers the screening and health check jobs
func newScheduler(a *app, store *resultstore.Store, client *redis.Client) (*scheduler.Scheduler, error) {
	var opts []scheduler.Option
	if scheduleZone != "" {
		loc, err := time.LoadLocation(scheduleZone)
		if err != nil {
			return nil, fmt.Errorf("load time zone %q: %w", scheduleZone, err)
		}
		opts = append(opts, scheduler.WithLocation(loc))
	}

	sched := scheduler.New(a.log, opts...)

	if err := sched.AddJob(jobs.NewScreeningJob(a.engine, store, a.cfg.Screening.Schedule, a.log)); err != nil {
		return nil, err
	}

	checks := map[string]jobs.HealthChecker{
		"marketdata": jobs.HealthCheckFunc(func(ctx context.Context) error {
			status, err := a.source.HealthCheck(ctx)
			if err != nil {
				return err
			}
			if !status.Healthy {
				return errors.New(status.Error)
			}
			return nil
		}),
		"redis": client,
	}
	if err := sched.AddJob(jobs.NewHealthCheckJob(checks, a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

func printJobs(sched *scheduler.Scheduler) {
	fmt.Println("\nRegistered jobs:")
	stats := sched.GetJobStats()
	for _, jobName := range sched.GetAllJobs() {
		line := fmt.Sprintf("%s  [%s]", jobName, stats[jobName].Schedule)
		if next, err := sched.NextRun(jobName); err == nil && !next.IsZero() {
			line += "  next " + next.Format("2006-01-02 15:04 MST")
		}
		fmt.Printf("  - %s\n", line)
	}
}
