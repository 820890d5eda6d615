package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wonny/ibdscreener/internal/api"
	"github.com/wonny/ibdscreener/internal/api/handlers"
	"github.com/wonny/ibdscreener/pkg/logger"
	"github.com/wonny/ibdscreener/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 스크리너 조회 / 수동 실행 엔드포인트 제공
- 완료된 실행을 웹소켓으로 푸시
- 기본으로 스크리닝 스케줄러를 같은 프로세스에서 실행

Endpoints:
  GET  /health                 - Health check (데이터 소스 포함)
  GET  /api/screeners          - 스크리너 목록
  GET  /api/screeners/{name}   - 스크리너 결과 (?live=true, ?verdicts=true)
  POST /api/screeners/run      - 전체 실행 트리거 (분당 3회 제한)
  GET  /api/runs/latest        - 최신 실행 결과
  GET  /api/runs/{date}        - 가격 일자별 실행 결과 (YYYY-MM-DD)
  GET  /api/quadrants/{ticker} - 업종 사분면
  GET  /api/report/latest      - 최신 리포트
  GET  /ws/runs                - 실행 완료 푸시 (websocket)
  GET  /metrics                - Prometheus

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8080 --with-scheduler=false`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", true, "스크리닝 스케줄러 동시 실행")
	apiCmd.Flags().StringVar(&scheduleZone, "tz", "America/New_York", "cron 기준 타임존")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== IBD Screener API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Websocket hub (실패는 엔진 observer, 완료는 저장소 알림)
	hub := handlers.NewHub(log)
	defer hub.Close()

	// 4. Data source + engine
	a, err := buildApp(cfg, log, hub)
	if err != nil {
		return err
	}
	defer a.Close()

	log.WithField("data_source", a.source.Backend).Info("Connected to data source")

	// 5. Redis (result cache + manual run limit)
	client := a.openRedis()
	defer client.Close()
	store := a.newStore(client)
	store.OnSave(hub.RunSaved) // 저장 완료 후 푸시
	limiter := redis.NewRateLimiter(client, cachePrefix)

	// 6. Create handler
	screenerHandler := handlers.NewScreenerHandler(a.engine, store, a.source, limiter, log)

	// 7. Create router
	routes := api.Routes{
		Screeners: screenerHandler,
		Hub:       hub,
		Health: func(r *http.Request) (interface{}, error) {
			return a.source.Status(r.Context())
		},
	}
	if cfg.MetricsEnabled {
		routes.Metrics = a.metrics.Handler()
	}
	router := api.NewRouter(routes, log)

	// 8. Scheduler
	if apiWithScheduler {
		sched, err := newScheduler(a, store, client)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		log.WithField("schedule", cfg.Screening.Schedule).Info("Screening scheduler started")
	}

	// 9. Create server
	server := api.New(cfg, log, router)

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	PrintList([]string{
		"GET  /health",
		"GET  /api/screeners",
		"GET  /api/screeners/{name}",
		"POST /api/screeners/run",
		"GET  /api/runs/latest",
		"GET  /api/runs/{date}",
		"GET  /api/quadrants/{ticker}",
		"GET  /api/report/latest",
		"GET  /ws/runs",
		"GET  /metrics",
	})
	fmt.Println("\nPress Ctrl+C to stop")

	// 10. Serve until interrupted, then shut down gracefully
	if err := server.Run(cmd.Context()); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
