package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "데이터 소스 / 벤치마크 점검",
	Long: `데이터 소스 연결과 RS STS% 벤치마크 준비 상태를 점검합니다.

이 명령어는:
- 데이터 소스 헬스 체크 (응답 시간, 커넥션 풀, 서킷 브레이커)
- 유니버스 크기와 최신 가격 일자
- 벤치마크 봉 개수 (RS STS% 최소 봉 수 충족 여부)

Example:
  go run ./cmd/screener check
  go run ./cmd/screener check --fixture universe.json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	PrintHeader("Data Source Check")
	PrintKeyValue("Backend", a.source.Backend, 12)
	PrintKeyValue("Env", a.cfg.Env, 12)

	// 1. Health
	st, err := a.source.Status(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("Health check failed: %v", err))
		return err
	}
	health := st.Store
	PrintKeyValue("Healthy", fmt.Sprintf("%v", health.Healthy), 12)
	PrintKeyValue("Response", health.ResponseTime.String(), 12)
	if health.Stats.MaxConns > 0 {
		PrintKeyValue("Pool", fmt.Sprintf("%d/%d conns", health.Stats.TotalConns, health.Stats.MaxConns), 12)
	}

	// 2. Universe
	tickers, err := a.source.ListTickers(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("List tickers failed: %v", err))
		return err
	}
	PrintKeyValue("Universe", fmt.Sprintf("%d tickers", len(tickers)), 12)

	latest, err := a.source.LatestPriceDate(ctx)
	if err != nil {
		PrintWarning(fmt.Sprintf("No latest price date: %v", err))
	} else {
		PrintKeyValue("Latest", latest.Format("2006-01-02"), 12)
	}

	// 3. Benchmark
	PrintSeparator()
	status, err := a.engine.CheckBenchmark(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("Benchmark check failed: %v", err))
		return err
	}
	PrintKeyValue("Benchmark", status.Ticker, 12)
	PrintKeyValue("Bars", fmt.Sprintf("%d (min %d)", status.Bars, status.MinBars), 12)
	// 위 조회들로 차단기 상태가 바뀌었을 수 있음
	PrintKeyValue("Breaker", a.source.BreakerState(), 12)

	fmt.Println()
	if !status.Ready {
		PrintWarning(fmt.Sprintf("Benchmark %s is short of history; RS STS%% conditions will fail for every ticker", status.Ticker))
		return nil
	}
	PrintSuccess(fmt.Sprintf("Ready to screen (checked at %s)", time.Now().Format("15:04:05")))
	return nil
}
