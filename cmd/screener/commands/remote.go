package commands

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/config"
	"github.com/wonny/ibdscreener/pkg/httputil"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// remoteCmd talks to a running API server instead of the data source
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "실행 중인 API 서버 조회",
	Long: `실행 중인 API 서버에서 결과를 가져옵니다. 데이터 소스 설정이 필요 없습니다.

Subcommands:
  latest            - 최신 실행 결과
  screener [name]   - 스크리너 하나의 결과
  run               - 서버에서 전체 실행 트리거

Example:
  go run ./cmd/screener remote latest --server http://localhost:8080
  go run ./cmd/screener remote screener "Top 2% RS"
  go run ./cmd/screener remote run`,
}

var (
	remoteServer  string
	remoteTimeout time.Duration
	remoteJSON    bool

	remoteLatestCmd = &cobra.Command{
		Use:   "latest",
		Short: "최신 실행 결과",
		RunE:  remoteLatest,
	}

	remoteScreenerCmd = &cobra.Command{
		Use:   "screener [name]",
		Short: "스크리너 결과",
		Args:  cobra.ExactArgs(1),
		RunE:  remoteScreener,
	}

	remoteRunCmd = &cobra.Command{
		Use:   "run",
		Short: "전체 실행 트리거",
		RunE:  remoteRun,
	}
)

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.AddCommand(remoteLatestCmd)
	remoteCmd.AddCommand(remoteScreenerCmd)
	remoteCmd.AddCommand(remoteRunCmd)

	remoteCmd.PersistentFlags().StringVar(&remoteServer, "server", "http://localhost:8080", "API 서버 주소")
	remoteCmd.PersistentFlags().DurationVar(&remoteTimeout, "timeout", 5*time.Minute, "요청 타임아웃")
	remoteCmd.PersistentFlags().BoolVar(&remoteJSON, "json", false, "JSON 출력")
}

func newRemoteClient() *httputil.Client {
	log := logger.Nop()
	if verbose {
		log = logger.NewWithWriter(&config.Config{LogLevel: "debug", LogFormat: "console"}, os.Stderr)
	}
	return httputil.New(remoteServer, log).WithTimeout(remoteTimeout)
}

func remoteLatest(cmd *cobra.Command, args []string) error {
	var run contracts.ScreeningRun
	if err := newRemoteClient().GetJSON(cmd.Context(), "/api/runs/latest", &run); err != nil {
		return fmt.Errorf("fetch latest run: %w", err)
	}
	return printRemoteRun(&run)
}

func remoteScreener(cmd *cobra.Command, args []string) error {
	var res contracts.ScreenerResult
	path := "/api/screeners/" + url.PathEscape(args[0])
	if err := newRemoteClient().GetJSON(cmd.Context(), path, &res); err != nil {
		return fmt.Errorf("fetch %s: %w", args[0], err)
	}
	if remoteJSON {
		return PrintJSON(&res)
	}
	PrintResult(&res, false)
	return nil
}

func remoteRun(cmd *cobra.Command, args []string) error {
	// 수동 실행은 분당 제한이 있으므로 429 재시도 안 함
	client := newRemoteClient().DisableRetry()

	var run contracts.ScreeningRun
	if err := client.PostJSONInto(cmd.Context(), "/api/screeners/run", nil, &run); err != nil {
		return fmt.Errorf("trigger run: %w", err)
	}
	return printRemoteRun(&run)
}

func printRemoteRun(run *contracts.ScreeningRun) error {
	if remoteJSON {
		return PrintJSON(run)
	}

	PrintHeader("IBD Screening Run (" + remoteServer + ")")
	PrintKeyValue("Run ID", run.RunID, 12)
	PrintKeyValue("As Of", run.AsOf.Format("2006-01-02"), 12)
	PrintKeyValue("Benchmark", run.Benchmark, 12)
	for _, res := range run.Results {
		PrintResult(res, false)
	}
	return nil
}
