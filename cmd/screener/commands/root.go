package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	screenersFile string
	fixtureFile   string
	env           string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "IBD 스크리너 - 레이팅 기반 종목 스크리닝 엔진",
	Long: `IBD Screener Unified CLI

사전 계산된 레이팅과 가격 이력으로 6개 스크리너를 실행합니다.
(Momentum 97, Explosive EPS Growth, Up on Volume, Top 2% RS,
 4% Bullish Yesterday, Healthy Chart Watchlist)

데이터 소스는 .env 의 DATA_SOURCE (postgres | sqlite | fixture) 로 선택하며
--fixture 를 주면 JSON 스냅샷을 사용합니다.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener list
  go run ./cmd/screener run --all
  go run ./cmd/screener run "Top 2% RS" --verdicts
  go run ./cmd/screener report --fixture universe.json
  go run ./cmd/screener api
  go run ./cmd/screener scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C / SIGTERM cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&screenersFile, "screeners", "", "screener threshold YAML (default: SCREENER_CONFIG or built-in)")
	rootCmd.PersistentFlags().StringVar(&fixtureFile, "fixture", "", "JSON fixture to screen instead of the configured store")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
