package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/screener"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [screener]",
	Short: "스크리너 실행",
	Long: `스크리너 하나 또는 전체를 실행하고 통과 종목을 출력합니다.

이 명령어는:
- 유니버스 전체를 조건 순서대로 평가
- 통과 종목은 유니버스 순서 그대로 출력
- 실패 종목은 처음 실패한 조건 기준으로 집계

Screeners:
  "Momentum 97"
  "Explosive EPS Growth"
  "Up on Volume"
  "Top 2% RS"
  "4% Bullish Yesterday"
  "Healthy Chart Watchlist"

Example:
  go run ./cmd/screener run --all
  go run ./cmd/screener run --all --save
  go run ./cmd/screener run "Up on Volume" --verdicts
  go run ./cmd/screener run "Momentum 97" --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScreeners,
}

var (
	runAll      bool
	runJSON     bool
	runVerdicts bool
	runSave     bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().BoolVar(&runAll, "all", false, "6개 스크리너 전체 실행")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "JSON 출력")
	runCmd.Flags().BoolVar(&runVerdicts, "verdicts", false, "종목별 판정 포함")
	runCmd.Flags().BoolVar(&runSave, "save", false, "전체 실행 결과를 결과 저장소(Redis)에 저장")
}

func runScreeners(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !runAll {
		return fmt.Errorf("screener name or --all is required")
	}

	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	if len(args) == 1 && !runAll {
		res, err := a.engine.Evaluate(ctx, args[0])
		if errors.Is(err, screener.ErrUnknownScreener) {
			PrintError(fmt.Sprintf("Unknown screener: %s", args[0]))
			fmt.Println("\nAvailable screeners:")
			PrintList(screener.Names())
			return err
		}
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", args[0], err)
		}

		if runJSON {
			if !runVerdicts {
				res = stripVerdicts(res)
			}
			return PrintJSON(res)
		}
		PrintResult(res, runVerdicts)
		return nil
	}

	run, err := a.engine.RunAll(ctx)
	if err != nil {
		return fmt.Errorf("run screeners: %w", err)
	}

	if runSave {
		client := a.openRedis()
		defer client.Close()
		if err := a.newStore(client).Save(ctx, run); err != nil {
			PrintWarning(fmt.Sprintf("Run completed but was not stored: %v", err))
		}
	}

	if runJSON {
		if !runVerdicts {
			run = stripRunVerdicts(run)
		}
		return PrintJSON(run)
	}

	PrintHeader("IBD Screening Run")
	PrintKeyValue("Run ID", run.RunID, 12)
	PrintKeyValue("As Of", run.AsOf.Format("2006-01-02"), 12)
	PrintKeyValue("Benchmark", run.Benchmark, 12)
	PrintKeyValue("Config", run.ConfigHash[:12], 12)
	for _, res := range run.Results {
		PrintResult(res, runVerdicts)
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Run completed in %s", run.Duration.Round(time.Millisecond)))
	return nil
}

func stripVerdicts(res *contracts.ScreenerResult) *contracts.ScreenerResult {
	cp := *res
	cp.Verdicts = nil
	return &cp
}

func stripRunVerdicts(run *contracts.ScreeningRun) *contracts.ScreeningRun {
	cp := *run
	cp.Results = make([]*contracts.ScreenerResult, len(run.Results))
	for i, res := range run.Results {
		cp.Results[i] = stripVerdicts(res)
	}
	return &cp
}
