package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/report"
	"github.com/wonny/ibdscreener/internal/resultstore"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "스크리닝 리포트 출력",
	Long: `스크리닝 결과를 리포트 형태(스크리너별 10종목씩, 사분면 태그)로 출력합니다.

기본은 전체 스크리너를 새로 실행합니다.
--latest 를 주면 결과 저장소(Redis)에 저장된 최신 실행을 사용합니다.

태그: [S] Strong  [I] Improving  [W] Weakening  [X] Weak

Example:
  go run ./cmd/screener report
  go run ./cmd/screener report --latest --json`,
	RunE: runReport,
}

var (
	reportJSON   bool
	reportLatest bool
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "JSON 출력")
	reportCmd.Flags().BoolVar(&reportLatest, "latest", false, "저장된 최신 실행으로 리포트 생성")
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	var run *contracts.ScreeningRun
	if reportLatest {
		client := a.openRedis()
		defer client.Close()

		run, err = a.newStore(client).Latest(ctx)
		if errors.Is(err, resultstore.ErrNoRun) {
			PrintWarning("No stored run yet. Run `screener run --all --save` or start the scheduler first.")
			return err
		}
	} else {
		run, err = a.engine.RunAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("load screening run: %w", err)
	}

	rep, err := report.NewBuilder(a.source, a.log).Build(ctx, run)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if reportJSON {
		return report.WriteJSON(os.Stdout, rep)
	}
	return report.WriteText(os.Stdout, rep)
}
