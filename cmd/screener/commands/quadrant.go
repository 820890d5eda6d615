package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/ibdscreener/internal/quadrant"
)

// quadrantCmd represents the quadrant command
var quadrantCmd = &cobra.Command{
	Use:   "quadrant [ticker...]",
	Short: "업종 그룹 사분면 조회",
	Long: `종목이 속한 업종 그룹의 모멘텀 사분면을 조회합니다.

사분면 (주간/월간 RS 백분위 50 기준):
  Strong     - 주간 ≥ 50, 월간 ≥ 50
  Improving  - 주간 ≥ 50, 월간 < 50
  Weakening  - 주간 < 50, 월간 ≥ 50
  Weak       - 주간 < 50, 월간 < 50

--rotation 을 주면 전체 업종 로테이션 차트 좌표를 출력합니다.

Example:
  go run ./cmd/screener quadrant NVDA AAPL
  go run ./cmd/screener quadrant --rotation`,
	RunE: runQuadrant,
}

var quadrantRotation bool

func init() {
	rootCmd.AddCommand(quadrantCmd)

	quadrantCmd.Flags().BoolVar(&quadrantRotation, "rotation", false, "업종 로테이션 차트 좌표 출력")
}

func runQuadrant(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !quadrantRotation {
		return fmt.Errorf("at least one ticker or --rotation is required")
	}

	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	classifier := quadrant.NewClassifier(a.source, a.log)

	if len(args) > 0 {
		quadrants, err := classifier.ForTickers(ctx, args)
		if err != nil {
			return fmt.Errorf("classify: %w", err)
		}

		PrintHeader("Industry Group Quadrant")
		widths := []int{10, 12, 10, 18}
		PrintTableHeader([]string{"Ticker", "Quadrant", "Color", "Reason"}, widths)
		for _, t := range args {
			q := quadrants[t]
			color := quadrant.DefaultColor
			name := "-"
			if v, ok := q.Get(); ok {
				name = string(v)
				color = quadrant.Color(v)
			}
			PrintTableRow([]string{t, name, color, string(q.Reason())}, widths)
		}
	}

	if quadrantRotation {
		entries, err := a.source.SectorRotationTable(ctx)
		if err != nil {
			return fmt.Errorf("load sector rotation: %w", err)
		}

		PrintHeader("Industry Group Rotation")
		widths := []int{28, 10, 10, 6, 6, 10}
		PrintTableHeader([]string{"Industry", "Weekly", "Monthly", "X", "Y", "Quadrant"}, widths)
		for _, p := range quadrant.Rotation(entries) {
			PrintTableRow([]string{
				p.Industry,
				fmt.Sprintf("%.2f", p.WeeklyRS),
				fmt.Sprintf("%.2f", p.MonthlyRS),
				fmt.Sprintf("%.1f", p.X),
				fmt.Sprintf("%.1f", p.Y),
				string(p.Quadrant),
			}, widths)
		}
	}
	return nil
}
