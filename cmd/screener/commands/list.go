package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/ibdscreener/internal/screenconfig"
	"github.com/wonny/ibdscreener/internal/screener"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "스크리너 목록과 임계값",
	Long: `실행 순서대로 스크리너 목록과 현재 적용되는 임계값 해시를 출력합니다.
데이터 소스에 연결하지 않습니다.`,
	RunE: listScreeners,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listScreeners(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	screenCfg, err := screenconfig.LoadOrDefault(cfg.Screening.ConfigPath)
	if err != nil {
		return fmt.Errorf("load screener config: %w", err)
	}
	hash, err := screenconfig.Hash(screenCfg)
	if err != nil {
		return fmt.Errorf("hash screener config: %w", err)
	}

	PrintHeader("IBD Screeners")
	widths := []int{26, 40}
	PrintTableHeader([]string{"Screener", "Report Heading"}, widths)
	for _, name := range screener.Names() {
		PrintTableRow([]string{name, screener.DisplayName(name)}, widths)
	}
	PrintSeparator()

	source := "built-in defaults"
	if cfg.Screening.ConfigPath != "" {
		source = cfg.Screening.ConfigPath
	}
	PrintKeyValue("Thresholds", source, 12)
	PrintKeyValue("Config hash", hash, 12)
	PrintKeyValue("Benchmark", cfg.Screening.Benchmark, 12)
	return nil
}
