package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a titled block header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintJSON writes v as indented JSON to stdout
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintResult prints one screener result: passing tickers, then the
// failure breakdown and (optionally) every failed verdict
func PrintResult(res *contracts.ScreenerResult, withVerdicts bool) {
	PrintHeader(fmt.Sprintf("%s  (%d / %d)", res.Name, res.Count(), res.Evaluated))
	if res.Count() == 0 {
		fmt.Println("   -")
	}
	for start := 0; start < len(res.Tickers); start += 10 {
		end := min(start+10, len(res.Tickers))
		fmt.Printf("   %s\n", strings.Join(res.Tickers[start:end], "  "))
	}

	counts := res.FailureCounts()
	if len(counts) > 0 {
		PrintSeparator()
		steps := make([]string, 0, len(counts))
		for step := range counts {
			steps = append(steps, step)
		}
		sort.Strings(steps)
		for _, step := range steps {
			PrintKeyValue(step, fmt.Sprintf("%d failed", counts[step]), 22)
		}
	}

	if withVerdicts {
		PrintSeparator()
		widths := []int{10, 6, 22, 18}
		PrintTableHeader([]string{"Ticker", "Pass", "Failed At", "Reason"}, widths)
		for _, v := range res.Verdicts {
			pass := "✗"
			if v.Passed {
				pass = "✓"
			}
			PrintTableRow([]string{v.Ticker, pass, v.FailedAt, string(v.Reason)}, widths)
		}
	}
	fmt.Printf("   (%s)\n", res.Duration.Round(time.Millisecond))
}
