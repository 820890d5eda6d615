package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteJSON renders the report as indented JSON
func WriteJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteText renders the report as a plain-text grid.
// Each ticker carries a one-letter quadrant tag: S/I/W/X (Strong, Improving,
// Weakening, Weak); untagged tickers have no quadrant.
func WriteText(w io.Writer, rep *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", rep.Title)
	fmt.Fprintf(tw, "%s\n\n", strings.Repeat("=", len(rep.Title)))

	for _, sec := range rep.Sections {
		fmt.Fprintf(tw, "%s (%d)\n", sec.Heading, sec.Count)
		if len(sec.Rows) == 0 {
			fmt.Fprintln(tw, "  -")
		}
		for _, row := range sec.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = c.Ticker + tag(c)
			}
			fmt.Fprintf(tw, "  %s\t\n", strings.Join(cells, "\t"))
		}
		fmt.Fprintln(tw)
	}

	if len(rep.Rotation) > 0 {
		fmt.Fprintln(tw, "Industry Group Rotation")
		fmt.Fprintln(tw, "  Industry\tWeekly RS\tMonthly RS\tX\tY\tQuadrant\t")
		for _, p := range rep.Rotation {
			fmt.Fprintf(tw, "  %s\t%.2f\t%.2f\t%.1f\t%.1f\t%s\t\n",
				p.Industry, p.WeeklyRS, p.MonthlyRS, p.X, p.Y, p.Quadrant)
		}
	}

	return tw.Flush()
}

var quadrantTags = map[string]string{
	"Strong":    "S",
	"Improving": "I",
	"Weakening": "W",
	"Weak":      "X",
}

func tag(c Cell) string {
	if t, ok := quadrantTags[string(c.Quadrant)]; ok {
		return "[" + t + "]"
	}
	return ""
}
