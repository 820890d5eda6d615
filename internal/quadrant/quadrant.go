package quadrant

import (
	"sort"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// Threshold splits each percentile axis; values >= Threshold are "high"
const Threshold = 50.0

// Colors are the presentation colors of each quadrant
var Colors = map[contracts.Quadrant]string{
	contracts.QuadrantStrong:    "#c8e6c9",
	contracts.QuadrantImproving: "#e8f5e9",
	contracts.QuadrantWeakening: "#ffebee",
	contracts.QuadrantWeak:      "#ffcdd2",
}

// DefaultColor is used for tickers without a quadrant
const DefaultColor = "#ffffff"

// Color returns the hex color for q
func Color(q contracts.Quadrant) string {
	if c, ok := Colors[q]; ok {
		return c
	}
	return DefaultColor
}

// FromPercentiles classifies a (weekly, monthly) percentile pair
func FromPercentiles(weekly, monthly float64) contracts.Quadrant {
	switch {
	case weekly >= Threshold && monthly >= Threshold:
		return contracts.QuadrantStrong
	case weekly >= Threshold:
		return contracts.QuadrantImproving
	case monthly >= Threshold:
		return contracts.QuadrantWeakening
	default:
		return contracts.QuadrantWeak
	}
}

// Table is a sector rotation snapshot prepared for percentile lookups
// ⭐ SSOT: 업종 사분면 분류는 여기서만
type Table struct {
	entries    []contracts.SectorRotationEntry
	byIndustry map[string]int
	weekly     []float64 // ascending
	monthly    []float64 // ascending
}

// NewTable indexes entries; the first row wins for duplicate industries
func NewTable(entries []contracts.SectorRotationEntry) *Table {
	t := &Table{
		entries:    entries,
		byIndustry: make(map[string]int, len(entries)),
		weekly:     make([]float64, len(entries)),
		monthly:    make([]float64, len(entries)),
	}
	for i, e := range entries {
		if _, dup := t.byIndustry[e.Industry]; !dup {
			t.byIndustry[e.Industry] = i
		}
		t.weekly[i] = e.WeeklyRS
		t.monthly[i] = e.MonthlyRS
	}
	sort.Float64s(t.weekly)
	sort.Float64s(t.monthly)
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.entries)
}

// Percentiles returns count(rows <= value)/N*100 on each axis
func (t *Table) Percentiles(e contracts.SectorRotationEntry) (weekly, monthly float64) {
	return inclusivePercentile(t.weekly, e.WeeklyRS), inclusivePercentile(t.monthly, e.MonthlyRS)
}

// Classify returns the quadrant of industry.
// Absent when the table is empty or no row matches the industry exactly.
func (t *Table) Classify(industry string) contracts.Maybe[contracts.Quadrant] {
	if t.Len() == 0 {
		return contracts.Absent[contracts.Quadrant](contracts.ReasonInsufficientData)
	}
	if industry == "" {
		return contracts.Absent[contracts.Quadrant](contracts.ReasonMissingProfile)
	}
	i, ok := t.byIndustry[industry]
	if !ok {
		return contracts.Absent[contracts.Quadrant](contracts.ReasonMissingProfile)
	}
	w, m := t.Percentiles(t.entries[i])
	return contracts.Present(FromPercentiles(w, m))
}

// Classify is a one-shot helper over an unindexed table
func Classify(industry string, entries []contracts.SectorRotationEntry) contracts.Maybe[contracts.Quadrant] {
	return NewTable(entries).Classify(industry)
}

// inclusivePercentile: sorted is ascending
func inclusivePercentile(sorted []float64, v float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	count := sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
	return float64(count) / float64(len(sorted)) * 100
}
