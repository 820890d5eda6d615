package quadrant

import (
	"sort"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// Point is one industry group on the rotation chart.
// X/Y are average-rank percentiles (ties share the mean of their ranks);
// Quadrant follows the same rule as Classify.
type Point struct {
	Industry  string             `json:"industry"`
	WeeklyRS  float64            `json:"weekly_rs"`
	MonthlyRS float64            `json:"monthly_rs"`
	X         float64            `json:"x"` // weekly, 0~100
	Y         float64            `json:"y"` // monthly, 0~100
	Quadrant  contracts.Quadrant `json:"quadrant"`
	Color     string             `json:"color"`
}

// Rotation returns chart coordinates for every row, in table order
func Rotation(entries []contracts.SectorRotationEntry) []Point {
	if len(entries) == 0 {
		return nil
	}

	weekly := make([]float64, len(entries))
	monthly := make([]float64, len(entries))
	for i, e := range entries {
		weekly[i] = e.WeeklyRS
		monthly[i] = e.MonthlyRS
	}
	xs := averageRankPct(weekly)
	ys := averageRankPct(monthly)

	table := NewTable(entries)
	points := make([]Point, len(entries))
	for i, e := range entries {
		w, m := table.Percentiles(e)
		q := FromPercentiles(w, m)
		points[i] = Point{
			Industry:  e.Industry,
			WeeklyRS:  e.WeeklyRS,
			MonthlyRS: e.MonthlyRS,
			X:         xs[i],
			Y:         ys[i],
			Quadrant:  q,
			Color:     Color(q),
		}
	}
	return points
}

// averageRankPct returns rank/N*100 where tied values share their mean rank
func averageRankPct(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	out := make([]float64, n)
	for start := 0; start < n; {
		end := start + 1
		for end < n && values[idx[end]] == values[idx[start]] {
			end++
		}
		// 1-based ranks start+1 .. end
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			out[idx[k]] = avg / float64(n) * 100
		}
		start = end
	}
	return out
}
