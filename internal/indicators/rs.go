package indicators

import (
	"context"
	"errors"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// RSWindow configures the RS STS% computation
type RSWindow struct {
	LookbackBars int // bars fetched for the ticker and the benchmark
	MinBars      int // minimum bars each series must have
	Days         int // joined dates used for the ratio series
}

// DefaultRSWindow fetches 30 bars, requires 25 each and joins over 25 dates
var DefaultRSWindow = RSWindow{LookbackBars: 30, MinBars: 25, Days: 25}

const dateKey = "2006-01-02"

// RelativeStrengthSeries joins both series on calendar date, keeps the most
// recent days rows and returns target/benchmark close ratios, oldest first.
// Absent when fewer than days dates overlap or a joined benchmark close is 0.
func RelativeStrengthSeries(benchmark, target *contracts.PriceSeries, days int) contracts.Maybe[[]float64] {
	if days <= 0 {
		return contracts.Absent[[]float64](contracts.ReasonInvalidInput)
	}
	if benchmark.Len() == 0 || target.Len() == 0 {
		return contracts.Absent[[]float64](contracts.ReasonInsufficientData)
	}

	targetCloses := make(map[string]float64, target.Len())
	for _, b := range target.Bars {
		targetCloses[b.Date.Format(dateKey)] = b.Close
	}

	type pair struct{ bench, target float64 }
	joined := make([]pair, 0, benchmark.Len())
	for _, b := range benchmark.Bars {
		if tc, ok := targetCloses[b.Date.Format(dateKey)]; ok {
			joined = append(joined, pair{bench: b.Close, target: tc})
		}
	}

	if len(joined) < days {
		return contracts.Absent[[]float64](contracts.ReasonInsufficientData)
	}
	joined = joined[len(joined)-days:]

	ratios := make([]float64, len(joined))
	for i, p := range joined {
		if p.bench == 0 {
			return contracts.Absent[[]float64](contracts.ReasonInvalidInput)
		}
		ratios[i] = p.target / p.bench
	}
	return contracts.Present(ratios)
}

// RSSTSPercentile returns the share of ratios <= the most recent one,
// scaled to 0~100 and rounded to 2 decimals. An empty sequence yields 0.
func RSSTSPercentile(ratios []float64) float64 {
	if len(ratios) == 0 {
		return 0
	}
	latest := ratios[len(ratios)-1]
	count := 0
	for _, r := range ratios {
		if r <= latest {
			count++
		}
	}
	return round(float64(count)/float64(len(ratios))*100, 2)
}

// RSSTSForTicker computes a ticker's RS STS% against benchmark
func (c *Calculator) RSSTSForTicker(ctx context.Context, ticker, benchmark string) (contracts.Maybe[float64], error) {
	benchSeries, err := c.fetchRS(ctx, benchmark)
	if err != nil {
		return contracts.Maybe[float64]{}, err
	}
	if benchSeries == nil {
		return contracts.Absent[float64](contracts.ReasonUnknownTicker), nil
	}

	series, err := c.fetchRS(ctx, ticker)
	if err != nil {
		return contracts.Maybe[float64]{}, err
	}
	if series == nil {
		return contracts.Absent[float64](contracts.ReasonUnknownTicker), nil
	}

	if benchSeries.Len() < c.rs.MinBars || series.Len() < c.rs.MinBars {
		c.logger.WithFields(map[string]interface{}{
			"ticker":      ticker,
			"benchmark":   benchmark,
			"ticker_bars": series.Len(),
			"bench_bars":  benchSeries.Len(),
		}).Debug("Insufficient bars for RS STS%")
		return contracts.Absent[float64](contracts.ReasonInsufficientData), nil
	}

	ratios := RelativeStrengthSeries(benchSeries, series, c.rs.Days)
	values, ok := ratios.Get()
	if !ok {
		return contracts.Absent[float64](ratios.Reason()), nil
	}
	return contracts.Present(RSSTSPercentile(values)), nil
}

// BenchmarkBars returns how many bars the benchmark has inside the RS window
func (c *Calculator) BenchmarkBars(ctx context.Context, benchmark string) (int, error) {
	series, err := c.fetchRS(ctx, benchmark)
	if err != nil {
		return 0, err
	}
	return series.Len(), nil
}

// fetchRS returns nil for an unknown ticker
func (c *Calculator) fetchRS(ctx context.Context, ticker string) (*contracts.PriceSeries, error) {
	series, err := c.data.PriceHistory(ctx, ticker, c.rs.LookbackBars)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, contracts.Upstream("price_history", err)
	}
	return series, nil
}

// RSWindow returns the window used for RS STS%
func (c *Calculator) RSWindow() RSWindow {
	return c.rs
}
