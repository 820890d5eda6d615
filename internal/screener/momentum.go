package screener

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// momentumMetric is one trailing-change horizon ranked by Momentum 97
type momentumMetric struct {
	name string // pct_1m
	rank string // rank_1m
	get  func(contracts.PriceMetrics) contracts.Maybe[float64]
}

var momentumMetrics = []momentumMetric{
	{"pct_1m", "rank_1m", func(m contracts.PriceMetrics) contracts.Maybe[float64] { return m.PctChange1M }},
	{"pct_3m", "rank_3m", func(m contracts.PriceMetrics) contracts.Maybe[float64] { return m.PctChange3M }},
	{"pct_6m", "rank_6m", func(m contracts.PriceMetrics) contracts.Maybe[float64] { return m.PctChange6M }},
}

// percentileRanks ranks values ascending: percentile = (position+1)/n*100.
// Ties keep a stable order by ticker.
func percentileRanks(values map[string]float64) map[string]float64 {
	tickers := make([]string, 0, len(values))
	for t := range values {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	sort.SliceStable(tickers, func(i, j int) bool {
		return values[tickers[i]] < values[tickers[j]]
	})

	n := float64(len(tickers))
	ranks := make(map[string]float64, len(tickers))
	for i, t := range tickers {
		ranks[t] = float64(i+1) / n * 100
	}
	return ranks
}

// runMomentum97 ranks every ticker with all three trailing changes against
// the others and keeps those at or above the percentile floor on every horizon.
func (e *Engine) runMomentum97(ctx context.Context, s *session, universe []string) ([]contracts.Verdict, error) {
	metrics := make([]contracts.Maybe[contracts.PriceMetrics], len(universe))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, ticker := range universe {
		i, ticker := i, ticker
		g.Go(func() error {
			m, err := s.calc.PriceMetrics(gctx, ticker)
			if err != nil {
				return err
			}
			metrics[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	verdicts := make([]contracts.Verdict, len(universe))
	series := make([]map[string]float64, len(momentumMetrics))
	for k := range series {
		series[k] = make(map[string]float64)
	}

	for i, ticker := range universe {
		pm, ok := metrics[i].Get()
		if !ok {
			verdicts[i] = contracts.Verdict{Ticker: ticker, FailedAt: momentumMetrics[0].name, Reason: metrics[i].Reason()}
			continue
		}
		values := make([]float64, len(momentumMetrics))
		complete := true
		for k, mm := range momentumMetrics {
			v := mm.get(pm)
			x, present := v.Get()
			if !present {
				verdicts[i] = contracts.Verdict{Ticker: ticker, FailedAt: mm.name, Reason: v.Reason()}
				complete = false
				break
			}
			values[k] = x
		}
		if !complete {
			continue
		}
		for k := range momentumMetrics {
			series[k][ticker] = values[k]
		}
	}

	ranks := make([]map[string]float64, len(momentumMetrics))
	for k := range momentumMetrics {
		ranks[k] = percentileRanks(series[k])
	}

	floor := e.cfg.Momentum97.MinPercentile
	for i, ticker := range universe {
		if _, ranked := ranks[0][ticker]; !ranked {
			continue
		}
		verdicts[i] = contracts.Verdict{Ticker: ticker, Passed: true}
		for k, mm := range momentumMetrics {
			if ranks[k][ticker] < floor {
				verdicts[i] = contracts.Verdict{Ticker: ticker, FailedAt: mm.rank}
				break
			}
		}
	}
	return verdicts, nil
}
