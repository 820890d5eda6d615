package screener

import (
	"context"
	"strings"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/screenconfig"
)

// step is one named condition of a screener's predicate chain.
// ok=false with a reason means the input was absent.
type step struct {
	name string
	eval func(ctx context.Context, s *session, ticker string) (ok bool, reason contracts.Reason, err error)
}

// rule is a short-circuit predicate chain
type rule []step

// evaluate stops at the first failing step
func (r rule) evaluate(ctx context.Context, s *session, ticker string) (contracts.Verdict, error) {
	for _, st := range r {
		ok, reason, err := st.eval(ctx, s, ticker)
		if err != nil {
			return contracts.Verdict{}, err
		}
		if !ok {
			return contracts.Verdict{Ticker: ticker, FailedAt: st.name, Reason: reason}, nil
		}
	}
	return contracts.Verdict{Ticker: ticker, Passed: true}, nil
}

// getter resolves one numeric input of a condition
type getter func(ctx context.Context, s *session, ticker string) (contracts.Maybe[float64], error)

func compare(name string, get getter, pred func(float64) bool) step {
	return step{name: name, eval: func(ctx context.Context, s *session, ticker string) (bool, contracts.Reason, error) {
		v, err := get(ctx, s, ticker)
		if err != nil {
			return false, contracts.ReasonNone, err
		}
		x, ok := v.Get()
		if !ok {
			return false, v.Reason(), nil
		}
		return pred(x), contracts.ReasonNone, nil
	}}
}

// atLeast: value >= min
func atLeast(name string, get getter, min float64) step {
	return compare(name, get, func(v float64) bool { return v >= min })
}

// above: value > min
func above(name string, get getter, min float64) step {
	return compare(name, get, func(v float64) bool { return v > min })
}

// === Getters ===

func ratingField(f func(*contracts.PrecomputedRating) *float64) getter {
	return func(ctx context.Context, s *session, ticker string) (contracts.Maybe[float64], error) {
		r, err := s.rating(ctx, ticker)
		if err != nil || r == nil {
			return contracts.Absent[float64](contracts.ReasonUnknownTicker), err
		}
		return contracts.FromPtr(f(r)), nil
	}
}

func priceField(f func(contracts.PriceMetrics) float64) getter {
	return func(ctx context.Context, s *session, ticker string) (contracts.Maybe[float64], error) {
		m, err := s.calc.PriceMetrics(ctx, ticker)
		if err != nil {
			return contracts.Maybe[float64]{}, err
		}
		pm, ok := m.Get()
		if !ok {
			return contracts.Absent[float64](m.Reason()), nil
		}
		return contracts.Present(f(pm)), nil
	}
}

func volumeField(f func(contracts.VolumeMetrics) float64) getter {
	return func(ctx context.Context, s *session, ticker string) (contracts.Maybe[float64], error) {
		m, err := s.calc.VolumeMetrics(ctx, ticker)
		if err != nil {
			return contracts.Maybe[float64]{}, err
		}
		vm, ok := m.Get()
		if !ok {
			return contracts.Absent[float64](m.Reason()), nil
		}
		return contracts.Present(f(vm)), nil
	}
}

var (
	rsRating       = ratingField(func(r *contracts.PrecomputedRating) *float64 { return r.RSRating })
	compRating     = ratingField(func(r *contracts.PrecomputedRating) *float64 { return r.CompRating })
	priceVs52wHigh = ratingField(func(r *contracts.PrecomputedRating) *float64 { return r.PriceVs52wHigh })

	price          = priceField(func(m contracts.PriceMetrics) float64 { return m.Price })
	pctChange1D    = priceField(func(m contracts.PriceMetrics) float64 { return m.PctChange1D })
	changeFromOpen = priceField(func(m contracts.PriceMetrics) float64 { return m.ChangeFromOpen })

	avgVolume50     = volumeField(func(m contracts.VolumeMetrics) float64 { return m.AvgVolume50 })
	avgVolume90     = volumeField(func(m contracts.VolumeMetrics) float64 { return m.AvgVolume90 })
	currentVolume   = volumeField(func(m contracts.VolumeMetrics) float64 { return m.CurrentVolume })
	volumeChangePct = volumeField(func(m contracts.VolumeMetrics) float64 { return m.VolumeChangePc })
	relativeVolume  = volumeField(func(m contracts.VolumeMetrics) float64 { return m.RelativeVolume })
)

func rsSTS(ctx context.Context, s *session, ticker string) (contracts.Maybe[float64], error) {
	return s.calc.RSSTSForTicker(ctx, ticker, s.benchmark)
}

func priceVsMA50(ctx context.Context, s *session, ticker string) (contracts.Maybe[float64], error) {
	return s.calc.PriceVsMA50(ctx, ticker)
}

func epsGrowth(ctx context.Context, s *session, ticker string) (contracts.Maybe[float64], error) {
	e, err := s.eps(ctx, ticker)
	if err != nil || e == nil {
		return contracts.Absent[float64](contracts.ReasonUnknownTicker), err
	}
	return contracts.FromPtr(e.EPSGrowthLastQtr), nil
}

func marketCap(ctx context.Context, s *session, ticker string) (contracts.Maybe[float64], error) {
	p, err := s.profile(ctx, ticker)
	if err != nil || p == nil {
		return contracts.Absent[float64](contracts.ReasonMissingProfile), err
	}
	return contracts.FromPtr(p.MarketCap), nil
}

// === Non-numeric steps ===

func adRatingIn(grades []string) step {
	allowed := make(map[string]bool, len(grades))
	for _, g := range grades {
		allowed[g] = true
	}
	return step{name: "ad_rating", eval: func(ctx context.Context, s *session, ticker string) (bool, contracts.Reason, error) {
		r, err := s.rating(ctx, ticker)
		if err != nil {
			return false, contracts.ReasonNone, err
		}
		if r == nil {
			return false, contracts.ReasonUnknownTicker, nil
		}
		if r.ADRating == "" {
			return false, contracts.ReasonMissingField, nil
		}
		return allowed[r.ADRating], contracts.ReasonNone, nil
	}}
}

func maStack(name string, stacked func(contracts.MovingAverages) bool) step {
	return step{name: name, eval: func(ctx context.Context, s *session, ticker string) (bool, contracts.Reason, error) {
		ma, err := s.calc.MovingAverages(ctx, ticker)
		if err != nil {
			return false, contracts.ReasonNone, err
		}
		m, ok := ma.Get()
		if !ok {
			return false, ma.Reason(), nil
		}
		return stacked(m), contracts.ReasonNone, nil
	}}
}

var (
	shortTermStack = maStack("ma_short_stack", contracts.MovingAverages.ShortTermStacked)
	longTermStack  = maStack("ma_long_stack", contracts.MovingAverages.LongTermStacked)
)

// sectorExcludes fails tickers whose sector contains any term (case-insensitive).
// A missing profile fails as well.
func sectorExcludes(terms []string) step {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return step{name: "sector", eval: func(ctx context.Context, s *session, ticker string) (bool, contracts.Reason, error) {
		p, err := s.profile(ctx, ticker)
		if err != nil {
			return false, contracts.ReasonNone, err
		}
		if p == nil {
			return false, contracts.ReasonMissingProfile, nil
		}
		sector := strings.ToLower(p.Sector)
		for _, t := range lowered {
			if strings.Contains(sector, t) {
				return false, contracts.ReasonNone, nil
			}
		}
		return true, contracts.ReasonNone, nil
	}}
}

// === Screener rules ===

// buildRules turns thresholds into the five chain screeners
func buildRules(cfg *screenconfig.Config) map[string]rule {
	eps := cfg.ExplosiveEPS
	uov := cfg.UpOnVolume
	top := cfg.TopRS
	b4 := cfg.Bullish4
	hc := cfg.HealthyChart

	return map[string]rule{
		ExplosiveEPSGrowth: {
			atLeast("rs_rating", rsRating, eps.MinRSRating),
			atLeast("rs_sts", rsSTS, eps.MinRSSTS),
			atLeast("eps_growth", epsGrowth, eps.MinEPSGrowth),
			atLeast("avg_volume_50", avgVolume50, eps.MinAvgVolume50),
			atLeast("price_vs_ma50", priceVsMA50, eps.MinPriceVsMA50),
		},
		UpOnVolume: {
			atLeast("rs_rating", rsRating, uov.MinRSRating),
			atLeast("rs_sts", rsSTS, uov.MinRSSTS),
			adRatingIn(uov.ADRatings),
			atLeast("pct_change_1d", pctChange1D, uov.MinPctChange1D),
			atLeast("price", price, uov.MinPrice),
			atLeast("avg_volume_50", avgVolume50, uov.MinAvgVolume50),
			atLeast("volume_change_pct", volumeChangePct, uov.MinVolumeChangePct),
			atLeast("market_cap", marketCap, uov.MinMarketCap),
			atLeast("eps_growth", epsGrowth, uov.MinEPSGrowth),
		},
		TopRS: {
			atLeast("rs_rating", rsRating, top.MinRSRating),
			atLeast("rs_sts", rsSTS, top.MinRSSTS),
			shortTermStack,
			atLeast("avg_volume_50", avgVolume50, top.MinAvgVolume50),
			atLeast("current_volume", currentVolume, top.MinCurrentVolume),
			sectorExcludes(top.ExcludeSectors),
		},
		Bullish4: {
			atLeast("price", price, b4.MinPrice),
			above("pct_change_1d", pctChange1D, b4.MinPctChange1D),
			above("change_from_open", changeFromOpen, b4.MinChangeFromOpen),
			above("current_volume", currentVolume, b4.MinCurrentVolume),
			above("relative_volume", relativeVolume, b4.MinRelativeVolume),
			above("avg_volume_90", avgVolume90, b4.MinAvgVolume90),
			above("market_cap", marketCap, b4.MinMarketCap),
			atLeast("rs_sts", rsSTS, b4.MinRSSTS),
		},
		HealthyChart: {
			atLeast("rs_rating", rsRating, hc.MinRSRating),
			atLeast("comp_rating", compRating, hc.MinCompRating),
			adRatingIn(hc.ADRatings),
			shortTermStack,
			longTermStack,
			atLeast("price_vs_52w_high", priceVs52wHigh, hc.MinPriceVs52wHigh),
			atLeast("avg_volume_50", avgVolume50, hc.MinAvgVolume50),
		},
	}
}
