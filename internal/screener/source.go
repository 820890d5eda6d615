package screener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// runSource memoizes data-access reads for the duration of one run.
// Concurrent reads of the same key share a single upstream call.
// Only values and ErrNotFound are cached; upstream failures are not.
type runSource struct {
	next contracts.MarketData

	mu      sync.Mutex
	entries map[string]memoEntry
	group   singleflight.Group
}

type memoEntry struct {
	value any
	err   error
}

func newRunSource(next contracts.MarketData) *runSource {
	return &runSource{
		next:    next,
		entries: make(map[string]memoEntry),
	}
}

func load[T any](s *runSource, key string, fetch func() (T, error)) (T, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		s.mu.Unlock()
		v, _ := e.value.(T)
		return v, e.err
	}
	s.mu.Unlock()

	out, err, _ := s.group.Do(key, func() (any, error) {
		// 직전 Do가 이미 채웠을 수 있음
		s.mu.Lock()
		e, ok := s.entries[key]
		s.mu.Unlock()
		if ok {
			return e.value, e.err
		}

		v, err := fetch()
		if err == nil || errors.Is(err, contracts.ErrNotFound) {
			s.mu.Lock()
			s.entries[key] = memoEntry{value: v, err: err}
			s.mu.Unlock()
		}
		return v, err
	})
	v, _ := out.(T)
	return v, err
}

func (s *runSource) ListTickers(ctx context.Context) ([]string, error) {
	return load(s, "tickers", func() ([]string, error) { return s.next.ListTickers(ctx) })
}

func (s *runSource) PriceHistory(ctx context.Context, ticker string, lookbackBars int) (*contracts.PriceSeries, error) {
	key := fmt.Sprintf("prices:%s:%d", ticker, lookbackBars)
	return load(s, key, func() (*contracts.PriceSeries, error) {
		return s.next.PriceHistory(ctx, ticker, lookbackBars)
	})
}

func (s *runSource) Rating(ctx context.Context, ticker string) (*contracts.PrecomputedRating, error) {
	return load(s, "rating:"+ticker, func() (*contracts.PrecomputedRating, error) {
		return s.next.Rating(ctx, ticker)
	})
}

func (s *runSource) AllRatings(ctx context.Context) (map[string]*contracts.PrecomputedRating, error) {
	return load(s, "ratings", func() (map[string]*contracts.PrecomputedRating, error) {
		return s.next.AllRatings(ctx)
	})
}

func (s *runSource) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	return load(s, "profile:"+ticker, func() (*contracts.CompanyProfile, error) {
		return s.next.CompanyProfile(ctx, ticker)
	})
}

func (s *runSource) AllEPSComponents(ctx context.Context) (map[string]*contracts.EPSComponents, error) {
	return load(s, "eps", func() (map[string]*contracts.EPSComponents, error) {
		return s.next.AllEPSComponents(ctx)
	})
}

func (s *runSource) SectorRotationTable(ctx context.Context) ([]contracts.SectorRotationEntry, error) {
	return load(s, "rotation", func() ([]contracts.SectorRotationEntry, error) {
		return s.next.SectorRotationTable(ctx)
	})
}

func (s *runSource) LatestPriceDate(ctx context.Context) (time.Time, error) {
	return load(s, "latest", func() (time.Time, error) { return s.next.LatestPriceDate(ctx) })
}

var _ contracts.MarketData = (*runSource)(nil)
