package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// Memory is an in-process MarketData store for tests and fixtures
type Memory struct {
	mu       sync.RWMutex
	tickers  []string
	universe map[string]bool
	prices   map[string][]contracts.PriceBar
	ratings  map[string]*contracts.PrecomputedRating
	profiles map[string]*contracts.CompanyProfile
	eps      map[string]*contracts.EPSComponents
	rotation []contracts.SectorRotationEntry
	fail     error
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		universe: make(map[string]bool),
		prices:   make(map[string][]contracts.PriceBar),
		ratings:  make(map[string]*contracts.PrecomputedRating),
		profiles: make(map[string]*contracts.CompanyProfile),
		eps:      make(map[string]*contracts.EPSComponents),
	}
}

// AddTicker appends ticker to the universe (once) and stores its bars,
// whether or not SetPrices stored bars for it before
func (m *Memory) AddTicker(ticker string, bars []contracts.PriceBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.universe[ticker] {
		m.universe[ticker] = true
		m.tickers = append(m.tickers, ticker)
	}
	m.prices[ticker] = bars
}

// SetPrices stores bars without adding ticker to the universe (e.g. a benchmark)
func (m *Memory) SetPrices(ticker string, bars []contracts.PriceBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[ticker] = bars
}

// SetRating stores a rating row
func (m *Memory) SetRating(r *contracts.PrecomputedRating) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[r.Ticker] = r
}

// SetProfile stores a company profile
func (m *Memory) SetProfile(p *contracts.CompanyProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.Ticker] = p
}

// SetEPS stores EPS components
func (m *Memory) SetEPS(e *contracts.EPSComponents) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eps[e.Ticker] = e
}

// SetRotation replaces the sector rotation table
func (m *Memory) SetRotation(entries []contracts.SectorRotationEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = append([]contracts.SectorRotationEntry(nil), entries...)
}

// FailWith makes every read return err (nil clears it)
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *Memory) ListTickers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.fail
	}
	return append([]string(nil), m.tickers...), nil
}

func (m *Memory) PriceHistory(ctx context.Context, ticker string, lookbackBars int) (*contracts.PriceSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.fail
	}
	bars, ok := m.prices[ticker]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	if lookbackBars > 0 && len(bars) > lookbackBars {
		bars = bars[len(bars)-lookbackBars:]
	}
	return &contracts.PriceSeries{
		Ticker: ticker,
		Bars:   append([]contracts.PriceBar(nil), bars...),
	}, nil
}

func (m *Memory) Rating(ctx context.Context, ticker string) (*contracts.PrecomputedRating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.fail
	}
	r, ok := m.ratings[ticker]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) AllRatings(ctx context.Context) (map[string]*contracts.PrecomputedRating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := make(map[string]*contracts.PrecomputedRating, len(m.ratings))
	for k, v := range m.ratings {
		cp := *v
		out[k] = &cp
	}
	return out, nil
}

func (m *Memory) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.fail
	}
	p, ok := m.profiles[ticker]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) AllEPSComponents(ctx context.Context) (map[string]*contracts.EPSComponents, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := make(map[string]*contracts.EPSComponents, len(m.eps))
	for k, v := range m.eps {
		cp := *v
		out[k] = &cp
	}
	return out, nil
}

func (m *Memory) SectorRotationTable(ctx context.Context) ([]contracts.SectorRotationEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.fail
	}
	return append([]contracts.SectorRotationEntry(nil), m.rotation...), nil
}

func (m *Memory) LatestPriceDate(ctx context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return time.Time{}, m.fail
	}
	var latest time.Time
	for _, bars := range m.prices {
		if len(bars) == 0 {
			continue
		}
		if d := bars[len(bars)-1].Date; d.After(latest) {
			latest = d
		}
	}
	return latest, nil
}

// DailyBars builds consecutive weekday bars starting at start.
// Each bar opens at its close; volumes may be nil or shorter than closes.
func DailyBars(start time.Time, closes, volumes []float64) []contracts.PriceBar {
	bars := make([]contracts.PriceBar, len(closes))
	d := start
	for i, c := range closes {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		bars[i] = contracts.PriceBar{Date: d, Open: c, Close: c}
		if i < len(volumes) {
			bars[i].Volume = volumes[i]
		}
		d = d.AddDate(0, 0, 1)
	}
	return bars
}

var _ contracts.MarketData = (*Memory)(nil)
