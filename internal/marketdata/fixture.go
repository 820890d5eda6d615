package marketdata

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// Fixture is the JSON layout accepted by LoadFixture
//
//	{
//	  "tickers": ["NVDA"],
//	  "prices": {"NVDA": [{"date": "2025-01-02", "open": 1, "close": 1, "volume": 1}]},
//	  "ratings": [...], "profiles": [...], "eps": [...], "sector_rotation": [...]
//	}
//
// Price series not listed in tickers (a benchmark) are stored but stay
// outside the universe.
type Fixture struct {
	Tickers        []string                        `json:"tickers"`
	Prices         map[string][]fixtureBar         `json:"prices"`
	Ratings        []contracts.PrecomputedRating   `json:"ratings"`
	Profiles       []contracts.CompanyProfile      `json:"profiles"`
	EPS            []contracts.EPSComponents       `json:"eps"`
	SectorRotation []contracts.SectorRotationEntry `json:"sector_rotation"`
}

type fixtureBar struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// LoadFixture reads a JSON fixture into a Memory store
func LoadFixture(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return fx.Memory()
}

// Memory converts the fixture into a store
func (fx *Fixture) Memory() (*Memory, error) {
	m := NewMemory()

	parsed := make(map[string][]contracts.PriceBar, len(fx.Prices))
	for ticker, raw := range fx.Prices {
		bars := make([]contracts.PriceBar, len(raw))
		for i, b := range raw {
			d, err := time.Parse("2006-01-02", b.Date)
			if err != nil {
				return nil, fmt.Errorf("fixture %s bar %d: %w", ticker, i, err)
			}
			if i > 0 && !d.After(bars[i-1].Date) {
				return nil, fmt.Errorf("fixture %s bar %d: dates must be strictly ascending", ticker, i)
			}
			bars[i] = contracts.PriceBar{Date: d, Open: b.Open, Close: b.Close, Volume: b.Volume}
		}
		parsed[ticker] = bars
	}

	for _, t := range fx.Tickers {
		m.AddTicker(t, parsed[t])
		delete(parsed, t)
	}
	for t, bars := range parsed {
		m.SetPrices(t, bars)
	}

	for i := range fx.Ratings {
		m.SetRating(&fx.Ratings[i])
	}
	for i := range fx.Profiles {
		m.SetProfile(&fx.Profiles[i])
	}
	for i := range fx.EPS {
		m.SetEPS(&fx.EPS[i])
	}
	m.SetRotation(fx.SectorRotation)

	return m, nil
}
