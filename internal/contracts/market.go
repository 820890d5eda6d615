package contracts

import "time"

// ⭐ SSOT: 업스트림 데이터 모델 정의는 여기서만
// 모든 레코드는 외부 저장소 소유이며 엔진은 읽기만 한다.

// PriceBar is one ticker's daily bar
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is a ticker's bars ordered oldest -> newest, no duplicate dates
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Closes returns the close column
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volume column
func (s *PriceSeries) Volumes() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Last returns the most recent bar
func (s *PriceSeries) Last() (PriceBar, bool) {
	if s.Len() == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// PrecomputedRating is the upstream rating row for a ticker.
// nil pointers mean the upstream value is missing.
type PrecomputedRating struct {
	Ticker         string   `json:"ticker"`
	RSRating       *float64 `json:"rs_rating"`
	CompRating     *float64 `json:"comp_rating"`
	ADRating       string   `json:"ad_rating"` // A(best) ~ E(worst), "" = missing
	PriceVs52wHigh *float64 `json:"price_vs_52w_high"`
}

// CompanyProfile holds sector/industry/market cap (USD)
type CompanyProfile struct {
	Ticker    string   `json:"ticker"`
	Sector    string   `json:"sector"`
	Industry  string   `json:"industry"`
	MarketCap *float64 `json:"market_cap"`
}

// EPSComponents holds per-ticker earnings growth inputs
type EPSComponents struct {
	Ticker           string   `json:"ticker"`
	EPSGrowthLastQtr *float64 `json:"eps_growth_last_qtr"` // percent
}

// SectorRotationEntry is one industry group row of the rotation table
type SectorRotationEntry struct {
	Industry  string  `json:"industry"`
	WeeklyRS  float64 `json:"weekly_rs"`
	MonthlyRS float64 `json:"monthly_rs"`
}

// Float returns a pointer to v; handy for building ratings/profiles
func Float(v float64) *float64 {
	return &v
}
