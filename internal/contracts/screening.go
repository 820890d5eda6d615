package contracts

import "time"

// Quadrant is an industry group's momentum quadrant
type Quadrant string

const (
	QuadrantStrong    Quadrant = "Strong"    // weekly >= 50, monthly >= 50
	QuadrantImproving Quadrant = "Improving" // weekly >= 50, monthly < 50
	QuadrantWeakening Quadrant = "Weakening" // weekly < 50, monthly >= 50
	QuadrantWeak      Quadrant = "Weak"      // weekly < 50, monthly < 50
)

// Verdict is the per-ticker outcome of one screener.
// A failed verdict names the first condition that did not hold and,
// when the condition could not be evaluated, why its input was absent.
type Verdict struct {
	Ticker   string `json:"ticker"`
	Passed   bool   `json:"passed"`
	FailedAt string `json:"failed_at,omitempty"`
	Reason   Reason `json:"reason,omitempty"`
}

// Outcome labels a verdict for metrics: "pass", "fail" or the absent reason
func (v Verdict) Outcome() string {
	switch {
	case v.Passed:
		return "pass"
	case v.Reason != ReasonNone:
		return string(v.Reason)
	default:
		return "fail"
	}
}

// ScreenerResult is one screener's output
type ScreenerResult struct {
	Name      string        `json:"name"`
	Tickers   []string      `json:"tickers"` // discovery order
	Evaluated int           `json:"evaluated"`
	Verdicts  []Verdict     `json:"verdicts,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Count returns the number of passing tickers
func (r *ScreenerResult) Count() int {
	return len(r.Tickers)
}

// FailureCounts groups failed verdicts by the condition they failed at
func (r *ScreenerResult) FailureCounts() map[string]int {
	counts := make(map[string]int)
	for _, v := range r.Verdicts {
		if !v.Passed {
			counts[v.FailedAt]++
		}
	}
	return counts
}

// ScreeningRun is the output of one multi-screener run
// ⭐ SSOT: 스크리너 실행 결과 전달 (엔진 → 캐시/API/리포트)
type ScreeningRun struct {
	RunID      string            `json:"run_id"`
	ConfigHash string            `json:"config_hash"`
	AsOf       time.Time         `json:"as_of"` // latest price date in the store
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
	Benchmark  string            `json:"benchmark"`
	Results    []*ScreenerResult `json:"results"` // fixed screener order
}

// Tickers returns the screener name -> passing tickers mapping
func (r *ScreeningRun) Tickers() map[string][]string {
	out := make(map[string][]string, len(r.Results))
	for _, res := range r.Results {
		out[res.Name] = res.Tickers
	}
	return out
}

// Get returns one screener's result
func (r *ScreeningRun) Get(name string) (*ScreenerResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return nil, false
}
