package contracts

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by MarketData lookups for an unknown ticker.
// It is a per-ticker condition, never fatal for a run.
var ErrNotFound = errors.New("not found")

// MarketData is the read-only data-access interface consumed by the engine
// ⭐ SSOT: 엔진이 보는 유일한 데이터 접근 인터페이스
//
// Any error other than ErrNotFound is treated as an upstream failure and
// aborts the screening run.
type MarketData interface {
	// ListTickers returns the universe in its canonical order
	ListTickers(ctx context.Context) ([]string, error)

	// PriceHistory returns the most recent lookbackBars bars, oldest first.
	// Unknown tickers yield ErrNotFound.
	PriceHistory(ctx context.Context, ticker string, lookbackBars int) (*PriceSeries, error)

	Rating(ctx context.Context, ticker string) (*PrecomputedRating, error)
	AllRatings(ctx context.Context) (map[string]*PrecomputedRating, error)
	CompanyProfile(ctx context.Context, ticker string) (*CompanyProfile, error)
	AllEPSComponents(ctx context.Context) (map[string]*EPSComponents, error)
	SectorRotationTable(ctx context.Context) ([]SectorRotationEntry, error)

	// LatestPriceDate returns the most recent bar date across the store
	LatestPriceDate(ctx context.Context) (time.Time, error)
}

// UpstreamError marks a failure of the data-access layer itself
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("market data %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as an UpstreamError unless it is nil, ErrNotFound,
// or already an UpstreamError
func Upstream(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// IsUpstream reports whether err is a data-access failure
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
