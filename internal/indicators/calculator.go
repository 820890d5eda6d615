package indicators

import (
	"context"
	"errors"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// Lookback windows in trading bars, counted back from the most recent bar
const (
	PriceLookback  = 180
	PriceMinBars   = 2
	VolumeLookback = 100
	VolumeMinBars  = 90
	MALookback     = 250
	MAMinBars      = 200
)

// Trailing change offsets: the anchor is the close `offset` bars from the end
const (
	Offset1M = 21
	Offset3M = 63
	Offset6M = 126
)

// Calculator derives per-ticker indicators from the market data store
// ⭐ SSOT: 종목별 지표 계산은 여기서만
//
// Data sparsity never produces an error: it comes back as an Absent value.
// The returned error is always a data-access failure (contracts.UpstreamError).
type Calculator struct {
	data   contracts.MarketData
	rs     RSWindow
	logger *logger.Logger
}

// NewCalculator creates a calculator over data
func NewCalculator(data contracts.MarketData, log *logger.Logger) *Calculator {
	if log == nil {
		log = logger.Nop()
	}
	return &Calculator{
		data:   data,
		rs:     DefaultRSWindow,
		logger: log,
	}
}

// WithRSWindow returns a copy of the calculator using w for RS STS%
func (c *Calculator) WithRSWindow(w RSWindow) *Calculator {
	cp := *c
	cp.rs = w
	return &cp
}

// PriceMetrics requires >= 2 bars from a 180-bar window
func (c *Calculator) PriceMetrics(ctx context.Context, ticker string) (contracts.Maybe[contracts.PriceMetrics], error) {
	series, reason, err := c.history(ctx, ticker, PriceLookback)
	if err != nil || reason != contracts.ReasonNone {
		return contracts.Absent[contracts.PriceMetrics](reason), err
	}
	return ComputePriceMetrics(series), nil
}

// VolumeMetrics requires >= 90 bars from a 100-bar window
func (c *Calculator) VolumeMetrics(ctx context.Context, ticker string) (contracts.Maybe[contracts.VolumeMetrics], error) {
	series, reason, err := c.history(ctx, ticker, VolumeLookback)
	if err != nil || reason != contracts.ReasonNone {
		return contracts.Absent[contracts.VolumeMetrics](reason), err
	}
	return ComputeVolumeMetrics(series), nil
}

// MovingAverages requires >= 200 bars from a 250-bar window
func (c *Calculator) MovingAverages(ctx context.Context, ticker string) (contracts.Maybe[contracts.MovingAverages], error) {
	series, reason, err := c.history(ctx, ticker, MALookback)
	if err != nil || reason != contracts.ReasonNone {
		return contracts.Absent[contracts.MovingAverages](reason), err
	}
	// 200봉 미만이면 부분 계산 없이 전체 absent
	if series.Len() < MAMinBars {
		c.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"bars":   series.Len(),
		}).Debug("Insufficient bars for moving averages")
		return contracts.Absent[contracts.MovingAverages](contracts.ReasonInsufficientData), nil
	}
	return contracts.Present(ComputeMovingAverages(series)), nil
}

// PriceVsMA50 returns (price - ma50) / ma50 * 100
func (c *Calculator) PriceVsMA50(ctx context.Context, ticker string) (contracts.Maybe[float64], error) {
	ma, err := c.MovingAverages(ctx, ticker)
	if err != nil {
		return contracts.Maybe[float64]{}, err
	}
	return ComputePriceVsMA50(ma), nil
}

// history fetches a window; unknown tickers come back as a reason, not an error
func (c *Calculator) history(ctx context.Context, ticker string, lookback int) (*contracts.PriceSeries, contracts.Reason, error) {
	series, err := c.data.PriceHistory(ctx, ticker, lookback)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, contracts.ReasonUnknownTicker, nil
	}
	if err != nil {
		return nil, contracts.ReasonNone, contracts.Upstream("price_history", err)
	}
	if series.Len() == 0 {
		return nil, contracts.ReasonInsufficientData, nil
	}
	return series, contracts.ReasonNone, nil
}

// ComputePriceMetrics derives price metrics from a series (>= 2 bars)
func ComputePriceMetrics(s *contracts.PriceSeries) contracts.Maybe[contracts.PriceMetrics] {
	if s.Len() < PriceMinBars {
		return contracts.Absent[contracts.PriceMetrics](contracts.ReasonInsufficientData)
	}

	closes := s.Closes()
	last, _ := s.Last()
	price := last.Close

	m := contracts.PriceMetrics{
		Price:       price,
		PctChange1M: trailingChange(closes, Offset1M),
		PctChange3M: trailingChange(closes, Offset3M),
		PctChange6M: trailingChange(closes, Offset6M),
	}
	// 분모 0이면 0으로 보고
	m.PctChange1D, _ = pctChange(closes[len(closes)-2], price)
	m.ChangeFromOpen, _ = pctChange(last.Open, price)

	return contracts.Present(m)
}

// trailingChange compares the last close with closes[len-offset]
func trailingChange(closes []float64, offset int) contracts.Maybe[float64] {
	if len(closes) < offset {
		return contracts.Absent[float64](contracts.ReasonInsufficientData)
	}
	v, ok := pctChange(closes[len(closes)-offset], closes[len(closes)-1])
	if !ok {
		return contracts.Absent[float64](contracts.ReasonInvalidInput)
	}
	return contracts.Present(v)
}

// ComputeVolumeMetrics derives volume metrics from a series (>= 90 bars)
func ComputeVolumeMetrics(s *contracts.PriceSeries) contracts.Maybe[contracts.VolumeMetrics] {
	if s.Len() < VolumeMinBars {
		return contracts.Absent[contracts.VolumeMetrics](contracts.ReasonInsufficientData)
	}

	volumes := s.Volumes()
	avg50 := mean(volumes[len(volumes)-50:])
	avg90 := mean(volumes[len(volumes)-90:])
	current := volumes[len(volumes)-1]

	m := contracts.VolumeMetrics{
		AvgVolume50:   avg50 / 1000,
		AvgVolume90:   avg90 / 1000,
		CurrentVolume: current / 1000,
	}
	if avg50 > 0 {
		m.VolumeChangePc = (current - avg50) / avg50 * 100
		m.RelativeVolume = current / avg50
	}

	return contracts.Present(m)
}

// ComputeMovingAverages reports each window independently; a window longer
// than the series is absent while shorter ones are still present
func ComputeMovingAverages(s *contracts.PriceSeries) contracts.MovingAverages {
	closes := s.Closes()
	ma := contracts.MovingAverages{
		MA10:  SMA(closes, 10),
		MA21:  SMA(closes, 21),
		MA50:  SMA(closes, 50),
		MA150: SMA(closes, 150),
		MA200: SMA(closes, 200),
	}
	if last, ok := s.Last(); ok {
		ma.Price = last.Close
	}
	return ma
}

// ComputePriceVsMA50 is absent when the averages or MA50 are absent
func ComputePriceVsMA50(ma contracts.Maybe[contracts.MovingAverages]) contracts.Maybe[float64] {
	m, ok := ma.Get()
	if !ok {
		return contracts.Absent[float64](ma.Reason())
	}
	ma50, ok := m.MA50.Get()
	if !ok {
		return contracts.Absent[float64](m.MA50.Reason())
	}
	v, ok := pctChange(ma50, m.Price)
	if !ok {
		return contracts.Absent[float64](contracts.ReasonInvalidInput)
	}
	return contracts.Present(v)
}
