package indicators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/marketdata"
)

func TestRelativeStrengthSeries(t *testing.T) {
	bench := series(constant(30, 100), nil)

	t.Run("no overlapping dates", func(t *testing.T) {
		target := &contracts.PriceSeries{Bars: marketdata.DailyBars(day0.AddDate(1, 0, 0), constant(30, 10), nil)}
		assert.Equal(t, contracts.ReasonInsufficientData, RelativeStrengthSeries(bench, target, 25).Reason())
	})

	t.Run("20 days of overlap", func(t *testing.T) {
		target := &contracts.PriceSeries{Bars: marketdata.DailyBars(bench.Bars[10].Date, constant(20, 10), nil)}
		assert.Equal(t, contracts.ReasonInsufficientData, RelativeStrengthSeries(bench, target, 25).Reason())
	})

	t.Run("exactly 25 days of overlap", func(t *testing.T) {
		target := &contracts.PriceSeries{Bars: marketdata.DailyBars(bench.Bars[5].Date, ramp(25, 10, 1), nil)}
		ratios, ok := RelativeStrengthSeries(bench, target, 25).Get()
		require.True(t, ok)
		require.Len(t, ratios, 25)
		assert.InDelta(t, 0.10, ratios[0], 1e-12)
		assert.InDelta(t, 0.34, ratios[24], 1e-12)
	})

	t.Run("keeps the most recent days", func(t *testing.T) {
		target := series(ramp(30, 10, 1), nil)
		ratios, ok := RelativeStrengthSeries(bench, target, 25).Get()
		require.True(t, ok)
		require.Len(t, ratios, 25)
		assert.InDelta(t, 0.15, ratios[0], 1e-12)
	})

	t.Run("zero benchmark close inside the window", func(t *testing.T) {
		zero := series(constant(30, 100), nil)
		zero.Bars[29].Close = 0
		target := series(constant(30, 10), nil)
		assert.Equal(t, contracts.ReasonInvalidInput, RelativeStrengthSeries(zero, target, 25).Reason())
	})

	t.Run("zero benchmark close outside the window is ignored", func(t *testing.T) {
		zero := series(constant(30, 100), nil)
		zero.Bars[0].Close = 0
		target := series(constant(30, 10), nil)
		assert.True(t, RelativeStrengthSeries(zero, target, 25).IsPresent())
	})

	t.Run("missing series", func(t *testing.T) {
		assert.False(t, RelativeStrengthSeries(nil, bench, 25).IsPresent())
	})
}

func TestRSSTSPercentile(t *testing.T) {
	assert.Equal(t, 0.0, RSSTSPercentile(nil))
	assert.Equal(t, 100.0, RSSTSPercentile(constant(25, 1.5)), "flat series is inclusive")

	base := ramp(24, 2, 0.1)

	higher := append(append([]float64(nil), base...), 100)
	assert.Equal(t, 100.0, RSSTSPercentile(higher))

	lower := append(append([]float64(nil), base...), 0.5)
	assert.Equal(t, 4.0, RSSTSPercentile(lower)) // 1/25*100

	assert.Equal(t, 33.33, RSSTSPercentile([]float64{3, 2, 1}))
	assert.Equal(t, 66.67, RSSTSPercentile([]float64{3, 1, 2}))
}

func TestRSSTSForTicker(t *testing.T) {
	ctx := context.Background()
	store := marketdata.NewMemory()
	store.SetPrices("SPY", marketdata.DailyBars(day0, constant(40, 500), nil))
	store.AddTicker("UP", marketdata.DailyBars(day0, ramp(40, 10, 1), nil))
	store.AddTicker("THIN", marketdata.DailyBars(day0.AddDate(0, 0, 42), constant(20, 10), nil))
	calc := NewCalculator(store, nil)

	got, err := calc.RSSTSForTicker(ctx, "UP", "SPY")
	require.NoError(t, err)
	v, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, 100.0, v)

	got, err = calc.RSSTSForTicker(ctx, "THIN", "SPY")
	require.NoError(t, err)
	assert.Equal(t, contracts.ReasonInsufficientData, got.Reason())

	got, err = calc.RSSTSForTicker(ctx, "UP", "QQQ")
	require.NoError(t, err)
	assert.Equal(t, contracts.ReasonUnknownTicker, got.Reason())

	got, err = calc.RSSTSForTicker(ctx, "NOPE", "SPY")
	require.NoError(t, err)
	assert.Equal(t, contracts.ReasonUnknownTicker, got.Reason())

	bars, err := calc.BenchmarkBars(ctx, "SPY")
	require.NoError(t, err)
	assert.Equal(t, 30, bars)
}

func TestRSSTSForTicker_CustomWindow(t *testing.T) {
	store := marketdata.NewMemory()
	store.SetPrices("SPY", marketdata.DailyBars(day0, constant(12, 500), nil))
	store.AddTicker("UP", marketdata.DailyBars(day0, ramp(12, 10, 1), nil))

	calc := NewCalculator(store, nil).WithRSWindow(RSWindow{LookbackBars: 12, MinBars: 10, Days: 10})
	got, err := calc.RSSTSForTicker(context.Background(), "UP", "SPY")
	require.NoError(t, err)
	v, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
	assert.Equal(t, 10, calc.RSWindow().Days)
}
