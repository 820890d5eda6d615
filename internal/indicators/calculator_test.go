package indicators

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/marketdata"
)

var day0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // Monday

// ramp returns n closes start, start+step, ...
func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func series(closes, volumes []float64) *contracts.PriceSeries {
	return &contracts.PriceSeries{Ticker: "T", Bars: marketdata.DailyBars(day0, closes, volumes)}
}

func TestComputePriceMetrics(t *testing.T) {
	t.Run("one bar is insufficient", func(t *testing.T) {
		m := ComputePriceMetrics(series([]float64{10}, nil))
		assert.Equal(t, contracts.ReasonInsufficientData, m.Reason())
	})

	t.Run("two bars", func(t *testing.T) {
		s := series([]float64{10, 11}, nil)
		s.Bars[1].Open = 10

		m, ok := ComputePriceMetrics(s).Get()
		require.True(t, ok)
		assert.Equal(t, 11.0, m.Price)
		assert.InDelta(t, 10.0, m.PctChange1D, 1e-9)
		assert.InDelta(t, 10.0, m.ChangeFromOpen, 1e-9)
		assert.Equal(t, contracts.ReasonInsufficientData, m.PctChange1M.Reason())
		assert.Equal(t, contracts.ReasonInsufficientData, m.PctChange6M.Reason())
	})

	t.Run("zero denominators report 0", func(t *testing.T) {
		s := series([]float64{0, 5}, nil)
		s.Bars[1].Open = 0

		m, ok := ComputePriceMetrics(s).Get()
		require.True(t, ok)
		assert.Zero(t, m.PctChange1D)
		assert.Zero(t, m.ChangeFromOpen)
	})

	t.Run("trailing anchor is offset bars from the end", func(t *testing.T) {
		// 21봉: 앵커 = 첫 봉
		closes := ramp(21, 100, 1)
		m, ok := ComputePriceMetrics(series(closes, nil)).Get()
		require.True(t, ok)

		got, ok := m.PctChange1M.Get()
		require.True(t, ok)
		assert.InDelta(t, 20.0, got, 1e-9)
		assert.False(t, m.PctChange3M.IsPresent())
	})

	t.Run("zero anchor is invalid input", func(t *testing.T) {
		closes := ramp(21, 100, 1)
		closes[0] = 0
		m, _ := ComputePriceMetrics(series(closes, nil)).Get()
		assert.Equal(t, contracts.ReasonInvalidInput, m.PctChange1M.Reason())
	})

	t.Run("full window", func(t *testing.T) {
		closes := constant(180, 50)
		closes[179] = 100
		m, _ := ComputePriceMetrics(series(closes, nil)).Get()
		for _, v := range []contracts.Maybe[float64]{m.PctChange1M, m.PctChange3M, m.PctChange6M} {
			got, ok := v.Get()
			require.True(t, ok)
			assert.InDelta(t, 100.0, got, 1e-9)
		}
	})
}

func TestComputeVolumeMetrics(t *testing.T) {
	t.Run("89 bars is insufficient", func(t *testing.T) {
		m := ComputeVolumeMetrics(series(constant(89, 10), constant(89, 1000)))
		assert.Equal(t, contracts.ReasonInsufficientData, m.Reason())
	})

	t.Run("averages in thousands", func(t *testing.T) {
		volumes := append(constant(40, 50_000), constant(50, 100_000)...)
		volumes[89] = 150_000

		m, ok := ComputeVolumeMetrics(series(constant(90, 10), volumes)).Get()
		require.True(t, ok)

		avg50 := (49*100_000.0 + 150_000) / 50
		assert.InDelta(t, avg50/1000, m.AvgVolume50, 1e-9)
		assert.InDelta(t, (40*50_000.0+49*100_000+150_000)/90/1000, m.AvgVolume90, 1e-9)
		assert.InDelta(t, 150.0, m.CurrentVolume, 1e-9)
		assert.InDelta(t, (150_000-avg50)/avg50*100, m.VolumeChangePc, 1e-9)
		assert.InDelta(t, 150_000/avg50, m.RelativeVolume, 1e-9)
	})

	t.Run("zero average guards", func(t *testing.T) {
		m, ok := ComputeVolumeMetrics(series(constant(95, 10), constant(95, 0))).Get()
		require.True(t, ok)
		assert.Zero(t, m.VolumeChangePc)
		assert.Zero(t, m.RelativeVolume)
	})
}

func TestComputeMovingAverages_WindowsAreIndependent(t *testing.T) {
	ma := ComputeMovingAverages(series(ramp(150, 1, 1), nil))

	assert.Equal(t, contracts.ReasonInsufficientData, ma.MA200.Reason())
	ma150, ok := ma.MA150.Get()
	require.True(t, ok)
	assert.InDelta(t, 75.5, ma150, 1e-9)

	ma50, ok := ma.MA50.Get()
	require.True(t, ok)
	assert.InDelta(t, 125.5, ma50, 1e-9) // mean(101..150)
	assert.Equal(t, 150.0, ma.Price)
	assert.True(t, ma.ShortTermStacked())
	assert.False(t, ma.LongTermStacked())
}

func TestSMA(t *testing.T) {
	assert.Equal(t, contracts.ReasonInvalidInput, SMA([]float64{1}, 0).Reason())
	assert.Equal(t, contracts.ReasonInsufficientData, SMA([]float64{1, 2}, 3).Reason())

	v, ok := SMA([]float64{1, 2, 3, 4}, 2).Get()
	require.True(t, ok)
	assert.Equal(t, 3.5, v)
}

func TestCalculator_PerTicker(t *testing.T) {
	ctx := context.Background()
	store := marketdata.NewMemory()
	store.AddTicker("LONG", marketdata.DailyBars(day0, ramp(260, 10, 0.5), constant(260, 200_000)))
	store.AddTicker("SHORT", marketdata.DailyBars(day0, ramp(150, 10, 0.5), constant(150, 200_000)))
	calc := NewCalculator(store, nil)

	t.Run("moving averages use the most recent 250 bars", func(t *testing.T) {
		ma, err := calc.MovingAverages(ctx, "LONG")
		require.NoError(t, err)
		m, ok := ma.Get()
		require.True(t, ok)
		assert.True(t, m.ShortTermStacked())
		assert.True(t, m.LongTermStacked())

		ma200, _ := m.MA200.Get()
		// 마지막 200봉 평균: 10+0.5*60 ... 10+0.5*259
		assert.InDelta(t, 10+0.5*(60+259)/2.0, ma200, 1e-9)
	})

	t.Run("150 bars fail the 200 bar gate", func(t *testing.T) {
		ma, err := calc.MovingAverages(ctx, "SHORT")
		require.NoError(t, err)
		assert.Equal(t, contracts.ReasonInsufficientData, ma.Reason())

		pv, err := calc.PriceVsMA50(ctx, "SHORT")
		require.NoError(t, err)
		assert.Equal(t, contracts.ReasonInsufficientData, pv.Reason())
	})

	t.Run("price vs ma50", func(t *testing.T) {
		pv, err := calc.PriceVsMA50(ctx, "LONG")
		require.NoError(t, err)
		got, ok := pv.Get()
		require.True(t, ok)

		price := 10 + 0.5*259
		ma50 := 10 + 0.5*(210+259)/2.0
		assert.InDelta(t, (price-ma50)/ma50*100, got, 1e-9)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		pm, err := calc.PriceMetrics(ctx, "NOPE")
		require.NoError(t, err)
		assert.Equal(t, contracts.ReasonUnknownTicker, pm.Reason())

		vm, err := calc.VolumeMetrics(ctx, "NOPE")
		require.NoError(t, err)
		assert.Equal(t, contracts.ReasonUnknownTicker, vm.Reason())
	})
}

func TestCalculator_UpstreamFailure(t *testing.T) {
	store := marketdata.NewMemory()
	store.AddTicker("A", marketdata.DailyBars(day0, ramp(10, 1, 1), nil))
	store.FailWith(errors.New("storage unreachable"))
	calc := NewCalculator(store, nil)

	_, err := calc.PriceMetrics(context.Background(), "A")
	require.Error(t, err)
	assert.True(t, contracts.IsUpstream(err))

	_, err = calc.RSSTSForTicker(context.Background(), "A", "SPY")
	assert.True(t, contracts.IsUpstream(err))
}
