package marketdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// concurrencyTracker records the maximum number of overlapping reads
type concurrencyTracker struct {
	*Memory
	active, peak int32
}

func (p *concurrencyTracker) PriceHistory(ctx context.Context, ticker string, n int) (*contracts.PriceSeries, error) {
	cur := atomic.AddInt32(&p.active, 1)
	defer atomic.AddInt32(&p.active, -1)
	for {
		peak := atomic.LoadInt32(&p.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&p.peak, peak, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return p.Memory.PriceHistory(ctx, ticker, n)
}

func TestGuard_Serialize(t *testing.T) {
	mem := NewMemory()
	mem.AddTicker("A", DailyBars(monday, []float64{1, 2}, nil))
	tracker := &concurrencyTracker{Memory: mem}

	g := NewGuard(tracker, GuardOptions{Serialize: true}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.PriceHistory(context.Background(), "A", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&tracker.peak))
}

func TestGuard_NotFoundPassesThrough(t *testing.T) {
	g := NewGuard(NewMemory(), GuardOptions{BreakerFailures: 1, BreakerTimeout: time.Minute}, nil)

	for i := 0; i < 3; i++ {
		_, err := g.Rating(context.Background(), "NOPE")
		assert.ErrorIs(t, err, contracts.ErrNotFound)
		assert.False(t, contracts.IsUpstream(err))
	}
	assert.Equal(t, "closed", g.BreakerState())
}

func TestGuard_BreakerTrips(t *testing.T) {
	mem := NewMemory()
	mem.FailWith(errors.New("connection refused"))

	var failures []string
	g := NewGuard(mem, GuardOptions{
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
		OnError:         func(op string, err error) { failures = append(failures, op) },
	}, nil)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := g.ListTickers(ctx)
		require.Error(t, err)
		assert.True(t, contracts.IsUpstream(err))
	}
	assert.Equal(t, "open", g.BreakerState())

	// 차단기 열림: 저장소 복구 전까지 즉시 실패
	mem.FailWith(nil)
	_, err := g.ListTickers(ctx)
	require.Error(t, err)
	assert.True(t, contracts.IsUpstream(err))
	assert.Equal(t, []string{"list_tickers", "list_tickers", "list_tickers"}, failures)
}

func TestGuard_RateLimitHonoursContext(t *testing.T) {
	mem := NewMemory()
	mem.AddTicker("A", DailyBars(monday, []float64{1}, nil))
	g := NewGuard(mem, GuardOptions{ReadsPerSecond: 0.001, Burst: 1}, nil)

	_, err := g.PriceHistory(context.Background(), "A", 1)
	require.NoError(t, err, "burst allows the first read")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = g.PriceHistory(ctx, "A", 1)
	require.Error(t, err)
	assert.True(t, contracts.IsUpstream(err))
}

func TestGuard_Passthrough(t *testing.T) {
	mem := NewMemory()
	mem.AddTicker("A", DailyBars(monday, []float64{1, 2, 3}, []float64{5, 5, 5}))
	mem.SetProfile(&contracts.CompanyProfile{Ticker: "A", Industry: "Software"})
	mem.SetRotation([]contracts.SectorRotationEntry{{Industry: "Software", WeeklyRS: 1, MonthlyRS: 2}})
	g := NewGuard(mem, GuardOptions{}, nil)
	ctx := context.Background()

	s, err := g.PriceHistory(ctx, "A", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	p, err := g.CompanyProfile(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Software", p.Industry)

	rot, err := g.SectorRotationTable(ctx)
	require.NoError(t, err)
	assert.Len(t, rot, 1)

	latest, err := g.LatestPriceDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, monday.AddDate(0, 0, 2), latest)
}
