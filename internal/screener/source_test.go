package screener

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/marketdata"
)

// countingData counts upstream PriceHistory and Rating calls
type countingData struct {
	*marketdata.Memory
	prices  atomic.Int32
	ratings atomic.Int32
}

func (c *countingData) PriceHistory(ctx context.Context, ticker string, lookbackBars int) (*contracts.PriceSeries, error) {
	c.prices.Add(1)
	return c.Memory.PriceHistory(ctx, ticker, lookbackBars)
}

func (c *countingData) Rating(ctx context.Context, ticker string) (*contracts.PrecomputedRating, error) {
	c.ratings.Add(1)
	return c.Memory.Rating(ctx, ticker)
}

func TestRunSource_SharesConcurrentReads(t *testing.T) {
	mem := marketdata.NewMemory()
	mem.AddTicker("AAPL", marketdata.DailyBars(day0, constant(40, 100), nil))
	data := &countingData{Memory: mem}
	src := newRunSource(data)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := src.PriceHistory(context.Background(), "AAPL", 30)
			assert.NoError(t, err)
			assert.Equal(t, 30, s.Len())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), data.prices.Load())

	// a different lookback is a different read
	_, err := src.PriceHistory(context.Background(), "AAPL", 250)
	require.NoError(t, err)
	assert.Equal(t, int32(2), data.prices.Load())
}

func TestRunSource_CachesNotFound(t *testing.T) {
	data := &countingData{Memory: marketdata.NewMemory()}
	src := newRunSource(data)

	for i := 0; i < 3; i++ {
		_, err := src.Rating(context.Background(), "NOPE")
		assert.ErrorIs(t, err, contracts.ErrNotFound)
	}
	assert.Equal(t, int32(1), data.ratings.Load())
}

func TestRunSource_DoesNotCacheFailures(t *testing.T) {
	mem := marketdata.NewMemory()
	mem.FailWith(errors.New("timeout"))
	data := &countingData{Memory: mem}
	src := newRunSource(data)

	_, err := src.Rating(context.Background(), "AAPL")
	require.Error(t, err)
	_, err = src.Rating(context.Background(), "AAPL")
	require.Error(t, err)

	assert.Equal(t, int32(2), data.ratings.Load())
}
