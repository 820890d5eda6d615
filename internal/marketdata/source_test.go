package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_StatusReportsBreaker(t *testing.T) {
	mem := NewMemory()
	mem.AddTicker("A", DailyBars(monday, []float64{1, 2}, nil))
	src := NewMemorySource(mem, GuardOptions{BreakerFailures: 2, BreakerTimeout: time.Minute}, nil)
	ctx := context.Background()

	st, err := src.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", st.Backend)
	assert.Equal(t, "closed", st.Breaker)
	assert.True(t, st.Store.Healthy)

	mem.FailWith(errors.New("connection refused"))
	for i := 0; i < 2; i++ {
		_, _ = src.ListTickers(ctx)
	}

	st, err = src.Status(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, "open", st.Breaker)
}
