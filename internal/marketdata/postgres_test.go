package marketdata

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/config"
	"github.com/wonny/ibdscreener/pkg/database"
)

func TestPostgres_Smoke(t *testing.T) {
	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := NewPostgres(db.Pool)
	tickers, err := store.ListTickers(ctx)
	require.NoError(t, err)
	if len(tickers) == 0 {
		t.Skip("market.daily_prices is empty")
	}

	series, err := store.PriceHistory(ctx, tickers[0], 30)
	require.NoError(t, err)
	assert.LessOrEqual(t, series.Len(), 30)
	for i := 1; i < series.Len(); i++ {
		assert.True(t, series.Bars[i].Date.After(series.Bars[i-1].Date), "bars ascending")
	}

	_, err = store.PriceHistory(ctx, "__NO_SUCH_TICKER__", 30)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}
