package marketdata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/database"
)

func newSQLiteStore(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ibd_data.db")

	rw, err := database.OpenSQLite(path, time.Second, false)
	require.NoError(t, err)
	_, err = rw.DB.Exec(SQLiteSchema)
	require.NoError(t, err)

	seed := []string{
		`INSERT INTO price_history (ticker, date, open, close, volume) VALUES
			('AAPL', '2025-01-02', 10, 11, 1000),
			('AAPL', '2025-01-03', 11, 12, 2000),
			('AAPL', '2025-01-06', 12, 13, 3000),
			('SPY',  '2025-01-06', 500, 501, 9000)`,
		`INSERT INTO calculated_ratings VALUES ('AAPL', 95, NULL, 'B', -3.5)`,
		`INSERT INTO company_profiles VALUES ('AAPL', 'Technology', 'Consumer Electronics', 3000000000000)`,
		`INSERT INTO eps_components VALUES ('AAPL', 25), ('MSFT', NULL)`,
		`INSERT INTO sector_rotation VALUES ('Software', 60, 40), ('Consumer Electronics', 55, 70), ('Empty', NULL, 1)`,
	}
	for _, q := range seed {
		_, err := rw.DB.Exec(q)
		require.NoError(t, err)
	}
	require.NoError(t, rw.Close())

	ro, err := database.OpenSQLite(path, time.Second, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ro.Close() })
	return NewSQLite(ro.DB)
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	tickers, err := s.ListTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "SPY"}, tickers)

	series, err := s.PriceHistory(ctx, "AAPL", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 13}, series.Closes())
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), series.Bars[1].Date)

	_, err = s.PriceHistory(ctx, "NOPE", 2)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	r, err := s.Rating(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 95.0, *r.RSRating)
	assert.Nil(t, r.CompRating)
	assert.Equal(t, "B", r.ADRating)
	assert.Equal(t, -3.5, *r.PriceVs52wHigh)

	_, err = s.Rating(ctx, "MSFT")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	all, err := s.AllRatings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	p, err := s.CompanyProfile(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Consumer Electronics", p.Industry)
	assert.Equal(t, 3e12, *p.MarketCap)

	eps, err := s.AllEPSComponents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25.0, *eps["AAPL"].EPSGrowthLastQtr)
	assert.Nil(t, eps["MSFT"].EPSGrowthLastQtr)

	rot, err := s.SectorRotationTable(ctx)
	require.NoError(t, err)
	require.Len(t, rot, 2, "rows with null RS are skipped")
	assert.Equal(t, "Consumer Electronics", rot[0].Industry)

	latest, err := s.LatestPriceDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), latest)
}
