package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// Postgres reads market data from the market schema
//
//	market.daily_prices     (ticker, trade_date, open_price, close_price, volume)
//	market.ratings          (ticker, rs_rating, comp_rating, ad_rating, price_vs_52w_high)
//	market.company_profiles (ticker, sector, industry, market_cap)
//	market.eps_components   (ticker, eps_growth_last_qtr)
//	market.sector_rotation  (industry, weekly_rs, monthly_rs)
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a store over the shared pool
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT DISTINCT ticker FROM market.daily_prices ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	tickers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan tickers: %w", err)
	}
	return tickers, nil
}

func (p *Postgres) PriceHistory(ctx context.Context, ticker string, lookbackBars int) (*contracts.PriceSeries, error) {
	query := `
		SELECT trade_date, open_price, close_price, volume FROM (
			SELECT trade_date,
				COALESCE(open_price, 0)::float8 AS open_price,
				COALESCE(close_price, 0)::float8 AS close_price,
				COALESCE(volume, 0)::float8 AS volume
			FROM market.daily_prices
			WHERE ticker = $1
			ORDER BY trade_date DESC
			LIMIT $2
		) recent
		ORDER BY trade_date ASC
	`
	rows, err := p.pool.Query(ctx, query, ticker, lookbackBars)
	if err != nil {
		return nil, fmt.Errorf("query price history %s: %w", ticker, err)
	}
	defer rows.Close()

	series := &contracts.PriceSeries{Ticker: ticker}
	for rows.Next() {
		var bar contracts.PriceBar
		if err := rows.Scan(&bar.Date, &bar.Open, &bar.Close, &bar.Volume); err != nil {
			return nil, fmt.Errorf("scan price bar: %w", err)
		}
		series.Bars = append(series.Bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history: %w", err)
	}

	if len(series.Bars) == 0 {
		return nil, contracts.ErrNotFound
	}
	return series, nil
}

const pgRatingQuery = `
	SELECT ticker,
		rs_rating::float8,
		comp_rating::float8,
		COALESCE(ad_rating, ''),
		price_vs_52w_high::float8
	FROM market.ratings
`

func scanPgRating(row pgx.Row) (*contracts.PrecomputedRating, error) {
	var r contracts.PrecomputedRating
	if err := row.Scan(&r.Ticker, &r.RSRating, &r.CompRating, &r.ADRating, &r.PriceVs52wHigh); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Postgres) Rating(ctx context.Context, ticker string) (*contracts.PrecomputedRating, error) {
	r, err := scanPgRating(p.pool.QueryRow(ctx, pgRatingQuery+` WHERE ticker = $1`, ticker))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query rating %s: %w", ticker, err)
	}
	return r, nil
}

func (p *Postgres) AllRatings(ctx context.Context) (map[string]*contracts.PrecomputedRating, error) {
	rows, err := p.pool.Query(ctx, pgRatingQuery)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*contracts.PrecomputedRating)
	for rows.Next() {
		r, err := scanPgRating(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out[r.Ticker] = r
	}
	return out, rows.Err()
}

func (p *Postgres) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	var prof contracts.CompanyProfile
	err := p.pool.QueryRow(ctx, `
		SELECT ticker, COALESCE(sector, ''), COALESCE(industry, ''), market_cap::float8
		FROM market.company_profiles
		WHERE ticker = $1
	`, ticker).Scan(&prof.Ticker, &prof.Sector, &prof.Industry, &prof.MarketCap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %s: %w", ticker, err)
	}
	return &prof, nil
}

func (p *Postgres) AllEPSComponents(ctx context.Context) (map[string]*contracts.EPSComponents, error) {
	rows, err := p.pool.Query(ctx, `SELECT ticker, eps_growth_last_qtr::float8 FROM market.eps_components`)
	if err != nil {
		return nil, fmt.Errorf("query eps components: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*contracts.EPSComponents)
	for rows.Next() {
		var e contracts.EPSComponents
		if err := rows.Scan(&e.Ticker, &e.EPSGrowthLastQtr); err != nil {
			return nil, fmt.Errorf("scan eps components: %w", err)
		}
		out[e.Ticker] = &e
	}
	return out, rows.Err()
}

func (p *Postgres) SectorRotationTable(ctx context.Context) ([]contracts.SectorRotationEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT industry, weekly_rs::float8, monthly_rs::float8
		FROM market.sector_rotation
		WHERE weekly_rs IS NOT NULL AND monthly_rs IS NOT NULL
		ORDER BY industry
	`)
	if err != nil {
		return nil, fmt.Errorf("query sector rotation: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.SectorRotationEntry, error) {
		var e contracts.SectorRotationEntry
		err := row.Scan(&e.Industry, &e.WeeklyRS, &e.MonthlyRS)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan sector rotation: %w", err)
	}
	return entries, nil
}

func (p *Postgres) LatestPriceDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	if err := p.pool.QueryRow(ctx, `SELECT MAX(trade_date) FROM market.daily_prices`).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("query latest price date: %w", err)
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}

var _ contracts.MarketData = (*Postgres)(nil)
