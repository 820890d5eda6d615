package marketdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// SQLiteSchema is the ibd_data.db layout read by SQLite.
// Dates are stored as YYYY-MM-DD text.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS price_history (
	ticker TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL,
	high   REAL,
	low    REAL,
	close  REAL,
	volume REAL,
	PRIMARY KEY (ticker, date)
);
CREATE TABLE IF NOT EXISTS calculated_ratings (
	ticker            TEXT PRIMARY KEY,
	rs_rating         REAL,
	comp_rating       REAL,
	ad_rating         TEXT,
	price_vs_52w_high REAL
);
CREATE TABLE IF NOT EXISTS company_profiles (
	ticker     TEXT PRIMARY KEY,
	sector     TEXT,
	industry   TEXT,
	market_cap REAL
);
CREATE TABLE IF NOT EXISTS eps_components (
	ticker              TEXT PRIMARY KEY,
	eps_growth_last_qtr REAL
);
CREATE TABLE IF NOT EXISTS sector_rotation (
	industry   TEXT PRIMARY KEY,
	weekly_rs  REAL,
	monthly_rs REAL
);
`

const sqliteDate = "2006-01-02"

// SQLite reads market data from an ibd_data.db style file
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates a store over an open handle
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT ticker FROM price_history ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

func (s *SQLite) PriceHistory(ctx context.Context, ticker string, lookbackBars int) (*contracts.PriceSeries, error) {
	query := `
		SELECT date, open, close, volume FROM (
			SELECT date, open, close, volume
			FROM price_history
			WHERE ticker = ?
			ORDER BY date DESC
			LIMIT ?
		) ORDER BY date ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ticker, lookbackBars)
	if err != nil {
		return nil, fmt.Errorf("query price history %s: %w", ticker, err)
	}
	defer rows.Close()

	series := &contracts.PriceSeries{Ticker: ticker}
	for rows.Next() {
		var (
			date                  string
			open, closePx, volume sql.NullFloat64
		)
		if err := rows.Scan(&date, &open, &closePx, &volume); err != nil {
			return nil, fmt.Errorf("scan price bar: %w", err)
		}
		d, err := time.Parse(sqliteDate, date)
		if err != nil {
			return nil, fmt.Errorf("parse bar date %q: %w", date, err)
		}
		series.Bars = append(series.Bars, contracts.PriceBar{
			Date:   d,
			Open:   open.Float64,
			Close:  closePx.Float64,
			Volume: volume.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(series.Bars) == 0 {
		return nil, contracts.ErrNotFound
	}
	return series, nil
}

const sqliteRatingColumns = `ticker, rs_rating, comp_rating, ad_rating, price_vs_52w_high`

func scanSQLiteRating(scan func(dest ...any) error) (*contracts.PrecomputedRating, error) {
	var (
		r               contracts.PrecomputedRating
		rs, comp, vs52w sql.NullFloat64
		ad              sql.NullString
	)
	if err := scan(&r.Ticker, &rs, &comp, &ad, &vs52w); err != nil {
		return nil, err
	}
	r.RSRating = nullFloat(rs)
	r.CompRating = nullFloat(comp)
	r.ADRating = ad.String
	r.PriceVs52wHigh = nullFloat(vs52w)
	return &r, nil
}

func (s *SQLite) Rating(ctx context.Context, ticker string) (*contracts.PrecomputedRating, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRatingColumns+` FROM calculated_ratings WHERE ticker = ?`, ticker)
	r, err := scanSQLiteRating(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query rating %s: %w", ticker, err)
	}
	return r, nil
}

func (s *SQLite) AllRatings(ctx context.Context) (map[string]*contracts.PrecomputedRating, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteRatingColumns+` FROM calculated_ratings`)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*contracts.PrecomputedRating)
	for rows.Next() {
		r, err := scanSQLiteRating(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out[r.Ticker] = r
	}
	return out, rows.Err()
}

func (s *SQLite) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	var (
		p                contracts.CompanyProfile
		sector, industry sql.NullString
		marketCap        sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT ticker, sector, industry, market_cap FROM company_profiles WHERE ticker = ?`, ticker,
	).Scan(&p.Ticker, &sector, &industry, &marketCap)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %s: %w", ticker, err)
	}
	p.Sector = sector.String
	p.Industry = industry.String
	p.MarketCap = nullFloat(marketCap)
	return &p, nil
}

func (s *SQLite) AllEPSComponents(ctx context.Context) (map[string]*contracts.EPSComponents, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker, eps_growth_last_qtr FROM eps_components`)
	if err != nil {
		return nil, fmt.Errorf("query eps components: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*contracts.EPSComponents)
	for rows.Next() {
		var (
			e      contracts.EPSComponents
			growth sql.NullFloat64
		)
		if err := rows.Scan(&e.Ticker, &growth); err != nil {
			return nil, fmt.Errorf("scan eps components: %w", err)
		}
		e.EPSGrowthLastQtr = nullFloat(growth)
		out[e.Ticker] = &e
	}
	return out, rows.Err()
}

func (s *SQLite) SectorRotationTable(ctx context.Context) ([]contracts.SectorRotationEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT industry, weekly_rs, monthly_rs
		FROM sector_rotation
		WHERE weekly_rs IS NOT NULL AND monthly_rs IS NOT NULL
		ORDER BY industry
	`)
	if err != nil {
		return nil, fmt.Errorf("query sector rotation: %w", err)
	}
	defer rows.Close()

	var out []contracts.SectorRotationEntry
	for rows.Next() {
		var e contracts.SectorRotationEntry
		if err := rows.Scan(&e.Industry, &e.WeeklyRS, &e.MonthlyRS); err != nil {
			return nil, fmt.Errorf("scan sector rotation: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) LatestPriceDate(ctx context.Context) (time.Time, error) {
	var date sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM price_history`).Scan(&date); err != nil {
		return time.Time{}, fmt.Errorf("query latest price date: %w", err)
	}
	if !date.Valid {
		return time.Time{}, nil
	}
	return time.Parse(sqliteDate, date.String)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return contracts.Float(v.Float64)
}

var _ contracts.MarketData = (*SQLite)(nil)
