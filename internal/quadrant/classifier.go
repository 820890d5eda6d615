package quadrant

import (
	"context"
	"errors"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// Classifier resolves a ticker's industry quadrant through MarketData
type Classifier struct {
	data   contracts.MarketData
	logger *logger.Logger
}

// NewClassifier creates a classifier
func NewClassifier(data contracts.MarketData, log *logger.Logger) *Classifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Classifier{data: data, logger: log}
}

// Table loads the current sector rotation snapshot
func (c *Classifier) Table(ctx context.Context) (*Table, error) {
	entries, err := c.data.SectorRotationTable(ctx)
	if err != nil {
		return nil, contracts.Upstream("sector_rotation", err)
	}
	return NewTable(entries), nil
}

// ForTicker classifies the industry of ticker.
// Absent when the table is empty or the profile/industry is unknown.
func (c *Classifier) ForTicker(ctx context.Context, ticker string) (contracts.Maybe[contracts.Quadrant], error) {
	table, err := c.Table(ctx)
	if err != nil {
		return contracts.Maybe[contracts.Quadrant]{}, err
	}
	return c.ForTickerIn(ctx, table, ticker)
}

// ForTickerIn classifies ticker against an already loaded table
func (c *Classifier) ForTickerIn(ctx context.Context, table *Table, ticker string) (contracts.Maybe[contracts.Quadrant], error) {
	if table.Len() == 0 {
		return contracts.Absent[contracts.Quadrant](contracts.ReasonInsufficientData), nil
	}

	profile, err := c.data.CompanyProfile(ctx, ticker)
	if errors.Is(err, contracts.ErrNotFound) {
		return contracts.Absent[contracts.Quadrant](contracts.ReasonMissingProfile), nil
	}
	if err != nil {
		return contracts.Maybe[contracts.Quadrant]{}, contracts.Upstream("company_profile", err)
	}

	q := table.Classify(profile.Industry)
	if !q.IsPresent() {
		c.logger.WithFields(map[string]interface{}{
			"ticker":   ticker,
			"industry": profile.Industry,
			"reason":   string(q.Reason()),
		}).Debug("No quadrant for ticker")
	}
	return q, nil
}

// ForTickers classifies many tickers against a single table snapshot
func (c *Classifier) ForTickers(ctx context.Context, tickers []string) (map[string]contracts.Maybe[contracts.Quadrant], error) {
	table, err := c.Table(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]contracts.Maybe[contracts.Quadrant], len(tickers))
	for _, t := range tickers {
		if _, done := out[t]; done {
			continue
		}
		q, err := c.ForTickerIn(ctx, table, t)
		if err != nil {
			return nil, err
		}
		out[t] = q
	}
	return out, nil
}
