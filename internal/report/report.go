package report

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/quadrant"
	"github.com/wonny/ibdscreener/internal/screener"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// RowWidth is the number of tickers per report row
const RowWidth = 10

// DefaultTitle is used when the store has no price dates
const DefaultTitle = "IBD Screeners"

// Report is the presentation grouping of one screening run
// ⭐ SSOT: 리포트 구성은 여기서만 (렌더링은 render.go)
type Report struct {
	Title    string           `json:"title"`
	RunID    string           `json:"run_id,omitempty"`
	AsOf     time.Time        `json:"as_of"`
	Sections []Section        `json:"sections"`
	Rotation []quadrant.Point `json:"rotation"`
}

// Section is one screener block
type Section struct {
	Screener string   `json:"screener"`
	Heading  string   `json:"heading"`
	Count    int      `json:"count"`
	Rows     [][]Cell `json:"rows"` // RowWidth cells per row, last row may be shorter
}

// Cell is one ticker annotated with its industry group quadrant
type Cell struct {
	Ticker   string             `json:"ticker"`
	Quadrant contracts.Quadrant `json:"quadrant,omitempty"`
	Color    string             `json:"color"`
}

// Builder turns screening runs into reports
type Builder struct {
	data       contracts.MarketData
	classifier *quadrant.Classifier
	logger     *logger.Logger
}

// NewBuilder creates a report builder
func NewBuilder(data contracts.MarketData, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		data:       data,
		classifier: quadrant.NewClassifier(data, log),
		logger:     log.WithComponent("report"),
	}
}

// Build lays out run: one section per screener in run order, each ticker
// colored by its quadrant, plus the rotation chart points
func (b *Builder) Build(ctx context.Context, run *contracts.ScreeningRun) (*Report, error) {
	if run == nil {
		return nil, errors.New("nil screening run")
	}

	rep := &Report{
		Title:    DefaultTitle,
		RunID:    run.RunID,
		AsOf:     run.AsOf,
		Sections: make([]Section, 0, len(run.Results)),
	}

	asOf := run.AsOf
	if asOf.IsZero() {
		latest, err := b.data.LatestPriceDate(ctx)
		if err != nil && !errors.Is(err, contracts.ErrNotFound) {
			return nil, contracts.Upstream("latest_price_date", err)
		}
		asOf = latest
	}
	if !asOf.IsZero() {
		rep.Title = asOf.Format("2006-01-02")
	}

	entries, err := b.data.SectorRotationTable(ctx)
	if err != nil && !errors.Is(err, contracts.ErrNotFound) {
		return nil, contracts.Upstream("sector_rotation", err)
	}
	table := quadrant.NewTable(entries)
	rep.Rotation = quadrant.Rotation(entries)

	for _, res := range run.Results {
		sec := Section{
			Screener: res.Name,
			Heading:  screener.DisplayName(res.Name),
			Count:    res.Count(),
			Rows:     [][]Cell{},
		}
		for start := 0; start < len(res.Tickers); start += RowWidth {
			end := min(start+RowWidth, len(res.Tickers))
			row := make([]Cell, 0, end-start)
			for _, t := range res.Tickers[start:end] {
				cell, err := b.cell(ctx, table, t)
				if err != nil {
					return nil, err
				}
				row = append(row, cell)
			}
			sec.Rows = append(sec.Rows, row)
		}
		rep.Sections = append(rep.Sections, sec)
	}

	b.logger.WithFields(map[string]interface{}{
		"title":    rep.Title,
		"sections": len(rep.Sections),
		"groups":   len(rep.Rotation),
	}).Debug("Report built")
	return rep, nil
}

func (b *Builder) cell(ctx context.Context, table *quadrant.Table, ticker string) (Cell, error) {
	q, err := b.classifier.ForTickerIn(ctx, table, ticker)
	if err != nil {
		return Cell{}, err
	}
	cell := Cell{Ticker: ticker, Color: quadrant.DefaultColor}
	if v, ok := q.Get(); ok {
		cell.Quadrant = v
		cell.Color = quadrant.Color(v)
	}
	return cell, nil
}
