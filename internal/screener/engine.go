package screener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/indicators"
	"github.com/wonny/ibdscreener/internal/screenconfig"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// ErrUnknownScreener is returned for a name outside Names()
var ErrUnknownScreener = errors.New("unknown screener")

// DefaultWorkers bounds per-screener ticker concurrency when Options leave it unset
const DefaultWorkers = 8

// Observer receives run outcomes (metrics, websocket push)
type Observer interface {
	ScreenerDone(result *contracts.ScreenerResult, err error)
	RunDone(run *contracts.ScreeningRun, err error)
}

// Options configures an Engine
type Options struct {
	Benchmark string // RS STS% benchmark ticker (default SPY)
	Workers   int
	Observer  Observer
}

// BenchmarkStatus reports whether RS STS% can be computed at all
type BenchmarkStatus struct {
	Ticker  string `json:"ticker"`
	Bars    int    `json:"bars"`
	MinBars int    `json:"min_bars"`
	Ready   bool   `json:"ready"`
}

// Engine runs the six screeners against a read-only market data source
// ⭐ SSOT: 스크리너 실행은 여기서만
//
// The engine keeps no state between runs. Every Run/Evaluate/RunAll call
// opens a fresh session whose reads are memoized for that call only.
type Engine struct {
	data       contracts.MarketData
	cfg        *screenconfig.Config
	rules      map[string]rule
	configHash string
	opts       Options
	logger     *logger.Logger
}

// NewEngine creates a screening engine. A nil cfg uses screenconfig.Default().
func NewEngine(data contracts.MarketData, cfg *screenconfig.Config, opts Options, log *logger.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = screenconfig.Default()
	}
	if err := screenconfig.Validate(cfg); err != nil {
		return nil, err
	}
	hash, err := screenconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash screener config: %w", err)
	}
	if opts.Benchmark == "" {
		opts.Benchmark = "SPY"
	}
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Engine{
		data:       data,
		cfg:        cfg,
		rules:      buildRules(cfg),
		configHash: hash,
		opts:       opts,
		logger:     log.WithComponent("screener"),
	}, nil
}

// Names returns the screener names in run order
func (e *Engine) Names() []string {
	return Names()
}

// ConfigHash identifies the thresholds this engine screens with
func (e *Engine) ConfigHash() string {
	return e.configHash
}

// Config returns the thresholds in use
func (e *Engine) Config() *screenconfig.Config {
	return e.cfg
}

func (e *Engine) rsWindow() indicators.RSWindow {
	return indicators.RSWindow{
		LookbackBars: e.cfg.RS.LookbackBars,
		MinBars:      e.cfg.RS.MinBars,
		Days:         e.cfg.RS.Days,
	}
}

// Run returns the passing tickers of one screener in universe order
func (e *Engine) Run(ctx context.Context, name string) ([]string, error) {
	res, err := e.Evaluate(ctx, name)
	if err != nil {
		return nil, err
	}
	return res.Tickers, nil
}

// Evaluate runs one screener and keeps every per-ticker verdict
func (e *Engine) Evaluate(ctx context.Context, name string) (*contracts.ScreenerResult, error) {
	if !Known(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScreener, name)
	}
	s := e.newSession()
	universe, err := s.src.ListTickers(ctx)
	if err != nil {
		return nil, contracts.Upstream("list_tickers", err)
	}
	return e.evaluate(ctx, s, name, universe)
}

// RunAll runs every screener in order against one shared session
func (e *Engine) RunAll(ctx context.Context) (*contracts.ScreeningRun, error) {
	started := time.Now()
	run := &contracts.ScreeningRun{
		RunID:      uuid.New().String(),
		ConfigHash: e.configHash,
		StartedAt:  started,
		Benchmark:  e.opts.Benchmark,
	}
	log := e.logger.WithField("run_id", run.RunID)

	s := e.newSession()
	universe, err := s.src.ListTickers(ctx)
	if err != nil {
		err = contracts.Upstream("list_tickers", err)
		e.runDone(nil, err)
		return nil, err
	}

	status, err := e.checkBenchmark(ctx, s)
	if err != nil {
		e.runDone(nil, err)
		return nil, err
	}
	if !status.Ready {
		log.WithFields(map[string]interface{}{
			"benchmark": status.Ticker,
			"bars":      status.Bars,
			"min_bars":  status.MinBars,
		}).Warn("benchmark history too short, RS STS% conditions will fail")
	}

	if asOf, err := s.src.LatestPriceDate(ctx); err == nil {
		run.AsOf = asOf
	} else if !errors.Is(err, contracts.ErrNotFound) {
		err = contracts.Upstream("latest_price_date", err)
		e.runDone(nil, err)
		return nil, err
	}

	log.Infof("screening %d tickers", len(universe))
	for _, name := range names {
		res, err := e.evaluate(ctx, s, name, universe)
		if err != nil {
			e.runDone(nil, err)
			return nil, err
		}
		run.Results = append(run.Results, res)
	}

	run.Duration = time.Since(started)
	log.WithField("duration", run.Duration.String()).Info("screening run complete")
	e.runDone(run, nil)
	return run, nil
}

// CheckBenchmark reports whether the benchmark has enough bars for RS STS%
func (e *Engine) CheckBenchmark(ctx context.Context) (BenchmarkStatus, error) {
	return e.checkBenchmark(ctx, e.newSession())
}

func (e *Engine) checkBenchmark(ctx context.Context, s *session) (BenchmarkStatus, error) {
	bars, err := s.calc.BenchmarkBars(ctx, e.opts.Benchmark)
	if err != nil {
		return BenchmarkStatus{}, err
	}
	min := e.cfg.RS.MinBars
	return BenchmarkStatus{
		Ticker:  e.opts.Benchmark,
		Bars:    bars,
		MinBars: min,
		Ready:   bars >= min,
	}, nil
}

func (e *Engine) evaluate(ctx context.Context, s *session, name string, universe []string) (*contracts.ScreenerResult, error) {
	started := time.Now()
	log := e.logger.WithField("screener", name)

	var (
		verdicts []contracts.Verdict
		err      error
	)
	if name == Momentum97 {
		verdicts, err = e.runMomentum97(ctx, s, universe)
	} else {
		verdicts, err = e.runChain(ctx, s, e.rules[name], universe)
	}
	if err != nil {
		log.WithError(err).Error("screener aborted")
		e.screenerDone(&contracts.ScreenerResult{Name: name, Duration: time.Since(started)}, err)
		return nil, err
	}

	res := &contracts.ScreenerResult{
		Name:      name,
		Tickers:   []string{},
		Evaluated: len(universe),
		Verdicts:  verdicts,
	}
	for _, v := range verdicts {
		if v.Passed {
			res.Tickers = append(res.Tickers, v.Ticker)
			continue
		}
		log.WithFields(map[string]interface{}{
			"ticker":    v.Ticker,
			"failed_at": v.FailedAt,
			"reason":    string(v.Reason),
		}).Debug("ticker excluded")
	}
	res.Duration = time.Since(started)

	log.WithFields(map[string]interface{}{
		"passed":    res.Count(),
		"evaluated": res.Evaluated,
	}).Info("screener complete")
	e.screenerDone(res, nil)
	return res, nil
}

// runChain evaluates a predicate chain for every ticker with a bounded worker pool.
// Verdicts land by index so universe order survives concurrency.
func (e *Engine) runChain(ctx context.Context, s *session, r rule, universe []string) ([]contracts.Verdict, error) {
	verdicts := make([]contracts.Verdict, len(universe))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, ticker := range universe {
		i, ticker := i, ticker
		g.Go(func() error {
			v, err := r.evaluate(gctx, s, ticker)
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

func (e *Engine) screenerDone(res *contracts.ScreenerResult, err error) {
	if e.opts.Observer != nil {
		e.opts.Observer.ScreenerDone(res, err)
	}
}

func (e *Engine) runDone(run *contracts.ScreeningRun, err error) {
	if e.opts.Observer != nil {
		e.opts.Observer.RunDone(run, err)
	}
}

// Observers fans one run's events out to several observers
func Observers(obs ...Observer) Observer {
	return observers(obs)
}

type observers []Observer

func (o observers) ScreenerDone(res *contracts.ScreenerResult, err error) {
	for _, ob := range o {
		if ob != nil {
			ob.ScreenerDone(res, err)
		}
	}
}

func (o observers) RunDone(run *contracts.ScreeningRun, err error) {
	for _, ob := range o {
		if ob != nil {
			ob.RunDone(run, err)
		}
	}
}
