package telemetry

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/ibdscreener/internal/contracts"
)

const namespace = "ibdscreener"

// Metrics holds all Prometheus metrics for the screening engine
// ⭐ SSOT: 메트릭 정의는 여기서만
//
// It implements screener.Observer and feeds marketdata.GuardOptions.OnError.
type Metrics struct {
	registry *prometheus.Registry

	ScreenerRuns     *prometheus.CounterVec
	ScreenerDuration *prometheus.HistogramVec
	ScreenerPassed   *prometheus.GaugeVec
	Verdicts         *prometheus.CounterVec
	DataErrors       *prometheus.CounterVec

	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastRun     prometheus.Gauge
}

// New creates a registry with Go/process collectors and the screening metrics
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ScreenerRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "screener_runs_total",
				Help:      "Screener evaluations by screener and status",
			},
			[]string{"screener", "status"},
		),

		ScreenerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "screener_duration_seconds",
				Help:      "Duration of one screener over the universe in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"screener"},
		),

		ScreenerPassed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "screener_passed_tickers",
				Help:      "Tickers passing each screener in the last evaluation",
			},
			[]string{"screener"},
		),

		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "screener_verdicts_total",
				Help:      "Per-ticker verdicts by screener and outcome (pass, fail or absent reason)",
			},
			[]string{"screener", "outcome"},
		),

		DataErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "market_data_errors_total",
				Help:      "Data-access failures by operation",
			},
			[]string{"op"},
		),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Multi-screener runs by status",
			},
			[]string{"status"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a full six-screener run in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),

		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ScreenerRuns,
		m.ScreenerDuration,
		m.ScreenerPassed,
		m.Verdicts,
		m.DataErrors,
		m.Runs,
		m.RunDuration,
		m.LastRun,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ScreenerDone records one screener evaluation
func (m *Metrics) ScreenerDone(res *contracts.ScreenerResult, err error) {
	if res == nil {
		return
	}
	if err != nil {
		m.ScreenerRuns.WithLabelValues(res.Name, status(err)).Inc()
		return
	}

	m.ScreenerRuns.WithLabelValues(res.Name, "success").Inc()
	m.ScreenerDuration.WithLabelValues(res.Name).Observe(res.Duration.Seconds())
	m.ScreenerPassed.WithLabelValues(res.Name).Set(float64(res.Count()))

	outcomes := make(map[string]int)
	for _, v := range res.Verdicts {
		outcomes[v.Outcome()]++
	}
	for outcome, n := range outcomes {
		m.Verdicts.WithLabelValues(res.Name, outcome).Add(float64(n))
	}
}

// RunDone records a full run
func (m *Metrics) RunDone(run *contracts.ScreeningRun, err error) {
	if err != nil {
		m.Runs.WithLabelValues(status(err)).Inc()
		return
	}
	m.Runs.WithLabelValues("success").Inc()
	m.RunDuration.Observe(run.Duration.Seconds())
	m.LastRun.Set(float64(run.StartedAt.Add(run.Duration).Unix()))
}

// DataError counts a data-access failure (marketdata.GuardOptions.OnError)
func (m *Metrics) DataError(op string, _ error) {
	m.DataErrors.WithLabelValues(op).Inc()
}

func status(err error) string {
	if contracts.IsUpstream(err) {
		return "upstream_error"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "error"
}
