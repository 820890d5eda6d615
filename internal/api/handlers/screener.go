package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/quadrant"
	"github.com/wonny/ibdscreener/internal/report"
	"github.com/wonny/ibdscreener/internal/resultstore"
	"github.com/wonny/ibdscreener/internal/screener"
	"github.com/wonny/ibdscreener/pkg/logger"
	"github.com/wonny/ibdscreener/pkg/redis"
)

// ScreenerHandler handles screening API endpoints
// ⭐ SSOT: 스크리너 API 핸들러는 이 구조체에서만
type ScreenerHandler struct {
	engine     *screener.Engine
	store      *resultstore.Store
	classifier *quadrant.Classifier
	reports    *report.Builder
	limiter    *redis.RateLimiter
	logger     *logger.Logger
}

// NewScreenerHandler creates a new screener handler.
// A nil limiter leaves manual runs unthrottled.
func NewScreenerHandler(
	engine *screener.Engine,
	store *resultstore.Store,
	data contracts.MarketData,
	limiter *redis.RateLimiter,
	log *logger.Logger,
) *ScreenerHandler {
	return &ScreenerHandler{
		engine:     engine,
		store:      store,
		classifier: quadrant.NewClassifier(data, log),
		reports:    report.NewBuilder(data, log),
		limiter:    limiter,
		logger:     log.WithComponent("api"),
	}
}

// ScreenerInfo describes one screener
type ScreenerInfo struct {
	Name    string `json:"name"`
	Heading string `json:"heading"`
}

// ListScreeners returns the screeners in run order
// GET /api/screeners
func (h *ScreenerHandler) ListScreeners(w http.ResponseWriter, r *http.Request) {
	names := h.engine.Names()
	out := make([]ScreenerInfo, len(names))
	for i, n := range names {
		out[i] = ScreenerInfo{Name: n, Heading: screener.DisplayName(n)}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"screeners":   out,
		"config_hash": h.engine.ConfigHash(),
	})
}

// GetScreener returns one screener's result.
// The latest stored run answers unless ?live=true or nothing is stored yet;
// ?verdicts=true keeps per-ticker verdicts in the response.
// GET /api/screeners/{name}
func (h *ScreenerHandler) GetScreener(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]
	if !screener.Known(name) {
		respondError(w, http.StatusNotFound, "Unknown screener: "+name)
		return
	}

	live, _ := strconv.ParseBool(r.URL.Query().Get("live"))
	withVerdicts, _ := strconv.ParseBool(r.URL.Query().Get("verdicts"))

	var res *contracts.ScreenerResult
	if !live {
		if run, err := h.store.Latest(ctx); err == nil {
			res, _ = run.Get(name)
		}
	}
	if res == nil {
		var err error
		res, err = h.engine.Evaluate(ctx, name)
		if err != nil {
			h.fail(w, err, "Screener evaluation failed")
			return
		}
	}

	if !withVerdicts {
		cp := *res
		cp.Verdicts = nil
		res = &cp
	}
	respondJSON(w, http.StatusOK, res)
}

// RunAll triggers a full run, stores it and pushes it to subscribers
// POST /api/screeners/run
func (h *ScreenerHandler) RunAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.limiter != nil {
		allowed, _, err := h.limiter.Allow(ctx, redis.ManualRunLimit)
		if err != nil {
			h.logger.WithError(err).Warn("Rate limit check failed, allowing run")
		} else if !allowed {
			respondError(w, http.StatusTooManyRequests, "Too many manual runs, try again later")
			return
		}
	}

	h.logger.Info("Manual screening run triggered")
	run, err := h.engine.RunAll(ctx)
	if err != nil {
		h.fail(w, err, "Screening run failed")
		return
	}
	if err := h.store.Save(context.WithoutCancel(ctx), run); err != nil {
		h.logger.WithError(err).Warn("Run completed but was not cached")
	}

	respondJSON(w, http.StatusOK, run)
}

// LatestRun returns the most recent stored run
// GET /api/runs/latest
func (h *ScreenerHandler) LatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.Latest(r.Context())
	if errors.Is(err, resultstore.ErrNoRun) {
		respondError(w, http.StatusNotFound, "No screening run yet")
		return
	}
	if err != nil {
		h.fail(w, err, "Failed to load latest run")
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// RunForDate returns the run stored for one latest-price date
// GET /api/runs/{date}
func (h *ScreenerHandler) RunForDate(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["date"]
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date (YYYY-MM-DD): "+raw)
		return
	}

	run, err := h.store.ForDate(r.Context(), asOf)
	if errors.Is(err, resultstore.ErrNoRun) {
		respondError(w, http.StatusNotFound, "No screening run for "+raw)
		return
	}
	if err != nil {
		h.fail(w, err, "Failed to load run")
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// QuadrantResponse is a ticker's industry group quadrant
type QuadrantResponse struct {
	Ticker   string             `json:"ticker"`
	Quadrant contracts.Quadrant `json:"quadrant,omitempty"`
	Color    string             `json:"color"`
	Reason   contracts.Reason   `json:"reason,omitempty"`
}

// GetQuadrant classifies a ticker's industry group
// GET /api/quadrants/{ticker}
func (h *ScreenerHandler) GetQuadrant(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	q, err := h.classifier.ForTicker(r.Context(), ticker)
	if err != nil {
		h.fail(w, err, "Quadrant lookup failed")
		return
	}

	resp := QuadrantResponse{Ticker: ticker, Color: quadrant.DefaultColor, Reason: q.Reason()}
	if v, ok := q.Get(); ok {
		resp.Quadrant = v
		resp.Color = quadrant.Color(v)
	}
	respondJSON(w, http.StatusOK, resp)
}

// LatestReport lays out the latest stored run
// GET /api/report/latest
func (h *ScreenerHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	run, err := h.store.Latest(ctx)
	if errors.Is(err, resultstore.ErrNoRun) {
		respondError(w, http.StatusNotFound, "No screening run yet")
		return
	}
	if err != nil {
		h.fail(w, err, "Failed to load latest run")
		return
	}

	rep, err := h.reports.Build(ctx, run)
	if err != nil {
		h.fail(w, err, "Failed to build report")
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// fail maps data-access failures to 503 and everything else to 500
func (h *ScreenerHandler) fail(w http.ResponseWriter, err error, message string) {
	h.logger.WithError(err).Error(message)
	if contracts.IsUpstream(err) {
		respondError(w, http.StatusServiceUnavailable, message+": market data unavailable")
		return
	}
	respondError(w, http.StatusInternalServerError, message)
}
