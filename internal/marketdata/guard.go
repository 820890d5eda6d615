package marketdata

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// GuardOptions configures Guard
type GuardOptions struct {
	Serialize       bool    // 동시 읽기가 안전하지 않은 저장소
	ReadsPerSecond  float64 // 0 = unlimited
	Burst           int
	BreakerFailures int // consecutive failures before the breaker opens, 0 = no breaker
	BreakerTimeout  time.Duration

	// OnError is called for every data-access failure (metrics hook)
	OnError func(op string, err error)
}

// Guard decorates a MarketData store with serialization, read throttling
// and a circuit breaker
// ⭐ SSOT: 데이터 접근 보호(직렬화/속도 제한/서킷 브레이커)는 여기서만
//
// ErrNotFound passes through untouched and never counts as a breaker
// failure. Every other failure comes back as a contracts.UpstreamError.
type Guard struct {
	next    contracts.MarketData
	opts    GuardOptions
	mu      sync.Mutex
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewGuard wraps next
func NewGuard(next contracts.MarketData, opts GuardOptions, log *logger.Logger) *Guard {
	if log == nil {
		log = logger.Nop()
	}
	g := &Guard{
		next:   next,
		opts:   opts,
		logger: log.WithComponent("marketdata"),
	}

	if opts.ReadsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.ReadsPerSecond), burst)
	}

	if opts.BreakerFailures > 0 {
		st := gobreaker.Settings{
			Name:    "marketdata",
			Timeout: opts.BreakerTimeout,
		}
		st.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(opts.BreakerFailures)
		}
		st.IsSuccessful = func(err error) bool {
			return err == nil || errors.Is(err, contracts.ErrNotFound)
		}
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			g.logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		}
		g.breaker = gobreaker.NewCircuitBreaker(st)
	}

	return g
}

// BreakerState reports the breaker state ("closed" when disabled)
func (g *Guard) BreakerState() string {
	if g.breaker == nil {
		return gobreaker.StateClosed.String()
	}
	return g.breaker.State().String()
}

func guarded[T any](ctx context.Context, g *Guard, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return zero, g.fail(op, err)
		}
	}

	if g.opts.Serialize {
		g.mu.Lock()
		defer g.mu.Unlock()
	}

	if g.breaker == nil {
		v, err := fn(ctx)
		if err != nil {
			return zero, g.fail(op, err)
		}
		return v, nil
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, g.fail(op, err)
	}
	return out.(T), nil
}

func (g *Guard) fail(op string, err error) error {
	if errors.Is(err, contracts.ErrNotFound) {
		return err
	}
	if g.opts.OnError != nil {
		g.opts.OnError(op, err)
	}
	return contracts.Upstream(op, err)
}

func (g *Guard) ListTickers(ctx context.Context) ([]string, error) {
	return guarded(ctx, g, "list_tickers", g.next.ListTickers)
}

func (g *Guard) PriceHistory(ctx context.Context, ticker string, lookbackBars int) (*contracts.PriceSeries, error) {
	return guarded(ctx, g, "price_history", func(ctx context.Context) (*contracts.PriceSeries, error) {
		return g.next.PriceHistory(ctx, ticker, lookbackBars)
	})
}

func (g *Guard) Rating(ctx context.Context, ticker string) (*contracts.PrecomputedRating, error) {
	return guarded(ctx, g, "rating", func(ctx context.Context) (*contracts.PrecomputedRating, error) {
		return g.next.Rating(ctx, ticker)
	})
}

func (g *Guard) AllRatings(ctx context.Context) (map[string]*contracts.PrecomputedRating, error) {
	return guarded(ctx, g, "all_ratings", g.next.AllRatings)
}

func (g *Guard) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	return guarded(ctx, g, "company_profile", func(ctx context.Context) (*contracts.CompanyProfile, error) {
		return g.next.CompanyProfile(ctx, ticker)
	})
}

func (g *Guard) AllEPSComponents(ctx context.Context) (map[string]*contracts.EPSComponents, error) {
	return guarded(ctx, g, "all_eps_components", g.next.AllEPSComponents)
}

func (g *Guard) SectorRotationTable(ctx context.Context) ([]contracts.SectorRotationEntry, error) {
	return guarded(ctx, g, "sector_rotation", g.next.SectorRotationTable)
}

func (g *Guard) LatestPriceDate(ctx context.Context) (time.Time, error) {
	return guarded(ctx, g, "latest_price_date", g.next.LatestPriceDate)
}

var _ contracts.MarketData = (*Guard)(nil)
