package screener

import (
	"context"
	"errors"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/internal/indicators"
)

// session is the per-run view every screener evaluates against
type session struct {
	src       *runSource
	calc      *indicators.Calculator
	benchmark string
}

func (e *Engine) newSession() *session {
	src := newRunSource(e.data)
	return &session{
		src:       src,
		calc:      indicators.NewCalculator(src, e.logger).WithRSWindow(e.rsWindow()),
		benchmark: e.opts.Benchmark,
	}
}

// rating returns nil when the ticker has no rating row
func (s *session) rating(ctx context.Context, ticker string) (*contracts.PrecomputedRating, error) {
	all, err := s.src.AllRatings(ctx)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, contracts.Upstream("all_ratings", err)
	}
	return all[ticker], nil
}

// eps returns nil when the ticker has no EPS row
func (s *session) eps(ctx context.Context, ticker string) (*contracts.EPSComponents, error) {
	all, err := s.src.AllEPSComponents(ctx)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, contracts.Upstream("all_eps_components", err)
	}
	return all[ticker], nil
}

// profile returns nil when the ticker has no profile
func (s *session) profile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	p, err := s.src.CompanyProfile(ctx, ticker)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, contracts.Upstream("company_profile", err)
	}
	return p, nil
}
