package resultstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/logger"
	"github.com/wonny/ibdscreener/pkg/redis"
)

// ErrNoRun is returned when no run has been stored yet
var ErrNoRun = errors.New("no screening run stored")

// Store keeps completed screening runs for the API and report
// ⭐ SSOT: 스크리닝 결과 보관은 여기서만
//
// Runs are cached in Redis under run:<as-of date> and run:latest.
// The last run is also held in process so a disabled or unreachable
// Redis still serves /api/runs/latest.
type Store struct {
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger

	mu        sync.RWMutex
	latest    *contracts.ScreeningRun
	byDate    map[string]*contracts.ScreeningRun
	listeners []func(*contracts.ScreeningRun)
}

// New creates a store. A nil cache keeps runs in process only.
func New(cache *redis.Cache, ttl time.Duration, log *logger.Logger) *Store {
	if ttl <= 0 {
		ttl = redis.TTLRun
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		cache:  cache,
		ttl:    ttl,
		logger: log.WithComponent("resultstore"),
		byDate: make(map[string]*contracts.ScreeningRun),
	}
}

// OnSave registers fn to be called after every Save (websocket push).
// fn runs on the saving goroutine and must not block.
func (s *Store) OnSave(fn func(*contracts.ScreeningRun)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Save records run as the latest and under its as-of date, then notifies
// listeners. Redis failures are logged; the in-process copy is always
// updated, so listeners see the run through Latest either way.
func (s *Store) Save(ctx context.Context, run *contracts.ScreeningRun) error {
	if run == nil {
		return errors.New("nil screening run")
	}

	s.mu.Lock()
	s.latest = run
	s.byDate[redis.RunKey(run.AsOf)] = run
	listeners := append(([]func(*contracts.ScreeningRun))(nil), s.listeners...)
	s.mu.Unlock()

	err := s.cacheRun(ctx, run)

	for _, fn := range listeners {
		fn(run)
	}
	return err
}

func (s *Store) cacheRun(ctx context.Context, run *contracts.ScreeningRun) error {
	if s.cache == nil {
		return nil
	}
	err := s.cache.SetMany(ctx, map[string]interface{}{
		redis.RunKey(run.AsOf): run,
		redis.LatestRunKey():   run,
	}, s.ttl)
	if err != nil {
		s.logger.WithError(err).WithField("run_id", run.RunID).Warn("Failed to cache screening run")
		return err
	}
	return nil
}

// Latest returns the most recent run
func (s *Store) Latest(ctx context.Context) (*contracts.ScreeningRun, error) {
	return s.get(ctx, redis.LatestRunKey(), func() *contracts.ScreeningRun { return s.latest })
}

// ForDate returns the run whose latest price date is asOf
func (s *Store) ForDate(ctx context.Context, asOf time.Time) (*contracts.ScreeningRun, error) {
	key := redis.RunKey(asOf)
	return s.get(ctx, key, func() *contracts.ScreeningRun { return s.byDate[key] })
}

func (s *Store) get(ctx context.Context, key string, local func() *contracts.ScreeningRun) (*contracts.ScreeningRun, error) {
	s.mu.RLock()
	run := local()
	s.mu.RUnlock()
	if run != nil {
		return run, nil
	}

	if s.cache != nil {
		var cached contracts.ScreeningRun
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to read cached screening run")
		}
		if found {
			return &cached, nil
		}
	}
	return nil, ErrNoRun
}
