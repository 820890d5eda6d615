package resultstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/redis"
)

var asOf = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func sampleRun() *contracts.ScreeningRun {
	return &contracts.ScreeningRun{
		RunID:     "run-1",
		AsOf:      asOf,
		Benchmark: "SPY",
		Results: []*contracts.ScreenerResult{
			{Name: "Up on Volume", Tickers: []string{"NVDA", "AVGO"}, Evaluated: 3},
		},
	}
}

func TestStore_InProcess(t *testing.T) {
	s := New(nil, 0, nil)
	ctx := context.Background()

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, ErrNoRun)

	run := sampleRun()
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Same(t, run, got)

	got, err = s.ForDate(ctx, asOf)
	require.NoError(t, err)
	assert.Same(t, run, got)

	_, err = s.ForDate(ctx, asOf.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestStore_ReadsThroughRedis(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := New(redis.NewCache(redis.Wrap(rdb), "screener"), time.Hour, nil)

	payload, err := json.Marshal(sampleRun())
	require.NoError(t, err)
	mock.ExpectGet("screener:cache:run:latest").SetVal(string(payload))

	got, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, []string{"NVDA", "AVGO"}, got.Tickers()["Up on Volume"])
	assert.True(t, asOf.Equal(got.AsOf))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_NotifiesAfterSave(t *testing.T) {
	s := New(nil, 0, nil)
	ctx := context.Background()

	var seen []string
	s.OnSave(func(run *contracts.ScreeningRun) {
		// 알림 시점에 이미 조회 가능해야 함
		latest, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Same(t, run, latest)

		byDate, err := s.ForDate(ctx, run.AsOf)
		require.NoError(t, err)
		assert.Same(t, run, byDate)

		seen = append(seen, run.RunID)
	})

	require.NoError(t, s.Save(ctx, sampleRun()))
	assert.Equal(t, []string{"run-1"}, seen)
}

func TestStore_NotifiesWhenRedisFails(t *testing.T) {
	// 기대값 없음: 모든 Redis 명령이 실패
	rdb, _ := redismock.NewClientMock()
	s := New(redis.NewCache(redis.Wrap(rdb), "screener"), time.Hour, nil)

	notified := 0
	s.OnSave(func(*contracts.ScreeningRun) { notified++ })

	assert.Error(t, s.Save(context.Background(), sampleRun()))
	assert.Equal(t, 1, notified)

	got, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
}

func TestStore_SaveRejectsNil(t *testing.T) {
	assert.Error(t, New(nil, 0, nil).Save(context.Background(), nil))
}
