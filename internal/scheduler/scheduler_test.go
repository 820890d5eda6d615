package scheduler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/pkg/config"
	"github.com/wonny/ibdscreener/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	calls    atomic.Int32
	failures int32 // 처음 N회 실패
	err      error
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return j.err
	}
	return nil
}

func newScheduler() *Scheduler {
	return New(logger.Nop(), WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "0 30 17 * * 1-5"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 5m"}))

	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 5m"}), "duplicate")
	assert.Error(t, s.AddJob(&fakeJob{name: "c", schedule: "30 17 * * 1-5"}), "five-field expression needs seconds")
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRunJobSync_Retries(t *testing.T) {
	s := newScheduler()
	job := &fakeJob{name: "flaky", schedule: "@daily", failures: 2, err: errors.New("timeout")}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJobSync(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(3), job.calls.Load())

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	require.NotNil(t, stats.LastSuccess)
}

func TestRunJobSync_GivesUp(t *testing.T) {
	s := newScheduler()
	job := &fakeJob{name: "down", schedule: "@daily", failures: 100, err: errors.New("refused")}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJobSync(context.Background(), "down")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "refused", res.Error)
	assert.Equal(t, int32(3), job.calls.Load()) // 1 + 2 retries

	history, err := s.GetJobHistory("down")
	require.NoError(t, err)
	assert.Len(t, history.GetFailedResults(), 1)
	assert.Equal(t, 0.0, history.GetSuccessRate())
}

func TestRunJobSync_WarnsOnlyBeforeARetry(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&config.Config{LogLevel: "debug", LogFormat: "json"}, &buf)
	s := New(log, WithRetry(2, time.Millisecond))
	require.NoError(t, s.AddJob(&fakeJob{name: "down", schedule: "@daily", failures: 100, err: errors.New("refused")}))

	_, err := s.RunJobSync(context.Background(), "down")
	require.NoError(t, err)

	// 3회 시도, 재시도 경고는 2회 + 최종 실패 1회
	assert.Equal(t, 2, strings.Count(buf.String(), "Job execution failed, retrying"))
	assert.Equal(t, 1, strings.Count(buf.String(), "Job failed after all retries"))
}

func TestRunJobSync_PermanentSkipsRetries(t *testing.T) {
	s := newScheduler()
	job := &fakeJob{name: "broken", schedule: "@daily", failures: 100, err: Permanent(errors.New("bad config"))}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJobSync(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestRunJobSync_Unknown(t *testing.T) {
	_, err := newScheduler().RunJobSync(context.Background(), "nope")
	assert.Error(t, err)
}

func TestNextRun(t *testing.T) {
	s := newScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "tick", schedule: "@every 1h"}))

	s.Start()
	defer s.Stop()

	next, err := s.NextRun("tick")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, 5*time.Second)
}

func TestJobHistory_KeepsLast100(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(10), 10)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
