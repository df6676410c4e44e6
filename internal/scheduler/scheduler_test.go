package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/folio/pkg/logger"
)

// testJob counts executions and can fail a fixed number of times
type testJob struct {
	name     string
	runs     int32
	failures int32
}

func (j *testJob) Name() string     { return j.name }
func (j *testJob) Schedule() string { return "0 0 0 1 1 *" } // 실질적으로 수동 실행 전용

func (j *testJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("transient failure")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(logger.NewNop())
	s.retryDelay = time.Millisecond
	return s
}

func waitForResult(t *testing.T, s *Scheduler, job string) JobResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if result, ok := s.LastResult(job); ok {
			return result
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no result recorded for job %s", job)
	return JobResult{}
}

func TestAddJobDuplicate(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&testJob{name: "refresh"}))
	assert.Error(t, s.AddJob(&testJob{name: "refresh"}))
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("missing"))
}

func TestRunJobSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &testJob{name: "refresh"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("refresh"))
	result := waitForResult(t, s, "refresh")

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.EqualValues(t, 1, atomic.LoadInt32(&job.runs))
}

func TestRunJobRetriesTransientFailure(t *testing.T) {
	s := newTestScheduler()
	job := &testJob{name: "refresh", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("refresh"))
	result := waitForResult(t, s, "refresh")

	// Two failures then success on the third attempt
	assert.True(t, result.Success)
	assert.EqualValues(t, 3, atomic.LoadInt32(&job.runs))
}

func TestRunJobExhaustsRetries(t *testing.T) {
	s := newTestScheduler()
	job := &testJob{name: "refresh", failures: 100}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("refresh"))
	result := waitForResult(t, s, "refresh")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "transient failure")
	// Initial attempt + maxRetries
	assert.EqualValues(t, 4, atomic.LoadInt32(&job.runs))
}
