package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medivet/vetcare-api/pkg/clock"
	"github.com/medivet/vetcare-api/pkg/logger"
)

type countingJob struct {
	runs    atomic.Int32
	block   chan struct{} // when non-nil, Run blocks until closed
	started chan struct{} // when non-nil, signalled once per Run entry
}

func (j *countingJob) Run(ctx context.Context) {
	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
		}
	}
	j.runs.Add(1)
}

func newScheduler(job Job, cfg Config) *Scheduler {
	log := logger.New(&logger.Config{Level: logger.ErrorLevel, TimeFormat: time.RFC3339, Output: io.Discard})
	return New(job, cfg, clock.New(), log)
}

func TestSchedulerFiresOnInterval(t *testing.T) {
	job := &countingJob{}
	s := newScheduler(job, Config{Interval: 10 * time.Millisecond})

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.True(t, s.Running())
	assert.False(t, s.NextRun().IsZero())
	assert.False(t, s.LastRun().IsZero())
}

func TestSchedulerStopWaitsForInFlightRun(t *testing.T) {
	job := &countingJob{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newScheduler(job, Config{Interval: 5 * time.Millisecond})

	s.Start(context.Background())
	<-job.started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	assert.False(t, s.Running())
	assert.GreaterOrEqual(t, job.runs.Load(), int32(1))
}

func TestSchedulerSingleFlight(t *testing.T) {
	job := &countingJob{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newScheduler(job, Config{Interval: time.Hour})

	go s.Trigger(context.Background())
	<-job.started

	// a second trigger while the first is still running is dropped
	assert.False(t, s.Trigger(context.Background()))

	close(job.block)
	require.Eventually(t, func() bool {
		return job.runs.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// gate is free again once the run finishes
	assert.True(t, s.Trigger(context.Background()))
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestSchedulerTriggerWithoutStart(t *testing.T) {
	job := &countingJob{}
	s := newScheduler(job, Config{Interval: time.Hour})

	assert.True(t, s.Trigger(context.Background()))
	assert.Equal(t, int32(1), job.runs.Load())
	assert.False(t, s.Running())
}

func TestSchedulerMisfireSkipped(t *testing.T) {
	job := &countingJob{}
	clk := clock.NewMock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	log := logger.New(&logger.Config{Level: logger.ErrorLevel, TimeFormat: time.RFC3339, Output: io.Discard})
	s := New(job, Config{Interval: time.Minute, MisfireGrace: 15 * time.Minute}, clk, log)

	// a tick arriving 20 minutes after its scheduled slot is dropped
	s.nextRun = clk.Now().Add(-20 * time.Minute)
	s.tick(context.Background())
	assert.Equal(t, int32(0), job.runs.Load())

	// a tick within the grace window fires
	s.nextRun = clk.Now().Add(-5 * time.Minute)
	s.tick(context.Background())
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	job := &countingJob{}
	s := newScheduler(job, Config{Interval: time.Hour})

	s.Start(context.Background())
	s.Start(context.Background())
	defer s.Stop()

	assert.True(t, s.Running())
}

func TestSchedulerDefaults(t *testing.T) {
	s := newScheduler(&countingJob{}, Config{})
	assert.Equal(t, time.Minute, s.interval)
	assert.Equal(t, 15*time.Minute, s.misfireGrace)
}
