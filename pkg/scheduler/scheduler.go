package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/medivet/vetcare-api/pkg/clock"
	"github.com/medivet/vetcare-api/pkg/logger"
)

// Job is a unit of recurring work. Run must be safe to call repeatedly and
// should handle its own errors; the scheduler only controls when it fires.
type Job interface {
	Run(ctx context.Context)
}

type Config struct {
	// Interval between job firings.
	Interval time.Duration
	// MisfireGrace is the maximum lateness a tick may have and still fire.
	// Ticks delayed beyond it (process stall, clock suspend) are dropped
	// rather than fired in a burst.
	MisfireGrace time.Duration
}

// Scheduler fires a single Job on a fixed interval. Overlapping runs are
// collapsed: if a run is still in progress when the next tick arrives, the
// tick is skipped. At most one instance of the job executes at any time,
// including manual triggers.
type Scheduler struct {
	job          Job
	interval     time.Duration
	misfireGrace time.Duration
	clock        clock.Clock
	logger       *logger.Logger

	runMu sync.Mutex // held for the duration of a job run

	mu      sync.RWMutex
	running bool
	nextRun time.Time
	lastRun time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(job Job, cfg Config, clk clock.Clock, log *logger.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MisfireGrace <= 0 {
		cfg.MisfireGrace = 15 * time.Minute
	}
	return &Scheduler{
		job:          job,
		interval:     cfg.Interval,
		misfireGrace: cfg.MisfireGrace,
		clock:        clk,
		logger:       log.WithComponent("scheduler"),
	}
}

// Start launches the tick loop in a goroutine. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.nextRun = s.clock.Now().Add(s.interval)
	s.mu.Unlock()

	s.logger.Info("scheduler started", "interval", s.interval.String())
	go s.loop(ctx)
}

// Stop cancels the loop and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	scheduled := s.nextRun
	s.nextRun = now.Add(s.interval)
	s.mu.Unlock()

	if !scheduled.IsZero() && now.Sub(scheduled) > s.misfireGrace {
		s.logger.Warn("tick misfired past grace window, skipping",
			"scheduled", scheduled.Format(time.RFC3339),
			"now", now.Format(time.RFC3339))
		return
	}

	s.tryRun(ctx)
}

// Trigger fires the job immediately through the same single-flight gate as
// the ticker. It reports whether the job actually ran.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	return s.tryRun(ctx)
}

func (s *Scheduler) tryRun(ctx context.Context) bool {
	if !s.runMu.TryLock() {
		s.logger.Warn("previous run still in progress, skipping")
		return false
	}
	defer s.runMu.Unlock()

	s.job.Run(ctx)

	s.mu.Lock()
	s.lastRun = s.clock.Now()
	s.mu.Unlock()
	return true
}

func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRun
}

func (s *Scheduler) LastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}
