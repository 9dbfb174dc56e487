package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lexhaven/reminder-gateway/pkg/logger"
)

// BatchProcessor is what the scheduler drives on each tick.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) BatchResult
}

type SchedulerConfig struct {
	PollInterval time.Duration
	// Dispatch is permitted while the local hour in Timezone is inside
	// [WindowStartHour, WindowEndHour).
	WindowStartHour int
	WindowEndHour   int
	Timezone        string
}

// Scheduler invokes the worker on a fixed cadence, gated by the configured
// send window. It drives at most one ProcessBatch at a time from its own
// timer; other invocation paths (the manual trigger endpoint) may still race
// with it, which the worker's per-row locking absorbs.
type Scheduler struct {
	worker   BatchProcessor
	config   SchedulerConfig
	location *time.Location
	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(worker BatchProcessor, config SchedulerConfig) *Scheduler {
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Minute
	}
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		logger.Error("invalid dispatch timezone, falling back to UTC", "timezone", config.Timezone, "error", err)
		loc = time.UTC
	}
	return &Scheduler{
		worker:   worker,
		config:   config,
		location: loc,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the polling loop. One invocation runs immediately so a fresh
// process does not wait a full interval before the first drain.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Info("reminder scheduler starting",
		"poll_interval", s.config.PollInterval.String(),
		"window_start_hour", s.config.WindowStartHour,
		"window_end_hour", s.config.WindowEndHour,
		"timezone", s.location.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.tick(ctx)

		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.tick(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the timer and waits for an in-flight batch to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()
	if !s.InWindow(now) {
		logger.Debug("outside send window, skipping tick", "local_hour", now.In(s.location).Hour())
		return
	}

	// A tick that finds the previous invocation still running skips itself.
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn("previous dispatch still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	s.worker.ProcessBatch(ctx)
}

// InWindow reports whether t falls inside the configured send window,
// evaluated in the scheduler's timezone.
func (s *Scheduler) InWindow(t time.Time) bool {
	hour := t.In(s.location).Hour()
	return hour >= s.config.WindowStartHour && hour < s.config.WindowEndHour
}
