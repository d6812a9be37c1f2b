package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gtaskall/gtaskall/internal/logging"
)

// Default scheduling intervals. The cadence slows down while no one is
// looking at the board and speeds back up on the next visibility change.
const (
	DefaultVisibleInterval = 15 * time.Second
	DefaultHiddenInterval  = 60 * time.Second
	DefaultDebounce        = 2 * time.Second
)

// Runner runs a single sync cycle.
type Runner interface {
	RunCycle(ctx context.Context) error
}

// SchedulerConfig holds scheduling intervals. Zero values fall back to
// the defaults.
type SchedulerConfig struct {
	VisibleInterval time.Duration
	HiddenInterval  time.Duration
	Debounce        time.Duration
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.VisibleInterval <= 0 {
		c.VisibleInterval = DefaultVisibleInterval
	}
	if c.HiddenInterval <= 0 {
		c.HiddenInterval = DefaultHiddenInterval
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	return c
}

// Scheduler drives periodic sync cycles from a single loop. All timing
// decisions live here: the periodic tick, immediate triggers, debounced
// triggers, and the visibility-dependent interval. The runner's own
// in-flight guard drops cycles that would overlap.
type Scheduler struct {
	runner Runner
	logger *slog.Logger
	cfg    SchedulerConfig

	trigger chan struct{}
	nudge   chan struct{}
	visible atomic.Bool

	debounceMu sync.Mutex
	debounce   *time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

// NewScheduler creates a scheduler for the given runner. Call Start to
// begin scheduling.
func NewScheduler(r Runner, logger *slog.Logger, cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		runner:  r,
		logger:  logger,
		cfg:     cfg.withDefaults(),
		trigger: make(chan struct{}, 1),
		nudge:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.visible.Store(true)
	return s
}

// Start runs the scheduling loop until ctx is cancelled or Close is
// called. It runs one cycle immediately, then ticks at the interval for
// the current visibility.
func (s *Scheduler) Start(ctx context.Context) {
	s.run(ctx)

	wasVisible := s.visible.Load()
	interval := s.interval()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-timer.C:
			s.run(ctx)
			timer.Reset(s.interval())
		case <-s.trigger:
			s.run(ctx)
			resetTimer(timer, s.interval())
		case <-s.nudge:
			visible := s.visible.Load()
			if visible && !wasVisible {
				s.run(ctx)
			}
			wasVisible = visible
			resetTimer(timer, s.interval())
		}
	}
}

// TriggerNow requests an immediate cycle. Non-blocking; a trigger that
// arrives while one is already pending is coalesced.
func (s *Scheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// SyncSoon requests a cycle after a short quiet period, coalescing
// bursts of mutations into a single refresh.
func (s *Scheduler) SyncSoon() {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.cfg.Debounce, s.TriggerNow)
}

// OnVisibilityChange switches the tick interval. Becoming visible also
// runs a cycle immediately so the board is fresh when looked at.
func (s *Scheduler) OnVisibilityChange(visible bool) {
	s.visible.Store(visible)
	select {
	case s.nudge <- struct{}{}:
	default:
	}
}

// Close stops the scheduling loop and cancels any pending debounced
// trigger.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.debounceMu.Lock()
		if s.debounce != nil {
			s.debounce.Stop()
			s.debounce = nil
		}
		s.debounceMu.Unlock()
		close(s.done)
	})
}

func (s *Scheduler) interval() time.Duration {
	if s.visible.Load() {
		return s.cfg.VisibleInterval
	}
	return s.cfg.HiddenInterval
}

func (s *Scheduler) run(ctx context.Context) {
	err := s.runner.RunCycle(ctx)
	if err == nil || errors.Is(err, ErrSyncInFlight) || errors.Is(err, context.Canceled) {
		return
	}
	s.logger.Warn("scheduled sync cycle failed",
		logging.Operation("sync_schedule"),
		logging.Err(err))
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
