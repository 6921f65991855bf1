package hostloop

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/preston-bernstein/match-overlay/internal/logging"
	"github.com/preston-bernstein/match-overlay/internal/metrics"
)

const defaultInterval = 16 * time.Millisecond

// Step is one piece of per-tick work.
type Step interface {
	Tick()
}

// StepFunc adapts a function to Step.
type StepFunc func()

func (f StepFunc) Tick() { f() }

// Loop runs its steps on a single goroutine, in registration order, once per interval.
type Loop struct {
	steps    []Step
	logger   *slog.Logger
	metrics  *metrics.Recorder
	interval time.Duration
	clock    clockwork.Clock

	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the loop's recent activity.
type Status struct {
	Running          bool
	Ticks            int64
	LastTick         time.Time
	LastTickDuration time.Duration
}

// New constructs a Loop. A non-positive interval uses 16ms.
func New(interval time.Duration, logger *slog.Logger, recorder *metrics.Recorder, steps ...Step) *Loop {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Loop{
		steps:    steps,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
}

// Start launches the tick goroutine. It runs until ctx is cancelled or Stop is called.
// Later calls, and calls after Stop, do nothing.
func (l *Loop) Start(ctx context.Context) {
	l.startMu.Lock()
	defer l.startMu.Unlock()
	if l.started {
		return
	}
	select {
	case <-l.done:
		return
	default:
	}
	l.started = true

	ticker := l.clock.NewTicker(l.interval)
	l.setRunning(true)

	go func() {
		defer close(l.exited)
		defer l.setRunning(false)
		defer ticker.Stop()

		logging.Info(l.logger, "host loop started",
			logging.FieldDurationMS, l.interval.Milliseconds(),
			logging.FieldCount, len(l.steps),
		)
		for {
			select {
			case <-ctx.Done():
				logging.Info(l.logger, "host loop stopped")
				return
			case <-l.done:
				logging.Info(l.logger, "host loop stopped")
				return
			case <-ticker.Chan():
				l.tickOnce()
			}
		}
	}()
}

// Stop halts the loop and waits for the in-progress tick to finish, bounded by ctx.
func (l *Loop) Stop(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.done)
	})

	l.startMu.Lock()
	started := l.started
	l.startMu.Unlock()
	if !started {
		return nil
	}

	select {
	case <-l.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) tickOnce() {
	start := l.clock.Now()
	for _, step := range l.steps {
		step.Tick()
	}
	elapsed := l.clock.Since(start)
	l.metrics.RecordTick(elapsed)

	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	l.status.Ticks++
	l.status.LastTick = start
	l.status.LastTickDuration = elapsed
}

func (l *Loop) setRunning(running bool) {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	l.status.Running = running
}

// Status returns a snapshot of the loop's activity.
func (l *Loop) Status() Status {
	l.statusMu.RLock()
	defer l.statusMu.RUnlock()
	return l.status
}
