package overlay

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/preston-bernstein/match-overlay/internal/api"
	"github.com/preston-bernstein/match-overlay/internal/domain"
	"github.com/preston-bernstein/match-overlay/internal/logging"
)

const defaultRequestTimeout = 10 * time.Second

// Source is the scoring data the overlay displays. *api.Client satisfies it.
type Source interface {
	CurrentMatch(ctx context.Context) (domain.CurrentMatch, error)
	CurrentMatchScore(ctx context.Context) (domain.Score, error)
	MatchDuration(ctx context.Context) (int, error)
	ShouldSwitchTVs(ctx context.Context) (bool, error)
}

// State is what the overlay currently shows.
type State struct {
	LeftVisible  bool                 `json:"leftVisible"`
	RightVisible bool                 `json:"rightVisible"`
	TimeVisible  bool                 `json:"timeVisible"`
	Match        *domain.CurrentMatch `json:"match,omitempty"`
	Score        domain.Score         `json:"score"`
	ClockSeconds int                  `json:"clockSeconds"`
	MatchLength  int                  `json:"matchLengthSeconds"`
	SwitchTVs    bool                 `json:"switchTVs"`
	LastError    string               `json:"lastError,omitempty"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// Config wires an Overlay.
type Config struct {
	Source Source
	Logger *slog.Logger
	// RequestTimeout bounds each refresh; zero uses 10s.
	RequestTimeout time.Duration
	Clock          clockwork.Clock
}

// Overlay reacts to stream events by toggling panels and refreshing data from the Source.
// OnCommand, OnTime, Refresh and Tick belong to the ticking goroutine; Snapshot is safe from any.
type Overlay struct {
	source  Source
	logger  *slog.Logger
	timeout time.Duration
	clock   clockwork.Clock
	base    context.Context
	cancel  context.CancelFunc

	mu    sync.RWMutex
	state State

	match    <-chan api.Result[domain.CurrentMatch]
	score    <-chan api.Result[domain.Score]
	duration <-chan api.Result[int]
	switched <-chan api.Result[bool]
}

// New builds an Overlay with every panel hidden.
func New(cfg Config) *Overlay {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Overlay{
		source:  cfg.Source,
		logger:  cfg.Logger,
		timeout: timeout,
		clock:   clock,
		base:    base,
		cancel:  cancel,
	}
}

// OnCommand applies a panel command. Showing a team panel refreshes the match, showing the clock refreshes its length.
func (o *Overlay) OnCommand(cmd domain.OverlayCommand) {
	o.mu.Lock()
	switch cmd {
	case domain.ShowLeft:
		o.state.LeftVisible = true
	case domain.HideLeft:
		o.state.LeftVisible = false
	case domain.ShowRight:
		o.state.RightVisible = true
	case domain.HideRight:
		o.state.RightVisible = false
	case domain.ShowTime:
		o.state.TimeVisible = true
	case domain.HideTime:
		o.state.TimeVisible = false
	}
	o.mu.Unlock()

	switch cmd {
	case domain.ShowLeft, domain.ShowRight:
		request(o, o.base, &o.match, o.source.CurrentMatch)
		request(o, o.base, &o.switched, o.source.ShouldSwitchTVs)
	case domain.ShowTime:
		request(o, o.base, &o.duration, o.source.MatchDuration)
	}
}

// OnTime records the match clock and refreshes the score.
func (o *Overlay) OnTime(seconds int) {
	o.mu.Lock()
	o.state.ClockSeconds = seconds
	o.mu.Unlock()
	request(o, o.base, &o.score, o.source.CurrentMatchScore)
}

// Refresh requests every kind of data not already in flight, bounded by ctx.
func (o *Overlay) Refresh(ctx context.Context) {
	request(o, ctx, &o.match, o.source.CurrentMatch)
	request(o, ctx, &o.score, o.source.CurrentMatchScore)
	request(o, ctx, &o.duration, o.source.MatchDuration)
	request(o, ctx, &o.switched, o.source.ShouldSwitchTVs)
}

// Tick applies any refresh that has completed. It never blocks.
func (o *Overlay) Tick() {
	if res, ok := collect(&o.match); ok {
		o.apply("current match", res.Err, func(s *State) {
			m := res.Value
			s.Match = &m
		})
	}
	if res, ok := collect(&o.score); ok {
		o.apply("score", res.Err, func(s *State) { s.Score = res.Value })
	}
	if res, ok := collect(&o.duration); ok {
		o.apply("match length", res.Err, func(s *State) { s.MatchLength = res.Value })
	}
	if res, ok := collect(&o.switched); ok {
		o.apply("switch tvs", res.Err, func(s *State) { s.SwitchTVs = res.Value })
	}
}

// Snapshot returns a copy of the current display state.
func (o *Overlay) Snapshot() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := o.state
	if o.state.Match != nil {
		m := *o.state.Match
		m.Left.Members = slices.Clone(m.Left.Members)
		m.Right.Members = slices.Clone(m.Right.Members)
		out.Match = &m
	}
	return out
}

// Close abandons refreshes started by stream events.
func (o *Overlay) Close() {
	o.cancel()
}

func (o *Overlay) apply(kind string, err error, update func(*State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.state.LastError = kind + ": " + err.Error()
		logging.Warn(o.logger, "overlay refresh failed",
			"kind", kind,
			"unreachable", api.IsNetworkError(err),
			"error", err,
		)
		return
	}
	update(&o.state)
	o.state.UpdatedAt = o.clock.Now()
}

// request starts fn unless a request of the same kind is still pending in slot.
func request[T any](o *Overlay, parent context.Context, slot *<-chan api.Result[T], fn func(context.Context) (T, error)) {
	if *slot != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	*slot = api.Async(ctx, func(ctx context.Context) (T, error) {
		defer cancel()
		return fn(ctx)
	})
}

func collect[T any](slot *<-chan api.Result[T]) (api.Result[T], bool) {
	if *slot == nil {
		return api.Result[T]{}, false
	}
	select {
	case res := <-*slot:
		*slot = nil
		return res, true
	default:
		return api.Result[T]{}, false
	}
}
