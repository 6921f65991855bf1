package teststubs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/match-overlay/internal/domain"
	"github.com/preston-bernstein/match-overlay/internal/stream"
)

// StubPeer is a scripted stream.Peer. Queued frames become visible on the next Poll.
type StubPeer struct {
	mu     sync.Mutex
	state  stream.State
	queued [][]byte
	frames [][]byte
	polled stream.State

	Code   int
	Reason string
	// OnPoll runs at the start of every Poll, before state is captured.
	OnPoll func(p *StubPeer)

	Polls  int
	Closes int
}

// NewStubPeer returns a peer in the given state.
func NewStubPeer(state stream.State) *StubPeer {
	return &StubPeer{state: state}
}

// Push queues frames for the next Poll.
func (p *StubPeer) Push(frames ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range frames {
		p.queued = append(p.queued, []byte(f))
	}
}

// SetState changes the state captured by the next Poll.
func (p *StubPeer) SetState(state stream.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

func (p *StubPeer) Poll() {
	if p.OnPoll != nil {
		p.OnPoll(p)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Polls++
	p.polled = p.state
	p.frames = append(p.frames, p.queued...)
	p.queued = nil
}

func (p *StubPeer) State() stream.State {
	return p.polled
}

func (p *StubPeer) Next() ([]byte, bool) {
	if len(p.frames) == 0 {
		return nil, false
	}
	f := p.frames[0]
	p.frames = p.frames[1:]
	return f, true
}

// Pending reports captured frames not yet consumed.
func (p *StubPeer) Pending() int {
	return len(p.frames)
}

func (p *StubPeer) CloseCode() int { return p.Code }
func (p *StubPeer) CloseReason() string { return p.Reason }

func (p *StubPeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closes++
	p.state = stream.StateClosed
	return nil
}

// StubDialer hands out peers by address.
type StubDialer struct {
	Peers  map[string]*StubPeer
	Errs   map[string]error
	Dialed []string
}

func (d *StubDialer) Dial(url string) (stream.Peer, error) {
	d.Dialed = append(d.Dialed, url)
	if err, ok := d.Errs[url]; ok {
		return nil, err
	}
	p, ok := d.Peers[url]
	if !ok {
		return nil, errors.New("no stub peer for " + url)
	}
	return p, nil
}

// StubSource is a test double for overlay.Source.
// When Gate is set every call blocks until it is closed or the context ends.
type StubSource struct {
	Match    domain.CurrentMatch
	Score    domain.Score
	Duration int
	Switch   bool
	Err      error
	Gate     chan struct{}

	MatchCalls    atomic.Int32
	ScoreCalls    atomic.Int32
	DurationCalls atomic.Int32
	SwitchCalls   atomic.Int32
}

func (s *StubSource) CurrentMatch(ctx context.Context) (domain.CurrentMatch, error) {
	s.MatchCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return domain.CurrentMatch{}, err
	}
	return s.Match, s.Err
}

func (s *StubSource) CurrentMatchScore(ctx context.Context) (domain.Score, error) {
	s.ScoreCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return domain.Score{}, err
	}
	return s.Score, s.Err
}

func (s *StubSource) MatchDuration(ctx context.Context) (int, error) {
	s.DurationCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return 0, err
	}
	return s.Duration, s.Err
}

func (s *StubSource) ShouldSwitchTVs(ctx context.Context) (bool, error) {
	s.SwitchCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	return s.Switch, s.Err
}

func (s *StubSource) wait(ctx context.Context) error {
	if s.Gate == nil {
		return nil
	}
	select {
	case <-s.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
