package teststubs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preston-bernstein/match-overlay/internal/stream"
)

func TestStubPeerRevealsFramesOnPoll(t *testing.T) {
	p := NewStubPeer(stream.StateOpen)
	p.Push("a", "b")
	if _, ok := p.Next(); ok {
		t.Fatalf("expected no frames before poll")
	}
	p.Poll()
	if p.State() != stream.StateOpen {
		t.Fatalf("expected open, got %v", p.State())
	}
	first, _ := p.Next()
	second, _ := p.Next()
	if string(first) != "a" || string(second) != "b" {
		t.Fatalf("unexpected frames %q %q", first, second)
	}
	if p.Pending() != 0 {
		t.Fatalf("expected drained peer")
	}
}

func TestStubPeerCloseCounts(t *testing.T) {
	p := NewStubPeer(stream.StateOpen)
	_ = p.Close()
	_ = p.Close()
	if p.Closes != 2 {
		t.Fatalf("expected two closes recorded, got %d", p.Closes)
	}
	p.Poll()
	if p.State() != stream.StateClosed {
		t.Fatalf("expected closed after close, got %v", p.State())
	}
}

func TestStubDialer(t *testing.T) {
	boom := errors.New("boom")
	peer := NewStubPeer(stream.StateConnecting)
	d := &StubDialer{
		Peers: map[string]*StubPeer{"ws://a": peer},
		Errs:  map[string]error{"ws://b": boom},
	}
	got, err := d.Dial("ws://a")
	if err != nil || got != peer {
		t.Fatalf("expected stub peer, got %v err %v", got, err)
	}
	if _, err := d.Dial("ws://b"); !errors.Is(err, boom) {
		t.Fatalf("expected configured error, got %v", err)
	}
	if _, err := d.Dial("ws://c"); err == nil {
		t.Fatalf("expected error for unknown address")
	}
	if len(d.Dialed) != 3 {
		t.Fatalf("expected 3 dials recorded, got %d", len(d.Dialed))
	}
}

func TestStubSourceGateHonorsContext(t *testing.T) {
	s := &StubSource{Duration: 300, Gate: make(chan struct{})}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := s.MatchDuration(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	close(s.Gate)
	got, err := s.MatchDuration(context.Background())
	if err != nil || got != 300 {
		t.Fatalf("expected 300, got %d err %v", got, err)
	}
	if s.DurationCalls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", s.DurationCalls.Load())
	}
}
