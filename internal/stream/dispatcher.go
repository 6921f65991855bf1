package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/match-overlay/internal/domain"
	"github.com/preston-bernstein/match-overlay/internal/logging"
	"github.com/preston-bernstein/match-overlay/internal/metrics"
)

// Stream names used in logs and metrics.
const (
	StreamOverlay = "overlay"
	StreamTime    = "time"
)

var (
	// ErrStopped is returned by Start once the dispatcher has been stopped.
	ErrStopped = errors.New("stream: dispatcher stopped")
	// ErrStarted is returned by a second Start.
	ErrStarted = errors.New("stream: dispatcher already started")
)

// Handler receives decoded stream events on the ticking goroutine.
type Handler interface {
	OnCommand(cmd domain.OverlayCommand)
	OnTime(seconds int)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields ignore the event.
type HandlerFuncs struct {
	Command func(domain.OverlayCommand)
	Time    func(int)
}

func (h HandlerFuncs) OnCommand(cmd domain.OverlayCommand) {
	if h.Command != nil {
		h.Command(cmd)
	}
}

func (h HandlerFuncs) OnTime(seconds int) {
	if h.Time != nil {
		h.Time(seconds)
	}
}

// Config wires a dispatcher to its stream addresses and collaborators.
type Config struct {
	OverlayURL string
	TimeURL    string
	// Dialer defaults to WSDialer.
	Dialer  Dialer
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	// OnStop runs once when the dispatcher stops, whatever the cause.
	OnStop func()
}

// Dispatcher owns the overlay and time streams and delivers their frames to a Handler.
// Start, Tick and Stop must be called from a single goroutine; Active is safe from any.
type Dispatcher struct {
	overlayURL string
	timeURL    string
	dialer     Dialer
	handler    Handler
	logger     *slog.Logger
	metrics    *metrics.Recorder
	onStop     func()

	overlay Peer
	time    Peer

	started  bool
	active   atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
}

// New builds an idle dispatcher. Call Start to open the streams.
func New(cfg Config, handler Handler) *Dispatcher {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = WSDialer{}
	}
	if handler == nil {
		handler = HandlerFuncs{}
	}
	return &Dispatcher{
		overlayURL: cfg.OverlayURL,
		timeURL:    cfg.TimeURL,
		dialer:     dialer,
		handler:    handler,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		onStop:     cfg.OnStop,
	}
}

// Start opens both streams. If either open fails the dispatcher is stopped and the error returned.
func (d *Dispatcher) Start() error {
	if d.stopped.Load() {
		return ErrStopped
	}
	if d.started {
		return ErrStarted
	}
	d.started = true

	overlay, err := d.dial(StreamOverlay, d.overlayURL)
	if err != nil {
		d.Stop()
		return err
	}
	d.overlay = overlay

	timePeer, err := d.dial(StreamTime, d.timeURL)
	if err != nil {
		d.Stop()
		return err
	}
	d.time = timePeer

	d.active.Store(true)
	logging.Info(d.logger, "streams connecting",
		"overlay_url", d.overlayURL,
		"time_url", d.timeURL,
	)
	return nil
}

func (d *Dispatcher) dial(stream, addr string) (Peer, error) {
	peer, err := d.dialer.Dial(addr)
	if err != nil {
		logging.Error(d.logger, "unable to open stream", err, logging.FieldStream, stream)
		return nil, fmt.Errorf("stream: open %s: %w", stream, err)
	}
	return peer, nil
}

// Tick services the overlay stream then the time stream, draining every captured frame.
// A closed stream stops the dispatcher; later ticks do nothing.
func (d *Dispatcher) Tick() {
	if !d.active.Load() {
		return
	}
	d.service(StreamOverlay, d.overlay, d.dispatchCommand)
	if !d.active.Load() {
		return
	}
	d.service(StreamTime, d.time, d.dispatchTime)
}

// Active reports whether both streams are open or still connecting.
func (d *Dispatcher) Active() bool {
	return d.active.Load()
}

// Stop closes both streams and runs OnStop. Only the first call has any effect.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.active.Store(false)
		d.stopped.Store(true)
		d.closePeer(StreamOverlay, d.overlay)
		d.closePeer(StreamTime, d.time)
		logging.Info(d.logger, "streams stopped")
		if d.onStop != nil {
			d.onStop()
		}
	})
}

func (d *Dispatcher) service(stream string, peer Peer, dispatch func([]byte)) {
	peer.Poll()
	switch peer.State() {
	case StateOpen:
		// A handler may stop the dispatcher mid-drain.
		for d.active.Load() {
			frame, ok := peer.Next()
			if !ok {
				return
			}
			dispatch(frame)
		}
	case StateClosed:
		logging.Error(d.logger, "stream closed", nil,
			logging.FieldStream, stream,
			logging.FieldCloseCode, peer.CloseCode(),
			"reason", peer.CloseReason(),
		)
		d.Stop()
	}
}

func (d *Dispatcher) dispatchCommand(frame []byte) {
	text := decodeText(frame)
	cmd, ok := domain.ParseOverlayCommand(text)
	if !ok {
		logging.Warn(d.logger, "unknown overlay command", logging.FieldPayload, text)
		d.metrics.RecordDecodeFailure(StreamOverlay)
		return
	}
	d.metrics.RecordStreamFrame(StreamOverlay)
	logging.Debug(d.logger, "overlay command", logging.FieldCommand, cmd.String())
	d.handler.OnCommand(cmd)
}

func (d *Dispatcher) dispatchTime(frame []byte) {
	text := decodeText(frame)
	seconds, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		logging.Warn(d.logger, "malformed time payload", logging.FieldPayload, text)
		d.metrics.RecordDecodeFailure(StreamTime)
		return
	}
	d.metrics.RecordStreamFrame(StreamTime)
	d.handler.OnTime(seconds)
}

func (d *Dispatcher) closePeer(stream string, peer Peer) {
	if peer == nil {
		return
	}
	if err := peer.Close(); err != nil {
		logging.Debug(d.logger, "stream close failed", logging.FieldStream, stream, "error", err)
	}
}

func decodeText(frame []byte) string {
	return strings.ToValidUTF8(string(frame), "\uFFFD")
}
