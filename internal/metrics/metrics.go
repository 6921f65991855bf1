package metrics

import (
	"sync"
	"time"
)

type endpointStats struct {
	calls           int
	errors          int
	lastCallLatency time.Duration
}

type streamStats struct {
	frames         int
	decodeFailures int
}

// Recorder captures lightweight, in-memory metrics about API calls, stream frames and host ticks.
// When built by Setup it also forwards every observation to OpenTelemetry instruments.
type Recorder struct {
	mu        sync.Mutex
	endpoints map[string]*endpointStats
	streams   map[string]*streamStats
	ticks     int
	otel      *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		endpoints: make(map[string]*endpointStats),
		streams:   make(map[string]*streamStats),
		otel:      otel,
	}
}

// RecordAPICall increments counters for a scoring server request and stores the last observed latency.
func (r *Recorder) RecordAPICall(endpoint string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	stats := r.endpointLocked(endpoint)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordAPICall(endpoint, duration, err)
	}
}

// RecordStreamFrame counts a frame delivered to a consumer.
func (r *Recorder) RecordStreamFrame(stream string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.streamLocked(stream).frames++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordStreamFrame(stream)
	}
}

// RecordDecodeFailure counts a frame that could not be decoded and was skipped.
func (r *Recorder) RecordDecodeFailure(stream string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.streamLocked(stream).decodeFailures++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordDecodeFailure(stream)
	}
}

// RecordTick tracks one host loop iteration.
func (r *Recorder) RecordTick(duration time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.ticks++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordTick(duration)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics for the status surface.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// APICalls returns the total requests recorded for an endpoint.
func (r *Recorder) APICalls(endpoint string) int {
	return r.Snapshot(endpoint).Calls
}

// APIErrors returns the total failed requests recorded for an endpoint.
func (r *Recorder) APIErrors(endpoint string) int {
	return r.Snapshot(endpoint).Errors
}

// StreamFrames returns the number of frames delivered on a stream.
func (r *Recorder) StreamFrames(stream string) int {
	return r.StreamSnapshot(stream).Frames
}

// DecodeFailures returns the number of skipped frames on a stream.
func (r *Recorder) DecodeFailures(stream string) int {
	return r.StreamSnapshot(stream).DecodeFailures
}

// Ticks returns the number of host loop iterations recorded.
func (r *Recorder) Ticks() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

// Snapshot is a copy of the current stats for one endpoint.
type Snapshot struct {
	Calls           int
	Errors          int
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(endpoint string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.endpoints[endpoint]
	if !ok {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		LastCallLatency: stats.lastCallLatency,
	}
}

// StreamSnapshot is a copy of the current stats for one stream.
type StreamSnapshot struct {
	Frames         int
	DecodeFailures int
}

func (r *Recorder) StreamSnapshot(stream string) StreamSnapshot {
	if r == nil {
		return StreamSnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.streams[stream]
	if !ok {
		return StreamSnapshot{}
	}
	return StreamSnapshot{Frames: stats.frames, DecodeFailures: stats.decodeFailures}
}

func (r *Recorder) endpointLocked(endpoint string) *endpointStats {
	stats, ok := r.endpoints[endpoint]
	if !ok {
		stats = &endpointStats{}
		r.endpoints[endpoint] = stats
	}
	return stats
}

func (r *Recorder) streamLocked(stream string) *streamStats {
	stats, ok := r.streams[stream]
	if !ok {
		stats = &streamStats{}
		r.streams[stream] = stats
	}
	return stats
}
