// Package capture drives a vicon.FrameReader on a fixed interval, keeps the
// latest frame for readers such as the HTTP and gRPC services, and fans each
// frame out to sinks.
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/banshee-data/mocap.stream/internal/monitoring"
	"github.com/banshee-data/mocap.stream/internal/timeutil"
	"github.com/banshee-data/mocap.stream/internal/vicon"
)

// Sink receives every successfully polled frame. HandleFrame runs on the
// polling goroutine and should not block.
type Sink interface {
	HandleFrame(f Frame) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(f Frame) error

func (fn SinkFunc) HandleFrame(f Frame) error { return fn(f) }

// Config configures a Poller.
type Config struct {
	Kind     vicon.RotationKind
	Interval time.Duration
	Clock    timeutil.Clock
}

// Stats counts poller activity since start.
type Stats struct {
	Frames       uint64    `json:"frames"`
	Errors       uint64    `json:"errors"`
	SinkErrors   uint64    `json:"sink_errors"`
	EmptyFrames  uint64    `json:"empty_frames"`
	LastSubjects int       `json:"last_subjects"`
	LastFrameAt  time.Time `json:"last_frame_at"`
	LastError    string    `json:"last_error,omitempty"`
}

// Poller owns a FrameReader. Only the Poller calls ReadFrameSubjects, so a
// System can be used without additional locking.
type Poller struct {
	reader   vicon.FrameReader
	kind     vicon.RotationKind
	interval time.Duration
	clock    timeutil.Clock

	mu        sync.RWMutex
	sinks     []Sink
	latest    Frame
	hasLatest bool
	seq       uint64
	stats     Stats
	failing   bool
}

// NewPoller returns a Poller reading from reader. A zero Interval polls every
// 10ms; a nil Clock uses the real clock.
func NewPoller(reader vicon.FrameReader, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Poller{
		reader:   reader,
		kind:     cfg.Kind,
		interval: cfg.Interval,
		clock:    cfg.Clock,
	}
}

// AddSink registers s to receive subsequent frames.
func (p *Poller) AddSink(s Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, s)
}

// Kind returns the rotation representation requested on every poll.
func (p *Poller) Kind() vicon.RotationKind { return p.kind }

// PollOnce reads one frame, records it as the latest, and hands it to every
// sink. A read error is counted and returned; it does not stop the poller.
func (p *Poller) PollOnce() (Frame, error) {
	subjects, err := p.reader.ReadFrameSubjects(p.kind)
	now := p.clock.Now()

	p.mu.Lock()
	if err != nil {
		p.stats.Errors++
		p.stats.LastError = err.Error()
		first := !p.failing
		p.failing = true
		p.mu.Unlock()

		if first {
			monitoring.Opsf("frame poll failed: %v", err)
		} else {
			monitoring.Diagf("frame poll failed: %v", err)
		}
		return Frame{}, err
	}

	if p.failing {
		monitoring.Opsf("frame poll recovered after %s", p.stats.LastError)
	}
	p.failing = false
	p.seq++
	frame := Frame{Seq: p.seq, Time: now, Kind: p.kind, Subjects: subjects}
	p.latest = frame
	p.hasLatest = true
	p.stats.Frames++
	p.stats.LastSubjects = len(subjects)
	p.stats.LastFrameAt = now
	if len(subjects) == 0 {
		p.stats.EmptyFrames++
	}
	sinks := append([]Sink(nil), p.sinks...)
	p.mu.Unlock()

	monitoring.Tracef("frame %d: %d subjects", frame.Seq, len(subjects))

	for _, s := range sinks {
		if err := s.HandleFrame(frame); err != nil {
			p.mu.Lock()
			p.stats.SinkErrors++
			p.mu.Unlock()
			monitoring.Diagf("frame %d sink error: %v", frame.Seq, err)
		}
	}
	return frame, nil
}

// Run polls on every tick until ctx is cancelled. It only returns early if
// the reader has been closed.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	monitoring.Diagf("polling every %v for %s rotations", p.interval, p.kind)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if _, err := p.PollOnce(); errors.Is(err, vicon.ErrClosed) {
				return err
			}
		}
	}
}

// Latest returns the most recent frame, if any.
func (p *Poller) Latest() (Frame, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.hasLatest
}

// Stats returns a snapshot of the poller counters.
func (p *Poller) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}
