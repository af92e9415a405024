package vicon

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/mocap.stream/internal/monitoring"
	"github.com/banshee-data/mocap.stream/internal/timeutil"
)

const (
	// MaxConnectRetries is the number of reconnect attempts after the first
	// failed connect.
	MaxConnectRetries = 3

	// ConnectTimeout is the per-attempt connection timeout.
	ConnectTimeout = 1000 * time.Millisecond

	// SettleDelay gives the server time to start buffering frames after the
	// stream is configured.
	SettleDelay = 1000 * time.Millisecond

	// NoSettle as Options.SettleDelay skips the settle delay.
	NoSettle time.Duration = -1
)

// Options configures NewSystem. Zero fields take the defaults from
// DefaultOptions, except StrictConfigure. A negative SettleDelay (NoSettle)
// disables the settle delay.
type Options struct {
	// Opener allocates the native client. Defaults to NewSDKClient.
	Opener ClientOpener

	// Clock is used for the settle delay.
	Clock timeutil.Clock

	MaxConnectRetries int
	ConnectTimeout    time.Duration
	SettleDelay       time.Duration

	// StrictConfigure fails construction when any stream configuration call
	// returns a non-success status. By default those statuses are logged and
	// ignored.
	StrictConfigure bool
}

// DefaultOptions returns the options used by Connect.
func DefaultOptions() Options {
	return Options{
		Opener:            NewSDKClient,
		Clock:             timeutil.RealClock{},
		MaxConnectRetries: MaxConnectRetries,
		ConnectTimeout:    ConnectTimeout,
		SettleDelay:       SettleDelay,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Opener == nil {
		o.Opener = d.Opener
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	if o.MaxConnectRetries <= 0 {
		o.MaxConnectRetries = d.MaxConnectRetries
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = d.ConnectTimeout
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = d.SettleDelay
	}
	return o
}

// System is an active connection to a Vicon data stream. It exclusively owns
// its native client; Close releases it exactly once.
//
// A System must not be polled from multiple goroutines at the same time.
type System struct {
	host      string
	client    Client
	closeOnce sync.Once
	closed    bool
}

// Connect returns a new System connected to a Vicon data stream at
// hostAndPort using DefaultOptions.
//
// The provided host may optionally include a port suffix (e.g., 192.168.1.1:801).
func Connect(hostAndPort string) (*System, error) {
	return NewSystem(hostAndPort, DefaultOptions())
}

// NewSystem opens a native client, connects to hostAndPort with up to
// opts.MaxConnectRetries retries, configures the stream for client pull with
// a forward/left/up axis mapping and segment and marker data enabled, then
// waits opts.SettleDelay before returning.
//
// On failure the native client has already been released.
func NewSystem(hostAndPort string, opts Options) (sys *System, err error) {
	opts = opts.withDefaults()

	client, err := opts.Opener()
	if err != nil {
		return nil, fmt.Errorf("failed to create vicon client: %w", err)
	}
	s := &System{host: hostAndPort, client: client}
	defer func() {
		if err != nil {
			s.release()
		}
	}()

	attempts, err := s.connect(opts)
	if err != nil {
		return nil, err
	}
	if err := s.configure(opts.StrictConfigure, attempts); err != nil {
		return nil, err
	}

	if opts.SettleDelay < 0 {
		monitoring.Diagf("connected to %s after %d attempts, settle disabled", hostAndPort, attempts)
		return s, nil
	}
	monitoring.Diagf("connected to %s after %d attempts, settling for %v", hostAndPort, attempts, opts.SettleDelay)
	opts.Clock.Sleep(opts.SettleDelay)
	return s, nil
}

// connect returns the number of attempts it took.
func (s *System) connect(opts Options) (int, error) {
	timeoutMs := uint32(opts.ConnectTimeout / time.Millisecond)
	attempts := 0
	for {
		attempts++
		s.client.SetConnectionTimeout(timeoutMs)
		status := Classify(s.client.Connect(s.host))
		if status.IsSuccess() {
			return attempts, nil
		}
		monitoring.Diagf("connect to %s attempt %d/%d failed: %s", s.host, attempts, opts.MaxConnectRetries+1, status)

		if attempts > opts.MaxConnectRetries {
			monitoring.Opsf("giving up on %s after %d attempts: %s", s.host, attempts, status)
			return attempts, &ConnectError{Host: s.host, Op: "connect", Attempts: attempts, Status: status}
		}
	}
}

// configure reports attempts, the connect attempts made, on a strict failure.
func (s *System) configure(strict bool, attempts int) error {
	steps := []struct {
		op   string
		call func() int32
	}{
		{"set stream mode", func() int32 { return s.client.SetStreamMode(ClientPull) }},
		{"set axis mapping", func() int32 { return s.client.SetAxisMapping(Forward, Left, Up) }},
		{"enable segment data", s.client.EnableSegmentData},
		{"enable marker data", s.client.EnableMarkerData},
	}

	for _, step := range steps {
		status := Classify(step.call())
		if status.IsSuccess() {
			continue
		}
		if strict {
			return &ConnectError{Host: s.host, Op: step.op, Attempts: attempts, Status: status}
		}
		monitoring.Opsf("WARNING: %s on %s returned %s; continuing (strict configure disabled)", step.op, s.host, status)
	}
	return nil
}

// Host returns the host (and optional port) this System connected to.
func (s *System) Host() string {
	return s.host
}

// ReadFrameSubjects pulls the next frame and returns its subjects.
func (s *System) ReadFrameSubjects(kind RotationKind) ([]Subject, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return decodeFrame(s.client, kind)
}

// Close disconnects from the server and frees the native client. It is safe
// to call more than once.
func (s *System) Close() error {
	s.release()
	return nil
}

func (s *System) release() {
	s.closeOnce.Do(func() {
		s.closed = true
		if status := Classify(s.client.Disconnect()); !status.IsSuccess() {
			monitoring.Diagf("disconnect from %s returned %s", s.host, status)
		}
		s.client.Destroy()
	})
}
