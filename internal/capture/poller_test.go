package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/mocap.stream/internal/timeutil"
	"github.com/banshee-data/mocap.stream/internal/vicon"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	frames []Frame
	err    error
}

func (s *recordingSink) HandleFrame(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func TestPollOnce(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	mock := vicon.NewMockHardware()
	p := NewPoller(mock, Config{Kind: vicon.Quaternion, Clock: clock})

	_, ok := p.Latest()
	assert.False(t, ok)

	sink := &recordingSink{}
	p.AddSink(sink)

	f, err := p.PollOnce()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, epoch, f.Time)
	assert.Equal(t, vicon.Quaternion, f.Kind)
	require.Len(t, f.Subjects, 1)
	assert.Equal(t, "mob_6", f.Subjects[0].Name)

	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, f.Seq, latest.Seq)
	assert.Equal(t, 1, sink.count())

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Frames)
	assert.Equal(t, 1, stats.LastSubjects)
	assert.Equal(t, epoch, stats.LastFrameAt)
}

func TestPollOnce_ErrorsAreNotTerminal(t *testing.T) {
	mock := vicon.NewMockHardware()
	p := NewPoller(mock, Config{Kind: vicon.Euler, Clock: timeutil.NewMockClock(epoch)})
	sink := &recordingSink{}
	p.AddSink(sink)

	_, err := p.PollOnce()
	require.NoError(t, err)

	mock.ReadError = &vicon.FrameError{Op: "get frame", Status: vicon.NoDataFrame}
	_, err = p.PollOnce()
	require.Error(t, err)

	// the previous frame is still served
	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(1), latest.Seq)

	f, err := p.PollOnce()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f.Seq)

	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.Frames)
	assert.Equal(t, uint64(1), stats.Errors)
	assert.Contains(t, stats.LastError, "NoDataFrame")
	assert.Equal(t, 2, sink.count())
}

func TestPollOnce_SinkErrorsCounted(t *testing.T) {
	p := NewPoller(vicon.NewMockHardware(), Config{Clock: timeutil.NewMockClock(epoch)})
	failing := &recordingSink{err: errors.New("disk full")}
	healthy := &recordingSink{}
	p.AddSink(failing)
	p.AddSink(healthy)

	_, err := p.PollOnce()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.Stats().SinkErrors)
	assert.Equal(t, 1, healthy.count())
}

func TestPollOnce_EmptyFrames(t *testing.T) {
	mock := vicon.NewMockHardwareWith()
	p := NewPoller(mock, Config{Clock: timeutil.NewMockClock(epoch)})

	f, err := p.PollOnce()
	require.NoError(t, err)
	assert.Empty(t, f.Subjects)
	assert.Equal(t, uint64(1), p.Stats().EmptyFrames)
}

func TestRun_PollsOnTicks(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	p := NewPoller(vicon.NewMockHardware(), Config{Interval: 10 * time.Millisecond, Clock: clock})
	sink := &recordingSink{}
	p.AddSink(sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(clock.Tickers()) == 1 }, time.Second, time.Millisecond)
	ticker := clock.Tickers()[0]

	for i := 1; i <= 3; i++ {
		ticker.Trigger(clock.Now())
		want := i
		require.Eventually(t, func() bool { return sink.count() == want }, time.Second, time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, ticker.Stopped())
}

func TestRun_StopsWhenReaderClosed(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	mock := vicon.NewMockHardware()
	mock.ReadError = vicon.ErrClosed
	p := NewPoller(mock, Config{Clock: clock})

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	require.Eventually(t, func() bool { return len(clock.Tickers()) == 1 }, time.Second, time.Millisecond)
	clock.Tickers()[0].Trigger(clock.Now())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, vicon.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Run did not return for a closed reader")
	}
}

func TestFrame_View(t *testing.T) {
	f := Frame{
		Seq:  7,
		Time: epoch,
		Kind: vicon.Quaternion,
		Subjects: []vicon.Subject{{
			Name:     "wand",
			Origin:   r3.Vec{X: 1, Y: -0.5, Z: 0.25},
			Rotation: vicon.IdentityQuaternion(),
		}},
	}

	v := f.View("mm")
	assert.Equal(t, uint64(7), v.Seq)
	assert.Equal(t, "mm", v.Units)
	require.Len(t, v.Subjects, 1)
	assert.Equal(t, [3]float64{1000, -500, 250}, v.Subjects[0].Position)
	assert.Equal(t, "quaternion", v.Subjects[0].RotationKind)
	assert.Equal(t, []float64{1, 0, 0, 0}, v.Subjects[0].Rotation)

	s, ok := f.Subject("wand")
	assert.True(t, ok)
	assert.Equal(t, "wand", s.Name)
	_, ok = f.Subject("missing")
	assert.False(t, ok)
}
