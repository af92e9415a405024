// Package vicon reads rigid-body poses from a Vicon DataStream server.
//
// A System owns one native SDK client, connects with a bounded retry loop,
// configures the stream for client pull, and decodes each pulled frame into
// Subjects with positions in meters and a caller-selected rotation
// representation. MockHardware implements the same FrameReader capability
// without a server.
package vicon

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Subject is a single tracked rigid body identified in a frame.
type Subject struct {
	// Name is unique within a frame.
	Name string

	// Origin is the subject's position in meters relative to the origin of
	// the capture volume.
	Origin r3.Vec

	Rotation Rotation
}

func (s Subject) String() string {
	return fmt.Sprintf("%s origin=(%.4f, %.4f, %.4f) %s", s.Name, s.Origin.X, s.Origin.Y, s.Origin.Z, s.Rotation)
}

// FrameReader is a thing that can read from a Vicon data stream.
type FrameReader interface {
	// ReadFrameSubjects returns every identified subject in the next
	// available frame, with rotations in the requested representation.
	ReadFrameSubjects(kind RotationKind) ([]Subject, error)
}

var (
	_ FrameReader = (*System)(nil)
	_ FrameReader = (*MockHardware)(nil)
	_ FrameReader = (*SerialReader)(nil)
)

// SerialReader serializes access to a FrameReader that is shared between
// goroutines.
type SerialReader struct {
	mu     sync.Mutex
	reader FrameReader
}

// NewSerialReader wraps r so that at most one ReadFrameSubjects call runs at
// a time.
func NewSerialReader(r FrameReader) *SerialReader {
	return &SerialReader{reader: r}
}

func (s *SerialReader) ReadFrameSubjects(kind RotationKind) ([]Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader.ReadFrameSubjects(kind)
}
