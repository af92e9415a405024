package vicon

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// MockSubject is a subject served by MockHardware.
type MockSubject struct {
	Subject
	Occluded bool
}

// MockHardware implements FrameReader without a Vicon server. Each read
// returns the configured subjects with their rotations converted to the
// requested representation.
type MockHardware struct {
	mu       sync.Mutex
	subjects []MockSubject
	frames   int

	// Advance, when set, is called before every read with the number of
	// frames already served and may move the subjects.
	Advance func(frame int, subjects []MockSubject)

	// ReadError is returned by the next read if set.
	ReadError error
}

// NewMockHardware returns a mock with a single identity subject "mob_6" at
// the origin.
func NewMockHardware() *MockHardware {
	return NewMockHardwareWith(MockSubject{Subject: Subject{
		Name:     "mob_6",
		Origin:   r3.Vec{},
		Rotation: IdentityQuaternion(),
	}})
}

// NewMockHardwareWith returns a mock serving subjects.
func NewMockHardwareWith(subjects ...MockSubject) *MockHardware {
	return &MockHardware{subjects: append([]MockSubject(nil), subjects...)}
}

// SetSubjects replaces the served subjects.
func (m *MockHardware) SetSubjects(subjects ...MockSubject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append([]MockSubject(nil), subjects...)
}

// Frames returns the number of successful reads.
func (m *MockHardware) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

func (m *MockHardware) ReadFrameSubjects(kind RotationKind) ([]Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		return nil, err
	}
	if m.Advance != nil {
		m.Advance(m.frames, m.subjects)
	}

	out := make([]Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		if s.Occluded {
			continue
		}
		rot, err := ConvertRotation(s.Rotation, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, Subject{Name: s.Name, Origin: s.Origin, Rotation: rot})
	}
	m.frames++
	return out, nil
}
