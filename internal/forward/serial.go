package forward

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"go.bug.st/serial"

	"github.com/banshee-data/mocap.stream/internal/capture"
	"github.com/banshee-data/mocap.stream/internal/monitoring"
)

// SerialPorter is the part of a serial port the forwarder writes to.
type SerialPorter interface {
	io.Writer
	io.Closer
}

// SerialForwarder writes one CSV record per subject for each frame:
//
//	seq,name,x,y,z,kind,r0,r1,r2[,r3]
//
// Positions are in meters.
type SerialForwarder struct {
	mu   sync.Mutex
	port SerialPorter
	path string
}

// OpenSerialForwarder opens the serial port at path with opts.
func OpenSerialForwarder(path string, opts PortOptions) (*SerialForwarder, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	normalized, _ := opts.Normalize()
	monitoring.Logf("Writing poses to %s at %d baud", path, normalized.BaudRate)
	return NewSerialForwarder(port, path), nil
}

// NewSerialForwarder wraps an already open port.
func NewSerialForwarder(port SerialPorter, path string) *SerialForwarder {
	return &SerialForwarder{port: port, path: path}
}

// HandleFrame writes the frame to the port.
func (s *SerialForwarder) HandleFrame(frame capture.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := csv.NewWriter(s.port)
	for _, subject := range frame.Subjects {
		fields := []string{
			strconv.FormatUint(frame.Seq, 10),
			subject.Name,
			formatFloat(subject.Origin.X),
			formatFloat(subject.Origin.Y),
			formatFloat(subject.Origin.Z),
			subject.Rotation.Kind.String(),
		}
		for _, c := range subject.Rotation.Components() {
			fields = append(fields, formatFloat(c))
		}
		if err := w.Write(fields); err != nil {
			return fmt.Errorf("write to %s: %w", s.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write to %s: %w", s.path, err)
	}
	return nil
}

// Close closes the underlying port.
func (s *SerialForwarder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
