// Package forward relays polled frames to downstream consumers over UDP or a
// serial line.
package forward

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/banshee-data/mocap.stream/internal/capture"
	"github.com/banshee-data/mocap.stream/internal/monitoring"
	"github.com/banshee-data/mocap.stream/internal/units"
)

// queueSize bounds the number of frames waiting to be sent.
const queueSize = 1000

// UDPForwarder sends one JSON datagram per frame to a fixed address. Frames
// are queued and written from a separate goroutine so the poller never blocks
// on the network; frames that do not fit in the queue are dropped.
type UDPForwarder struct {
	conn        net.Conn
	channel     chan []byte
	logInterval time.Duration
	address     string
	unit        string

	dropped atomic.Uint64
	sent    atomic.Uint64
}

// NewUDPForwarder dials address (host:port). Positions are sent in unit.
func NewUDPForwarder(address, unit string, logInterval time.Duration) (*UDPForwarder, error) {
	if !units.IsValid(unit) {
		return nil, fmt.Errorf("invalid units %q: must be one of %s", unit, units.GetValidUnitsString())
	}
	udpAddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve forward address: %w", err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward connection: %w", err)
	}

	if logInterval <= 0 {
		logInterval = time.Minute
	}

	return &UDPForwarder{
		conn:        conn,
		channel:     make(chan []byte, queueSize),
		logInterval: logInterval,
		address:     address,
		unit:        unit,
	}, nil
}

// Start runs the send loop until ctx is cancelled. Write errors are counted
// and summarised once per log interval.
func (f *UDPForwarder) Start(ctx context.Context) {
	go func() {
		failed := 0
		var lastError error
		ticker := time.NewTicker(f.logInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case datagram := <-f.channel:
				if _, err := f.conn.Write(datagram); err != nil {
					f.dropped.Add(1)
					failed++
					lastError = err
					continue
				}
				f.sent.Add(1)
			case <-ticker.C:
				if failed > 0 && lastError != nil {
					monitoring.Opsf("dropped %d forwarded frames due to errors (latest: %v)", failed, lastError)
					failed = 0
					lastError = nil
				}
			}
		}
	}()

	monitoring.Logf("Forwarding frames to %s", f.address)
}

// HandleFrame queues f for sending. It never blocks.
func (f *UDPForwarder) HandleFrame(frame capture.Frame) error {
	datagram, err := json.Marshal(frame.View(f.unit))
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", frame.Seq, err)
	}

	select {
	case f.channel <- datagram:
	default:
		f.dropped.Add(1)
	}
	return nil
}

// Dropped returns the number of frames that were queued but not delivered
// or did not fit in the queue.
func (f *UDPForwarder) Dropped() uint64 { return f.dropped.Load() }

// Sent returns the number of datagrams written.
func (f *UDPForwarder) Sent() uint64 { return f.sent.Load() }

// Close closes the UDP connection.
func (f *UDPForwarder) Close() error {
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
