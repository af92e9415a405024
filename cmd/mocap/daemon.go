package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/mocap.stream/internal/api"
	"github.com/banshee-data/mocap.stream/internal/capture"
	"github.com/banshee-data/mocap.stream/internal/config"
	"github.com/banshee-data/mocap.stream/internal/db"
	"github.com/banshee-data/mocap.stream/internal/forward"
	"github.com/banshee-data/mocap.stream/internal/monitoring"
	"github.com/banshee-data/mocap.stream/internal/timeutil"
	"github.com/banshee-data/mocap.stream/internal/vicon"
)

// daemon wires a poller to its sinks and servers.
type daemon struct {
	host    string
	units   string
	clock   timeutil.Clock
	poller  *capture.Poller
	store   *db.DB
	session *db.Session
	udp     *forward.UDPForwarder
	closers []io.Closer
}

// newDaemon builds the poller for reader and opens every configured sink.
// On error everything opened so far is closed.
func newDaemon(cfg *config.Config, reader vicon.FrameReader, host, unit string, clock timeutil.Clock) (_ *daemon, err error) {
	d := &daemon{host: host, units: unit, clock: clock}
	defer func() {
		if err != nil {
			d.close()
		}
	}()

	d.poller = capture.NewPoller(reader, capture.Config{
		Kind:     cfg.GetRotation(),
		Interval: cfg.GetPollInterval(),
		Clock:    clock,
	})

	if path := cfg.GetDBPath(); path != "" {
		if d.store, err = db.NewDB(path); err != nil {
			return nil, fmt.Errorf("failed to open recorder database: %w", err)
		}
		if d.session, err = d.store.StartSession(host, cfg.GetRotation(), clock.Now()); err != nil {
			return nil, err
		}
		sessionID := d.session.ID
		d.poller.AddSink(capture.SinkFunc(func(f capture.Frame) error {
			return d.store.RecordFrame(sessionID, f.Seq, f.Time, f.Subjects)
		}))
		monitoring.Opsf("recording to %s (session %s)", path, sessionID)
	}

	if addr := cfg.GetForwardUDP(); addr != "" {
		if d.udp, err = forward.NewUDPForwarder(addr, unit, 0); err != nil {
			return nil, err
		}
		d.closers = append(d.closers, d.udp)
		d.poller.AddSink(d.udp)
	}

	if port := cfg.GetSerialPort(); port != "" {
		sf, err := forward.OpenSerialForwarder(port, cfg.GetSerialOptions())
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, sf)
		d.poller.AddSink(sf)
	}

	return d, nil
}

// trackStore returns the recorder as an api.TrackStore, or a nil interface
// when recording is disabled.
func (d *daemon) trackStore() api.TrackStore {
	if d.store == nil {
		return nil
	}
	return d.store
}

// handler returns the HTTP API plus the admin debug routes.
func (d *daemon) handler() (http.Handler, error) {
	server := api.NewServer(d.poller, d.trackStore(), d.host, d.units)
	mux := server.ServeMux()
	server.AttachAdminRoutes(mux)
	if d.store != nil {
		if err := d.store.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return api.LoggingMiddleware(mux), nil
}

// startForwarders starts the background senders.
func (d *daemon) startForwarders(ctx context.Context) {
	if d.udp != nil {
		d.udp.Start(ctx)
	}
}

// close ends the recording session and releases every sink.
func (d *daemon) close() error {
	var errs []error
	if d.session != nil {
		errs = append(errs, d.store.EndSession(d.session.ID, d.clock.Now()))
	}
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// newMockReader returns a mock serving "mob_6" on a slow 1m circle at 1.2m
// height, rotating to face along its path.
func newMockReader() *vicon.MockHardware {
	m := vicon.NewMockHardware()
	m.Advance = func(frame int, subjects []vicon.MockSubject) {
		theta := float64(frame) * 2 * math.Pi / 1000
		for i := range subjects {
			subjects[i].Origin = r3.Vec{X: math.Cos(theta), Y: math.Sin(theta), Z: 1.2}
			subjects[i].Rotation = vicon.EulerRotation(0, 0, theta+math.Pi/2)
		}
	}
	return m
}
