// Command mocap streams subject poses from a Vicon server (or a simulated
// subject with -mock), records them to SQLite and republishes them over
// HTTP, gRPC, UDP and serial.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/mocap.stream/internal/monitoring"
	"github.com/banshee-data/mocap.stream/internal/rpc"
	"github.com/banshee-data/mocap.stream/internal/timeutil"
	"github.com/banshee-data/mocap.stream/internal/version"
	"github.com/banshee-data/mocap.stream/internal/vicon"
)

// setupLogging routes ops and diag to stderr, and trace to the file named
// by MOCAP_TRACE_LOG when set.
func setupLogging() (func(), error) {
	w := monitoring.LogWriters{Ops: os.Stderr, Diag: os.Stderr}
	cleanup := func() {}
	if path := os.Getenv("MOCAP_TRACE_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace log: %w", err)
		}
		w.Trace = f
		cleanup = func() { f.Close() }
	}
	monitoring.SetLogWriters(w)
	return cleanup, nil
}

// connectFunc opens a System; vicon.NewSystem in production.
type connectFunc func(host string, opts vicon.Options) (*vicon.System, error)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	if opts.ShowVersion {
		fmt.Println(version.String("mocap"))
		return
	}

	cleanup, err := setupLogging()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, opts, vicon.NewSystem)
	stop()
	cleanup()
	if err != nil {
		log.Fatal(err)
	}
}

// run serves until ctx is done or a server fails. The Vicon connection and
// the daemon's sinks are released on every return path.
func run(ctx context.Context, opts options, connect connectFunc) (err error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var (
		reader vicon.FrameReader
		host   = cfg.GetHost()
	)
	if opts.Mock {
		host = "mock"
		reader = newMockReader()
		monitoring.Opsf("serving simulated subject mob_6")
	} else {
		sys, err := connect(host, cfg.GetConnectOptions())
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", host, err)
		}
		defer sys.Close()
		reader = sys
	}

	d, err := newDaemon(cfg, reader, host, opts.Units, timeutil.RealClock{})
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if cerr := d.close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown: %w", cerr))
		}
	}()

	handler, err := d.handler()
	if err != nil {
		return fmt.Errorf("failed to mount routes: %w", err)
	}

	var grpcServer *rpc.Server
	if addr := cfg.GetGRPCListen(); addr != "" {
		grpcServer = rpc.NewServer(rpc.NewFrameService(d.poller, opts.Units))
		if err := grpcServer.Start(addr); err != nil {
			return fmt.Errorf("failed to start gRPC server: %w", err)
		}
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		wg      sync.WaitGroup
		errMu   sync.Mutex
		runErrs []error
	)
	fail := func(err error) {
		errMu.Lock()
		runErrs = append(runErrs, err)
		errMu.Unlock()
		stop()
	}

	d.startForwarders(ctx)

	// poll routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := d.poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fail(fmt.Errorf("poller stopped: %w", err))
		}
		log.Print("poll routine terminated")
	}()

	if grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			grpcServer.Stop()
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    cfg.GetHTTPListen(),
			Handler: handler,
		}

		go func() {
			monitoring.Opsf("HTTP API listening on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fail(fmt.Errorf("failed to start server: %w", err))
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")

	errMu.Lock()
	defer errMu.Unlock()
	return errors.Join(runErrs...)
}
