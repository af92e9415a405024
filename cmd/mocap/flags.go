package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/banshee-data/mocap.stream/internal/config"
	"github.com/banshee-data/mocap.stream/internal/units"
)

// options holds the command line. Empty strings leave the config file
// value (or its default) in place.
type options struct {
	ConfigPath  string
	Host        string
	Rotation    string
	DBPath      string
	Listen      string
	GRPCListen  string
	ForwardAddr string
	SerialPort  string
	Units       string
	Mock        bool
	Strict      bool
	ShowVersion bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("mocap", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.ConfigPath, "config", "", "Path to a JSON config file")
	fs.StringVar(&o.Host, "host", "", "Vicon server host[:port] (default \""+config.DefaultHost+"\")")
	fs.StringVar(&o.Rotation, "rotation", "", "Rotation representation: euler or quaternion")
	fs.StringVar(&o.DBPath, "db", "", "SQLite file to record frames into (empty disables recording)")
	fs.StringVar(&o.Listen, "listen", "", "HTTP listen address (default \""+config.DefaultHTTPListen+"\")")
	fs.StringVar(&o.GRPCListen, "grpc-listen", "", "gRPC FrameService listen address (empty disables)")
	fs.StringVar(&o.ForwardAddr, "forward-addr", "", "UDP host:port to forward JSON frames to")
	fs.StringVar(&o.SerialPort, "serial-port", "", "Serial device to write CSV poses to")
	fs.StringVar(&o.Units, "units", units.Meters, "Position units for API and forwarded output: "+units.GetValidUnitsString())
	fs.BoolVar(&o.Mock, "mock", false, "Serve a simulated subject instead of connecting to a Vicon server")
	fs.BoolVar(&o.Strict, "strict", false, "Fail startup if any stream configuration call fails")
	fs.BoolVar(&o.ShowVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if !units.IsValid(o.Units) {
		return options{}, fmt.Errorf("invalid -units %q: must be one of %s", o.Units, units.GetValidUnitsString())
	}
	return o, nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(o options) (*config.Config, error) {
	cfg := &config.Config{}
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(o.ConfigPath); err != nil {
			return nil, err
		}
	}

	override := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	override(&cfg.Host, o.Host)
	override(&cfg.Rotation, o.Rotation)
	override(&cfg.DBPath, o.DBPath)
	override(&cfg.HTTPListen, o.Listen)
	override(&cfg.GRPCListen, o.GRPCListen)
	override(&cfg.ForwardUDP, o.ForwardAddr)
	override(&cfg.SerialPort, o.SerialPort)
	if o.Strict {
		strict := true
		cfg.StrictConfigure = &strict
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
