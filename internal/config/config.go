// Package config loads the mocap daemon configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/mocap.stream/internal/forward"
	"github.com/banshee-data/mocap.stream/internal/vicon"
)

// Defaults used when a field is omitted from the config file.
const (
	DefaultHost         = "localhost:801"
	DefaultRotation     = "quaternion"
	DefaultPollInterval = 10 * time.Millisecond
	DefaultHTTPListen   = ":8090"
)

// Config is the root daemon configuration. Pointer fields distinguish
// "unset" from zero so partial files are safe; the Get* methods supply
// defaults.
type Config struct {
	// Stream
	Host            *string `json:"host,omitempty"`
	Rotation        *string `json:"rotation,omitempty"`        // "euler" or "quaternion"
	PollInterval    *string `json:"poll_interval,omitempty"`   // duration string like "10ms"
	ConnectRetries  *int    `json:"connect_retries,omitempty"` // zero selects the default
	ConnectTimeout  *string `json:"connect_timeout,omitempty"`
	SettleDelay     *string `json:"settle_delay,omitempty"`
	StrictConfigure *bool   `json:"strict_configure,omitempty"`

	// Outputs
	DBPath        *string              `json:"db_path,omitempty"`
	ForwardUDP    *string              `json:"forward_udp,omitempty"` // host:port
	SerialPort    *string              `json:"serial_port,omitempty"`
	SerialOptions *forward.PortOptions `json:"serial_options,omitempty"`
	GRPCListen    *string              `json:"grpc_listen,omitempty"`
	HTTPListen    *string              `json:"http_listen,omitempty"`
}

// Load reads a Config from a JSON file. The file must have a .json extension
// and be at most 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Host != nil && *c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}

	if c.Rotation != nil {
		if _, err := vicon.ParseRotationKind(*c.Rotation); err != nil {
			return err
		}
	}

	for name, v := range map[string]*string{
		"poll_interval":   c.PollInterval,
		"connect_timeout": c.ConnectTimeout,
		"settle_delay":    c.SettleDelay,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}

	if c.ConnectRetries != nil && *c.ConnectRetries < 0 {
		return fmt.Errorf("connect_retries must be non-negative, got %d", *c.ConnectRetries)
	}

	if c.SerialOptions != nil {
		if _, err := c.SerialOptions.Normalize(); err != nil {
			return fmt.Errorf("serial_options: %w", err)
		}
	}

	return nil
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// GetHost returns the server host or the default.
func (c *Config) GetHost() string {
	return stringOr(c.Host, DefaultHost)
}

// GetRotation returns the requested rotation representation.
func (c *Config) GetRotation() vicon.RotationKind {
	kind, err := vicon.ParseRotationKind(stringOr(c.Rotation, DefaultRotation))
	if err != nil {
		return vicon.Quaternion
	}
	return kind
}

// GetPollInterval returns the frame poll interval.
func (c *Config) GetPollInterval() time.Duration {
	d := durationOr(c.PollInterval, DefaultPollInterval)
	if d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// GetConnectOptions builds the connection options for vicon.NewSystem.
func (c *Config) GetConnectOptions() vicon.Options {
	opts := vicon.DefaultOptions()
	if c.ConnectRetries != nil {
		opts.MaxConnectRetries = *c.ConnectRetries
	}
	opts.ConnectTimeout = durationOr(c.ConnectTimeout, vicon.ConnectTimeout)
	// "0s" in the file means no settle; vicon treats a zero delay as unset.
	if opts.SettleDelay = durationOr(c.SettleDelay, vicon.SettleDelay); opts.SettleDelay == 0 {
		opts.SettleDelay = vicon.NoSettle
	}
	if c.StrictConfigure != nil {
		opts.StrictConfigure = *c.StrictConfigure
	}
	return opts
}

// GetDBPath returns the recorder database path. Empty disables recording.
func (c *Config) GetDBPath() string { return stringOr(c.DBPath, "") }

// GetForwardUDP returns the UDP forward target. Empty disables forwarding.
func (c *Config) GetForwardUDP() string { return stringOr(c.ForwardUDP, "") }

// GetSerialPort returns the serial output device. Empty disables it.
func (c *Config) GetSerialPort() string { return stringOr(c.SerialPort, "") }

// GetSerialOptions returns the serial output options.
func (c *Config) GetSerialOptions() forward.PortOptions {
	if c.SerialOptions == nil {
		return forward.PortOptions{}
	}
	return *c.SerialOptions
}

// GetGRPCListen returns the gRPC listen address. Empty disables the service.
func (c *Config) GetGRPCListen() string { return stringOr(c.GRPCListen, "") }

// GetHTTPListen returns the HTTP listen address.
func (c *Config) GetHTTPListen() string { return stringOr(c.HTTPListen, DefaultHTTPListen) }
