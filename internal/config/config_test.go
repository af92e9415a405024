package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mocap.stream/internal/forward"
	"github.com/banshee-data/mocap.stream/internal/vicon"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, "localhost:801", cfg.GetHost())
	assert.Equal(t, vicon.Quaternion, cfg.GetRotation())
	assert.Equal(t, 10*time.Millisecond, cfg.GetPollInterval())
	assert.Equal(t, ":8090", cfg.GetHTTPListen())
	assert.Empty(t, cfg.GetDBPath())
	assert.Empty(t, cfg.GetForwardUDP())
	assert.Empty(t, cfg.GetSerialPort())
	assert.Empty(t, cfg.GetGRPCListen())
	assert.Equal(t, forward.PortOptions{}, cfg.GetSerialOptions())

	opts := cfg.GetConnectOptions()
	assert.Equal(t, vicon.MaxConnectRetries, opts.MaxConnectRetries)
	assert.Equal(t, time.Second, opts.ConnectTimeout)
	assert.Equal(t, time.Second, opts.SettleDelay)
	assert.False(t, opts.StrictConfigure)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "mocap.json", `{
  "host": "192.168.10.1:801",
  "rotation": "euler",
  "poll_interval": "5ms",
  "connect_retries": 5,
  "connect_timeout": "2s",
  "settle_delay": "0s",
  "strict_configure": true,
  "db_path": "mocap.db",
  "forward_udp": "127.0.0.1:9000",
  "serial_port": "/dev/ttyUSB0",
  "serial_options": {"baud_rate": 57600, "parity": "even"},
  "grpc_listen": ":50051",
  "http_listen": ":9090"
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.10.1:801", cfg.GetHost())
	assert.Equal(t, vicon.Euler, cfg.GetRotation())
	assert.Equal(t, 5*time.Millisecond, cfg.GetPollInterval())
	assert.Equal(t, "mocap.db", cfg.GetDBPath())
	assert.Equal(t, "127.0.0.1:9000", cfg.GetForwardUDP())
	assert.Equal(t, "/dev/ttyUSB0", cfg.GetSerialPort())
	assert.Equal(t, 57600, cfg.GetSerialOptions().BaudRate)
	assert.Equal(t, ":50051", cfg.GetGRPCListen())
	assert.Equal(t, ":9090", cfg.GetHTTPListen())

	opts := cfg.GetConnectOptions()
	assert.Equal(t, 5, opts.MaxConnectRetries)
	assert.Equal(t, 2*time.Second, opts.ConnectTimeout)
	assert.Equal(t, vicon.NoSettle, opts.SettleDelay)
	assert.True(t, opts.StrictConfigure)
}

func TestGetConnectOptions_SettleDelay(t *testing.T) {
	tests := []struct {
		name string
		body string
		want time.Duration
	}{
		{"unset", `{}`, vicon.SettleDelay},
		{"empty", `{"settle_delay": ""}`, vicon.SettleDelay},
		{"explicit zero disables", `{"settle_delay": "0s"}`, vicon.NoSettle},
		{"custom", `{"settle_delay": "250ms"}`, 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, "settle.json", tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.GetConnectOptions().SettleDelay)
		})
	}
}

func TestLoad_Partial(t *testing.T) {
	cfg, err := Load(writeConfig(t, "partial.json", `{"rotation": "q"}`))
	require.NoError(t, err)
	assert.Equal(t, vicon.Quaternion, cfg.GetRotation())
	assert.Equal(t, DefaultHost, cfg.GetHost())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "mocap.yaml", `{}`, "must have .json extension"},
		{"bad json", "bad.json", `{"host":`, "failed to parse config JSON"},
		{"empty host", "host.json", `{"host": ""}`, "host must not be empty"},
		{"bad rotation", "rot.json", `{"rotation": "matrix"}`, "matrix"},
		{"bad duration", "dur.json", `{"poll_interval": "soon"}`, "invalid poll_interval"},
		{"negative duration", "neg.json", `{"settle_delay": "-1s"}`, "settle_delay must be non-negative"},
		{"negative retries", "retries.json", `{"connect_retries": -1}`, "connect_retries must be non-negative"},
		{"bad parity", "parity.json", `{"serial_options": {"parity": "mark"}}`, "serial_options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat config file")
}

func TestLoad_TooLarge(t *testing.T) {
	body := `{"host": "` + strings.Repeat("h", 1024*1024) + `"}`
	_, err := Load(writeConfig(t, "large.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file too large")
}
