package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mocap.stream/internal/vicon"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options
	}{
		{
			name: "defaults",
			args: nil,
			want: options{Units: "m"},
		},
		{
			name: "mock daemon",
			args: []string{"-mock", "-db", "rec.db", "-listen", ":9000", "-units", "mm"},
			want: options{Mock: true, DBPath: "rec.db", Listen: ":9000", Units: "mm"},
		},
		{
			name: "live with outputs",
			args: []string{
				"-host", "192.168.1.10:801", "-rotation", "euler", "-strict",
				"-grpc-listen", ":50051", "-forward-addr", "127.0.0.1:9999",
				"-serial-port", "/dev/ttyUSB0", "-config", "mocap.json",
			},
			want: options{
				Host: "192.168.1.10:801", Rotation: "euler", Strict: true,
				GRPCListen: ":50051", ForwardAddr: "127.0.0.1:9999",
				SerialPort: "/dev/ttyUSB0", ConfigPath: "mocap.json", Units: "m",
			},
		},
		{
			name: "version",
			args: []string{"-version"},
			want: options{ShowVersion: true, Units: "m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args, io.Discard)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseFlags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"-units", "furlong"},
		{"-no-such-flag"},
		{"stray"},
	} {
		_, err := parseFlags(args, io.Discard)
		assert.Error(t, err, "%v", args)
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mocap.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"host": "vicon.lab:801",
		"rotation": "quaternion",
		"http_listen": ":8000",
		"grpc_listen": ":50051"
	}`), 0o644))

	cfg, err := loadConfig(options{ConfigPath: path, Rotation: "euler", Strict: true})
	require.NoError(t, err)
	assert.Equal(t, "vicon.lab:801", cfg.GetHost())
	assert.Equal(t, vicon.Euler, cfg.GetRotation())
	assert.Equal(t, ":8000", cfg.GetHTTPListen())
	assert.Equal(t, ":50051", cfg.GetGRPCListen())
	assert.True(t, cfg.GetConnectOptions().StrictConfigure)
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := loadConfig(options{})
	require.NoError(t, err)
	assert.Equal(t, "localhost:801", cfg.GetHost())
	assert.Equal(t, vicon.Quaternion, cfg.GetRotation())
	assert.False(t, cfg.GetConnectOptions().StrictConfigure)
	assert.Empty(t, cfg.GetDBPath())
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig(options{Rotation: "matrix"})
	assert.Error(t, err)

	_, err = loadConfig(options{ConfigPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
