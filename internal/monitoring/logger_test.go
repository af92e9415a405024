package monitoring

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op logger
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}

func TestSetLogWriters_RoutesStreams(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var ops, diag, trace bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag, Trace: &trace})

	Opsf("connect failed: %s", "host")
	Diagf("attempt %d", 2)
	Tracef("frame %d", 7)

	// timestamp flags sit between the prefix and the message
	if !strings.HasPrefix(ops.String(), "[mocap] ") || !strings.Contains(ops.String(), "connect failed: host") {
		t.Errorf("ops stream = %q", ops.String())
	}
	if !strings.Contains(diag.String(), "attempt 2") {
		t.Errorf("diag stream = %q", diag.String())
	}
	if !strings.Contains(trace.String(), "frame 7") {
		t.Errorf("trace stream = %q", trace.String())
	}
}

func TestOpsf_FallsBackToLogf(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()
	SetLogWriters(LogWriters{})

	var got string
	SetLogger(func(format string, v ...interface{}) { got = format })

	Opsf("settle %s", "done")
	if got != "settle %s" {
		t.Errorf("Opsf fallback got format %q", got)
	}

	// disabled diag/trace streams must not reach Logf
	got = ""
	Diagf("diag")
	Tracef("trace")
	if got != "" {
		t.Errorf("disabled streams leaked to Logf: %q", got)
	}
}
