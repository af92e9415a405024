package vicon

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when a System is used after Close.
	ErrClosed = errors.New("vicon: system closed")

	// ErrSDKUnavailable is returned by the default opener when the binary was
	// built without the native SDK binding.
	ErrSDKUnavailable = errors.New("vicon: SDK support not enabled: rebuild with -tags=vicon and cgo enabled")

	// ErrNameTruncated reports a subject or segment name that did not fit in
	// the largest name buffer.
	ErrNameTruncated = errors.New("vicon: name exceeds maximum buffer size")
)

// ConnectError is returned when a System cannot be established. It is
// terminal for that System.
type ConnectError struct {
	Host     string
	Op       string // "connect", or the configure call that failed in strict mode
	Attempts int    // connect attempts made, including the successful one before a configure failure
	Status   Status
}

func (e *ConnectError) Error() string {
	if e.Op == "" || e.Op == "connect" {
		return fmt.Sprintf("vicon: connect to %q failed after %d attempts: %s", e.Host, e.Attempts, e.Status)
	}
	return fmt.Sprintf("vicon: %s on %q failed: %s", e.Op, e.Host, e.Status)
}

// FrameError is returned when a native call fails while pulling or decoding a
// frame. The poll is abandoned; the caller may poll again.
type FrameError struct {
	Op     string
	Status Status
	Err    error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vicon: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("vicon: %s: %s", e.Op, e.Status)
}

func (e *FrameError) Unwrap() error { return e.Err }

// ConversionError reports a rotation payload that cannot be turned into a
// canonical rotation.
type ConversionError struct {
	Reason string
}

func (e *ConversionError) Error() string {
	return "vicon: rotation conversion: " + e.Reason
}

// StatusOf extracts the SDK status carried by a ConnectError or FrameError
// anywhere in err's chain.
func StatusOf(err error) (Status, bool) {
	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce.Status, true
	}
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Status, true
	}
	return 0, false
}

// check classifies code and returns a FrameError for anything but Success.
func check(op string, code int32) error {
	if s := Classify(code); !s.IsSuccess() {
		return &FrameError{Op: op, Status: s}
	}
	return nil
}
