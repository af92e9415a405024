package vicon

import (
	"bytes"
	"strings"
)

const (
	// NameBufferSize is the initial buffer handed to the SDK for names.
	NameBufferSize = 1024

	// MaxNameBufferSize bounds buffer growth for names that fill the buffer.
	MaxNameBufferSize = 16 * 1024
)

// decodeName strips every NUL byte from an SDK name buffer. truncated is true
// when the final byte is not NUL, i.e. the SDK may have cut the name short.
// A name that leaves room for its terminator fits.
func decodeName(buf []byte) (name string, truncated bool) {
	n := len(buf)
	if n == 0 {
		return "", false
	}
	truncated = buf[n-1] != 0
	return string(bytes.ReplaceAll(buf, []byte{0}, nil)), truncated
}

// displayName returns a valid UTF-8 form of a raw SDK name.
func displayName(raw string) string {
	return strings.ToValidUTF8(raw, "\uFFFD")
}

// readName calls fill with growing buffers until the name fits or
// MaxNameBufferSize is reached.
func readName(op string, fill func(buf []byte) int32) (string, error) {
	for size := NameBufferSize; ; size *= 2 {
		buf := make([]byte, size)
		if err := check(op, fill(buf)); err != nil {
			return "", err
		}
		name, truncated := decodeName(buf)
		if !truncated {
			return name, nil
		}
		if size >= MaxNameBufferSize {
			return "", &FrameError{Op: op, Status: Success, Err: ErrNameTruncated}
		}
	}
}
