//go:build !vicon || !cgo
// +build !vicon !cgo

package vicon

// NewSDKClient is a stub implementation when the native SDK binding is disabled.
// Build with -tags=vicon (and cgo enabled) to link ViconDataStreamSDK_C.
func NewSDKClient() (Client, error) {
	return nil, ErrSDKUnavailable
}
