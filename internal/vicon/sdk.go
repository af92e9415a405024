package vicon

// StreamMode selects how the SDK delivers frames.
type StreamMode int

const (
	ClientPull StreamMode = iota
	ClientPullPreFetch
	ServerPush
)

// Direction is one axis direction used by SetAxisMapping.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
	Forward
	Backward
)

// Translation is the native global translation payload of a segment, in
// millimeters.
type Translation struct {
	Translation [3]float64
	Occluded    bool
}

// EulerXYZ is the native global rotation payload as X, Y, Z radians.
type EulerXYZ struct {
	Rotation [3]float64
	Occluded bool
}

// NativeQuaternion is the native global rotation payload in the SDK's
// (x, y, z, w) component order.
type NativeQuaternion struct {
	Rotation [4]float64
	Occluded bool
}

// Client is the synchronous call surface of the Vicon DataStream SDK. Every
// method returns the raw SDK result code; callers must pass it through
// Classify before trusting any payload.
//
// A Client is not safe for concurrent use.
type Client interface {
	SetConnectionTimeout(milliseconds uint32) int32
	Connect(hostAndPort string) int32
	Disconnect() int32

	SetStreamMode(mode StreamMode) int32
	SetAxisMapping(x, y, z Direction) int32
	EnableSegmentData() int32
	EnableMarkerData() int32

	GetFrame() int32
	GetSubjectCount() (count uint32, code int32)
	// GetSubjectName writes a NUL-padded name into buf.
	GetSubjectName(index uint32, buf []byte) int32
	GetSegmentCount(subject string) (count uint32, code int32)
	// GetSegmentName writes a NUL-padded name into buf.
	GetSegmentName(subject string, index uint32, buf []byte) int32
	GetSegmentGlobalTranslation(subject, segment string) (Translation, int32)
	GetSegmentGlobalRotationEulerXYZ(subject, segment string) (EulerXYZ, int32)
	GetSegmentGlobalRotationQuaternion(subject, segment string) (NativeQuaternion, int32)

	// Destroy frees the native handle. It must be called exactly once.
	Destroy()
}

// ClientOpener allocates a new native client handle.
type ClientOpener func() (Client, error)
