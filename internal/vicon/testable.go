package vicon

import (
	"sync"
)

// TestSegment is a segment served by TestableClient.
type TestSegment struct {
	Name        string
	Translation Translation
	Euler       EulerXYZ
	Quaternion  NativeQuaternion
}

// TestSubject is a subject served by TestableClient.
type TestSubject struct {
	Name     string
	Segments []TestSegment
}

// TestableClient implements Client with scriptable results for testing.
// All results default to Success.
type TestableClient struct {
	mu sync.Mutex

	// ConnectResults are returned by successive Connect calls. Once
	// exhausted, Connect returns Success.
	ConnectResults []int32

	// Results overrides the status returned by a named method
	// (e.g. "GetFrame", "SetStreamMode", "GetSegmentCount").
	Results map[string]int32

	// Subjects is the frame content.
	Subjects []TestSubject

	// Calls records every method invocation in order.
	Calls []string

	// Timeouts records the values passed to SetConnectionTimeout.
	Timeouts []uint32

	// Hosts records the values passed to Connect.
	Hosts []string

	// NameBufferSizes records the buffer sizes offered for names.
	NameBufferSizes []int

	// StreamMode and Axes record the last stream configuration.
	StreamMode StreamMode
	Axes       [3]Direction

	Disconnects int
	Destroys    int
}

// NewTestableClient returns a client serving subjects.
func NewTestableClient(subjects ...TestSubject) *TestableClient {
	return &TestableClient{Subjects: subjects, Results: map[string]int32{}}
}

// Opener returns a ClientOpener that always hands out c.
func (c *TestableClient) Opener() ClientOpener {
	return func() (Client, error) { return c, nil }
}

// CallCount returns how many times method was called.
func (c *TestableClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.Calls {
		if call == method {
			n++
		}
	}
	return n
}

func (c *TestableClient) record(method string) int32 {
	c.Calls = append(c.Calls, method)
	if code, ok := c.Results[method]; ok {
		return code
	}
	return int32(Success)
}

func (c *TestableClient) subject(name string) (TestSubject, bool) {
	for _, s := range c.Subjects {
		if s.Name == name {
			return s, true
		}
	}
	return TestSubject{}, false
}

func (c *TestableClient) segment(subject, segment string) (TestSegment, int32) {
	s, ok := c.subject(subject)
	if !ok {
		return TestSegment{}, int32(InvalidSubjectName)
	}
	for _, seg := range s.Segments {
		if seg.Name == segment {
			return seg, int32(Success)
		}
	}
	return TestSegment{}, int32(InvalidSegmentName)
}

func writeName(name string, buf []byte) {
	copy(buf, name)
}

func (c *TestableClient) SetConnectionTimeout(milliseconds uint32) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Timeouts = append(c.Timeouts, milliseconds)
	return c.record("SetConnectionTimeout")
}

func (c *TestableClient) Connect(hostAndPort string) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Hosts = append(c.Hosts, hostAndPort)
	code := c.record("Connect")
	if len(c.ConnectResults) > 0 {
		code = c.ConnectResults[0]
		c.ConnectResults = c.ConnectResults[1:]
	}
	return code
}

func (c *TestableClient) Disconnect() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Disconnects++
	return c.record("Disconnect")
}

func (c *TestableClient) SetStreamMode(mode StreamMode) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StreamMode = mode
	return c.record("SetStreamMode")
}

func (c *TestableClient) SetAxisMapping(x, y, z Direction) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Axes = [3]Direction{x, y, z}
	return c.record("SetAxisMapping")
}

func (c *TestableClient) EnableSegmentData() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record("EnableSegmentData")
}

func (c *TestableClient) EnableMarkerData() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record("EnableMarkerData")
}

func (c *TestableClient) GetFrame() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record("GetFrame")
}

func (c *TestableClient) GetSubjectCount() (uint32, int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint32(len(c.Subjects)), c.record("GetSubjectCount")
}

func (c *TestableClient) GetSubjectName(index uint32, buf []byte) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NameBufferSizes = append(c.NameBufferSizes, len(buf))
	code := c.record("GetSubjectName")
	if int(index) >= len(c.Subjects) {
		return int32(InvalidIndex)
	}
	writeName(c.Subjects[index].Name, buf)
	return code
}

func (c *TestableClient) GetSegmentCount(subject string) (uint32, int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := c.record("GetSegmentCount")
	s, ok := c.subject(subject)
	if !ok {
		return 0, int32(InvalidSubjectName)
	}
	return uint32(len(s.Segments)), code
}

func (c *TestableClient) GetSegmentName(subject string, index uint32, buf []byte) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NameBufferSizes = append(c.NameBufferSizes, len(buf))
	code := c.record("GetSegmentName")
	s, ok := c.subject(subject)
	if !ok {
		return int32(InvalidSubjectName)
	}
	if int(index) >= len(s.Segments) {
		return int32(InvalidIndex)
	}
	writeName(s.Segments[index].Name, buf)
	return code
}

func (c *TestableClient) GetSegmentGlobalTranslation(subject, segment string) (Translation, int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := c.record("GetSegmentGlobalTranslation")
	seg, lookup := c.segment(subject, segment)
	if lookup != int32(Success) {
		return Translation{}, lookup
	}
	return seg.Translation, code
}

func (c *TestableClient) GetSegmentGlobalRotationEulerXYZ(subject, segment string) (EulerXYZ, int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := c.record("GetSegmentGlobalRotationEulerXYZ")
	seg, lookup := c.segment(subject, segment)
	if lookup != int32(Success) {
		return EulerXYZ{}, lookup
	}
	return seg.Euler, code
}

func (c *TestableClient) GetSegmentGlobalRotationQuaternion(subject, segment string) (NativeQuaternion, int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := c.record("GetSegmentGlobalRotationQuaternion")
	seg, lookup := c.segment(subject, segment)
	if lookup != int32(Success) {
		return NativeQuaternion{}, lookup
	}
	return seg.Quaternion, code
}

func (c *TestableClient) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Destroys++
	c.Calls = append(c.Calls, "Destroy")
}
