package capture

import (
	"time"

	"github.com/banshee-data/mocap.stream/internal/units"
	"github.com/banshee-data/mocap.stream/internal/vicon"
)

// Frame is one successfully polled frame.
type Frame struct {
	Seq      uint64
	Time     time.Time
	Kind     vicon.RotationKind
	Subjects []vicon.Subject
}

// Subject returns the named subject if it is present in the frame.
func (f Frame) Subject(name string) (vicon.Subject, bool) {
	for _, s := range f.Subjects {
		if s.Name == name {
			return s, true
		}
	}
	return vicon.Subject{}, false
}

// SubjectView is the wire form of a subject shared by the HTTP API, the UDP
// forwarder and the gRPC service.
type SubjectView struct {
	Name         string     `json:"name"`
	Position     [3]float64 `json:"position"`
	RotationKind string     `json:"rotation_kind"`
	Rotation     []float64  `json:"rotation"`
}

// FrameView is the wire form of a Frame.
type FrameView struct {
	Seq      uint64        `json:"seq"`
	Time     time.Time     `json:"time"`
	Units    string        `json:"units"`
	Subjects []SubjectView `json:"subjects"`
}

// View converts f for output with positions in unit (see units.ValidUnits).
// Quaternion rotations are ordered w, x, y, z; Euler rotations x, y, z in
// radians.
func (f Frame) View(unit string) FrameView {
	v := FrameView{
		Seq:      f.Seq,
		Time:     f.Time,
		Units:    unit,
		Subjects: make([]SubjectView, 0, len(f.Subjects)),
	}
	for _, s := range f.Subjects {
		v.Subjects = append(v.Subjects, SubjectView{
			Name: s.Name,
			Position: [3]float64{
				units.ConvertLength(s.Origin.X, unit),
				units.ConvertLength(s.Origin.Y, unit),
				units.ConvertLength(s.Origin.Z, unit),
			},
			RotationKind: s.Rotation.Kind.String(),
			Rotation:     s.Rotation.Components(),
		})
	}
	return v
}
