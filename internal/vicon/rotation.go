package vicon

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/mocap.stream/internal/units"
)

// RotationKind selects the rotation representation returned for each subject.
type RotationKind int

const (
	Euler RotationKind = iota
	Quaternion
)

func (k RotationKind) String() string {
	switch k {
	case Euler:
		return "euler"
	case Quaternion:
		return "quaternion"
	default:
		return fmt.Sprintf("RotationKind(%d)", int(k))
	}
}

// ParseRotationKind parses "euler" or "quaternion" (case-insensitive; "quat"
// and "q" are accepted for quaternion).
func ParseRotationKind(s string) (RotationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "euler", "e":
		return Euler, nil
	case "quaternion", "quat", "q":
		return Quaternion, nil
	default:
		return 0, fmt.Errorf("unsupported rotation %q: expected euler or quaternion", s)
	}
}

// Rotation is a canonical rotation value. Exactly one of Euler or Quaternion
// is meaningful, selected by Kind.
//
// Euler holds X, Y, Z angles in radians. Quaternion is a unit quaternion in
// (w, x, y, z) order: Real is w, Imag/Jmag/Kmag are x/y/z.
type Rotation struct {
	Kind       RotationKind
	Euler      r3.Vec
	Quaternion quat.Number
}

// EulerRotation builds an Euler rotation from X, Y, Z radians.
func EulerRotation(x, y, z float64) Rotation {
	return Rotation{Kind: Euler, Euler: r3.Vec{X: x, Y: y, Z: z}}
}

// IdentityQuaternion is the zero rotation as a unit quaternion.
func IdentityQuaternion() Rotation {
	return Rotation{Kind: Quaternion, Quaternion: quat.Number{Real: 1}}
}

// QuaternionRotation builds a unit quaternion rotation from canonical
// (w, x, y, z) components, renormalizing if needed.
func QuaternionRotation(w, x, y, z float64) (Rotation, error) {
	q, err := unitQuaternion(quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z})
	if err != nil {
		return Rotation{}, err
	}
	return Rotation{Kind: Quaternion, Quaternion: q}, nil
}

func (r Rotation) String() string {
	if r.Kind == Quaternion {
		q := r.Quaternion
		return fmt.Sprintf("quat(w=%.6f x=%.6f y=%.6f z=%.6f)", q.Real, q.Imag, q.Jmag, q.Kmag)
	}
	return fmt.Sprintf("euler(x=%.6f y=%.6f z=%.6f)", r.Euler.X, r.Euler.Y, r.Euler.Z)
}

// Components returns the rotation as a flat slice: [x y z] for Euler and
// [w x y z] for Quaternion.
func (r Rotation) Components() []float64 {
	if r.Kind == Quaternion {
		q := r.Quaternion
		return []float64{q.Real, q.Imag, q.Jmag, q.Kmag}
	}
	return []float64{r.Euler.X, r.Euler.Y, r.Euler.Z}
}

// MillimetersToMeters converts a native translation to meters, per axis.
func MillimetersToMeters(mm [3]float64) r3.Vec {
	return r3.Vec{
		X: mm[0] / units.MillimetersPerMeter,
		Y: mm[1] / units.MillimetersPerMeter,
		Z: mm[2] / units.MillimetersPerMeter,
	}
}

// EulerFromNative passes the SDK's EulerXYZ triple through unchanged.
func EulerFromNative(raw [3]float64) Rotation {
	return EulerRotation(raw[0], raw[1], raw[2])
}

// QuaternionFromNative reorders the SDK's (x, y, z, w) quaternion into the
// canonical (w, x, y, z) order and normalizes it.
func QuaternionFromNative(raw [4]float64) (Rotation, error) {
	return QuaternionRotation(raw[3], raw[0], raw[1], raw[2])
}

func unitQuaternion(q quat.Number) (quat.Number, error) {
	if quat.IsNaN(q) || quat.IsInf(q) {
		return quat.Number{}, &ConversionError{Reason: fmt.Sprintf("non-finite quaternion %v", q)}
	}
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{}, &ConversionError{Reason: "zero-norm quaternion"}
	}
	if n == 1 {
		return q, nil
	}
	return quat.Scale(1/n, q), nil
}

// ConvertRotation re-expresses r as kind. It is meant for simulated hardware;
// live frames request the matching representation from the SDK directly.
//
// Euler angles use the roll-pitch-yaw convention R = Rz(z)·Ry(y)·Rx(x).
func ConvertRotation(r Rotation, kind RotationKind) (Rotation, error) {
	switch {
	case r.Kind == kind && kind == Euler:
		if !finite(r.Euler.X, r.Euler.Y, r.Euler.Z) {
			return Rotation{}, &ConversionError{Reason: "non-finite euler angles"}
		}
		return r, nil
	case r.Kind == kind && kind == Quaternion:
		q, err := unitQuaternion(r.Quaternion)
		if err != nil {
			return Rotation{}, err
		}
		return Rotation{Kind: Quaternion, Quaternion: q}, nil
	case r.Kind == Euler && kind == Quaternion:
		return eulerToQuaternion(r.Euler)
	case r.Kind == Quaternion && kind == Euler:
		return quaternionToEuler(r.Quaternion)
	default:
		return Rotation{}, &ConversionError{Reason: fmt.Sprintf("unsupported conversion %s -> %s", r.Kind, kind)}
	}
}

func eulerToQuaternion(e r3.Vec) (Rotation, error) {
	if !finite(e.X, e.Y, e.Z) {
		return Rotation{}, &ConversionError{Reason: "non-finite euler angles"}
	}
	sr, cr := math.Sincos(e.X / 2)
	sp, cp := math.Sincos(e.Y / 2)
	sy, cy := math.Sincos(e.Z / 2)

	return QuaternionRotation(
		cr*cp*cy+sr*sp*sy,
		sr*cp*cy-cr*sp*sy,
		cr*sp*cy+sr*cp*sy,
		cr*cp*sy-sr*sp*cy,
	)
}

func quaternionToEuler(q quat.Number) (Rotation, error) {
	q, err := unitQuaternion(q)
	if err != nil {
		return Rotation{}, err
	}
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	// clamp for numerical noise around +-90 degrees pitch
	sinp := 2 * (w*y - z*x)
	var pitch float64
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return EulerRotation(roll, pitch, yaw), nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
