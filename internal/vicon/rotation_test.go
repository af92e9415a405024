package vicon

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const tolerance = 1e-9

func TestMillimetersToMeters(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		mm := [3]float64{
			(rng.Float64() - 0.5) * 2e4,
			(rng.Float64() - 0.5) * 2e4,
			(rng.Float64() - 0.5) * 2e4,
		}
		got := MillimetersToMeters(mm)
		assert.Equal(t, mm[0]/1000, got.X)
		assert.Equal(t, mm[1]/1000, got.Y)
		assert.Equal(t, mm[2]/1000, got.Z)
	}

	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, MillimetersToMeters([3]float64{1000, 2000, 3000}))
}

func TestEulerFromNative_PassThrough(t *testing.T) {
	r := EulerFromNative([3]float64{0.1, -0.2, 3.0})
	assert.Equal(t, Euler, r.Kind)
	assert.Equal(t, r3.Vec{X: 0.1, Y: -0.2, Z: 3.0}, r.Euler)
}

func TestQuaternionFromNative_Reorders(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		raw := [4]float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		n := math.Sqrt(raw[0]*raw[0] + raw[1]*raw[1] + raw[2]*raw[2] + raw[3]*raw[3])
		for j := range raw {
			raw[j] /= n
		}

		r, err := QuaternionFromNative(raw)
		require.NoError(t, err)
		assert.Equal(t, Quaternion, r.Kind)
		assert.InDelta(t, raw[3], r.Quaternion.Real, tolerance)
		assert.InDelta(t, raw[0], r.Quaternion.Imag, tolerance)
		assert.InDelta(t, raw[1], r.Quaternion.Jmag, tolerance)
		assert.InDelta(t, raw[2], r.Quaternion.Kmag, tolerance)
	}
}

func TestQuaternionFromNative_Identity(t *testing.T) {
	r, err := QuaternionFromNative([4]float64{0, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, quat.Number{Real: 1}, r.Quaternion)
}

func TestQuaternionFromNative_Renormalizes(t *testing.T) {
	r, err := QuaternionFromNative([4]float64{0, 0, 0, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.Quaternion.Real, tolerance)
	assert.InDelta(t, 1.0, quat.Abs(r.Quaternion), tolerance)

	r, err = QuaternionFromNative([4]float64{1, 1, 1, 1})
	require.NoError(t, err)
	for _, c := range r.Components() {
		assert.InDelta(t, 0.5, c, tolerance)
	}
}

func TestQuaternionFromNative_Malformed(t *testing.T) {
	tests := map[string][4]float64{
		"zero": {0, 0, 0, 0},
		"nan":  {math.NaN(), 0, 0, 1},
		"inf":  {0, math.Inf(1), 0, 1},
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := QuaternionFromNative(raw)
			var ce *ConversionError
			require.True(t, errors.As(err, &ce), "expected ConversionError, got %v", err)
		})
	}
}

func TestConvertRotation_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		// keep pitch away from +-90 degrees (gimbal lock)
		in := EulerRotation(
			(rng.Float64()*2-1)*math.Pi*0.99,
			(rng.Float64()*2-1)*math.Pi/2*0.95,
			(rng.Float64()*2-1)*math.Pi*0.99,
		)

		q, err := ConvertRotation(in, Quaternion)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, quat.Abs(q.Quaternion), tolerance)

		out, err := ConvertRotation(q, Euler)
		require.NoError(t, err)
		assert.InDelta(t, in.Euler.X, out.Euler.X, 1e-7)
		assert.InDelta(t, in.Euler.Y, out.Euler.Y, 1e-7)
		assert.InDelta(t, in.Euler.Z, out.Euler.Z, 1e-7)
	}
}

func TestConvertRotation_KnownValues(t *testing.T) {
	// 90 degrees about Z
	q, err := ConvertRotation(EulerRotation(0, 0, math.Pi/2), Quaternion)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2/2, q.Quaternion.Real, tolerance)
	assert.InDelta(t, 0, q.Quaternion.Imag, tolerance)
	assert.InDelta(t, 0, q.Quaternion.Jmag, tolerance)
	assert.InDelta(t, math.Sqrt2/2, q.Quaternion.Kmag, tolerance)

	// the rotation carried by the quaternion must agree with gonum's r3 rotation
	rot := r3.Rotation(q.Quaternion)
	v := rot.Rotate(r3.Vec{X: 1})
	assert.InDelta(t, 0, v.X, tolerance)
	assert.InDelta(t, 1, v.Y, tolerance)

	e, err := ConvertRotation(IdentityQuaternion(), Euler)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{}, e.Euler)
}

func TestConvertRotation_SameKind(t *testing.T) {
	e := EulerRotation(0.1, 0.2, 0.3)
	got, err := ConvertRotation(e, Euler)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	q := Rotation{Kind: Quaternion, Quaternion: quat.Number{Real: 3}}
	got, err = ConvertRotation(q, Quaternion)
	require.NoError(t, err)
	assert.Equal(t, quat.Number{Real: 1}, got.Quaternion)
}

func TestConvertRotation_Malformed(t *testing.T) {
	_, err := ConvertRotation(EulerRotation(math.NaN(), 0, 0), Quaternion)
	var ce *ConversionError
	assert.True(t, errors.As(err, &ce))

	_, err = ConvertRotation(Rotation{Kind: Quaternion}, Euler)
	assert.True(t, errors.As(err, &ce))

	_, err = ConvertRotation(EulerRotation(0, 0, 0), RotationKind(9))
	assert.True(t, errors.As(err, &ce))
}

func TestParseRotationKind(t *testing.T) {
	for in, want := range map[string]RotationKind{
		"euler":      Euler,
		"Euler":      Euler,
		"quaternion": Quaternion,
		" quat ":     Quaternion,
		"q":          Quaternion,
	} {
		got, err := ParseRotationKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRotationKind("matrix")
	assert.Error(t, err)
}

func TestRotation_Components(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, EulerRotation(1, 2, 3).Components())
	assert.Equal(t, []float64{1, 0, 0, 0}, IdentityQuaternion().Components())
}
