// Package transform implements the mesh/results transform operators
// (coordinate transform, tensor rotation, NodeSet->SideSet conversion)
// and the pipeline that orchestrates them end to end.
package transform

import (
	"fmt"
	"math"

	"github.com/meshio/exodus/internal/geom"
)

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul multiplies two 3x3 matrices, m*n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += m[i][k] * n[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

// Transpose returns m^T.
func (m Mat3) Transpose() Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

// Apply transforms a point by m.
func (m Mat3) Apply(v geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// EulerAxis names one of the three fixed coordinate axes used by
// Euler-sequence rotations.
type EulerAxis int

const (
	AxisX EulerAxis = iota
	AxisY
	AxisZ
)

func axisMatrix(axis EulerAxis, radians float64) Mat3 {
	s, c := math.Sin(radians), math.Cos(radians)
	switch axis {
	case AxisX:
		return Mat3{{1, 0, 0}, {0, c, -s}, {0, s, c}}
	case AxisY:
		return Mat3{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
	default:
		return Mat3{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
	}
}

// EulerStep is one rotation about a fixed coordinate axis in an Euler
// sequence.
type EulerStep struct {
	Axis    EulerAxis
	Radians float64
}

// RotationFromEuler composes an ordered sequence of rotations about the
// fixed coordinate axes into a single matrix, applied in the order given
// (the last step in the slice is the outermost rotation).
func RotationFromEuler(steps []EulerStep) Mat3 {
	r := Identity3()
	for _, s := range steps {
		r = axisMatrix(s.Axis, s.Radians).Mul(r)
	}
	return r
}

// RotationFromArbitraryAxis builds a rotation matrix for a right-handed
// rotation of `radians` about the unit axis `axis` (Rodrigues' formula).
// Returns an error if axis is not (numerically) a unit vector.
func RotationFromArbitraryAxis(axis geom.Vec3, radians float64) (Mat3, error) {
	lenSq := axis.X*axis.X + axis.Y*axis.Y + axis.Z*axis.Z
	if math.Abs(lenSq-1) > 1e-6 {
		return Mat3{}, fmt.Errorf("rotation axis must be a unit vector, got length^2=%v", lenSq)
	}
	s, c := math.Sin(radians), math.Cos(radians)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z
	return Mat3{
		{t*x*x + c, t*x*y - s*z, t*x*z + s*y},
		{t*x*y + s*z, t*y*y + c, t*y*z - s*x},
		{t*x*z - s*y, t*y*z + s*x, t*z*z + c},
	}, nil
}

// CoordinateTransform describes a scale -> rotate -> translate operator
// applied to every node's coordinates, in that order (spec.md section 4.7).
type CoordinateTransform struct {
	Scale    float64
	Rotation Mat3
	Offset   geom.Vec3
}

// Apply transforms a single point.
func (ct CoordinateTransform) Apply(p geom.Vec3) geom.Vec3 {
	scaled := geom.Vec3{X: p.X * ct.Scale, Y: p.Y * ct.Scale, Z: p.Z * ct.Scale}
	rotated := ct.Rotation.Apply(scaled)
	return geom.Vec3{X: rotated.X + ct.Offset.X, Y: rotated.Y + ct.Offset.Y, Z: rotated.Z + ct.Offset.Z}
}

// ApplyAll transforms a dense coordinate array in place and also
// returns it, for chaining.
func (ct CoordinateTransform) ApplyAll(points []geom.Vec3) []geom.Vec3 {
	for i, p := range points {
		points[i] = ct.Apply(p)
	}
	return points
}

// VoigtTensor is a symmetric 3x3 tensor in Voigt ordering:
// [xx, yy, zz, xy, yz, xz].
type VoigtTensor [6]float64

func (v VoigtTensor) toMat3() Mat3 {
	return Mat3{
		{v[0], v[3], v[5]},
		{v[3], v[1], v[4]},
		{v[5], v[4], v[2]},
	}
}

func fromMat3ToVoigt(m Mat3) VoigtTensor {
	return VoigtTensor{m[0][0], m[1][1], m[2][2], m[0][1], m[1][2], m[0][2]}
}

// RotateTensor applies R*T*R^T to a symmetric tensor in Voigt ordering,
// preserving trace and determinant to within floating-point error —
// the property the round-trip tests in spec.md section 8 check.
func RotateTensor(t VoigtTensor, r Mat3) VoigtTensor {
	m := t.toMat3()
	rotated := r.Mul(m).Mul(r.Transpose())
	return fromMat3ToVoigt(rotated)
}
