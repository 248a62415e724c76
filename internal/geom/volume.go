// Package geom computes per-element geometric quantities (volume,
// centroid) and spatial search over a mesh's nodes/elements. It depends
// only on internal/errs for its error kinds, never on the substrate.
package geom

import (
	"fmt"

	"github.com/meshio/exodus/internal/errs"
)

// Vec3 is a point or vector in R^3. Z is 0 for 2-D meshes.
type Vec3 struct {
	X, Y, Z float64
}

func sub(a, b Vec3) Vec3   { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func cross(a, b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}
func dot(a, b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func scale(a Vec3, s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func add(a, b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

// volumeFuncs dispatches by topology name the way the teacher's
// internal/util.GetDistanceFunc dispatched by metric name to a distance
// formula — a small table of closed-form functions, swapped from
// distance metrics to per-topology volume formulas.
var volumeFuncs = map[string]func([]Vec3) float64{
	"HEX8":     hex8Volume,
	"TET4":     tet4Volume,
	"WEDGE6":   wedge6Volume,
	"PYRAMID5": pyramid5Volume,
}

// ElementVolume computes the signed volume of one element given its
// corner coordinates in connectivity order. Degenerate or inverted
// elements return a zero or negative value rather than panicking or
// erroring — callers that care about mesh quality inspect the sign
// themselves (spec.md section 4.6, resolved Open Question).
func ElementVolume(topology string, corners []Vec3) (float64, error) {
	fn, ok := volumeFuncs[topology]
	if !ok {
		return 0, fmt.Errorf("volume: topology %q: %w", topology, errs.ErrUnsupportedTopology)
	}
	info, err := expectedCorners(topology)
	if err != nil {
		return 0, err
	}
	if len(corners) != info {
		return 0, fmt.Errorf("volume: topology %q expects %d corners, got %d: %w",
			topology, info, len(corners), errs.ErrValidation)
	}
	return fn(corners), nil
}

// hex8Volume decomposes the hexahedron into 5 tetrahedra (the standard
// corner-split: one central tet plus four corner tets sharing the
// opposite diagonal) and sums their signed volumes. Exact for any
// convex hexahedron and degrades gracefully (toward zero, never NaN)
// as the shape flattens.
func hex8Volume(c []Vec3) float64 {
	// 0-based corner indices matching the 1-based HEX8 corner numbering.
	tets := [5][4]int{
		{0, 1, 3, 4},
		{1, 2, 3, 6},
		{1, 3, 4, 6},
		{3, 4, 6, 7},
		{1, 4, 5, 6},
	}
	var total float64
	for _, t := range tets {
		total += tetVolume(c[t[0]], c[t[1]], c[t[2]], c[t[3]])
	}
	return total
}

func tet4Volume(c []Vec3) float64 {
	return tetVolume(c[0], c[1], c[2], c[3])
}

// tetVolume is the scalar triple product divided by 6.
func tetVolume(a, b, c, d Vec3) float64 {
	e1 := sub(b, a)
	e2 := sub(c, a)
	e3 := sub(d, a)
	return dot(cross(e1, e2), e3) / 6.0
}

// wedge6Volume splits the triangular prism into 3 tetrahedra.
func wedge6Volume(c []Vec3) float64 {
	tets := [3][4]int{
		{0, 1, 2, 3},
		{1, 2, 3, 4},
		{2, 3, 4, 5},
	}
	var total float64
	for _, t := range tets {
		total += tetVolume(c[t[0]], c[t[1]], c[t[2]], c[t[3]])
	}
	return total
}

// pyramid5Volume uses base-area x height / 3 via the base's diagonal
// split into two triangles, apex at corner 4.
func pyramid5Volume(c []Vec3) float64 {
	apex := c[4]
	base := [2][3]int{{0, 1, 2}, {0, 2, 3}}
	var total float64
	for _, tri := range base {
		total += tetVolume(c[tri[0]], c[tri[1]], c[tri[2]], apex)
	}
	return total
}

func expectedCorners(topology string) (int, error) {
	switch topology {
	case "HEX8":
		return 8, nil
	case "TET4":
		return 4, nil
	case "WEDGE6":
		return 6, nil
	case "PYRAMID5":
		return 5, nil
	default:
		return 0, fmt.Errorf("volume: topology %q: %w", topology, errs.ErrUnsupportedTopology)
	}
}
