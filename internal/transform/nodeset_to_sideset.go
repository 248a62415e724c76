package transform

import (
	"fmt"
	"sort"

	"github.com/meshio/exodus/internal/geom"
	"github.com/meshio/exodus/internal/schema"
)

// ElementRef names one element's connectivity and topology, enough to
// enumerate its faces and, with a coordinate lookup, their geometry.
type ElementRef struct {
	ElemID       schema.ElemID
	Topology     string
	Connectivity []schema.NodeID // this element's node list, connectivity order
}

// Warning is a non-fatal diagnostic surfaced by a transform operator
// (spec.md section 4.7's Warnings channel) — a problem worth the
// caller's attention that does not abort the operation.
type Warning struct {
	Stage   string
	Message string
}

// faceHit is one candidate boundary face: which element and local side
// it came from, its vertex list in face-winding order, and the owning
// element's full connectivity (needed to locate its centroid).
type faceHit struct {
	elem  schema.ElemID
	side  schema.SideID
	verts []schema.NodeID
	conn  []schema.NodeID
}

// NodeSetToSideSet extracts the boundary faces of the elements in
// `elements` whose every face-vertex lies in `nodeIDs`, emitting one
// SideSet entry per such face that is incident to exactly one element
// (a true boundary face); faces shared by two or more candidate
// elements are interior and are skipped. coords resolves a node id to
// its position, used to check that every extracted face's outward
// normal (face centroid minus owning-element centroid) points away
// from the element consistently; an inconsistency is reported as a
// non-fatal Warning rather than failing the conversion (spec.md
// section 4.7, scenario 5). coords may be nil to skip the check.
func NodeSetToSideSet(setID int64, nodeIDs []schema.NodeID, elements []ElementRef, coords func(schema.NodeID) (geom.Vec3, bool)) (*schema.SideSet, []Warning, error) {
	nodeSet := make(map[schema.NodeID]bool, len(nodeIDs))
	for _, n := range nodeIDs {
		nodeSet[n] = true
	}

	bySig := map[string][]faceHit{}

	for _, el := range elements {
		info, err := schema.Topology(el.Topology)
		if err != nil || info.Faces == nil {
			continue
		}
		for faceIdx, faceNodeOrdinals := range info.Faces {
			verts := make([]schema.NodeID, len(faceNodeOrdinals))
			allIn := true
			for i, ord := range faceNodeOrdinals {
				if ord-1 >= len(el.Connectivity) {
					allIn = false
					break
				}
				n := el.Connectivity[ord-1]
				verts[i] = n
				if !nodeSet[n] {
					allIn = false
				}
			}
			if !allIn {
				continue
			}
			s := vertexSignature(verts)
			bySig[s] = append(bySig[s], faceHit{
				elem: el.ElemID, side: schema.SideID(faceIdx + 1), verts: verts, conn: el.Connectivity,
			})
		}
	}

	result := &schema.SideSet{ID: setID}
	var boundary []faceHit
	for _, hits := range bySig {
		if len(hits) == 1 {
			boundary = append(boundary, hits[0])
		}
	}
	sort.Slice(boundary, func(i, j int) bool {
		if boundary[i].elem != boundary[j].elem {
			return boundary[i].elem < boundary[j].elem
		}
		return boundary[i].side < boundary[j].side
	})
	for _, b := range boundary {
		result.Elements = append(result.Elements, b.elem)
		result.Sides = append(result.Sides, b.side)
	}

	var warnings []Warning
	if coords != nil && !orientationConsistent(boundary, coords) {
		warnings = append(warnings, Warning{
			Stage:   "nodeset-to-sideset",
			Message: fmt.Sprintf("side set %d: extracted faces have inconsistent outward orientation", setID),
		})
	}

	return result, warnings, nil
}

func vertexSignature(verts []schema.NodeID) string {
	sorted := append([]schema.NodeID(nil), verts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	s := ""
	for _, v := range sorted {
		s += fmt.Sprintf("%d,", v)
	}
	return s
}

// orientationConsistent checks that every face's outward direction
// (face-corner average minus element-corner average, using plain
// averages since only the sign matters here) and the face polygon's own
// planar normal (first-edge cross second-edge) have a dot product of
// the same sign for every boundary face (zero counts as positive). Only
// this shared sign is checked, not which sign it is; one face with the
// other sign marks the whole extraction inconsistent.
func orientationConsistent(faces []faceHit, coords func(schema.NodeID) (geom.Vec3, bool)) bool {
	if len(faces) == 0 {
		return true
	}
	var sign int
	for _, f := range faces {
		if len(f.verts) < 3 {
			continue
		}
		facePts := make([]geom.Vec3, 0, len(f.verts))
		ok := true
		for _, v := range f.verts {
			p, found := coords(v)
			if !found {
				ok = false
				break
			}
			facePts = append(facePts, p)
		}
		elemPts := make([]geom.Vec3, 0, len(f.conn))
		for _, v := range f.conn {
			p, found := coords(v)
			if !found {
				ok = false
				break
			}
			elemPts = append(elemPts, p)
		}
		if !ok {
			continue
		}

		faceCentroid := average(facePts)
		elemCentroid := average(elemPts)
		outward := geom.Vec3{
			X: faceCentroid.X - elemCentroid.X,
			Y: faceCentroid.Y - elemCentroid.Y,
			Z: faceCentroid.Z - elemCentroid.Z,
		}

		e1 := geom.Vec3{X: facePts[1].X - facePts[0].X, Y: facePts[1].Y - facePts[0].Y, Z: facePts[1].Z - facePts[0].Z}
		e2 := geom.Vec3{X: facePts[2].X - facePts[0].X, Y: facePts[2].Y - facePts[0].Y, Z: facePts[2].Z - facePts[0].Z}
		normal := geom.Vec3{
			X: e1.Y*e2.Z - e1.Z*e2.Y,
			Y: e1.Z*e2.X - e1.X*e2.Z,
			Z: e1.X*e2.Y - e1.Y*e2.X,
		}

		d := normal.X*outward.X + normal.Y*outward.Y + normal.Z*outward.Z
		cur := 1
		if d < 0 {
			cur = -1
		}
		if sign == 0 {
			sign = cur
		} else if sign != cur {
			return false
		}
	}
	return true
}

func average(pts []geom.Vec3) geom.Vec3 {
	var sum geom.Vec3
	for _, p := range pts {
		sum.X += p.X
		sum.Y += p.Y
		sum.Z += p.Z
	}
	n := float64(len(pts))
	if n == 0 {
		return sum
	}
	return geom.Vec3{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
}
