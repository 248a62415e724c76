package geom

import "fmt"

// ElementCentroid returns the volume-weighted centroid of an element,
// computed by decomposing into the same tetrahedra ElementVolume uses
// and weighting each tet's own centroid (average of its 4 corners) by
// its signed volume. Falls back to the plain corner average when the
// element's total volume is (numerically) zero, so a degenerate
// element still yields a usable point instead of a divide-by-zero NaN.
func ElementCentroid(topology string, corners []Vec3) (Vec3, error) {
	tets, err := tetDecomposition(topology, corners)
	if err != nil {
		return Vec3{}, err
	}

	var weighted Vec3
	var totalVol float64
	for _, t := range tets {
		v := tetVolume(t[0], t[1], t[2], t[3])
		c := scale(add(add(t[0], t[1]), add(t[2], t[3])), 0.25)
		weighted = add(weighted, scale(c, v))
		totalVol += v
	}

	if totalVol == 0 {
		return cornerAverage(corners), nil
	}
	return scale(weighted, 1/totalVol), nil
}

func cornerAverage(corners []Vec3) Vec3 {
	var sum Vec3
	for _, c := range corners {
		sum = add(sum, c)
	}
	return scale(sum, 1/float64(len(corners)))
}

func tetDecomposition(topology string, c []Vec3) ([][4]Vec3, error) {
	n, err := expectedCorners(topology)
	if err != nil {
		return nil, err
	}
	if len(c) != n {
		return nil, fmt.Errorf("centroid: topology %q expects %d corners, got %d", topology, n, len(c))
	}

	idxSets := func() [][4]int {
		switch topology {
		case "HEX8":
			return [][4]int{
				{0, 1, 3, 4}, {1, 2, 3, 6}, {1, 3, 4, 6}, {3, 4, 6, 7}, {1, 4, 5, 6},
			}
		case "TET4":
			return [][4]int{{0, 1, 2, 3}}
		case "WEDGE6":
			return [][4]int{{0, 1, 2, 3}, {1, 2, 3, 4}, {2, 3, 4, 5}}
		case "PYRAMID5":
			return [][4]int{{0, 1, 2, 4}, {0, 2, 3, 4}}
		default:
			return nil
		}
	}()

	out := make([][4]Vec3, len(idxSets))
	for i, idx := range idxSets {
		out[i] = [4]Vec3{c[idx[0]], c[idx[1]], c[idx[2]], c[idx[3]]}
	}
	return out, nil
}
