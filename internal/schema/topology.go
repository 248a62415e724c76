package schema

import (
	"fmt"

	"github.com/meshio/exodus/internal/errs"
)

var errUnsupportedTopology = errs.ErrUnsupportedTopology

// TopologyInfo is the capability-table row for one named element shape:
// how many nodes it has and, where defined, its local face layout. This
// is the same function/metadata-table-by-key shape the teacher's
// internal/util.GetDistanceFunc used for distance metrics, generalized
// from "metric name -> function" to "topology name -> shape facts".
type TopologyInfo struct {
	Name      string
	Dimension int // 0 to 3 (0 for SPHERE) — used by the volume-scaling property (volume scales as s^Dimension)
	NumNodes  int

	// Faces lists, for 3-D solid topologies, the node ordering of each
	// local face (1-based, as used by SideSet.Sides). nil for topologies
	// with no meaningful "face" concept (shells, beams, spheres, lines).
	Faces [][]int
}

// Canonical topology table. HEX8's face ordering is the Sandia/Exodus II
// convention reproduced by the reference test fixtures (see DESIGN.md's
// "Open Questions resolved" entry): each face's vertex order also gives
// an outward-normal-consistent winding when combined with the standard
// HEX8 corner numbering (1-8 = bottom CCW then top CCW, viewed from
// outside).
var topologies = map[string]TopologyInfo{
	"HEX8": {
		Name: "HEX8", Dimension: 3, NumNodes: 8,
		Faces: [][]int{
			{1, 2, 6, 5},
			{2, 3, 7, 6},
			{3, 4, 8, 7},
			{1, 5, 8, 4},
			{1, 4, 3, 2},
			{5, 6, 7, 8},
		},
	},
	"TET4": {
		Name: "TET4", Dimension: 3, NumNodes: 4,
		Faces: [][]int{
			{1, 2, 4},
			{2, 3, 4},
			{1, 4, 3},
			{1, 3, 2},
		},
	},
	"WEDGE6": {
		Name: "WEDGE6", Dimension: 3, NumNodes: 6,
		Faces: [][]int{
			{1, 2, 5, 4},
			{2, 3, 6, 5},
			{1, 4, 6, 3},
			{1, 3, 2},
			{4, 5, 6},
		},
	},
	"PYRAMID5": {
		Name: "PYRAMID5", Dimension: 3, NumNodes: 5,
		Faces: [][]int{
			{1, 2, 5},
			{2, 3, 5},
			{3, 4, 5},
			{1, 5, 4},
			{1, 4, 3, 2},
		},
	},
	"QUAD4":  {Name: "QUAD4", Dimension: 2, NumNodes: 4},
	"TRI3":   {Name: "TRI3", Dimension: 2, NumNodes: 3},
	"SHELL4": {Name: "SHELL4", Dimension: 2, NumNodes: 4},
	"LINE2":  {Name: "LINE2", Dimension: 1, NumNodes: 2},
	"BEAM":   {Name: "BEAM", Dimension: 1, NumNodes: 2},
	"SPHERE": {Name: "SPHERE", Dimension: 0, NumNodes: 1},
}

// Topology looks up a topology by its bounded-string name.
func Topology(name string) (TopologyInfo, error) {
	info, ok := topologies[name]
	if !ok {
		return TopologyInfo{}, fmt.Errorf("topology %q: %w", name, errUnsupportedTopology)
	}
	return info, nil
}

// ExpectedNodesPerEntry reports the node count a block of the given
// topology must declare.
func ExpectedNodesPerEntry(topology string) (int, error) {
	info, err := Topology(topology)
	if err != nil {
		return 0, err
	}
	return info.NumNodes, nil
}
