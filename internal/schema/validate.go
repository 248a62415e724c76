package schema

import (
	"fmt"

	"github.com/meshio/exodus/internal/errs"
)

// ValidateBlockShape checks that a block's declared counts match the
// shape family implied by its topology (spec.md section 4.4,
// put_block), and that its node-per-entry count is the right one for
// its topology where the topology is known.
func ValidateBlockShape(b *Block) error {
	if b.NumEntries < 0 {
		return fmt.Errorf("block %d: num_entries negative: %w", b.ID, errs.ErrValidation)
	}
	if b.NodesPerEntry <= 0 {
		return fmt.Errorf("block %d: nodes_per_entry must be positive: %w", b.ID, errs.ErrValidation)
	}
	info, err := Topology(b.Topology)
	if err != nil {
		// unknown topology name: accept it (connectivity-only consumers
		// may define custom shapes) but the per-topology formulas in
		// internal/geom will refuse to operate on it later.
		return nil
	}
	if info.NumNodes != 0 && b.NodesPerEntry != info.NumNodes {
		return fmt.Errorf("block %d: topology %s expects %d nodes per entry, got %d: %w",
			b.ID, b.Topology, info.NumNodes, b.NodesPerEntry, errs.ErrValidation)
	}
	return nil
}

// ValidateConnectivity checks invariant I2: every connectivity node id
// lies in [1, numNodes].
func ValidateConnectivity(conn []NodeID, numNodes int) error {
	for i, id := range conn {
		if id < 1 || int64(id) > int64(numNodes) {
			return fmt.Errorf("connectivity[%d]=%d out of range [1,%d]: %w", i, id, numNodes, errs.ErrSchema)
		}
	}
	return nil
}

// ValidateElemBlockSum checks invariant I1: the sum of element-block
// num_entries equals num_elems.
func ValidateElemBlockSum(blocks []*Block, numElems int) error {
	var sum int
	for _, b := range blocks {
		if b.Kind == BlockElem {
			sum += b.NumEntries
		}
	}
	if sum != numElems {
		return fmt.Errorf("sum of element block entries (%d) != num_elems (%d): %w", sum, numElems, errs.ErrSchema)
	}
	return nil
}

// ValidateSideSet checks that elements/sides arrays have matching length
// and every element id is in range.
func ValidateSideSet(s *SideSet, numElems int) error {
	if len(s.Elements) != len(s.Sides) {
		return fmt.Errorf("side set %d: len(elements)=%d != len(sides)=%d: %w",
			s.ID, len(s.Elements), len(s.Sides), errs.ErrValidation)
	}
	for i, e := range s.Elements {
		if e < 1 || int64(e) > int64(numElems) {
			return fmt.Errorf("side set %d: element[%d]=%d out of range [1,%d]: %w",
				s.ID, i, e, numElems, errs.ErrSchema)
		}
	}
	if len(s.DistFactors) != 0 && len(s.DistFactors) != len(s.Elements) {
		return fmt.Errorf("side set %d: dist_factors length %d matches neither 0 nor %d: %w",
			s.ID, len(s.DistFactors), len(s.Elements), errs.ErrValidation)
	}
	return nil
}

// ValidateNodeSet checks node ids are in range and dist-factor shape.
func ValidateNodeSet(s *NodeSet, numNodes int) error {
	for i, n := range s.Nodes {
		if n < 1 || int64(n) > int64(numNodes) {
			return fmt.Errorf("node set %d: node[%d]=%d out of range [1,%d]: %w",
				s.ID, i, n, numNodes, errs.ErrSchema)
		}
	}
	if len(s.DistFactors) != 0 && len(s.DistFactors) != len(s.Nodes) {
		return fmt.Errorf("node set %d: dist_factors length %d matches neither 0 nor %d: %w",
			s.ID, len(s.DistFactors), len(s.Nodes), errs.ErrValidation)
	}
	return nil
}

// ValidateTruthTable checks a table's shape matches its declared entity
// and variable counts (spec.md section 4.4, put_truth_table).
func ValidateTruthTable(t *TruthTable) error {
	if len(t.Bits) != t.NumEntities*t.NumVars {
		return fmt.Errorf("truth table for %s: shape (%d x %d) but %d bits: %w",
			t.Kind, t.NumEntities, t.NumVars, len(t.Bits), errs.ErrValidation)
	}
	return nil
}

// ValidateMonotoneTime checks invariant I5: the new time value strictly
// exceeds the previous one, and that stepIdx is the next sequential
// index (spec.md section 4.4, put_time; section 9's resolved Open
// Question forbids out-of-order rewrites).
func ValidateMonotoneTime(stepIdx int, t float64, existing []float64) error {
	if stepIdx != len(existing) {
		return fmt.Errorf("put_time: step_idx %d != current step count %d: %w", stepIdx, len(existing), errs.ErrSequence)
	}
	if len(existing) > 0 && t <= existing[len(existing)-1] {
		return fmt.Errorf("put_time: time %g not strictly greater than previous %g: %w",
			t, existing[len(existing)-1], errs.ErrValidation)
	}
	return nil
}

// ValidateAssemblyDAG walks an assembly's entity list resolution chain
// (as supplied by resolve) and reports a schema error on a cycle.
func ValidateAssemblyDAG(id int64, resolve func(id int64) ([]int64, bool)) error {
	visited := map[int64]int{} // 0=unvisited,1=in-progress,2=done
	var walk func(int64) error
	walk = func(cur int64) error {
		switch visited[cur] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("assembly %d: cycle detected at %d: %w", id, cur, errs.ErrSchema)
		}
		visited[cur] = 1
		children, isAssembly := resolve(cur)
		if isAssembly {
			for _, c := range children {
				if err := walk(c); err != nil {
					return err
				}
			}
		}
		visited[cur] = 2
		return nil
	}
	return walk(id)
}
