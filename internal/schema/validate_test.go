package schema

import (
	"errors"
	"testing"

	"github.com/meshio/exodus/internal/errs"
)

func TestValidateBlockShapeHex8(t *testing.T) {
	b := &Block{ID: 100, Kind: BlockElem, Topology: "HEX8", NumEntries: 1, NodesPerEntry: 8}
	if err := ValidateBlockShape(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := &Block{ID: 101, Kind: BlockElem, Topology: "HEX8", NumEntries: 1, NodesPerEntry: 4}
	if err := ValidateBlockShape(bad); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateConnectivity(t *testing.T) {
	conn := []NodeID{1, 2, 3, 8}
	if err := ValidateConnectivity(conn, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateConnectivity([]NodeID{0, 9}, 8); !errors.Is(err, errs.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestValidateElemBlockSum(t *testing.T) {
	blocks := []*Block{
		{ID: 100, Kind: BlockElem, NumEntries: 3},
		{ID: 200, Kind: BlockElem, NumEntries: 2},
		{ID: 300, Kind: BlockFace, NumEntries: 99}, // not counted
	}
	if err := ValidateElemBlockSum(blocks, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateElemBlockSum(blocks, 6); !errors.Is(err, errs.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestValidateMonotoneTime(t *testing.T) {
	existing := []float64{0.0, 0.1}
	if err := ValidateMonotoneTime(2, 0.2, existing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateMonotoneTime(5, 0.3, existing); !errors.Is(err, errs.ErrSequence) {
		t.Fatalf("expected ErrSequence for bad step index, got %v", err)
	}
	if err := ValidateMonotoneTime(2, 0.05, existing); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected ErrValidation for non-monotone time, got %v", err)
	}
}

func TestValidateAssemblyDAGCycle(t *testing.T) {
	// 1 -> 2 -> 1 is a cycle
	graph := map[int64][]int64{1: {2}, 2: {1}}
	resolve := func(id int64) ([]int64, bool) {
		children, ok := graph[id]
		return children, ok
	}
	if err := ValidateAssemblyDAG(1, resolve); !errors.Is(err, errs.ErrSchema) {
		t.Fatalf("expected cycle to be detected, got %v", err)
	}
}

func TestValidateAssemblyDAGAcyclic(t *testing.T) {
	graph := map[int64][]int64{1: {2, 3}, 2: {4}, 3: {4}}
	resolve := func(id int64) ([]int64, bool) {
		children, ok := graph[id]
		return children, ok
	}
	if err := ValidateAssemblyDAG(1, resolve); err != nil {
		t.Fatalf("unexpected error on acyclic DAG: %v", err)
	}
}

func TestTruthTableDefaultAllTrue(t *testing.T) {
	tt := NewTruthTable(KindElemBlock, 3, 2)
	for e := 0; e < 3; e++ {
		for v := 0; v < 2; v++ {
			if !tt.Get(e, v) {
				t.Fatalf("expected default truth table to be all-true at (%d,%d)", e, v)
			}
		}
	}
}
