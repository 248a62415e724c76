package exodus

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/meshio/exodus/internal/geom"
	"github.com/meshio/exodus/internal/transform"
)

func TestAppenderRejectsUndefinedNodalVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appender-undef.ex2")
	w, err := NewWriter(path, unitCubeParams())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.DefineElemBlock(Block{ID: 1, Kind: BlockElem, Topology: "HEX8", NumEntries: 1, NodesPerEntry: 8}); err != nil {
		t.Fatalf("DefineElemBlock: %v", err)
	}
	if err := w.PutCoordinates(unitCubeCoords()); err != nil {
		t.Fatalf("PutCoordinates: %v", err)
	}
	if err := w.PutConnectivity(1, []NodeID{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("PutConnectivity: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	a, err := NewAppender(path)
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	defer a.Close()

	step, err := a.PutTimeStep(1.0)
	if err != nil {
		t.Fatalf("PutTimeStep: %v", err)
	}
	err = a.PutNodalVariable(step, "never_defined", make([]float64, 8))
	if !errors.Is(err, ErrNotDefined) {
		t.Fatalf("expected ErrNotDefined, got %v", err)
	}
}

func TestAppenderCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appender-idempotent.ex2")
	w, err := NewWriter(path, unitCubeParams())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	a, err := NewAppender(path)
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}

func newClosedUnitCubeWriter(t *testing.T, path string) {
	t.Helper()
	w, err := NewWriter(path, unitCubeParams())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.DefineElemBlock(Block{ID: 1, Kind: BlockElem, Topology: "HEX8", NumEntries: 1, NodesPerEntry: 8}); err != nil {
		t.Fatalf("DefineElemBlock: %v", err)
	}
	if err := w.PutCoordinates(unitCubeCoords()); err != nil {
		t.Fatalf("PutCoordinates: %v", err)
	}
	if err := w.PutConnectivity(1, []NodeID{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("PutConnectivity: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestAppenderTranslateShiftsCoordinatesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "translate.ex2")
	newClosedUnitCubeWriter(t, path)

	a, err := NewAppender(path)
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	if err := a.Translate(10, 20, 30); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	coords, err := r.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	want := unitCubeCoords()
	for i := range want.X {
		if coords.X[i] != want.X[i]+10 || coords.Y[i] != want.Y[i]+20 || coords.Z[i] != want.Z[i]+30 {
			t.Fatalf("node %d not translated: got (%v,%v,%v)", i, coords.X[i], coords.Y[i], coords.Z[i])
		}
	}
	conn, err := r.Connectivity(1)
	if err != nil || len(conn) != 8 || conn[0] != 1 {
		t.Fatalf("connectivity disturbed by translate: %v, err=%v", conn, err)
	}
}

func TestAppenderScaleMultipliesCoordinatesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scale.ex2")
	newClosedUnitCubeWriter(t, path)

	a, err := NewAppender(path)
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	if err := a.Scale(2.0); err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	coords, err := r.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	want := unitCubeCoords()
	for i := range want.X {
		if coords.X[i] != want.X[i]*2 || coords.Y[i] != want.Y[i]*2 || coords.Z[i] != want.Z[i]*2 {
			t.Fatalf("node %d not scaled: got (%v,%v,%v)", i, coords.X[i], coords.Y[i], coords.Z[i])
		}
	}
}

func TestAppenderRotateArbitraryAxis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotate.ex2")
	newClosedUnitCubeWriter(t, path)

	a, err := NewAppender(path)
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	// 90 degree rotation about Z: (1,0,0) -> (0,1,0)
	if err := a.RotateArbitraryAxis(geom.Vec3{X: 0, Y: 0, Z: 1}, math.Pi/2); err != nil {
		t.Fatalf("RotateArbitraryAxis: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	coords, err := r.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	// node index 1 started at (1,0,0)
	if math.Abs(coords.X[1]) > 1e-9 || math.Abs(coords.Y[1]-1) > 1e-9 {
		t.Fatalf("node 1 not rotated as expected: got (%v,%v,%v)", coords.X[1], coords.Y[1], coords.Z[1])
	}
}

func TestAppenderRotateEuler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "euler.ex2")
	newClosedUnitCubeWriter(t, path)

	a, err := NewAppender(path)
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	steps := []transform.EulerStep{{Axis: transform.AxisZ, Radians: math.Pi / 2}}
	if err := a.RotateEuler(steps); err != nil {
		t.Fatalf("RotateEuler: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	coords, err := r.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	if math.Abs(coords.X[1]) > 1e-9 || math.Abs(coords.Y[1]-1) > 1e-9 {
		t.Fatalf("node 1 not rotated as expected: got (%v,%v,%v)", coords.X[1], coords.Y[1], coords.Z[1])
	}
}

func TestAppenderConvertNodeSetToSideSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convert.ex2")
	w, err := NewWriter(path, unitCubeParams())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.DefineElemBlock(Block{ID: 1, Kind: BlockElem, Topology: "HEX8", NumEntries: 1, NodesPerEntry: 8}); err != nil {
		t.Fatalf("DefineElemBlock: %v", err)
	}
	if err := w.DefineNodeSet(NodeSet{ID: 10, Nodes: []NodeID{1, 2, 3, 4}, Name: "bottom"}); err != nil {
		t.Fatalf("DefineNodeSet: %v", err)
	}
	if err := w.PutCoordinates(unitCubeCoords()); err != nil {
		t.Fatalf("PutCoordinates: %v", err)
	}
	if err := w.PutConnectivity(1, []NodeID{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("PutConnectivity: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	a, err := NewAppender(path)
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	ss, _, err := a.ConvertNodeSetToSideSet(10, 20)
	if err != nil {
		t.Fatalf("ConvertNodeSetToSideSet: %v", err)
	}
	if len(ss.Elements) != 1 || ss.Elements[0] != 1 || len(ss.Sides) != 1 || ss.Sides[0] != 5 {
		t.Fatalf("unexpected converted side set: %+v", ss)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	gotSS, err := r.SideSet(20)
	if err != nil {
		t.Fatalf("SideSet: %v", err)
	}
	if len(gotSS.Elements) != 1 || gotSS.Elements[0] != 1 || gotSS.Sides[0] != 5 {
		t.Fatalf("persisted side set unexpected: %+v", gotSS)
	}
}

func TestAppenderConvertNodeSetToSideSetAutoID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convert-auto.ex2")
	w, err := NewWriter(path, unitCubeParams())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.DefineElemBlock(Block{ID: 1, Kind: BlockElem, Topology: "HEX8", NumEntries: 1, NodesPerEntry: 8}); err != nil {
		t.Fatalf("DefineElemBlock: %v", err)
	}
	if err := w.DefineNodeSet(NodeSet{ID: 10, Nodes: []NodeID{1, 2, 3, 4}, Name: "bottom"}); err != nil {
		t.Fatalf("DefineNodeSet: %v", err)
	}
	if err := w.DefineSideSet(SideSet{ID: 7, Elements: []ElemID{1}, Sides: []SideID{1}, Name: "existing"}); err != nil {
		t.Fatalf("DefineSideSet: %v", err)
	}
	if err := w.PutCoordinates(unitCubeCoords()); err != nil {
		t.Fatalf("PutCoordinates: %v", err)
	}
	if err := w.PutConnectivity(1, []NodeID{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("PutConnectivity: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	a, err := NewAppender(path)
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	ss, _, err := a.ConvertNodeSetToSideSetAutoID(10)
	if err != nil {
		t.Fatalf("ConvertNodeSetToSideSetAutoID: %v", err)
	}
	if ss.ID != 8 {
		t.Fatalf("expected auto-assigned id 8, got %d", ss.ID)
	}
	if ss.Name != "bottom" {
		t.Fatalf("expected copied source name %q, got %q", "bottom", ss.Name)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	gotSS, err := r.SideSet(8)
	if err != nil {
		t.Fatalf("SideSet(8): %v", err)
	}
	if gotSS.Name != "bottom" {
		t.Fatalf("persisted side set name mismatch: %+v", gotSS)
	}
}
