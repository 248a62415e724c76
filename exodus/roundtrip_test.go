package exodus

import (
	"path/filepath"
	"testing"
)

func unitCubeParams() InitParams {
	return InitParams{
		Title:         "unit cube",
		NumDim:        3,
		NumNodes:      8,
		NumElems:      1,
		NumElemBlocks: 1,
	}
}

func unitCubeCoords() Coordinates {
	return Coordinates{
		X: []float64{0, 1, 1, 0, 0, 1, 1, 0},
		Y: []float64{0, 0, 1, 1, 0, 0, 1, 1},
		Z: []float64{0, 0, 0, 0, 1, 1, 1, 1},
	}
}

func TestUnitCubeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.ex2")

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

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	coords, err := r.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	if len(coords.X) != 8 || coords.X[1] != 1 {
		t.Fatalf("unexpected coordinates: %+v", coords)
	}

	conn, err := r.Connectivity(1)
	if err != nil {
		t.Fatalf("Connectivity: %v", err)
	}
	if len(conn) != 8 || conn[0] != 1 {
		t.Fatalf("unexpected connectivity: %v", conn)
	}

	title, err := r.Title()
	if err != nil || title != "unit cube" {
		t.Fatalf("Title: %q, err=%v", title, err)
	}
}

func TestTwoBlockHeterogeneousMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two-block.ex2")

	params := InitParams{Title: "two blocks", NumDim: 3, NumNodes: 12, NumElems: 2, NumElemBlocks: 2}
	w, err := NewWriter(path, params)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.DefineElemBlock(Block{ID: 1, Kind: BlockElem, Topology: "HEX8", NumEntries: 1, NodesPerEntry: 8}); err != nil {
		t.Fatalf("DefineElemBlock 1: %v", err)
	}
	if err := w.DefineElemBlock(Block{ID: 2, Kind: BlockElem, Topology: "TET4", NumEntries: 1, NodesPerEntry: 4}); err != nil {
		t.Fatalf("DefineElemBlock 2: %v", err)
	}
	coords := Coordinates{X: make([]float64, 12), Y: make([]float64, 12), Z: make([]float64, 12)}
	if err := w.PutCoordinates(coords); err != nil {
		t.Fatalf("PutCoordinates: %v", err)
	}
	if err := w.PutConnectivity(1, []NodeID{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("PutConnectivity 1: %v", err)
	}
	if err := w.PutConnectivity(2, []NodeID{9, 10, 11, 12}); err != nil {
		t.Fatalf("PutConnectivity 2: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	conn2, err := r.Connectivity(2)
	if err != nil {
		t.Fatalf("Connectivity(2): %v", err)
	}
	if len(conn2) != 4 || conn2[0] != 9 {
		t.Fatalf("unexpected block 2 connectivity: %v", conn2)
	}
}

func TestTimeVaryingGlobalAndNodalVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.ex2")

	params := unitCubeParams()
	w, err := NewWriter(path, params)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.DefineElemBlock(Block{ID: 1, Kind: BlockElem, Topology: "HEX8", NumEntries: 1, NodesPerEntry: 8}); err != nil {
		t.Fatalf("DefineElemBlock: %v", err)
	}
	if err := w.DefineGlobalVariables([]string{"kinetic_energy"}); err != nil {
		t.Fatalf("DefineGlobalVariables: %v", err)
	}
	if err := w.DefineNodalVariables([]string{"temp"}); err != nil {
		t.Fatalf("DefineNodalVariables: %v", err)
	}
	if err := w.PutCoordinates(unitCubeCoords()); err != nil {
		t.Fatalf("PutCoordinates: %v", err)
	}
	if err := w.PutConnectivity(1, []NodeID{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("PutConnectivity: %v", err)
	}

	for step := 0; step < 3; step++ {
		if err := w.PutTimeStep(step, float64(step)*0.1); err != nil {
			t.Fatalf("PutTimeStep(%d): %v", step, err)
		}
		if err := w.PutGlobalVariables(step, []float64{float64(step) * 10}); err != nil {
			t.Fatalf("PutGlobalVariables(%d): %v", step, err)
		}
		temps := make([]float64, 8)
		for i := range temps {
			temps[i] = float64(step) + float64(i)*0.01
		}
		if err := w.PutNodalVariable(step, "temp", temps); err != nil {
			t.Fatalf("PutNodalVariable(%d): %v", step, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	n, err := r.NumTimeSteps()
	if err != nil || n != 3 {
		t.Fatalf("NumTimeSteps: %d, err=%v", n, err)
	}

	hist, err := r.GlobalHistory("kinetic_energy")
	if err != nil {
		t.Fatalf("GlobalHistory: %v", err)
	}
	want := []float64{0, 10, 20}
	for i := range want {
		if hist[i] != want[i] {
			t.Fatalf("GlobalHistory[%d] = %v, want %v", i, hist[i], want[i])
		}
	}

	series, err := r.NodalVariableSeries("temp", 3, 0, 3)
	if err != nil {
		t.Fatalf("NodalVariableSeries: %v", err)
	}
	wantSeries := []float64{0.03, 1.03, 2.03}
	for i := range wantSeries {
		if series[i] != wantSeries[i] {
			t.Fatalf("NodalVariableSeries[%d] = %v, want %v", i, series[i], wantSeries[i])
		}
	}
}

func TestPutTimeStepRejectsOutOfOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badtime.ex2")
	w, err := NewWriter(path, unitCubeParams())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.PutTimeStep(0, 1.0); err != nil {
		t.Fatalf("PutTimeStep(0): %v", err)
	}
	if err := w.PutTimeStep(1, 0.5); err == nil {
		t.Fatalf("expected non-monotone time to fail")
	}
}

func TestAppenderAddsStepsWithoutDisturbingExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "append.ex2")

	params := unitCubeParams()
	w, err := NewWriter(path, params)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.DefineElemBlock(Block{ID: 1, Kind: BlockElem, Topology: "HEX8", NumEntries: 1, NodesPerEntry: 8}); err != nil {
		t.Fatalf("DefineElemBlock: %v", err)
	}
	if err := w.DefineGlobalVariables([]string{"ke"}); err != nil {
		t.Fatalf("DefineGlobalVariables: %v", err)
	}
	if err := w.PutCoordinates(unitCubeCoords()); err != nil {
		t.Fatalf("PutCoordinates: %v", err)
	}
	if err := w.PutConnectivity(1, []NodeID{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("PutConnectivity: %v", err)
	}
	if err := w.PutTimeStep(0, 1.0); err != nil {
		t.Fatalf("PutTimeStep: %v", err)
	}
	if err := w.PutGlobalVariables(0, []float64{1.0}); err != nil {
		t.Fatalf("PutGlobalVariables: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	a, err := NewAppender(path)
	if err != nil {
		t.Fatalf("NewAppender: %v", err)
	}
	step, err := a.PutTimeStep(2.0)
	if err != nil {
		t.Fatalf("PutTimeStep: %v", err)
	}
	if step != 1 {
		t.Fatalf("expected step 1, got %d", step)
	}
	if err := a.PutGlobalVariables(step, []float64{2.0}); err != nil {
		t.Fatalf("PutGlobalVariables: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close appender: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	n, err := r.NumTimeSteps()
	if err != nil || n != 2 {
		t.Fatalf("NumTimeSteps: %d, err=%v", n, err)
	}
	v0, err := r.GlobalVariables(0)
	if err != nil || v0[0] != 1.0 {
		t.Fatalf("step 0 disturbed: %v, err=%v", v0, err)
	}
	v1, err := r.GlobalVariables(1)
	if err != nil || v1[0] != 2.0 {
		t.Fatalf("step 1 missing: %v, err=%v", v1, err)
	}
}
