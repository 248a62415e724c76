package transform

import (
	"testing"

	"github.com/meshio/exodus/internal/geom"
	"github.com/meshio/exodus/internal/schema"
)

type fakeSource struct {
	coords   schema.Coordinates
	numSteps int
	conn     map[int64][]schema.NodeID
	globals  map[int][]float64
	nodal    map[string]map[int][]float64
}

func (f *fakeSource) Title() (string, error)       { return "fake", nil }
func (f *fakeSource) NumNodes() (int, error)        { return len(f.coords.X), nil }
func (f *fakeSource) NumTimeSteps() (int, error)    { return f.numSteps, nil }
func (f *fakeSource) Coordinates() (schema.Coordinates, error) { return f.coords, nil }
func (f *fakeSource) Connectivity(blockID int64) ([]schema.NodeID, error) {
	return f.conn[blockID], nil
}
func (f *fakeSource) GlobalVariables(step int) ([]float64, error) { return f.globals[step], nil }
func (f *fakeSource) NodalVariable(name string, step int) ([]float64, error) {
	return f.nodal[name][step], nil
}
func (f *fakeSource) ElemVariable(blockID int64, name string, step int) ([]float64, error) {
	return nil, nil
}

type fakeSink struct {
	coords schema.Coordinates
	conn   map[int64][]schema.NodeID
	times  []float64
	nodal  map[string]map[int][]float64
}

func (f *fakeSink) PutCoordinates(c schema.Coordinates) error {
	f.coords = c
	return nil
}
func (f *fakeSink) PutConnectivity(blockID int64, conn []schema.NodeID) error {
	if f.conn == nil {
		f.conn = map[int64][]schema.NodeID{}
	}
	f.conn[blockID] = conn
	return nil
}
func (f *fakeSink) PutTimeStep(step int, t float64) error {
	for len(f.times) <= step {
		f.times = append(f.times, 0)
	}
	f.times[step] = t
	return nil
}
func (f *fakeSink) PutGlobalVariables(step int, values []float64) error { return nil }
func (f *fakeSink) PutNodalVariable(step int, name string, values []float64) error {
	if f.nodal == nil {
		f.nodal = map[string]map[int][]float64{}
	}
	if f.nodal[name] == nil {
		f.nodal[name] = map[int][]float64{}
	}
	f.nodal[name][step] = values
	return nil
}
func (f *fakeSink) PutElemVariable(step int, blockID int64, name string, values []float64) error {
	return nil
}

func TestPipelineAppliesCoordinateTransform(t *testing.T) {
	src := &fakeSource{
		coords: schema.Coordinates{
			X: []float64{0, 1},
			Y: []float64{0, 0},
			Z: []float64{0, 0},
		},
		conn: map[int64][]schema.NodeID{1: {1, 2}},
	}
	dst := &fakeSink{}

	ct := &CoordinateTransform{Scale: 2.0, Rotation: Identity3(), Offset: geom.Vec3{X: 1}}
	opts := Options{
		Transform: ct,
		Blocks:    []Block{{ID: 1, NumEntries: 1, NodesPerEntry: 2}},
	}

	res, err := Run(src, dst, opts, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Stages) != 5 {
		t.Fatalf("expected 5 stage timings, got %d", len(res.Stages))
	}
	if dst.coords.X[0] != 1 || dst.coords.X[1] != 3 {
		t.Fatalf("unexpected transformed X: %v", dst.coords.X)
	}
	if len(dst.conn[1]) != 2 {
		t.Fatalf("connectivity not copied: %v", dst.conn)
	}
}

func TestPipelineScalesVariables(t *testing.T) {
	src := &fakeSource{
		coords:   schema.Coordinates{X: []float64{0, 1}},
		numSteps: 1,
		nodal: map[string]map[int][]float64{
			"pressure": {0: {10, 20}},
		},
	}
	dst := &fakeSink{}

	opts := Options{
		NodalVars:      []string{"pressure"},
		Times:          []float64{0.0},
		ScaleVariables: map[string]float64{"pressure": 0.001},
	}

	_, err := Run(src, dst, opts, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := dst.nodal["pressure"][0]
	if got[0] != 0.01 || got[1] != 0.02 {
		t.Fatalf("unexpected scaled values: %v", got)
	}
}
