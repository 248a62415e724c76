package exodus

import (
	"fmt"
	"sync"

	"github.com/meshio/exodus/internal/geom"
	"github.com/meshio/exodus/internal/schema"
	"github.com/meshio/exodus/internal/substrate"
	"github.com/meshio/exodus/internal/substrate/container"
	"github.com/meshio/exodus/internal/transform"
)

// Appender reopens an existing, already-closed Exodus file for adding
// new time steps, rewriting node coordinates in place (translate, scale,
// rotate) and converting node sets to side sets. It never sees the
// writer's Defined state: an Appender's entire lifetime is the
// restricted "mutate values of already-populated structure" slice of
// Writer's Populated state (spec.md section 4.1). Structural
// declarations (DefineElemBlock, DefineNodeSet, ...) are not exposed at
// all.
type Appender struct {
	mu     sync.RWMutex
	eng    substrate.Engine
	closed bool

	numTimeSteps  int
	numGlobalVars int
	numNodes      int
	numDim        int

	times []float64 // length == numTimeSteps; only the last value is load-bearing for ValidateMonotoneTime
}

// NewAppender reopens path for read-write append. Fails if the file
// was never closed cleanly (no committed superblock).
func NewAppender(path string, opts ...Option) (*Appender, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	eng, err := substrate.Open(path, false, cfg)
	if err != nil {
		return nil, err
	}
	a := &Appender{eng: eng}
	a.numTimeSteps = int(eng.UnlimitedExtent())
	if n, ok := eng.DimensionSize("num_nodes"); ok {
		a.numNodes = int(n)
	}
	if n, ok := eng.DimensionSize("num_dim"); ok {
		a.numDim = int(n)
	}
	if n, ok := eng.DimensionSize("num_glo_var"); ok {
		a.numGlobalVars = int(n)
	}
	a.times = make([]float64, a.numTimeSteps)
	if a.numTimeSteps > 0 {
		if raw, err := eng.ReadChunk("time_whole", a.numTimeSteps-1); err == nil {
			if vals := container.DecodeFloat64s(raw); len(vals) == 1 {
				a.times[a.numTimeSteps-1] = vals[0]
			}
		}
	}
	return a, nil
}

// PutTimeStep appends a new, strictly-increasing time value at the
// next sequential step index.
func (a *Appender) PutTimeStep(t float64) (step int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	step = a.numTimeSteps
	if err := schema.ValidateMonotoneTime(step, t, a.times); err != nil {
		return 0, err
	}
	if err := ensureTimeVar(a.eng); err != nil {
		return 0, err
	}
	if err := a.eng.WriteChunk("time_whole", step, container.EncodeFloat64s([]float64{t})); err != nil {
		return 0, err
	}
	a.times = append(a.times, t)
	a.numTimeSteps++
	return step, nil
}

// PutGlobalVariables appends this step's global variable values.
func (a *Appender) PutGlobalVariables(step int, values []float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	if len(values) != a.numGlobalVars {
		return fmt.Errorf("expected %d global variable values, got %d: %w", a.numGlobalVars, len(values), ErrValidation)
	}
	return a.eng.WriteChunk("vals_glo_var", step, container.EncodeFloat64s(values))
}

// PutNodalVariable appends this step's values for an already-defined
// nodal variable.
func (a *Appender) PutNodalVariable(step int, name string, values []float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	if _, ok := a.eng.Variable(nodalVarName(name)); !ok {
		return fmt.Errorf("nodal variable %q was never defined by the writer: %w", name, ErrNotDefined)
	}
	if len(values) != a.numNodes {
		return fmt.Errorf("nodal variable %q: expected %d values, got %d: %w", name, a.numNodes, len(values), ErrValidation)
	}
	return a.eng.WriteChunk(nodalVarName(name), step, container.EncodeFloat64s(values))
}

// PutElemVariable appends this step's values for an already-defined
// element variable on one block.
func (a *Appender) PutElemVariable(step int, blockID int64, name string, values []float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	varName := elemVarName(blockID, name)
	info, ok := a.eng.Variable(varName)
	if !ok {
		return fmt.Errorf("elem variable %q on block %d was never defined by the writer: %w", name, blockID, ErrNotDefined)
	}
	if len(values) != info.ChunkShape[0] {
		return fmt.Errorf("elem variable %q on block %d: expected %d values, got %d: %w",
			name, blockID, info.ChunkShape[0], len(values), ErrValidation)
	}
	return a.eng.WriteChunk(varName, step, container.EncodeFloat64s(values))
}

// applyCoordTransform reads the committed coordinate arrays, applies
// ct to every node, and overwrites them in place via OverwriteChunk.
// This is the one place the engine mutates already-committed geometry
// rather than appending new time steps (spec.md section 4.5): counts
// and connectivity are untouched, only coordinate values move.
func (a *Appender) applyCoordTransform(ct transform.CoordinateTransform) error {
	var coords schema.Coordinates
	raw, err := a.eng.ReadChunk("coordx", 0)
	if err != nil {
		return err
	}
	coords.X = container.DecodeFloat64s(raw)
	if raw, err := a.eng.ReadChunk("coordy", 0); err == nil {
		coords.Y = container.DecodeFloat64s(raw)
	} else if !isNotFound(err) {
		return err
	}
	if raw, err := a.eng.ReadChunk("coordz", 0); err == nil {
		coords.Z = container.DecodeFloat64s(raw)
	} else if !isNotFound(err) {
		return err
	}

	points := transform.CoordsToPoints(coords)
	points = ct.ApplyAll(points)
	out := transform.PointsToCoords(points, coords)

	if err := a.eng.OverwriteChunk("coordx", 0, container.EncodeFloat64s(out.X)); err != nil {
		return err
	}
	if out.Y != nil {
		if err := a.eng.OverwriteChunk("coordy", 0, container.EncodeFloat64s(out.Y)); err != nil {
			return err
		}
	}
	if out.Z != nil {
		if err := a.eng.OverwriteChunk("coordz", 0, container.EncodeFloat64s(out.Z)); err != nil {
			return err
		}
	}
	return nil
}

// Translate shifts every node's coordinates by (dx, dy, dz) in place.
func (a *Appender) Translate(dx, dy, dz float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	return a.applyCoordTransform(transform.CoordinateTransform{
		Scale: 1, Rotation: transform.Identity3(), Offset: geom.Vec3{X: dx, Y: dy, Z: dz},
	})
}

// Scale multiplies every node's coordinates by factor in place.
func (a *Appender) Scale(factor float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	return a.applyCoordTransform(transform.CoordinateTransform{
		Scale: factor, Rotation: transform.Identity3(),
	})
}

// Rotate applies an arbitrary 3x3 rotation matrix to every node's
// coordinates in place.
func (a *Appender) Rotate(r transform.Mat3) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	return a.applyCoordTransform(transform.CoordinateTransform{Scale: 1, Rotation: r})
}

// RotateEuler composes an ordered sequence of rotations about the fixed
// coordinate axes and applies the result to every node's coordinates in place.
func (a *Appender) RotateEuler(steps []transform.EulerStep) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	return a.applyCoordTransform(transform.CoordinateTransform{
		Scale: 1, Rotation: transform.RotationFromEuler(steps),
	})
}

// RotateArbitraryAxis rotates every node's coordinates about a unit
// axis by radians, in place, using Rodrigues' formula.
func (a *Appender) RotateArbitraryAxis(axis geom.Vec3, radians float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	r, err := transform.RotationFromArbitraryAxis(axis, radians)
	if err != nil {
		return err
	}
	return a.applyCoordTransform(transform.CoordinateTransform{Scale: 1, Rotation: r})
}

// elementRefsForConversion enumerates every block's elements as
// transform.ElementRef, assigning global element ids sequentially
// across blocks in ascending block-id order (the implicit Exodus
// element numbering convention): needed to feed
// transform.NodeSetToSideSet a connectivity it can search for
// boundary faces.
func (a *Appender) elementRefsForConversion() ([]transform.ElementRef, error) {
	var refs []transform.ElementRef
	nextElemID := schema.ElemID(1)
	for _, blockID := range blockIDsFromEngine(a.eng) {
		b, err := blockDefFromEngine(a.eng, blockID)
		if err != nil {
			return nil, err
		}
		conn, err := connectivityFromEngine(a.eng, blockID)
		if err != nil {
			return nil, err
		}
		for i := 0; i < b.NumEntries; i++ {
			entry := conn[i*b.NodesPerEntry : (i+1)*b.NodesPerEntry]
			refs = append(refs, transform.ElementRef{
				ElemID:       nextElemID,
				Topology:     b.Topology,
				Connectivity: append([]schema.NodeID(nil), entry...),
			})
			nextElemID++
		}
	}
	return refs, nil
}

// coordLookup resolves a node id to its position, for
// transform.NodeSetToSideSet's orientation check.
func (a *Appender) coordLookup() (func(schema.NodeID) (geom.Vec3, bool), error) {
	var coords schema.Coordinates
	raw, err := a.eng.ReadChunk("coordx", 0)
	if err != nil {
		return nil, err
	}
	coords.X = container.DecodeFloat64s(raw)
	if raw, err := a.eng.ReadChunk("coordy", 0); err == nil {
		coords.Y = container.DecodeFloat64s(raw)
	} else if !isNotFound(err) {
		return nil, err
	}
	if raw, err := a.eng.ReadChunk("coordz", 0); err == nil {
		coords.Z = container.DecodeFloat64s(raw)
	} else if !isNotFound(err) {
		return nil, err
	}
	return func(n schema.NodeID) (geom.Vec3, bool) {
		i := int(n) - 1
		if i < 0 || i >= len(coords.X) {
			return geom.Vec3{}, false
		}
		p := geom.Vec3{X: coords.X[i]}
		if i < len(coords.Y) {
			p.Y = coords.Y[i]
		}
		if i < len(coords.Z) {
			p.Z = coords.Z[i]
		}
		return p, true
	}, nil
}

// convertNodeSetToSideSet loads a persisted node set, extracts its
// boundary faces against every defined block's elements, and returns
// the resulting side set (not yet persisted) plus any orientation
// warnings.
func (a *Appender) convertNodeSetToSideSet(nodeSetID, newSideSetID int64) (*schema.SideSet, []transform.Warning, string, error) {
	ns, err := loadNodeSet(a.eng, nodeSetID)
	if err != nil {
		return nil, nil, "", err
	}
	elements, err := a.elementRefsForConversion()
	if err != nil {
		return nil, nil, "", err
	}
	coords, err := a.coordLookup()
	if err != nil {
		return nil, nil, "", err
	}
	ss, warnings, err := transform.NodeSetToSideSet(newSideSetID, ns.Nodes, elements, coords)
	if err != nil {
		return nil, nil, "", err
	}
	return ss, warnings, ns.Name, nil
}

// ConvertNodeSetToSideSet extracts the boundary faces of the mesh's
// elements touching a committed node set and persists them as a new
// side set under the caller-supplied id (spec.md section 4.7,
// scenario 5 hosted on the Appender per section 4.5: it is the only
// role able to both read an already-committed node set and write a
// new committed side set).
func (a *Appender) ConvertNodeSetToSideSet(nodeSetID, newSideSetID int64) (*schema.SideSet, []transform.Warning, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, nil, fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	ss, warnings, _, err := a.convertNodeSetToSideSet(nodeSetID, newSideSetID)
	if err != nil {
		return nil, nil, err
	}
	if err := persistSideSet(a.eng, ss); err != nil {
		return nil, nil, err
	}
	return ss, warnings, nil
}

// ConvertNodeSetToSideSetAutoID is ConvertNodeSetToSideSet with the new
// side set's id auto-assigned to one past the highest already-persisted
// side set id, copying the source node set's name onto the new side set.
func (a *Appender) ConvertNodeSetToSideSetAutoID(nodeSetID int64) (*schema.SideSet, []transform.Warning, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, nil, fmt.Errorf("appender is closed: %w", ErrFinalized)
	}
	var maxID int64
	for _, name := range a.eng.VariableNames() {
		if !hasPrefix(name, "elem_ss:") {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(name, "elem_ss:%d", &id); err == nil && id > maxID {
			maxID = id
		}
	}
	newID := maxID + 1
	ss, warnings, srcName, err := a.convertNodeSetToSideSet(nodeSetID, newID)
	if err != nil {
		return nil, nil, err
	}
	ss.Name = srcName
	if err := persistSideSet(a.eng, ss); err != nil {
		return nil, nil, err
	}
	return ss, warnings, nil
}

// NumTimeSteps reports how many steps exist so far, including any just
// appended in this session.
func (a *Appender) NumTimeSteps() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.numTimeSteps
}

// Close flushes and finalizes the file. Idempotent.
func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.eng.Close()
}
