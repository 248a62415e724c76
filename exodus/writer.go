package exodus

import (
	"fmt"
	"sync"

	"github.com/meshio/exodus/internal/schema"
	"github.com/meshio/exodus/internal/substrate"
	"github.com/meshio/exodus/internal/substrate/container"
)

// writerState is Writer's lifecycle: Created (before NewWriter returns,
// not independently observable) -> Defined -> Populated -> Closed.
// Structural declarations (blocks, sets, variable name tables) are only
// legal in Defined; once the first time step is written (PutTimeStep,
// which every variable write requires first) the writer moves to
// Populated and structure is frozen (spec.md invariant I4). Coordinate
// and connectivity writes do not change the state.
type writerState int

const (
	stateDefined writerState = iota
	statePopulated
	stateClosed
)

// Writer creates a brand new Exodus container and populates it, once,
// start to finish. Grounded on the teacher's libravdb/collection.go
// closed-flag-guarded, sync.RWMutex-protected struct shape and
// internal/storage/lsm's create->populate->close lifecycle.
type Writer struct {
	mu    sync.RWMutex
	eng   substrate.Engine
	state writerState

	params schema.InitParams

	blocks     map[int64]*schema.Block
	nodeSets   map[int64]*schema.NodeSet
	sideSets   map[int64]*schema.SideSet
	assemblies map[int64]*schema.Assembly

	numGlobalVars int
	nodalVars     []string
	elemVars      map[int64][]string // blockID -> variable names
	elemVarNames  []string           // union of every name seen across blocks, first-seen order; gives put_truth_table a stable variable ordinal

	reductionVars map[schema.EntityKind][]string

	times []float64
}

// NewWriter creates path and declares the file's fixed header
// (InitParams). Returns a Writer in the Defined state, ready for
// DefineElemBlock/DefineNodeSet/DefineSideSet and
// DefineGlobalVariables/DefineNodalVariables/DefineElemVariables calls.
func NewWriter(path string, params schema.InitParams, opts ...Option) (*Writer, error) {
	if len(params.Title) > schema.MaxTitleLength {
		return nil, fmt.Errorf("title exceeds %d characters: %w", schema.MaxTitleLength, ErrValidation)
	}
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	eng, err := substrate.Create(path, cfg)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		eng:      eng,
		state:    stateDefined,
		params:   params,
		blocks:     map[int64]*schema.Block{},
		nodeSets:   map[int64]*schema.NodeSet{},
		sideSets:   map[int64]*schema.SideSet{},
		assemblies: map[int64]*schema.Assembly{},
		elemVars:      map[int64][]string{},
		reductionVars: map[schema.EntityKind][]string{},
	}

	if err := eng.DefineDimension("num_nodes", int64(params.NumNodes)); err != nil {
		eng.Close()
		return nil, err
	}
	if err := eng.DefineDimension("num_dim", int64(params.NumDim)); err != nil {
		eng.Close()
		return nil, err
	}
	if err := eng.DefineDimension(container.UnlimitedDim, 0); err != nil {
		eng.Close()
		return nil, err
	}
	if err := eng.SetGlobalTextAttr("title", params.Title); err != nil {
		eng.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) requireState(want writerState) error {
	if w.state == stateClosed {
		return fmt.Errorf("writer is closed: %w", ErrFinalized)
	}
	if w.state != want {
		return fmt.Errorf("operation requires writer state %d, currently %d: %w", want, w.state, ErrSequence)
	}
	return nil
}

// DefineElemBlock declares one element block's shape. Legal only
// before the first time step is written.
func (w *Writer) DefineElemBlock(b schema.Block) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	if _, exists := w.blocks[b.ID]; exists {
		return fmt.Errorf("block %d already defined: %w", b.ID, ErrDuplicateID)
	}
	if err := schema.ValidateBlockShape(&b); err != nil {
		return err
	}
	w.blocks[b.ID] = &b

	entriesDim := fmt.Sprintf("blk%d_entries", b.ID)
	if err := w.eng.DefineDimension(entriesDim, int64(b.NumEntries)); err != nil {
		return err
	}
	connDim := fmt.Sprintf("blk%d_conn_len", b.ID)
	if err := w.eng.DefineDimension(connDim, int64(b.NumEntries*b.NodesPerEntry)); err != nil {
		return err
	}
	if err := w.eng.DefineVariable(connectVarName(b.ID), container.DTypeInt64, []string{connDim}, []int{b.NumEntries * b.NodesPerEntry}); err != nil {
		return err
	}
	if err := w.eng.SetGlobalTextAttr(fmt.Sprintf("blk%d_topology", b.ID), b.Topology); err != nil {
		return err
	}
	return w.eng.SetVariableRealAttr(connectVarName(b.ID), "shape",
		[]float64{float64(b.NumEntries), float64(b.NodesPerEntry), float64(b.Kind)})
}

// DefineNodeSet declares a node set's shape.
func (w *Writer) DefineNodeSet(ns schema.NodeSet) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	if _, exists := w.nodeSets[ns.ID]; exists {
		return fmt.Errorf("node set %d already defined: %w", ns.ID, ErrDuplicateID)
	}
	if err := schema.ValidateNodeSet(&ns, w.params.NumNodes); err != nil {
		return err
	}
	w.nodeSets[ns.ID] = &ns
	return persistNodeSet(w.eng, &ns)
}

// DefineSideSet declares a side set's shape.
func (w *Writer) DefineSideSet(ss schema.SideSet) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	if _, exists := w.sideSets[ss.ID]; exists {
		return fmt.Errorf("side set %d already defined: %w", ss.ID, ErrDuplicateID)
	}
	if err := schema.ValidateSideSet(&ss, w.params.NumElems); err != nil {
		return err
	}
	w.sideSets[ss.ID] = &ss
	return persistSideSet(w.eng, &ss)
}

// DefineEntitySet declares and persists an elem/edge/face set (the
// EntitySet generalization of NodeSet to the three other entity-set
// families).
func (w *Writer) DefineEntitySet(es schema.EntitySet) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	if len(es.DistFactors) != 0 && len(es.DistFactors) != len(es.Entries) {
		return fmt.Errorf("entity set %d: dist_factors length %d matches neither 0 nor %d: %w",
			es.ID, len(es.DistFactors), len(es.Entries), ErrValidation)
	}
	return persistEntitySet(w.eng, &es)
}

// DefineAssembly declares and persists an assembly grouping other
// entities (blocks, sets, or nested assemblies) under one name. Its
// entity list is walked for cycles against every other already-defined
// assembly before being accepted (spec.md section 3, Assembly; no
// cycles).
func (w *Writer) DefineAssembly(a schema.Assembly) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	if _, exists := w.assemblies[a.ID]; exists {
		return fmt.Errorf("assembly %d already defined: %w", a.ID, ErrDuplicateID)
	}
	w.assemblies[a.ID] = &a
	err := schema.ValidateAssemblyDAG(a.ID, func(id int64) ([]int64, bool) {
		other, ok := w.assemblies[id]
		if !ok {
			return nil, false
		}
		return other.EntityList, true
	})
	if err != nil {
		delete(w.assemblies, a.ID)
		return err
	}
	return persistAssembly(w.eng, &a)
}

// DefineBlob declares and persists an opaque, schema-less binary payload.
func (w *Writer) DefineBlob(b schema.Blob) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	return persistBlob(w.eng, &b)
}

// DefineGlobalVariables names the reduction (per-timestep, whole-model)
// variables the file will carry.
func (w *Writer) DefineGlobalVariables(names []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	w.numGlobalVars = len(names)
	if len(names) == 0 {
		return nil
	}
	dimName := "num_glo_var"
	if err := w.eng.DefineDimension(dimName, int64(len(names))); err != nil {
		return err
	}
	for i, n := range names {
		if err := w.eng.SetGlobalTextAttr(fmt.Sprintf("glo_var_name_%d", i), n); err != nil {
			return err
		}
	}
	return w.eng.DefineVariable("vals_glo_var", container.DTypeFloat64, []string{dimName}, []int{len(names)})
}

// DefineNodalVariables names the per-node, per-timestep variables.
func (w *Writer) DefineNodalVariables(names []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	w.nodalVars = append([]string(nil), names...)
	for _, n := range names {
		if err := w.eng.DefineVariable(nodalVarName(n), container.DTypeFloat64, []string{"num_nodes"}, []int{w.params.NumNodes}); err != nil {
			return err
		}
	}
	return nil
}

// DefineElemVariables names the per-element, per-timestep variables
// carried by one block (spec.md invariant I3: a truth table gates
// which block actually carries which variable; here every named
// variable is declared present for the given block).
func (w *Writer) DefineElemVariables(blockID int64, names []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	b, ok := w.blocks[blockID]
	if !ok {
		return fmt.Errorf("block %d is not defined: %w", blockID, ErrNotDefined)
	}
	w.elemVars[blockID] = append([]string(nil), names...)
	for _, n := range names {
		if err := w.eng.DefineVariable(elemVarName(blockID, n), container.DTypeFloat64, []string{fmt.Sprintf("blk%d_entries", blockID)}, []int{b.NumEntries}); err != nil {
			return err
		}
		if !containsString(w.elemVarNames, n) {
			w.elemVarNames = append(w.elemVarNames, n)
		}
	}
	return nil
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// PutTruthTable declares which (block, element-variable) pairs of an
// already-declared element-block variable set actually carry data
// (spec.md section 4.4, put_truth_table; invariant I3). entities are
// ordered by ascending block id and variables by DefineElemVariables'
// first-seen order across all blocks. A block never produces an
// ErrNotDefined element-variable read or write before PutTruthTable is
// called: every declared pair is implicitly present until a table
// says otherwise.
func (w *Writer) PutTruthTable(bits []bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	blockOrder := make([]int64, 0, len(w.blocks))
	for id := range w.blocks {
		blockOrder = append(blockOrder, id)
	}
	sortInt64s(blockOrder)
	tt := &schema.TruthTable{
		Kind:        schema.KindElemBlock,
		NumEntities: len(blockOrder),
		NumVars:     len(w.elemVarNames),
		Bits:        bits,
	}
	if err := schema.ValidateTruthTable(tt); err != nil {
		return err
	}
	return persistTruthTable(w.eng, tt, blockOrder, w.elemVarNames)
}

func sortInt64s(ids []int64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// DefineReductionVars names the aggregate, once-per-entity (rather
// than once-per-entry) variables carried by every entity of kind —
// e.g. one block-averaged scalar per element block per time step,
// distinct from a regular element variable's once-per-element value
// (spec.md section 4.4, put_reduction_vars).
func (w *Writer) DefineReductionVars(kind schema.EntityKind, names []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireState(stateDefined); err != nil {
		return err
	}
	n := w.entityCount(kind)
	w.reductionVars[kind] = append([]string(nil), names...)
	if len(names) == 0 {
		return nil
	}
	dimName := fmt.Sprintf("num_red_var:%s", kind)
	if err := w.eng.DefineDimension(dimName, int64(n*len(names))); err != nil {
		return err
	}
	for i, name := range names {
		if err := w.eng.SetGlobalTextAttr(fmt.Sprintf("red_var_name:%s:%d", kind, i), name); err != nil {
			return err
		}
	}
	return w.eng.DefineVariable(reductionVarName(kind), container.DTypeFloat64, []string{dimName}, []int{n * len(names)})
}

// PutReductionVars writes every reduction variable's value, for every
// entity of kind, at step: row-major (entity ordinal, variable index),
// entities ordered ascending by id.
func (w *Writer) PutReductionVars(step int, kind schema.EntityKind, values []float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateClosed {
		return fmt.Errorf("writer is closed: %w", ErrFinalized)
	}
	names := w.reductionVars[kind]
	want := w.entityCount(kind) * len(names)
	if len(values) != want {
		return fmt.Errorf("reduction variables for %s: expected %d values, got %d: %w", kind, want, len(values), ErrValidation)
	}
	if step >= len(w.times) {
		return fmt.Errorf("put_time for step %d must precede put_reduction_vars: %w", step, ErrSequence)
	}
	return w.eng.WriteChunk(reductionVarName(kind), step, container.EncodeFloat64s(values))
}

func (w *Writer) entityCount(kind schema.EntityKind) int {
	switch kind {
	case schema.KindElemBlock:
		return len(w.blocks)
	case schema.KindNodeSet:
		return len(w.nodeSets)
	case schema.KindSideSet:
		return len(w.sideSets)
	default:
		return 0
	}
}

func reductionVarName(kind schema.EntityKind) string { return fmt.Sprintf("vals_red_var:%s", kind) }

func (w *Writer) beginPopulating() {
	if w.state == stateDefined {
		w.state = statePopulated
	}
}

// PutCoordinates writes the full coordinate arrays. Coordinates are a
// Defined-phase operation (spec.md invariant I4): unlike a time-step or
// variable write, this does not move the writer into Populated, so
// DefineElemBlock/DefineNodeSet/... remain legal afterward.
func (w *Writer) PutCoordinates(c schema.Coordinates) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateClosed {
		return fmt.Errorf("writer is closed: %w", ErrFinalized)
	}
	if len(c.X) != w.params.NumNodes {
		return fmt.Errorf("coordinates: expected %d nodes, got %d: %w", w.params.NumNodes, len(c.X), ErrValidation)
	}
	if err := w.eng.DefineVariable("coordx", container.DTypeFloat64, []string{"num_nodes"}, []int{w.params.NumNodes}); err != nil {
		return err
	}
	if err := w.eng.WriteChunk("coordx", 0, container.EncodeFloat64s(c.X)); err != nil {
		return err
	}
	if len(c.Y) > 0 {
		if err := w.eng.DefineVariable("coordy", container.DTypeFloat64, []string{"num_nodes"}, []int{w.params.NumNodes}); err != nil {
			return err
		}
		if err := w.eng.WriteChunk("coordy", 0, container.EncodeFloat64s(c.Y)); err != nil {
			return err
		}
	}
	if len(c.Z) > 0 {
		if err := w.eng.DefineVariable("coordz", container.DTypeFloat64, []string{"num_nodes"}, []int{w.params.NumNodes}); err != nil {
			return err
		}
		if err := w.eng.WriteChunk("coordz", 0, container.EncodeFloat64s(c.Z)); err != nil {
			return err
		}
	}
	return nil
}

// PutConnectivity writes one block's flat connectivity array
// (NumEntries*NodesPerEntry node ids, entry-major order).
func (w *Writer) PutConnectivity(blockID int64, conn []schema.NodeID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateClosed {
		return fmt.Errorf("writer is closed: %w", ErrFinalized)
	}
	b, ok := w.blocks[blockID]
	if !ok {
		return fmt.Errorf("block %d is not defined: %w", blockID, ErrNotDefined)
	}
	if len(conn) != b.NumEntries*b.NodesPerEntry {
		return fmt.Errorf("block %d: expected %d connectivity entries, got %d: %w",
			blockID, b.NumEntries*b.NodesPerEntry, len(conn), ErrValidation)
	}
	if err := schema.ValidateConnectivity(conn, w.params.NumNodes); err != nil {
		return err
	}
	raw := make([]int64, len(conn))
	for i, n := range conn {
		raw[i] = int64(n)
	}
	return w.eng.WriteChunk(connectVarName(blockID), 0, container.EncodeInt64s(raw))
}

// PutTimeStep records the time value for step (0-based, sequential,
// strictly increasing — spec.md invariant I5).
func (w *Writer) PutTimeStep(step int, t float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateClosed {
		return fmt.Errorf("writer is closed: %w", ErrFinalized)
	}
	if err := schema.ValidateMonotoneTime(step, t, w.times); err != nil {
		return err
	}
	if err := ensureTimeVar(w.eng); err != nil {
		return err
	}
	if err := w.eng.WriteChunk("time_whole", step, container.EncodeFloat64s([]float64{t})); err != nil {
		return err
	}
	w.times = append(w.times, t)
	w.beginPopulating()
	return nil
}

// PutGlobalVariables writes every global variable's value for step, in
// the order declared by DefineGlobalVariables.
func (w *Writer) PutGlobalVariables(step int, values []float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateClosed {
		return fmt.Errorf("writer is closed: %w", ErrFinalized)
	}
	if len(values) != w.numGlobalVars {
		return fmt.Errorf("expected %d global variable values, got %d: %w", w.numGlobalVars, len(values), ErrValidation)
	}
	if step >= len(w.times) {
		return fmt.Errorf("put_time for step %d must precede put_global_var: %w", step, ErrSequence)
	}
	return w.eng.WriteChunk("vals_glo_var", step, container.EncodeFloat64s(values))
}

// PutNodalVariable writes one nodal variable's full value array for step.
func (w *Writer) PutNodalVariable(step int, name string, values []float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateClosed {
		return fmt.Errorf("writer is closed: %w", ErrFinalized)
	}
	if len(values) != w.params.NumNodes {
		return fmt.Errorf("nodal variable %q: expected %d values, got %d: %w", name, w.params.NumNodes, len(values), ErrValidation)
	}
	if step >= len(w.times) {
		return fmt.Errorf("put_time for step %d must precede put_nodal_var: %w", step, ErrSequence)
	}
	return w.eng.WriteChunk(nodalVarName(name), step, container.EncodeFloat64s(values))
}

// PutElemVariable writes one element variable's full value array for
// one block at step.
func (w *Writer) PutElemVariable(step int, blockID int64, name string, values []float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateClosed {
		return fmt.Errorf("writer is closed: %w", ErrFinalized)
	}
	b, ok := w.blocks[blockID]
	if !ok {
		return fmt.Errorf("block %d is not defined: %w", blockID, ErrNotDefined)
	}
	if len(values) != b.NumEntries {
		return fmt.Errorf("elem variable %q on block %d: expected %d values, got %d: %w",
			name, blockID, b.NumEntries, len(values), ErrValidation)
	}
	if step >= len(w.times) {
		return fmt.Errorf("put_time for step %d must precede put_elem_var: %w", step, ErrSequence)
	}
	present, err := elemVariableGate(w.eng, blockID, name)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("elem variable %q on block %d is gated absent by the truth table: %w", name, blockID, ErrNotDefined)
	}
	return w.eng.WriteChunk(elemVarName(blockID, name), step, container.EncodeFloat64s(values))
}

// Close stamps a QA record and finalizes the file. Idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateClosed {
		return nil
	}
	w.eng.AppendQARecord("exodus-transform", "1.0", "", "")
	w.state = stateClosed
	return w.eng.Close()
}

func ensureTimeVar(eng substrate.Engine) error {
	if _, ok := eng.Variable("time_whole"); ok {
		return nil
	}
	return eng.DefineVariable("time_whole", container.DTypeFloat64, []string{container.UnlimitedDim}, []int{1})
}

func connectVarName(blockID int64) string      { return fmt.Sprintf("connect:%d", blockID) }
func nodalVarName(name string) string          { return fmt.Sprintf("vals_nod_var:%s", name) }
func elemVarName(blockID int64, name string) string {
	return fmt.Sprintf("vals_elem_var:%d:%s", blockID, name)
}
