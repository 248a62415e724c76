package exodus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/meshio/exodus/internal/substrate"
	"github.com/meshio/exodus/internal/substrate/container"
)

// Reader opens an existing Exodus file read-only. Its lifecycle is
// just Open -> Closed; every query is legal at any time before Close.
type Reader struct {
	mu     sync.RWMutex
	eng    substrate.Engine
	closed bool
}

// NewReader opens path read-only.
func NewReader(path string, opts ...Option) (*Reader, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	eng, err := substrate.Open(path, true, cfg)
	if err != nil {
		return nil, err
	}
	return &Reader{eng: eng}, nil
}

func (r *Reader) requireOpen() error {
	if r.closed {
		return fmt.Errorf("reader is closed: %w", ErrFinalized)
	}
	return nil
}

// Title returns the file's title global attribute.
func (r *Reader) Title() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return "", err
	}
	title, _ := r.eng.GlobalTextAttr("title")
	return title, nil
}

// NumNodes returns the declared node count.
func (r *Reader) NumNodes() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return 0, err
	}
	n, _ := r.eng.DimensionSize("num_nodes")
	return int(n), nil
}

// NumTimeSteps returns how many time steps have been committed.
func (r *Reader) NumTimeSteps() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return 0, err
	}
	return int(r.eng.UnlimitedExtent()), nil
}

// Coordinates reads the full coordinate arrays.
func (r *Reader) Coordinates() (Coordinates, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return Coordinates{}, err
	}
	var c Coordinates
	if raw, err := r.eng.ReadChunk("coordx", 0); err == nil {
		c.X = container.DecodeFloat64s(raw)
	} else if !isNotFound(err) {
		return Coordinates{}, err
	}
	if raw, err := r.eng.ReadChunk("coordy", 0); err == nil {
		c.Y = container.DecodeFloat64s(raw)
	} else if !isNotFound(err) {
		return Coordinates{}, err
	}
	if raw, err := r.eng.ReadChunk("coordz", 0); err == nil {
		c.Z = container.DecodeFloat64s(raw)
	} else if !isNotFound(err) {
		return Coordinates{}, err
	}
	return c, nil
}

// Connectivity reads one block's flat connectivity array.
func (r *Reader) Connectivity(blockID int64) ([]NodeID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	return connectivityFromEngine(r.eng, blockID)
}

// BlockDef reconstructs one element block's declared shape (topology,
// entry/node counts, kind) from the attributes the writer stamped onto
// the block's connectivity variable at DefineElemBlock time.
func (r *Reader) BlockDef(blockID int64) (Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return Block{}, err
	}
	return blockDefFromEngine(r.eng, blockID)
}

// GlobalVariables reads every global variable's value at step.
func (r *Reader) GlobalVariables(step int) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	raw, err := r.eng.ReadChunk("vals_glo_var", step)
	if err != nil {
		return nil, err
	}
	return container.DecodeFloat64s(raw), nil
}

// GlobalHistory reads one global variable's entire time history,
// resolved by name (mirroring exomerge's get_global_variable_history,
// SPEC_FULL.md section 3.1) rather than by positional index.
func (r *Reader) GlobalHistory(name string) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	varIndex := -1
	if n, ok := r.eng.DimensionSize("num_glo_var"); ok {
		for i := 0; i < int(n); i++ {
			if v, ok := r.eng.GlobalTextAttr(fmt.Sprintf("glo_var_name_%d", i)); ok && v == name {
				varIndex = i
				break
			}
		}
	}
	if varIndex < 0 {
		return nil, fmt.Errorf("global variable %q is not defined: %w", name, ErrNotDefined)
	}
	n := int(r.eng.UnlimitedExtent())
	out := make([]float64, 0, n)
	for step := 0; step < n; step++ {
		raw, err := r.eng.ReadChunk("vals_glo_var", step)
		if err != nil {
			return nil, err
		}
		vals := container.DecodeFloat64s(raw)
		if varIndex >= len(vals) {
			return nil, fmt.Errorf("global variable %q out of range (only %d defined): %w", name, len(vals), ErrNotFound)
		}
		out = append(out, vals[varIndex])
	}
	return out, nil
}

// NodalVariable reads one nodal variable's full value array at step.
func (r *Reader) NodalVariable(name string, step int) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	raw, err := r.eng.ReadChunk(nodalVarName(name), step)
	if err != nil {
		return nil, err
	}
	return container.DecodeFloat64s(raw), nil
}

// NodalVariableSeries reads one node's value across every time step
// from [start, start+count), the chunked-time-series read path
// spec.md section 4.6 describes.
func (r *Reader) NodalVariableSeries(name string, nodeOrdinal, start, count int) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	out := make([]float64, 0, count)
	for step := start; step < start+count; step++ {
		raw, err := r.eng.ReadChunk(nodalVarName(name), step)
		if err != nil {
			return nil, err
		}
		vals := container.DecodeFloat64s(raw)
		if nodeOrdinal >= len(vals) {
			return nil, fmt.Errorf("node ordinal %d out of range: %w", nodeOrdinal, ErrNotFound)
		}
		out = append(out, vals[nodeOrdinal])
	}
	return out, nil
}

// ElemVariable reads one element variable's full value array for one
// block at step.
func (r *Reader) ElemVariable(blockID int64, name string, step int) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	present, err := elemVariableGate(r.eng, blockID, name)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, fmt.Errorf("elem variable %q on block %d is gated absent by the truth table: %w", name, blockID, ErrNotDefined)
	}
	raw, err := r.eng.ReadChunk(elemVarName(blockID, name), step)
	if err != nil {
		return nil, err
	}
	return container.DecodeFloat64s(raw), nil
}

// QARecords returns the file's QA history.
func (r *Reader) QARecords() ([]QARecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	recs := r.eng.QARecords()
	out := make([]QARecord, len(recs))
	for i, rec := range recs {
		out[i] = QARecord{CodeName: rec.Code, CodeVersion: rec.Version, Date: rec.Date, Time: rec.Time}
	}
	return out, nil
}

// Summary builds a digest of the file's top-level contents.
func (r *Reader) Summary() (Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return Summary{}, err
	}

	title, _ := r.eng.GlobalTextAttr("title")
	numNodes, _ := r.eng.DimensionSize("num_nodes")
	numDim, _ := r.eng.DimensionSize("num_dim")

	var nodalVars, globalVars []string
	blockIDs := blockIDsFromEngine(r.eng)
	var nodeSetIDs, sideSetIDs []int64
	for _, name := range r.eng.VariableNames() {
		switch {
		case hasPrefix(name, "vals_nod_var:"):
			nodalVars = append(nodalVars, name[len("vals_nod_var:"):])
		case hasPrefix(name, "node_ns:"):
			var id int64
			if _, err := fmt.Sscanf(name, "node_ns:%d", &id); err == nil {
				nodeSetIDs = append(nodeSetIDs, id)
			}
		case hasPrefix(name, "elem_ss:"):
			var id int64
			if _, err := fmt.Sscanf(name, "elem_ss:%d", &id); err == nil {
				sideSetIDs = append(sideSetIDs, id)
			}
		case name == "vals_glo_var":
			if n, ok := r.eng.DimensionSize("num_glo_var"); ok {
				for i := 0; i < int(n); i++ {
					if v, ok := r.eng.GlobalTextAttr(fmt.Sprintf("glo_var_name_%d", i)); ok {
						globalVars = append(globalVars, v)
					}
				}
			}
		}
	}

	numElems := 0
	for _, id := range blockIDs {
		if b, err := blockDefFromEngine(r.eng, id); err == nil {
			numElems += b.NumEntries
		}
	}

	stats := r.eng.CacheStats()

	return Summary{
		Title:           title,
		NumDim:          int(numDim),
		NumNodes:        int(numNodes),
		NumElems:        numElems,
		NumElemBlocks:   len(blockIDs),
		BlockIDs:        blockIDs,
		NumNodeSets:     len(nodeSetIDs),
		NodeSetIDs:      nodeSetIDs,
		NumSideSets:     len(sideSetIDs),
		SideSetIDs:      sideSetIDs,
		NumTimeSteps:    int(r.eng.UnlimitedExtent()),
		NodalVariables:  nodalVars,
		GlobalVariables: globalVars,
		CacheSize:       stats.Size,
		CacheCapacity:   stats.Capacity,
	}, nil
}

// NodeSet reads back one persisted node set.
func (r *Reader) NodeSet(id int64) (*NodeSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	return loadNodeSet(r.eng, id)
}

// SideSet reads back one persisted side set.
func (r *Reader) SideSet(id int64) (*SideSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	return loadSideSet(r.eng, id)
}

// EntitySet reads back one persisted elem/edge/face set.
func (r *Reader) EntitySet(kind EntityKind, id int64) (*EntitySet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	return loadEntitySet(r.eng, kind, id)
}

// Assembly reads back one persisted assembly.
func (r *Reader) Assembly(id int64) (*Assembly, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	return loadAssembly(r.eng, id)
}

// Blob reads back one persisted binary blob.
func (r *Reader) Blob(id int64) (*Blob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	return loadBlob(r.eng, id)
}

// ReductionVars reads every reduction variable's value, for every
// entity of kind, at step.
func (r *Reader) ReductionVars(kind EntityKind, step int) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	raw, err := r.eng.ReadChunk(reductionVarName(kind), step)
	if err != nil {
		return nil, err
	}
	return container.DecodeFloat64s(raw), nil
}

// ElemVariableDefined reports whether (blockID, name) is actually
// present per the persisted truth table (spec.md invariant I3),
// without attempting the read.
func (r *Reader) ElemVariableDefined(blockID int64, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.requireOpen(); err != nil {
		return false, err
	}
	return elemVariableGate(r.eng, blockID, name)
}

// Close closes the underlying container. Idempotent.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.eng.Close()
}

func isNotFound(err error) bool {
	return err != nil && (errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotDefined))
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
