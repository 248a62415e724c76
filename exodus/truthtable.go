package exodus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meshio/exodus/internal/schema"
	"github.com/meshio/exodus/internal/substrate"
	"github.com/meshio/exodus/internal/substrate/container"
)

// truth tables gate which (entity ordinal, variable index) pairs of an
// entity kind actually carry data (spec.md invariant I3, section 4.4's
// put_truth_table). Only KindElemBlock is supported: it is the only
// entity kind this engine lets a caller declare more than one variable
// name list for (DefineElemVariables is per block), so it is the only
// kind a block x variable gate is meaningful for.

func truthTableVarName(kind schema.EntityKind) string { return fmt.Sprintf("truth_table:%s", kind) }

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func joinNames(names []string) string { return strings.Join(names, ",") }

func splitNames(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func splitIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, len(parts))
	for i, p := range parts {
		v, _ := strconv.ParseInt(p, 10, 64)
		out[i] = v
	}
	return out
}

// persistTruthTable writes a validated truth table for KindElemBlock,
// along with the block-id and variable-name orderings that give its
// bit indices meaning.
func persistTruthTable(eng substrate.Engine, tt *schema.TruthTable, blockOrder []int64, varOrder []string) error {
	name := truthTableVarName(tt.Kind)
	bits := make([]int64, len(tt.Bits))
	for i, b := range tt.Bits {
		if b {
			bits[i] = 1
		}
	}
	dimName := fmt.Sprintf("truth_table_%s_len", tt.Kind)
	if _, ok := eng.DimensionSize(dimName); !ok {
		if err := eng.DefineDimension(dimName, int64(len(bits))); err != nil {
			return err
		}
	}
	if _, ok := eng.Variable(name); !ok {
		if err := eng.DefineVariable(name, container.DTypeInt64, []string{dimName}, []int{len(bits)}); err != nil {
			return err
		}
	}
	if err := eng.OverwriteChunk(name, 0, container.EncodeInt64s(bits)); err != nil {
		return err
	}
	if err := eng.SetVariableRealAttr(name, "shape", []float64{float64(tt.NumEntities), float64(tt.NumVars)}); err != nil {
		return err
	}
	if err := eng.SetGlobalTextAttr(name+":block_order", joinIDs(blockOrder)); err != nil {
		return err
	}
	return eng.SetGlobalTextAttr(name+":var_order", joinNames(varOrder))
}

// loadTruthTable reads back a persisted truth table plus the orderings
// needed to resolve a (blockID, variable name) pair to bit indices. ok
// is false when no truth table was ever written for kind, meaning
// every (entity, variable) pair the caller otherwise declared is
// implicitly present.
func loadTruthTable(eng substrate.Engine, kind schema.EntityKind) (tt *schema.TruthTable, blockOrder []int64, varOrder []string, ok bool) {
	name := truthTableVarName(kind)
	shape, hasShape := eng.VariableRealAttr(name, "shape")
	if !hasShape || len(shape) != 2 {
		return nil, nil, nil, false
	}
	raw, err := eng.ReadChunk(name, 0)
	if err != nil {
		return nil, nil, nil, false
	}
	ints := container.DecodeInt64s(raw)
	bits := make([]bool, len(ints))
	for i, v := range ints {
		bits[i] = v != 0
	}
	blockOrderStr, _ := eng.GlobalTextAttr(name + ":block_order")
	varOrderStr, _ := eng.GlobalTextAttr(name + ":var_order")
	return &schema.TruthTable{
		Kind:        kind,
		NumEntities: int(shape[0]),
		NumVars:     int(shape[1]),
		Bits:        bits,
	}, splitIDs(blockOrderStr), splitNames(varOrderStr), true
}

// elemVariableGate reports whether (blockID, name) is present per the
// persisted elem-block truth table. present is true and err is nil
// when no truth table was ever defined (every declared variable is
// implicitly present).
func elemVariableGate(eng substrate.Engine, blockID int64, name string) (present bool, err error) {
	tt, blockOrder, varOrder, ok := loadTruthTable(eng, schema.KindElemBlock)
	if !ok {
		return true, nil
	}
	blockOrdinal := -1
	for i, id := range blockOrder {
		if id == blockID {
			blockOrdinal = i
			break
		}
	}
	varOrdinal := -1
	for i, n := range varOrder {
		if n == name {
			varOrdinal = i
			break
		}
	}
	if blockOrdinal < 0 || varOrdinal < 0 {
		return true, nil
	}
	return tt.Get(blockOrdinal, varOrdinal), nil
}
