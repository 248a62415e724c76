package exodus

import (
	"fmt"
	"sort"

	"github.com/meshio/exodus/internal/substrate"
	"github.com/meshio/exodus/internal/substrate/container"
)

// blockIDsFromEngine enumerates every element block's id by parsing the
// "connect:<id>" variable names the writer stamps at DefineElemBlock
// time, sorted ascending so callers (truth tables, global element
// numbering) get a stable entity ordinal space without needing an
// out-of-band block list.
func blockIDsFromEngine(eng substrate.Engine) []int64 {
	var ids []int64
	for _, name := range eng.VariableNames() {
		if !hasPrefix(name, "connect:") {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(name, "connect:%d", &id); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// blockDefFromEngine reconstructs one element block's declared shape
// from the attributes DefineElemBlock stamped onto its connectivity
// variable; shared by Reader.BlockDef and Appender's element
// enumeration for NodeSet->SideSet conversion.
func blockDefFromEngine(eng substrate.Engine, blockID int64) (Block, error) {
	varName := connectVarName(blockID)
	shape, ok := eng.VariableRealAttr(varName, "shape")
	if !ok || len(shape) != 3 {
		return Block{}, fmt.Errorf("block %d shape attribute missing: %w", blockID, ErrNotFound)
	}
	topology, _ := eng.GlobalTextAttr(fmt.Sprintf("blk%d_topology", blockID))
	return Block{
		ID:            blockID,
		Kind:          BlockKind(shape[2]),
		Topology:      topology,
		NumEntries:    int(shape[0]),
		NodesPerEntry: int(shape[1]),
	}, nil
}

// connectivityFromEngine reads one block's flat connectivity array.
func connectivityFromEngine(eng substrate.Engine, blockID int64) ([]NodeID, error) {
	raw, err := eng.ReadChunk(connectVarName(blockID), 0)
	if err != nil {
		return nil, err
	}
	ints := container.DecodeInt64s(raw)
	out := make([]NodeID, len(ints))
	for i, v := range ints {
		out[i] = NodeID(v)
	}
	return out, nil
}
