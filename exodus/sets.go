package exodus

import (
	"fmt"

	"github.com/meshio/exodus/internal/schema"
	"github.com/meshio/exodus/internal/substrate"
	"github.com/meshio/exodus/internal/substrate/container"
)

// Variable-name helpers for the NodeSet/SideSet/EntitySet data model.
// Grounded on the same connect:<id>/blk<id>_topology naming DefineElemBlock
// already uses for blocks: a typed prefix plus the set's id, so Reader
// can enumerate every set of a kind the same way Summary enumerates blocks.
func nodeSetNodesVar(id int64) string     { return fmt.Sprintf("node_ns:%d", id) }
func nodeSetDistFactVar(id int64) string  { return fmt.Sprintf("dist_fact_ns:%d", id) }
func nodeSetNameAttr(id int64) string     { return fmt.Sprintf("ns%d_name", id) }

func sideSetElemVar(id int64) string     { return fmt.Sprintf("elem_ss:%d", id) }
func sideSetSideVar(id int64) string     { return fmt.Sprintf("side_ss:%d", id) }
func sideSetDistFactVar(id int64) string { return fmt.Sprintf("dist_fact_ss:%d", id) }
func sideSetNameAttr(id int64) string    { return fmt.Sprintf("ss%d_name", id) }

func entitySetVar(kind schema.EntityKind, id int64) string {
	return fmt.Sprintf("entity_set:%s:%d", kind, id)
}
func entitySetDistFactVar(kind schema.EntityKind, id int64) string {
	return fmt.Sprintf("dist_fact_entity_set:%s:%d", kind, id)
}
func entitySetNameAttr(kind schema.EntityKind, id int64) string {
	return fmt.Sprintf("entity_set:%s:%d_name", kind, id)
}

// persistNodeSet writes a validated node set's node list, optional
// distribution factors, and name. Shared by Writer.DefineNodeSet and
// (read-back only, via loadNodeSet) Appender's NodeSet->SideSet
// conversion.
func persistNodeSet(eng substrate.Engine, ns *schema.NodeSet) error {
	dim := fmt.Sprintf("ns%d_len", ns.ID)
	if err := eng.DefineDimension(dim, int64(len(ns.Nodes))); err != nil {
		return err
	}
	varName := nodeSetNodesVar(ns.ID)
	if err := eng.DefineVariable(varName, container.DTypeInt64, []string{dim}, []int{len(ns.Nodes)}); err != nil {
		return err
	}
	raw := make([]int64, len(ns.Nodes))
	for i, n := range ns.Nodes {
		raw[i] = int64(n)
	}
	if err := eng.WriteChunk(varName, 0, container.EncodeInt64s(raw)); err != nil {
		return err
	}
	if len(ns.DistFactors) > 0 {
		dfName := nodeSetDistFactVar(ns.ID)
		if err := eng.DefineVariable(dfName, container.DTypeFloat64, []string{dim}, []int{len(ns.DistFactors)}); err != nil {
			return err
		}
		if err := eng.WriteChunk(dfName, 0, container.EncodeFloat64s(ns.DistFactors)); err != nil {
			return err
		}
	}
	return eng.SetGlobalTextAttr(nodeSetNameAttr(ns.ID), ns.Name)
}

// loadNodeSet reads back a persisted node set.
func loadNodeSet(eng substrate.Engine, id int64) (*schema.NodeSet, error) {
	raw, err := eng.ReadChunk(nodeSetNodesVar(id), 0)
	if err != nil {
		return nil, err
	}
	ints := container.DecodeInt64s(raw)
	nodes := make([]schema.NodeID, len(ints))
	for i, v := range ints {
		nodes[i] = schema.NodeID(v)
	}
	ns := &schema.NodeSet{ID: id, Nodes: nodes}
	if dfRaw, err := eng.ReadChunk(nodeSetDistFactVar(id), 0); err == nil {
		ns.DistFactors = container.DecodeFloat64s(dfRaw)
	} else if !isNotFound(err) {
		return nil, err
	}
	ns.Name, _ = eng.GlobalTextAttr(nodeSetNameAttr(id))
	return ns, nil
}

// persistSideSet writes a validated side set's (element, side) pairs,
// optional distribution factors, and name.
func persistSideSet(eng substrate.Engine, ss *schema.SideSet) error {
	dim := fmt.Sprintf("ss%d_len", ss.ID)
	if err := eng.DefineDimension(dim, int64(len(ss.Elements))); err != nil {
		return err
	}
	elemVar := sideSetElemVar(ss.ID)
	if err := eng.DefineVariable(elemVar, container.DTypeInt64, []string{dim}, []int{len(ss.Elements)}); err != nil {
		return err
	}
	elems := make([]int64, len(ss.Elements))
	for i, e := range ss.Elements {
		elems[i] = int64(e)
	}
	if err := eng.WriteChunk(elemVar, 0, container.EncodeInt64s(elems)); err != nil {
		return err
	}
	sideVar := sideSetSideVar(ss.ID)
	if err := eng.DefineVariable(sideVar, container.DTypeInt64, []string{dim}, []int{len(ss.Sides)}); err != nil {
		return err
	}
	sides := make([]int64, len(ss.Sides))
	for i, s := range ss.Sides {
		sides[i] = int64(s)
	}
	if err := eng.WriteChunk(sideVar, 0, container.EncodeInt64s(sides)); err != nil {
		return err
	}
	if len(ss.DistFactors) > 0 {
		dfName := sideSetDistFactVar(ss.ID)
		if err := eng.DefineVariable(dfName, container.DTypeFloat64, []string{dim}, []int{len(ss.DistFactors)}); err != nil {
			return err
		}
		if err := eng.WriteChunk(dfName, 0, container.EncodeFloat64s(ss.DistFactors)); err != nil {
			return err
		}
	}
	return eng.SetGlobalTextAttr(sideSetNameAttr(ss.ID), ss.Name)
}

// loadSideSet reads back a persisted side set.
func loadSideSet(eng substrate.Engine, id int64) (*schema.SideSet, error) {
	elemRaw, err := eng.ReadChunk(sideSetElemVar(id), 0)
	if err != nil {
		return nil, err
	}
	sideRaw, err := eng.ReadChunk(sideSetSideVar(id), 0)
	if err != nil {
		return nil, err
	}
	elemInts := container.DecodeInt64s(elemRaw)
	sideInts := container.DecodeInt64s(sideRaw)
	ss := &schema.SideSet{
		ID:       id,
		Elements: make([]schema.ElemID, len(elemInts)),
		Sides:    make([]schema.SideID, len(sideInts)),
	}
	for i, v := range elemInts {
		ss.Elements[i] = schema.ElemID(v)
	}
	for i, v := range sideInts {
		ss.Sides[i] = schema.SideID(v)
	}
	if dfRaw, err := eng.ReadChunk(sideSetDistFactVar(id), 0); err == nil {
		ss.DistFactors = container.DecodeFloat64s(dfRaw)
	} else if !isNotFound(err) {
		return nil, err
	}
	ss.Name, _ = eng.GlobalTextAttr(sideSetNameAttr(id))
	return ss, nil
}

// persistEntitySet writes a validated elem/edge/face set.
func persistEntitySet(eng substrate.Engine, es *schema.EntitySet) error {
	dim := fmt.Sprintf("es%s%d_len", es.Kind, es.ID)
	if err := eng.DefineDimension(dim, int64(len(es.Entries))); err != nil {
		return err
	}
	varName := entitySetVar(es.Kind, es.ID)
	if err := eng.DefineVariable(varName, container.DTypeInt64, []string{dim}, []int{len(es.Entries)}); err != nil {
		return err
	}
	if err := eng.WriteChunk(varName, 0, container.EncodeInt64s(es.Entries)); err != nil {
		return err
	}
	if len(es.DistFactors) > 0 {
		dfName := entitySetDistFactVar(es.Kind, es.ID)
		if err := eng.DefineVariable(dfName, container.DTypeFloat64, []string{dim}, []int{len(es.DistFactors)}); err != nil {
			return err
		}
		if err := eng.WriteChunk(dfName, 0, container.EncodeFloat64s(es.DistFactors)); err != nil {
			return err
		}
	}
	return eng.SetGlobalTextAttr(entitySetNameAttr(es.Kind, es.ID), es.Name)
}

// loadEntitySet reads back a persisted elem/edge/face set.
func loadEntitySet(eng substrate.Engine, kind schema.EntityKind, id int64) (*schema.EntitySet, error) {
	raw, err := eng.ReadChunk(entitySetVar(kind, id), 0)
	if err != nil {
		return nil, err
	}
	es := &schema.EntitySet{ID: id, Kind: kind, Entries: container.DecodeInt64s(raw)}
	if dfRaw, err := eng.ReadChunk(entitySetDistFactVar(kind, id), 0); err == nil {
		es.DistFactors = container.DecodeFloat64s(dfRaw)
	} else if !isNotFound(err) {
		return nil, err
	}
	es.Name, _ = eng.GlobalTextAttr(entitySetNameAttr(kind, id))
	return es, nil
}
