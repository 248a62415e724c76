package exodus

import "github.com/meshio/exodus/internal/schema"

// Re-export the schema records a caller constructs/reads through the
// public API, so callers never need to import internal/schema
// directly.
type (
	NodeID    = schema.NodeID
	ElemID    = schema.ElemID
	SideID    = schema.SideID
	BlockKind = schema.BlockKind
	EntityKind = schema.EntityKind

	InitParams      = schema.InitParams
	Coordinates     = schema.Coordinates
	Block           = schema.Block
	NodeSet         = schema.NodeSet
	SideSet         = schema.SideSet
	EntitySet       = schema.EntitySet
	IDMap           = schema.IDMap
	Assembly        = schema.Assembly
	Blob            = schema.Blob
	Attribute       = schema.Attribute
	QARecord        = schema.QARecord
	TruthTable      = schema.TruthTable
	ReductionVarDef = schema.ReductionVarDef
)

const (
	BlockElem = schema.BlockElem
	BlockFace = schema.BlockFace
	BlockEdge = schema.BlockEdge

	KindGlobal    = schema.KindGlobal
	KindNodal     = schema.KindNodal
	KindElemBlock = schema.KindElemBlock
	KindFaceBlock = schema.KindFaceBlock
	KindEdgeBlock = schema.KindEdgeBlock
	KindNodeSet   = schema.KindNodeSet
	KindSideSet   = schema.KindSideSet
	KindElemSet   = schema.KindElemSet
	KindEdgeSet   = schema.KindEdgeSet
	KindFaceSet   = schema.KindFaceSet
)

// Summary is a human-oriented, read-only digest of a file's contents,
// grounded on the teacher's libravdb/types.go JSON-tagged stats
// structs (CollectionStats, DatabaseStats).
type Summary struct {
	Title string `json:"title"`

	NumDim   int `json:"num_dim"`
	NumNodes int `json:"num_nodes"`
	NumElems int `json:"num_elems"`

	NumElemBlocks int     `json:"num_elem_blocks"`
	NumNodeSets   int     `json:"num_node_sets"`
	NumSideSets   int     `json:"num_side_sets"`
	BlockIDs      []int64 `json:"block_ids"`
	NodeSetIDs    []int64 `json:"node_set_ids"`
	SideSetIDs    []int64 `json:"side_set_ids"`

	NumTimeSteps int `json:"num_time_steps"`

	NodalVariables  []string `json:"nodal_variables"`
	GlobalVariables []string `json:"global_variables"`

	CacheSize     int64 `json:"cache_size_bytes"`
	CacheCapacity int64 `json:"cache_capacity_bytes"`
}
