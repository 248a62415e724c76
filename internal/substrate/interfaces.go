// Package substrate narrows internal/substrate/container's concrete
// *Container down to the handful of operations the exodus package's
// Reader/Writer/Appender roles actually need, the way the teacher's
// deleted internal/storage package exposed a narrow Engine interface
// over its concrete LSM engine rather than handing callers the whole
// struct.
package substrate

import (
	"github.com/meshio/exodus/internal/perf"
	"github.com/meshio/exodus/internal/substrate/container"
)

// Engine is the substrate contract a role type depends on. The
// concrete *container.Container satisfies it; tests may supply a fake.
type Engine interface {
	DefineDimension(name string, size int64) error
	DimensionSize(name string) (int64, bool)
	DimensionNames() []string
	UnlimitedExtent() int64

	DefineVariable(name string, dtype container.DType, dimNames []string, chunkShape []int) error
	VariableNames() []string
	Variable(name string) (container.VariableInfo, bool)
	WriteChunk(name string, chunkIndex int, values []byte) error
	OverwriteChunk(name string, chunkIndex int, values []byte) error
	ReadChunk(name string, chunkIndex int) ([]byte, error)
	ChunkCount(name string) int

	SetGlobalTextAttr(name, value string) error
	GlobalTextAttr(name string) (string, bool)
	SetVariableRealAttr(varName, attrName string, values []float64) error
	VariableRealAttr(varName, attrName string) ([]float64, bool)
	AppendQARecord(code, version, date, time string)
	QARecords() []container.QARecord
	AppendInfoRecord(text string)
	InfoRecords() []string

	AttachCache(cache *perf.ChunkCache)
	CacheStats() perf.Stats
	Path() string
	Flush() error
	Close() error
}

var _ Engine = (*container.Container)(nil)

// Create opens a brand new container file for writing, wired to a
// chunk cache built from cfg.
func Create(path string, cfg *perf.Config) (Engine, error) {
	cache := perf.NewChunkCache(cfg.CacheBytes, cfg.Preemption)
	return container.Create(path, cache)
}

// Open opens an existing container file, wired to a chunk cache built
// from cfg. readOnly selects the Reader vs. Appender access mode.
func Open(path string, readOnly bool, cfg *perf.Config) (Engine, error) {
	cache := perf.NewChunkCache(cfg.CacheBytes, cfg.Preemption)
	return container.Open(path, readOnly, cache)
}
