package container

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/meshio/exodus/internal/errs"
	"github.com/meshio/exodus/internal/perf"
)

// DefineVariable declares a named, typed variable over dimNames, with
// the chunk shape the substrate will use to slice reads/writes and key
// the chunk cache (spec.md section 4.2). chunkShape must have the same
// length as dimNames; a chunk shape entry for the unlimited dimension
// is the number of time steps grouped per physical chunk record.
func (c *Container) DefineVariable(name string, dtype DType, dimNames []string, chunkShape []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readOnly {
		return fmt.Errorf("%w: container is read-only", errs.ErrSequence)
	}
	if _, exists := c.vars[name]; exists {
		return fmt.Errorf("%w: variable %q already defined", errs.ErrDuplicateID, name)
	}
	if len(dimNames) != len(chunkShape) {
		return fmt.Errorf("%w: variable %q has %d dims but %d chunk-shape entries",
			errs.ErrSchema, name, len(dimNames), len(chunkShape))
	}
	for _, d := range dimNames {
		if _, ok := c.dims[d]; !ok {
			return fmt.Errorf("%w: variable %q references undefined dimension %q", errs.ErrSchema, name, d)
		}
	}
	c.vars[name] = &varDef{
		Name:       name,
		Type:       dtype,
		DimNames:   append([]string(nil), dimNames...),
		ChunkShape: append([]int(nil), chunkShape...),
		Chunks:     map[int]chunkEntry{},
	}
	return nil
}

// VariableNames lists all defined variables.
func (c *Container) VariableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.vars))
	for n := range c.vars {
		names = append(names, n)
	}
	return names
}

// VariableInfo describes a defined variable's shape for callers that
// need it without reaching into package-private fields.
type VariableInfo struct {
	Name       string
	Type       DType
	DimNames   []string
	ChunkShape []int
}

// Variable returns the declared shape of a variable.
func (c *Container) Variable(name string) (VariableInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vars[name]
	if !ok {
		return VariableInfo{}, false
	}
	return VariableInfo{Name: v.Name, Type: v.Type, DimNames: v.DimNames, ChunkShape: v.ChunkShape}, true
}

// WriteChunk appends one physical chunk's worth of raw element values
// for variable name at chunkIndex. values must already be encoded in
// the variable's declared DType (see EncodeFloat64s/EncodeInt64s
// below). Chunks are immutable once written — rewriting chunkIndex
// returns ErrDuplicateID, matching invariant I4 (a writer's finalized
// data never moves).
func (c *Container) WriteChunk(name string, chunkIndex int, values []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readOnly {
		return fmt.Errorf("%w: container is read-only", errs.ErrSequence)
	}
	v, ok := c.vars[name]
	if !ok {
		return fmt.Errorf("%w: variable %q is not defined", errs.ErrNotDefined, name)
	}
	if _, exists := v.Chunks[chunkIndex]; exists {
		return fmt.Errorf("%w: chunk %d of variable %q already written", errs.ErrDuplicateID, chunkIndex, name)
	}

	if _, err := c.file.Seek(c.nextOffset, 0); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	offset := c.nextOffset
	n, err := writeFramed(c.file, values)
	if err != nil {
		return fmt.Errorf("%w: failed to append chunk: %v", errs.ErrStorage, err)
	}
	c.nextOffset += n

	v.Chunks[chunkIndex] = chunkEntry{Offset: offset, Length: int64(len(values))}
	if c.cache != nil {
		c.cache.Put(perf.ChunkKey{Variable: name, Chunk: int64(chunkIndex)}, values)
	}
	return nil
}

// OverwriteChunk replaces chunkIndex's bytes in place, logically: it
// appends the new payload to the log exactly like WriteChunk and
// repoints the variable's chunk-index-to-offset entry at the fresh
// record, the same append-then-repoint move Close uses to commit a
// new header. Unlike WriteChunk it never errors on an existing
// chunkIndex — geometry mutation (Appender translate/scale/rotate)
// needs to replace an already-written coordinate chunk, which
// WriteChunk's append-once contract forbids for time-series data.
func (c *Container) OverwriteChunk(name string, chunkIndex int, values []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readOnly {
		return fmt.Errorf("%w: container is read-only", errs.ErrSequence)
	}
	v, ok := c.vars[name]
	if !ok {
		return fmt.Errorf("%w: variable %q is not defined", errs.ErrNotDefined, name)
	}

	if _, err := c.file.Seek(c.nextOffset, 0); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	offset := c.nextOffset
	n, err := writeFramed(c.file, values)
	if err != nil {
		return fmt.Errorf("%w: failed to append chunk: %v", errs.ErrStorage, err)
	}
	c.nextOffset += n

	v.Chunks[chunkIndex] = chunkEntry{Offset: offset, Length: int64(len(values))}
	if c.cache != nil {
		c.cache.Put(perf.ChunkKey{Variable: name, Chunk: int64(chunkIndex)}, values)
	}
	return nil
}

// ReadChunk returns the raw bytes of one physical chunk, serving from
// the chunk cache when present and falling back to a seek+read of the
// committed record otherwise.
func (c *Container) ReadChunk(name string, chunkIndex int) ([]byte, error) {
	c.mu.RLock()
	v, ok := c.vars[name]
	if !ok {
		c.mu.RUnlock()
		return nil, fmt.Errorf("%w: variable %q is not defined", errs.ErrNotDefined, name)
	}
	entry, ok := v.Chunks[chunkIndex]
	cache := c.cache
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: chunk %d of variable %q was never written", errs.ErrNotFound, chunkIndex, name)
	}

	if cache != nil {
		if data, hit := cache.Get(perf.ChunkKey{Variable: name, Chunk: int64(chunkIndex)}); hit {
			return data, nil
		}
	}

	payload, _, err := readFramedAt(c.file, entry.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	if cache != nil {
		cache.Put(perf.ChunkKey{Variable: name, Chunk: int64(chunkIndex)}, payload)
	}
	return payload, nil
}

// ChunkCount returns how many chunks of name have been written.
func (c *Container) ChunkCount(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vars[name]
	if !ok {
		return 0
	}
	return len(v.Chunks)
}

// EncodeFloat64s packs a float64 slice into the container's canonical
// little-endian wire representation, bit-exact for round-tripping.
func EncodeFloat64s(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeFloat64s is the inverse of EncodeFloat64s.
func DecodeFloat64s(buf []byte) []float64 {
	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}

// EncodeInt64s packs an int64 slice into the container's canonical
// little-endian wire representation.
func EncodeInt64s(values []int64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return buf
}

// DecodeInt64s is the inverse of EncodeInt64s.
func DecodeInt64s(buf []byte) []int64 {
	out := make([]int64, len(buf)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}
