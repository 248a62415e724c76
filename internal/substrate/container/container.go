package container

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/meshio/exodus/internal/errs"
	"github.com/meshio/exodus/internal/perf"
)

// DType is the wire element type of a variable's values.
type DType int

const (
	DTypeFloat64 DType = iota
	DTypeInt64
	DTypeInt32
	DTypeText
)

func (d DType) byteWidth() int {
	switch d {
	case DTypeFloat64, DTypeInt64:
		return 8
	case DTypeInt32:
		return 4
	default:
		return 1
	}
}

// dimDef is a named dimension. Size 0 marks the single unlimited
// ("time_step") dimension a container may declare.
type dimDef struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// chunkEntry locates one already-written chunk record in the file.
type chunkEntry struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"` // payload length, not on-disk framed length
}

// varDef is a named, typed, chunked variable over a list of dimensions.
type varDef struct {
	Name       string         `json:"name"`
	Type       DType          `json:"type"`
	DimNames   []string       `json:"dim_names"`
	ChunkShape []int          `json:"chunk_shape"`
	Chunks     map[int]chunkEntry `json:"chunks"` // chunk index -> location
	Attrs      []attrRecord   `json:"attrs"`
}

// attrRecord is a single scalar or array attribute attached either to
// the container globally or to one variable.
type attrRecord struct {
	Name string      `json:"name"`
	Kind AttrKind    `json:"kind"`
	Text string      `json:"text,omitempty"`
	Ints []int64     `json:"ints,omitempty"`
	Reals []float64  `json:"reals,omitempty"`
}

// AttrKind discriminates the attribute payload carried by attrRecord.
type AttrKind int

const (
	AttrText AttrKind = iota
	AttrInts
	AttrReals
)

// superblock is the JSON-encoded metadata envelope persisted at the end
// of the file on every Close, grounded on the teacher's
// internal/index/hnsw/format.go header-plus-body split, here with the
// body carrying the whole metadata catalog instead of one index's
// graph structure.
type superblock struct {
	Dims       []dimDef              `json:"dims"`
	Vars       map[string]*varDef    `json:"vars"`
	GlobalAttrs []attrRecord         `json:"global_attrs"`
	QARecords  []QARecord            `json:"qa_records"`
	InfoRecords []string             `json:"info_records"`
}

type QARecord struct {
	Code    string `json:"code"`
	Version string `json:"version"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Container is a single open substrate file. It owns the file handle,
// the in-memory metadata catalog, and an optional chunk cache. All
// exported methods are safe for concurrent use; callers coordinate
// lifecycle transitions (Defined/Populated/Closed) one level up in the
// exodus package's role types.
type Container struct {
	mu       sync.RWMutex
	file     *os.File
	path     string
	readOnly bool
	closed   bool

	dims map[string]dimDef
	vars map[string]*varDef
	globalAttrs []attrRecord
	qaRecords   []QARecord
	infoRecords []string

	nextOffset int64 // end of file, next byte available for appending

	cache *perf.ChunkCache
}

// Create makes a brand new container file at path, truncating any
// existing file. Returns a Container positioned for metadata definition
// (dims/vars/attrs) — no superblock exists on disk until the first
// Flush or Close.
func Create(path string, cache *perf.ChunkCache) (*Container, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create container %q: %v", errs.ErrStorage, path, err)
	}
	h := newHeader()
	if err := h.write(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to write header: %v", errs.ErrStorage, err)
	}
	return &Container{
		file:       f,
		path:       path,
		dims:       map[string]dimDef{},
		vars:       map[string]*varDef{},
		nextOffset: HeaderSize,
		cache:      cache,
	}, nil
}

// Open opens an existing container file, reading its header and most
// recent committed superblock into memory. readOnly governs whether
// DefineVariable/WriteChunk/etc. are permitted afterward.
func Open(path string, readOnly bool, cache *perf.ChunkCache) (*Container, error) {
	flag := os.O_RDONLY
	if !readOnly {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open container %q: %v", errs.ErrStorage, path, err)
	}

	h, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	if h.SuperblockOffset == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: container %q has no committed superblock (never closed)", errs.ErrStorage, path)
	}

	payload, _, err := readFramedAt(f, int64(h.SuperblockOffset))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to read superblock: %v", errs.ErrStorage, err)
	}

	var sb superblock
	if err := json.Unmarshal(payload, &sb); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to decode superblock: %v", errs.ErrStorage, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}

	c := &Container{
		file:        f,
		path:        path,
		readOnly:    readOnly,
		dims:        map[string]dimDef{},
		vars:        map[string]*varDef{},
		globalAttrs: sb.GlobalAttrs,
		qaRecords:   sb.QARecords,
		infoRecords: sb.InfoRecords,
		nextOffset:  stat.Size(),
		cache:       cache,
	}
	for _, d := range sb.Dims {
		c.dims[d.Name] = d
	}
	for name, v := range sb.Vars {
		if v.Chunks == nil {
			v.Chunks = map[int]chunkEntry{}
		}
		c.vars[name] = v
	}
	return c, nil
}

// Flush appends a fresh superblock recording the current in-memory
// catalog, then rewrites the header in place to point at it. Safe to
// call repeatedly (e.g. from Appender, after each batch of time steps).
func (c *Container) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

func (c *Container) flushLocked() error {
	if c.closed {
		return fmt.Errorf("%w: container is closed", errs.ErrFinalized)
	}
	if c.readOnly {
		return fmt.Errorf("%w: container is read-only", errs.ErrSequence)
	}

	sb := superblock{
		GlobalAttrs: c.globalAttrs,
		QARecords:   c.qaRecords,
		InfoRecords: c.infoRecords,
		Vars:        c.vars,
	}
	for _, d := range c.dims {
		sb.Dims = append(sb.Dims, d)
	}

	payload, err := json.Marshal(sb)
	if err != nil {
		return fmt.Errorf("%w: failed to encode superblock: %v", errs.ErrStorage, err)
	}

	if _, err := c.file.Seek(c.nextOffset, 0); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	sbOffset := c.nextOffset
	n, err := writeFramed(c.file, payload)
	if err != nil {
		return fmt.Errorf("%w: failed to append superblock: %v", errs.ErrStorage, err)
	}
	c.nextOffset += n

	if err := c.file.Sync(); err != nil {
		return fmt.Errorf("%w: failed to fsync data: %v", errs.ErrStorage, err)
	}

	h := newHeader()
	h.SuperblockOffset = uint64(sbOffset)
	h.SuperblockSize = uint64(n)
	h.SuperblockCRC = 0 // integrity is covered by writeFramed's own per-record CRC
	if _, err := c.file.Seek(0, 0); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	if err := h.write(c.file); err != nil {
		return fmt.Errorf("%w: failed to commit header: %v", errs.ErrStorage, err)
	}
	if err := c.file.Sync(); err != nil {
		return fmt.Errorf("%w: failed to fsync header: %v", errs.ErrStorage, err)
	}
	return nil
}

// Close flushes a final superblock (unless read-only) and closes the
// underlying file. Idempotent, matching the teacher's closed-bool-gated
// Close convention (libravdb/database.go).
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	var flushErr error
	if !c.readOnly {
		flushErr = c.flushLocked()
	}
	c.closed = true
	if err := c.file.Close(); err != nil {
		if flushErr != nil {
			return fmt.Errorf("%w: flush failed (%v) and close failed: %v", errs.ErrStorage, flushErr, err)
		}
		return fmt.Errorf("%w: failed to close container: %v", errs.ErrStorage, err)
	}
	return flushErr
}

// Path returns the filesystem path this container was opened from.
func (c *Container) Path() string {
	return c.path
}
