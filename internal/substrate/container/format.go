// Package container implements the on-disk binary format that backs the
// substrate adapter: a self-contained, NetCDF-classic-flavored binary
// container (dimensions, typed chunked variables, attributes) with no
// dependency on libnetcdf/libhdf5 — see DESIGN.md's "internal/substrate"
// entry for why no such Go binding exists in the reference corpus.
//
// File layout:
//
//	┌───────────────────────┐  offset 0, fixed 64 bytes
//	│ Header                │  magic, version, superblock pointer + CRC
//	├───────────────────────┤
//	│ chunk record 0        │  length-prefixed, CRC32-checked (append-only)
//	│ chunk record 1        │
//	│ ...                   │
//	├───────────────────────┤
//	│ superblock record N    │  JSON-encoded dims/vars/attrs/truth-tables,
//	│                        │  length-prefixed, CRC32-checked
//	└───────────────────────┘
//
// Each Close (Writer/Appender) appends a fresh superblock record after
// any new chunk records, then rewrites the fixed Header in place to
// point at it — the only in-place mutation in the whole format. A crash
// between a chunk append and the next superblock write leaves the
// previous, already-committed superblock (and the chunks it references)
// intact and readable; the new, uncommitted chunks are simply
// unreferenced garbage at the end of the file (spec.md section 4.1's
// durability contract).
package container

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	// Magic identifies a file as an exodus container.
	Magic = "EXODUSG1"

	// FormatVersion is the current binary format version.
	FormatVersion = uint32(1)

	// HeaderSize is the fixed, cache-line-friendly header size in bytes.
	HeaderSize = 64
)

// Header is the fixed-size record at offset 0 of every container file.
type Header struct {
	Magic             [8]byte
	Version           uint32
	SuperblockOffset  uint64
	SuperblockSize    uint64
	SuperblockCRC     uint32
	Reserved          [32]byte
}

func newHeader() Header {
	var h Header
	copy(h.Magic[:], Magic)
	h.Version = FormatVersion
	return h
}

func (h Header) write(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, h.Magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Version); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.SuperblockOffset); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.SuperblockSize); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.SuperblockCRC); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, h.Reserved)
}

func readHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h.Magic); err != nil {
		return h, err
	}
	if string(h.Magic[:]) != Magic {
		return h, fmt.Errorf("bad magic %q, not an exodus container", h.Magic[:])
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return h, err
	}
	if h.Version > FormatVersion {
		return h, fmt.Errorf("unsupported format version %d (max %d)", h.Version, FormatVersion)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.SuperblockOffset); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.SuperblockSize); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.SuperblockCRC); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Reserved); err != nil {
		return h, err
	}
	return h, nil
}

// writeFramed writes a length-prefixed, CRC32-checked record, the same
// framing the teacher's internal/storage/wal/wal.go uses for WAL
// entries (4-byte little-endian length, payload, here followed by a
// trailing CRC32 instead of WAL's implicit fsync-per-entry durability).
func writeFramed(w io.Writer, payload []byte) (int64, error) {
	var written int64
	if err := binary.Write(w, binary.LittleEndian, uint32(len(payload))); err != nil {
		return 0, fmt.Errorf("failed to write record length: %w", err)
	}
	written += 4
	n, err := w.Write(payload)
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("failed to write record payload: %w", err)
	}
	crc := crc32.ChecksumIEEE(payload)
	if err := binary.Write(w, binary.LittleEndian, crc); err != nil {
		return written, fmt.Errorf("failed to write record crc: %w", err)
	}
	written += 4
	return written, nil
}

// readFramedAt reads one writeFramed record starting at byte offset off
// and returns the payload plus its total on-disk size (length prefix +
// payload + crc suffix).
func readFramedAt(r io.ReaderAt, off int64) ([]byte, int64, error) {
	var lenBuf [4]byte
	if _, err := r.ReadAt(lenBuf[:], off); err != nil {
		return nil, 0, fmt.Errorf("failed to read record length: %w", err)
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])

	payload := make([]byte, length)
	if _, err := r.ReadAt(payload, off+4); err != nil {
		return nil, 0, fmt.Errorf("failed to read record payload: %w", err)
	}

	var crcBuf [4]byte
	if _, err := r.ReadAt(crcBuf[:], off+4+int64(length)); err != nil {
		return nil, 0, fmt.Errorf("failed to read record crc: %w", err)
	}
	wantCRC := binary.LittleEndian.Uint32(crcBuf[:])
	gotCRC := crc32.ChecksumIEEE(payload)
	if wantCRC != gotCRC {
		return nil, 0, fmt.Errorf("record at offset %d failed crc check (corruption)", off)
	}

	return payload, 4 + int64(length) + 4, nil
}
