package perf

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"
)

// MappedFile is a memory-mapped read (or read-write) view of a
// substrate container file, for the rare case where a hyperslab read
// benefits from paging instead of an explicit syscall per chunk. Adapted
// near-verbatim from the teacher's internal/memory.MemoryMap
// (internal/memory/mmap.go): same open/truncate/mmap/munmap/msync
// sequence, retargeted from an HNSW index blob to a substrate container.
type MappedFile struct {
	mu       sync.RWMutex
	file     *os.File
	data     []byte
	size     int64
	path     string
	readOnly bool
}

// NewMappedFile memory-maps path. If readOnly is false and size > 0 the
// file is truncated/extended to size before mapping.
func NewMappedFile(path string, size int64, readOnly bool) (*MappedFile, error) {
	var file *os.File
	var err error

	if readOnly {
		file, err = os.OpenFile(path, os.O_RDONLY, 0644)
	} else {
		file, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
		if err == nil && size > 0 {
			if terr := file.Truncate(size); terr != nil {
				file.Close()
				return nil, fmt.Errorf("failed to truncate file: %w", terr)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	if size == 0 {
		stat, serr := file.Stat()
		if serr != nil {
			file.Close()
			return nil, fmt.Errorf("failed to stat file: %w", serr)
		}
		size = stat.Size()
	}
	if size == 0 {
		file.Close()
		return nil, fmt.Errorf("cannot memory map empty file")
	}

	prot := syscall.PROT_READ
	if !readOnly {
		prot |= syscall.PROT_WRITE
	}

	data, err := syscall.Mmap(int(file.Fd()), 0, int(size), prot, syscall.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}

	return &MappedFile{file: file, data: data, size: size, path: path, readOnly: readOnly}, nil
}

// Data returns the mapped byte slice. Valid until Close.
func (m *MappedFile) Data() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data
}

// Size returns the mapped region's size in bytes.
func (m *MappedFile) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// Sync flushes writes through msync. A no-op for read-only mappings.
func (m *MappedFile) Sync() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return fmt.Errorf("mapped file is closed")
	}
	if m.readOnly {
		return nil
	}
	_, _, errno := syscall.Syscall(syscall.SYS_MSYNC,
		uintptr(unsafe.Pointer(&m.data[0])),
		uintptr(m.size),
		syscall.MS_SYNC)
	if errno != 0 {
		return fmt.Errorf("msync failed: %v", errno)
	}
	return nil
}

// Close unmaps the region and closes the underlying file descriptor.
func (m *MappedFile) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.data != nil {
		if uerr := syscall.Munmap(m.data); uerr != nil {
			err = fmt.Errorf("failed to unmap memory: %w", uerr)
		}
		m.data = nil
	}
	if m.file != nil {
		if cerr := m.file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
		m.file = nil
	}
	return err
}
