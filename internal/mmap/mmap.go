// Package mmap provides read-only memory-mapped file access.
package mmap

import (
	"fmt"
	"io"
	"os"
)

// File is a read-only memory-mapped file.
type File struct {
	Data []byte
	f    *os.File
}

// Open memory-maps the named file for reading. A zero-length file maps to
// an empty Data slice.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap: open %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap: stat %s: %w", path, err)
	}

	size := fi.Size()
	if size == 0 {
		return &File{Data: nil, f: f}, nil
	}

	data, err := mmap(f, int(size))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap: map %s: %w", path, err)
	}

	return &File{Data: data, f: f}, nil
}

// ReadAt implements io.ReaderAt over the mapped region.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.Data)) {
		return 0, fmt.Errorf("mmap: offset %d out of range", off)
	}

	n := copy(p, m.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// Size returns the length of the mapped region.
func (m *File) Size() int64 {
	return int64(len(m.Data))
}

// Close unmaps the region and closes the underlying file.
func (m *File) Close() error {
	if m.Data != nil {
		if err := munmap(m.Data); err != nil {
			_ = m.f.Close()
			return fmt.Errorf("mmap: unmap: %w", err)
		}

		m.Data = nil
	}

	return m.f.Close()
}
