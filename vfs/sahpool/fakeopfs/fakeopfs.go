// Package fakeopfs is an in-memory stand-in for the browser's Origin
// Private File System, implementing the vfs/sahpool.Directory/FileHandle/
// SyncAccessHandle contracts. It exists only so vfs/sahpool can be tested
// without a real browser; production wiring for the actual OPFS API is
// out of scope for this core (spec §1).
package fakeopfs

import (
	"errors"
	"sync"

	"github.com/browsersql/sqlite3vfs/vfs/sahpool"
)

// ErrNotExist reports a missing directory or file entry.
var ErrNotExist = errors.New("fakeopfs: no such entry")

// ErrIsDirectory reports that a file operation targeted a directory.
var ErrIsDirectory = errors.New("fakeopfs: entry is a directory")

// Directory is an in-memory OPFS directory.
type Directory struct {
	mu       sync.Mutex
	children map[string]*entry
}

type entry struct {
	dir  *Directory
	file *File
}

// New returns an empty root directory.
func New() *Directory {
	return &Directory{children: map[string]*entry{}}
}

func (d *Directory) GetDirectory(name string, create bool) (sahpool.Directory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.children[name]
	if !ok {
		if !create {
			return nil, ErrNotExist
		}
		e = &entry{dir: New()}
		d.children[name] = e
	}
	if e.dir == nil {
		return nil, ErrIsDirectory
	}
	return e.dir, nil
}

func (d *Directory) GetFile(name string, create bool) (sahpool.FileHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.children[name]
	if !ok {
		if !create {
			return nil, ErrNotExist
		}
		e = &entry{file: &File{}}
		d.children[name] = e
	}
	if e.file == nil {
		return nil, ErrIsDirectory
	}
	return e.file, nil
}

func (d *Directory) RemoveEntry(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.children[name]; !ok {
		return ErrNotExist
	}
	delete(d.children, name)
	return nil
}

func (d *Directory) Entries() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}
	return names, nil
}

// File is an in-memory OPFS file, holding its bytes directly (OPFS
// createSyncAccessHandle in a real browser grants exclusive synchronous
// access; the fake doesn't enforce exclusivity since this core's own
// concurrency model already guarantees a single writer, see spec §5).
type File struct {
	mu   sync.Mutex
	data []byte
}

func (f *File) CreateSyncAccessHandle() (sahpool.SyncAccessHandle, error) {
	return &handle{file: f}, nil
}

type handle struct{ file *File }

func (h *handle) ReadAt(buf []byte, at int64) (int, error) {
	h.file.mu.Lock()
	defer h.file.mu.Unlock()

	if at >= int64(len(h.file.data)) {
		clear(buf)
		return 0, nil
	}
	n := copy(buf, h.file.data[at:])
	if n < len(buf) {
		clear(buf[n:])
	}
	return n, nil
}

func (h *handle) WriteAt(buf []byte, at int64) (int, error) {
	h.file.mu.Lock()
	defer h.file.mu.Unlock()

	end := at + int64(len(buf))
	if end > int64(len(h.file.data)) {
		grown := make([]byte, end)
		copy(grown, h.file.data)
		h.file.data = grown
	}
	return copy(h.file.data[at:end], buf), nil
}

func (h *handle) Truncate(size int64) error {
	h.file.mu.Lock()
	defer h.file.mu.Unlock()

	if size <= int64(len(h.file.data)) {
		h.file.data = h.file.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, h.file.data)
	h.file.data = grown
	return nil
}

func (h *handle) Flush() error { return nil }

func (h *handle) Size() (int64, error) {
	h.file.mu.Lock()
	defer h.file.mu.Unlock()
	return int64(len(h.file.data)), nil
}

func (h *handle) Close() error { return nil }
