package wasmbridge

import (
	"sync"

	"github.com/browsersql/sqlite3vfs/vfs"
)

// handle is the host-side counterpart of spec §3's "handle trailer": the
// bookkeeping that extends SQLite's fixed-size sqlite3_file block with
// the owning VFS, the open flags, and the path. Go has no use for a raw
// pointer+length into the path (the string is already heap-owned by the
// Go runtime), so the trailer collapses to this one struct, keyed by the
// wasm guest's sqlite3_file address (pFile) rather than embedded inside
// the guest's memory.
type handle struct {
	vfsName string
	vfs     vfs.VFS
	file    vfs.File
	flags   vfs.OpenFlag
	path    string
}

// handleTable maps a guest-owned pFile address to its handle, valid from
// the return of xOpen to the matching xClose (spec §3 invariant).
type handleTable struct {
	mu      sync.Mutex
	entries map[uint32]*handle
}

func newHandleTable() *handleTable {
	return &handleTable{entries: map[uint32]*handle{}}
}

func (t *handleTable) store(pFile uint32, h *handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[pFile] = h
}

func (t *handleTable) lookup(pFile uint32) (*handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.entries[pFile]
	return h, ok
}

func (t *handleTable) delete(pFile uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, pFile)
}
