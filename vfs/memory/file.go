package memory

import (
	"sync"

	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// file is the shared state behind every path: a single byte vector with
// no page granularity, per spec §4.2. Multiple open handles over the
// same path (spec invariant 6, naming exclusivity) share one *file.
type file struct {
	mu   sync.RWMutex
	data []byte
}

// handle is the per-xOpen view over a shared file: its own lock state
// and read-only flag, per spec §3's "open handle" (trailer + per-open
// state), but no private data.
type handle struct {
	vfs      *VFS
	file     *file
	path     string
	readOnly bool
	lock     vfs.LockLevel
}

var (
	_ vfs.File           = (*handle)(nil)
	_ vfs.FileLockState  = (*handle)(nil)
	_ vfs.FileSectorSize = (*handle)(nil)
	_ vfs.FileDeviceCharacteristics = (*handle)(nil)
	_ vfs.FileControl    = (*handle)(nil)
)

func (h *handle) ReadAt(buf []byte, off int64) (int, error) {
	f := h.file
	f.mu.RLock()
	defer f.mu.RUnlock()

	size := int64(len(f.data))
	if off >= size {
		clear(buf)
		return 0, vfs.ErrShortRead
	}

	n := copy(buf, f.data[off:])
	if n < len(buf) {
		clear(buf[n:])
		return n, vfs.ErrShortRead
	}
	return n, nil
}

func (h *handle) WriteAt(buf []byte, off int64) (int, error) {
	f := h.file
	f.mu.Lock()
	defer f.mu.Unlock()

	end := off + int64(len(buf))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	n := copy(f.data[off:end], buf)
	return n, nil
}

func (h *handle) Truncate(size int64) error {
	f := h.file
	f.mu.Lock()
	defer f.mu.Unlock()

	if size < 0 {
		size = 0
	}
	if size >= int64(len(f.data)) {
		// Memory backend truncate never extends (spec invariant 3).
		return nil
	}
	f.data = f.data[:size]
	return nil
}

func (h *handle) Sync(flags vfs.SyncFlag) error { return nil }

func (h *handle) Size() (int64, error) {
	f := h.file
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.data)), nil
}

func (h *handle) Lock(level vfs.LockLevel) error {
	if h.readOnly && level >= vfs.LOCK_RESERVED {
		return sqlite3.IOERR_LOCK
	}
	if level > h.lock {
		h.lock = level
	}
	return nil
}

func (h *handle) Unlock(level vfs.LockLevel) error {
	if level < h.lock {
		h.lock = level
	}
	return nil
}

func (h *handle) CheckReservedLock() (bool, error) {
	return h.lock >= vfs.LOCK_RESERVED, nil
}

func (h *handle) LockState() vfs.LockLevel { return h.lock }

func (h *handle) SectorSize() int { return 512 }

func (h *handle) DeviceCharacteristics() vfs.DeviceCharacteristic {
	return 0
}

func (h *handle) FileControl(op vfs.FileControlOp, arg any) error {
	return sqlite3.NOTFOUND
}

func (h *handle) Close() error {
	return nil
}
