package relaxedidb

import (
	"strconv"

	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// handle is an open main-DB file: a thin view over the backend's
// resident fileState plus this open's own lock state (spec §4.4 "File
// I/O").
type handle struct {
	b    *backend
	fs   *fileState
	path string
	lock vfs.LockLevel
}

var (
	_ vfs.File                      = (*handle)(nil)
	_ vfs.FileLockState             = (*handle)(nil)
	_ vfs.FileSectorSize            = (*handle)(nil)
	_ vfs.FileDeviceCharacteristics = (*handle)(nil)
	_ vfs.FileControl               = (*handle)(nil)
)

func (h *handle) ReadAt(buf []byte, off int64) (int, error) {
	return h.fs.read(buf, off)
}

func (h *handle) WriteAt(buf []byte, off int64) (int, error) {
	n, err := h.fs.write(buf, off)
	if err == errWriteLengthMismatch {
		return n, sqlite3.New(sqlite3.ERROR, err)
	}
	return n, err
}

func (h *handle) Truncate(size int64) error {
	return h.fs.truncate(size)
}

// Sync is a no-op: durability is driven by the commit worker via
// FileControl(SYNC/COMMIT_PHASETWO), not by xSync (spec §4.4 "flush:
// no-op here").
func (h *handle) Sync(flags vfs.SyncFlag) error { return nil }

func (h *handle) Size() (int64, error) {
	return h.fs.size(), nil
}

func (h *handle) Lock(level vfs.LockLevel) error {
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

// FileControl intercepts PRAGMA page_size and PRAGMA synchronous, and
// treats SYNC/COMMIT_PHASETWO as commit requests (spec §4.4 "Page-size
// policy" / "xFileControl recognized ops").
func (h *handle) FileControl(op vfs.FileControlOp, arg any) error {
	switch op {
	case vfs.FCNTL_PRAGMA:
		pragma, ok := arg.([2]string)
		if !ok {
			return sqlite3.NOTFOUND
		}
		return h.pragma(pragma[0], pragma[1])
	case vfs.FCNTL_SYNC, vfs.FCNTL_COMMIT_PHASETWO:
		return h.b.sync(h.path, false)
	default:
		return sqlite3.NOTFOUND
	}
}

func (h *handle) pragma(name, value string) error {
	switch name {
	case "page_size":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return sqlite3.NOTFOUND
		}
		if err := h.fs.setBlockSize(n); err != nil {
			return sqlite3.New(sqlite3.ERROR, err)
		}
		return nil
	case "synchronous":
		if value == "full" || value == "2" {
			return sqlite3.New(sqlite3.ERROR, errSynchronousFullUnsupported)
		}
		return sqlite3.NOTFOUND
	default:
		return sqlite3.NOTFOUND
	}
}

func (h *handle) Close() error {
	return nil
}

// tempHandle backs a temp-db or temp-journal file with memory-backend
// semantics (spec §4.4: "read/write on a temp file: same [...] as memory
// backend"): no page granularity, no IndexedDB involvement.
type tempHandle struct {
	data []byte
	lock vfs.LockLevel
}

var (
	_ vfs.File          = (*tempHandle)(nil)
	_ vfs.FileLockState = (*tempHandle)(nil)
)

func (h *tempHandle) ReadAt(buf []byte, off int64) (int, error) {
	if off >= int64(len(h.data)) {
		clear(buf)
		return 0, vfs.ErrShortRead
	}
	n := copy(buf, h.data[off:])
	if n < len(buf) {
		clear(buf[n:])
		return n, vfs.ErrShortRead
	}
	return n, nil
}

func (h *tempHandle) WriteAt(buf []byte, off int64) (int, error) {
	end := off + int64(len(buf))
	if end > int64(len(h.data)) {
		grown := make([]byte, end)
		copy(grown, h.data)
		h.data = grown
	}
	return copy(h.data[off:end], buf), nil
}

func (h *tempHandle) Truncate(size int64) error {
	if size < 0 {
		size = 0
	}
	if size >= int64(len(h.data)) {
		return nil
	}
	h.data = h.data[:size]
	return nil
}

func (h *tempHandle) Sync(flags vfs.SyncFlag) error { return nil }

func (h *tempHandle) Size() (int64, error) { return int64(len(h.data)), nil }

func (h *tempHandle) Lock(level vfs.LockLevel) error {
	if level > h.lock {
		h.lock = level
	}
	return nil
}

func (h *tempHandle) Unlock(level vfs.LockLevel) error {
	if level < h.lock {
		h.lock = level
	}
	return nil
}

func (h *tempHandle) CheckReservedLock() (bool, error) {
	return h.lock >= vfs.LOCK_RESERVED, nil
}

func (h *tempHandle) LockState() vfs.LockLevel { return h.lock }

func (h *tempHandle) Close() error { return nil }
