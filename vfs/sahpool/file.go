package sahpool

import (
	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// sectorSize is the opaque file's physical sector size, matching OPFS's
// page-aligned synchronous access handle writes (spec §4.3 "File I/O").
const sectorSize = 4096

// handle is a user database's open file, translating SQLite-visible
// offsets into the opaque file's HeaderOffsetData-shifted physical
// offsets.
type handle struct {
	vfs  *VFS
	path string
	of   *opaqueFile
	lock vfs.LockLevel
}

var (
	_ vfs.File                     = (*handle)(nil)
	_ vfs.FileLockState            = (*handle)(nil)
	_ vfs.FileSectorSize           = (*handle)(nil)
	_ vfs.FileDeviceCharacteristics = (*handle)(nil)
)

func (h *handle) ReadAt(p []byte, off int64) (int, error) {
	n, err := h.of.sah.ReadAt(p, HeaderOffsetData+off)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		clear(p[n:])
		return n, vfs.ErrShortRead
	}
	return n, nil
}

func (h *handle) WriteAt(p []byte, off int64) (int, error) {
	n, err := h.of.sah.WriteAt(p, HeaderOffsetData+off)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, sqlite3.New(sqlite3.ERROR, nil)
	}
	return n, nil
}

func (h *handle) Truncate(size int64) error {
	return h.of.sah.Truncate(HeaderOffsetData + size)
}

func (h *handle) Sync(flags vfs.SyncFlag) error {
	return h.of.sah.Flush()
}

func (h *handle) Size() (int64, error) {
	total, err := h.of.sah.Size()
	if err != nil {
		return 0, err
	}
	size := total - HeaderOffsetData
	if size < 0 {
		size = 0
	}
	return size, nil
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

func (h *handle) LockState() vfs.LockLevel {
	return h.lock
}

func (h *handle) SectorSize() int {
	return sectorSize
}

func (h *handle) DeviceCharacteristics() vfs.DeviceCharacteristic {
	return vfs.IOCAP_UNDELETABLE_WHEN_OPEN
}

func (h *handle) Close() error {
	h.vfs.pool.MarkClosed(h.path)
	return nil
}
