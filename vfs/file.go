package vfs

import "io"

// ErrShortRead is returned (wrapped or bare) by File.ReadAt when fewer
// bytes were available than requested because the read ran past the
// logical end of the file. The caller (the framework, on SQLite's
// behalf) still expects the tail of buf to be zero-filled; every backend
// in this module upholds that before returning ErrShortRead.
//
// This is distinct from io.EOF: SQLite treats a short read as a normal,
// expected outcome (it's how recovery code detects end-of-file), not a
// general I/O failure, so it is mapped to IOERR_SHORT_READ rather than
// IOERR by the wasmbridge trampolines.
var ErrShortRead = io.ErrUnexpectedEOF

// File is the capability surface SQLite's sqlite3_io_methods expects from
// an open handle. Every backend (memory, sahpool, relaxedidb) implements
// this directly; optional capabilities are expressed as the extension
// interfaces below, type-asserted by the wasmbridge trampolines, never by
// backend code itself.
type File interface {
	// ReadAt copies min(len(buf), size-off) bytes starting at off into buf.
	// If off is at or past the end of file, or the read would otherwise
	// fall short, ReadAt zero-fills the remainder of buf and returns
	// ErrShortRead.
	ReadAt(buf []byte, off int64) (n int, err error)

	// WriteAt writes buf at off, growing the file if necessary.
	WriteAt(buf []byte, off int64) (n int, err error)

	// Truncate shortens the file to size bytes. Memory-backend files and
	// Relaxed-IDB temp files never grow on Truncate; SAH-Pool and
	// Relaxed-IDB main-DB files take size as their new size either way.
	Truncate(size int64) error

	// Sync flushes any buffered state to the backend's durable store.
	Sync(flags SyncFlag) error

	// Size reports the current logical size of the file.
	Size() (int64, error)

	// Lock upgrades the file's lock to at least level.
	Lock(level LockLevel) error

	// Unlock downgrades the file's lock to at most level.
	Unlock(level LockLevel) error

	// CheckReservedLock reports whether some connection (possibly this
	// one) holds a RESERVED lock or higher.
	CheckReservedLock() (bool, error)

	// Close releases the handle. Deletion on DELETEONCLOSE is handled by
	// the framework's xClose algorithm, not by Close itself.
	Close() error
}

// FileSizeHint is implemented by files that can usefully preallocate
// storage ahead of a known final size (xFileControl SIZE_HINT).
type FileSizeHint interface {
	SizeHint(size int64) error
}

// FileLockState is implemented by files that can report their own lock
// level without recomputing it (used by tests and by diagnostics).
type FileLockState interface {
	LockState() LockLevel
}

// FileSectorSize is implemented by files whose backend has a sector size
// other than the VFS-wide default (SAH-Pool uses 4096 where memory and
// Relaxed-IDB use 512).
type FileSectorSize interface {
	SectorSize() int
}

// FileDeviceCharacteristics is implemented by files that advertise
// xDeviceCharacteristics bits beyond 0.
type FileDeviceCharacteristics interface {
	DeviceCharacteristics() DeviceCharacteristic
}

// FileControl is implemented by files that recognize xFileControl ops
// beyond the defaults the framework handles (PRAGMA interception on
// Relaxed-IDB, SYNC/COMMIT_PHASETWO commit requests, ...).
type FileControl interface {
	// FileControl handles op with the given argument, which is backend
	// defined (for FCNTL_PRAGMA it is the two-element [name, value]
	// pragma pair). FileControl returns sqlite3.NOTFOUND for ops it does
	// not recognize so the framework can fall back to its defaults.
	FileControl(op FileControlOp, arg any) error
}
