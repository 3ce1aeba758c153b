// Package sahpool implements spec §4.3's SAH-Pool VFS: a fixed pool of
// pre-opened OPFS synchronous access handles, multiplexed onto
// user-visible database names through an in-file header. This is the
// backend the spec calls out as "the central trick": the host's
// synchronous-access-handle API can't open arbitrary files on demand
// (opening OPFS files is asynchronous), so the pool pre-opens capacity at
// install time and hands user filenames an already-open handle.
package sahpool

import "io"

// Directory models an OPFS directory handle (spec §6 "OPFS (consumed)").
// The production binding (out of scope for this core) wraps the
// browser's FileSystemDirectoryHandle; vfs/sahpool/fakeopfs provides an
// in-memory implementation for tests.
type Directory interface {
	// GetDirectory resolves name as a child directory, creating it if
	// create is true and it doesn't exist.
	GetDirectory(name string, create bool) (Directory, error)
	// GetFile resolves name as a child file, creating it if create is
	// true and it doesn't exist.
	GetFile(name string, create bool) (FileHandle, error)
	// RemoveEntry deletes the named child.
	RemoveEntry(name string) error
	// Entries lists the directory's immediate children by name.
	Entries() ([]string, error)
}

// FileHandle models an OPFS file handle capable of yielding exactly one
// synchronous access handle at a time, per the host's actual API
// (createSyncAccessHandle).
type FileHandle interface {
	CreateSyncAccessHandle() (SyncAccessHandle, error)
}

// SyncAccessHandle models the browser's synchronous, blocking file I/O
// surface — the one OPFS capability that lets this VFS answer SQLite's
// synchronous read/write protocol without ever yielding (spec §5,
// "never suspend inside a trampoline").
type SyncAccessHandle interface {
	io.Closer
	ReadAt(buf []byte, at int64) (int, error)
	WriteAt(buf []byte, at int64) (int, error)
	Truncate(size int64) error
	Flush() error
	Size() (int64, error)
}
