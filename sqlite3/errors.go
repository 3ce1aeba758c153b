// Package sqlite3 defines the status codes and error type shared by every
// VFS backend in this module, mirroring SQLite's own primary/extended
// result code encoding so a backend can return a value SQLite (or a wasm
// guest calling through [vfs/wasmbridge]) recognizes directly.
package sqlite3

import "fmt"

// Code is a SQLite result code: the low byte is the primary code, the
// upper bytes (when present) narrow it to an extended code.
type Code uint32

// Primary and extended result codes used by the VFS layer.
//
// Values match upstream SQLite's numbering so a [vfs/wasmbridge] trampoline
// can return them to a wasm guest without translation.
const (
	OK    Code = 0
	ERROR Code = 1
	BUSY  Code = 5

	NOTFOUND Code = 12
	CANTOPEN Code = 14

	IOERR Code = 10

	IOERR_READ         Code = IOERR | (1 << 8)
	IOERR_SHORT_READ   Code = IOERR | (2 << 8)
	IOERR_WRITE        Code = IOERR | (3 << 8)
	IOERR_FSYNC        Code = IOERR | (4 << 8)
	IOERR_TRUNCATE     Code = IOERR | (6 << 8)
	IOERR_DELETE       Code = IOERR | (10 << 8)
	IOERR_LOCK         Code = IOERR | (15 << 8)
	IOERR_DELETE_NOENT Code = IOERR | (23 << 8)

	BUSY_RECOVERY Code = BUSY | (1 << 8)
)

var names = map[Code]string{
	OK:                 "ok",
	ERROR:              "sql logic error",
	BUSY:               "database is locked",
	NOTFOUND:           "not found",
	CANTOPEN:           "unable to open database file",
	IOERR:              "disk I/O error",
	IOERR_READ:         "disk I/O error (read)",
	IOERR_SHORT_READ:   "disk I/O error (short read)",
	IOERR_WRITE:        "disk I/O error (write)",
	IOERR_FSYNC:        "disk I/O error (fsync)",
	IOERR_TRUNCATE:     "disk I/O error (truncate)",
	IOERR_LOCK:         "disk I/O error (lock)",
	IOERR_DELETE:       "disk I/O error (delete)",
	IOERR_DELETE_NOENT: "disk I/O error (delete, no such file)",
	BUSY_RECOVERY:      "database is locked (recovery)",
}

// Error implements the error interface so a bare Code can be returned
// (and compared with errors.Is) from any File or VFS method.
func (c Code) Error() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("sqlite3: result code %d", uint32(c))
}

// Primary strips the extended byte, returning the primary result code.
func (c Code) Primary() Code {
	return c & 0xff
}

// IsExtended reports whether c carries an extended code beyond its
// primary byte.
func (c Code) IsExtended() bool {
	return c&^0xff != 0
}

// Error pairs a Code with the underlying cause from a host storage
// collaborator (an OPFS/IndexedDB operation, an os.File call in tests, ...).
// Backends construct these with [New] rather than returning a bare error
// from the collaborator, so the framework can always recover a Code.
type Error struct {
	Code  Code
	Cause error
}

// New wraps cause with code. If cause is nil, New returns code itself
// (satisfying error without an allocation).
func New(code Code, cause error) error {
	if cause == nil {
		return code
	}
	return &Error{Code: code, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Code.Error()
	}
	return fmt.Sprintf("%s: %v", e.Code.Error(), e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// As lets errors.As(err, &sqlite3.Code(0)) style checks work by exposing
// the wrapped code.
func (e *Error) As(target any) bool {
	if p, ok := target.(*Code); ok {
		*p = e.Code
		return true
	}
	return false
}
