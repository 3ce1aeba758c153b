package wasmbridge

import (
	"errors"
	"io"

	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// resultCode maps any error a VFS or File method returns into the
// 32-bit result code a wasm guest expects back from a trampoline, per
// spec §4.1's required codes table.
func resultCode(err error) uint32 {
	if err == nil {
		return uint32(sqlite3.OK)
	}
	if errors.Is(err, vfs.ErrShortRead) {
		return uint32(sqlite3.IOERR_SHORT_READ)
	}

	var code sqlite3.Code
	if errors.As(err, &code) {
		return uint32(code)
	}

	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		return uint32(serr.Code)
	}

	if errors.Is(err, io.EOF) {
		return uint32(sqlite3.IOERR_SHORT_READ)
	}

	return uint32(sqlite3.IOERR)
}
