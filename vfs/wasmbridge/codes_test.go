package wasmbridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

func TestResultCode(t *testing.T) {
	require.Equal(t, uint32(sqlite3.OK), resultCode(nil))
	require.Equal(t, uint32(sqlite3.CANTOPEN), resultCode(sqlite3.CANTOPEN))
	require.Equal(t, uint32(sqlite3.IOERR_SHORT_READ), resultCode(vfs.ErrShortRead))
	require.Equal(t, uint32(sqlite3.IOERR_DELETE), resultCode(sqlite3.New(sqlite3.IOERR_DELETE, errors.New("boom"))))
	require.Equal(t, uint32(sqlite3.IOERR), resultCode(errors.New("unrelated failure")))
}
