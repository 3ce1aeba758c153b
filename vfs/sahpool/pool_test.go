package sahpool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/browsersql/sqlite3vfs/vfs"
	"github.com/browsersql/sqlite3vfs/vfs/sahpool/fakeopfs"
)

func newTestUtil(t *testing.T, cfg Config) *Util {
	t.Helper()
	installedMu.Lock()
	delete(installed, cfg.withDefaults().VFSName)
	installedMu.Unlock()

	u, err := Install(fakeopfs.New(), cfg, false)
	require.NoError(t, err)
	return u
}

func TestInstallGrowsToInitialCapacity(t *testing.T) {
	u := newTestUtil(t, Config{VFSName: "t1", InitialCapacity: 4})
	require.Equal(t, 4, u.GetCapacity())
}

func TestOpenAssignsAndHeaderRoundTrips(t *testing.T) {
	u := newTestUtil(t, Config{VFSName: "t2", InitialCapacity: 2})

	v := vfs.Find("t2")
	require.NotNil(t, v)

	f, flags, err := v.Open("/db.sqlite3", vfs.OPEN_CREATE|vfs.OPEN_READWRITE|vfs.OPEN_MAIN_DB)
	require.NoError(t, err)
	require.NotZero(t, flags&vfs.OPEN_CREATE)
	defer f.Close()

	require.True(t, u.Exists("/db.sqlite3"))
	require.Equal(t, []string{"/db.sqlite3"}, u.List())

	of, ok := u.pool.Lookup("/db.sqlite3")
	require.True(t, ok)
	path, assigned, err := readHeader(of.sah)
	require.NoError(t, err)
	require.True(t, assigned)
	require.Equal(t, "/db.sqlite3", path)
}

func TestOpenExhaustsPool(t *testing.T) {
	u := newTestUtil(t, Config{VFSName: "t3", InitialCapacity: 1})
	v := vfs.Find("t3")

	f1, _, err := v.Open("/a.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE)
	require.NoError(t, err)
	defer f1.Close()

	_, _, err = v.Open("/b.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE)
	require.ErrorIs(t, err, ErrPoolExhausted)

	require.Equal(t, 1, u.GetCapacity())
}

func TestReopenReusesAssignment(t *testing.T) {
	newTestUtil(t, Config{VFSName: "t4", InitialCapacity: 2})
	v := vfs.Find("t4")

	f1, _, err := v.Open("/a.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE)
	require.NoError(t, err)
	_, err = f1.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, f1.Close())

	f2, _, err := v.Open("/a.db", vfs.OPEN_READWRITE)
	require.NoError(t, err)
	defer f2.Close()

	buf := make([]byte, 5)
	_, err = f2.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))
}

func TestDeleteReturnsToAvailable(t *testing.T) {
	u := newTestUtil(t, Config{VFSName: "t5", InitialCapacity: 1})
	v := vfs.Find("t5")

	f, _, err := v.Open("/a.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, u.DeleteDB("/a.db"))
	require.False(t, u.Exists("/a.db"))

	_, _, err = v.Open("/b.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE)
	require.NoError(t, err)
}

func TestCapacityAddAndReduce(t *testing.T) {
	u := newTestUtil(t, Config{VFSName: "t6", InitialCapacity: 2})
	require.NoError(t, u.AddCapacity(3))
	require.Equal(t, 5, u.GetCapacity())

	require.NoError(t, u.ReduceCapacity(2))
	require.Equal(t, 3, u.GetCapacity())
}

func TestExportImportRoundTrip(t *testing.T) {
	u := newTestUtil(t, Config{VFSName: "t7", InitialCapacity: 1})
	payload := append([]byte(sqliteHeaderMagic), []byte("rest of page one")...)

	require.NoError(t, u.ImportDB("/a.db", payload))

	// Import patches bytes 18-19 to force a WAL/legacy demotion, so the
	// exported bytes differ from the input at exactly that offset.
	want := append([]byte(nil), payload...)
	want[18], want[19] = 0x01, 0x01

	var out bytes.Buffer
	require.NoError(t, u.ExportDB("/a.db", &out))
	require.Equal(t, want, out.Bytes())
}

func TestImportFailsWhenAlreadyAssigned(t *testing.T) {
	u := newTestUtil(t, Config{VFSName: "t7b", InitialCapacity: 2})
	payload := append([]byte(sqliteHeaderMagic), []byte("rest of page one")...)

	require.NoError(t, u.ImportDB("/a.db", payload))
	require.ErrorIs(t, u.ImportDB("/a.db", payload), ErrAlreadyAssigned)
}

func TestPauseUnpausePersistsAssignments(t *testing.T) {
	u := newTestUtil(t, Config{VFSName: "t8", InitialCapacity: 1})
	require.NoError(t, u.ImportDBUnchecked("/a.db", []byte("payload")))

	require.NoError(t, u.PauseVFS())
	require.True(t, u.IsPaused())
	require.Nil(t, vfs.Find("t8"))

	require.NoError(t, u.UnpauseVFS())
	require.False(t, u.IsPaused())
	require.True(t, u.Exists("/a.db"))
	require.NotNil(t, vfs.Find("t8"))
}

func TestPauseFailsWithOpenFiles(t *testing.T) {
	u := newTestUtil(t, Config{VFSName: "t9", InitialCapacity: 1})
	v := vfs.Find("t9")

	f, _, err := v.Open("/a.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE)
	require.NoError(t, err)
	defer f.Close()

	require.ErrorIs(t, u.PauseVFS(), ErrFilesOpen)
}
