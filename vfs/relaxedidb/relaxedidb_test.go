package relaxedidb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/browsersql/sqlite3vfs/vfs"
	"github.com/browsersql/sqlite3vfs/vfs/relaxedidb/fakeidb"
)

func newTestUtil(t *testing.T, cfg Config) (*Util, *fakeidb.Database) {
	t.Helper()
	installedMu.Lock()
	delete(installed, cfg.withDefaults().VFSName)
	installedMu.Unlock()

	db := fakeidb.New()
	u, err := Install(db, cfg)
	require.NoError(t, err)
	return u, db
}

func TestPageSizeLockIn(t *testing.T) {
	newTestUtil(t, Config{VFSName: "r1"})
	v := vfs.Find("r1")

	f, _, err := v.Open("/r.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE|vfs.OPEN_MAIN_DB)
	require.NoError(t, err)
	defer f.Close()

	page := make([]byte, 4096)
	_, err = f.WriteAt(page, 0)
	require.NoError(t, err)

	fc := f.(vfs.FileControl)
	require.NoError(t, fc.FileControl(vfs.FCNTL_PRAGMA, [2]string{"page_size", "4096"}))
	require.Error(t, fc.FileControl(vfs.FCNTL_PRAGMA, [2]string{"page_size", "8192"}))

	_, err = f.WriteAt(make([]byte, 8192), 4096)
	require.Error(t, err)
}

func TestSynchronousFullRejected(t *testing.T) {
	newTestUtil(t, Config{VFSName: "r2"})
	v := vfs.Find("r2")

	f, _, err := v.Open("/r.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE|vfs.OPEN_MAIN_DB)
	require.NoError(t, err)
	defer f.Close()

	fc := f.(vfs.FileControl)
	require.Error(t, fc.FileControl(vfs.FCNTL_PRAGMA, [2]string{"synchronous", "full"}))
}

func TestRoundTripAndShortRead(t *testing.T) {
	_, _ = newTestUtil(t, Config{VFSName: "r3"})
	v := vfs.Find("r3")

	f, _, err := v.Open("/r.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE|vfs.OPEN_MAIN_DB)
	require.NoError(t, err)
	defer f.Close()

	page := make([]byte, 512)
	copy(page, "hello")
	_, err = f.WriteAt(page, 0)
	require.NoError(t, err)

	buf := make([]byte, 512)
	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, page, buf)

	short := make([]byte, 512)
	_, err = f.ReadAt(short, 1024)
	require.ErrorIs(t, err, vfs.ErrShortRead)
	require.Equal(t, make([]byte, 512), short)
}

func TestSyncPersistsToIDBAndPreloadRecovers(t *testing.T) {
	u, db := newTestUtil(t, Config{VFSName: "r4"})
	v := vfs.Find("r4")

	f, _, err := v.Open("/r.db", vfs.OPEN_CREATE|vfs.OPEN_READWRITE|vfs.OPEN_MAIN_DB)
	require.NoError(t, err)

	page := make([]byte, 512)
	copy(page, "persisted")
	_, err = f.WriteAt(page, 0)
	require.NoError(t, err)

	fc := f.(vfs.FileControl)
	require.NoError(t, fc.FileControl(vfs.FCNTL_SYNC, nil))
	require.NoError(t, u.b.sync("/r.db", true))
	require.NoError(t, f.Close())

	installedMu.Lock()
	delete(installed, "r5")
	installedMu.Unlock()

	u2, err := Install(db, Config{VFSName: "r5", Preload: Paths("/r.db")})
	require.NoError(t, err)
	require.True(t, u2.Exists("/r.db"))

	out, err := u2.ExportDB("/r.db")
	require.NoError(t, err)
	require.Equal(t, page, out)
}

func TestImportExportRoundTrip(t *testing.T) {
	u, _ := newTestUtil(t, Config{VFSName: "r6"})

	payload := append([]byte(sqliteHeaderMagic), make([]byte, 512-len(sqliteHeaderMagic))...)
	require.NoError(t, u.ImportDB("/a.db", payload, 512))

	out, err := u.ExportDB("/a.db")
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestDeleteDropsResidentAndIDBState(t *testing.T) {
	u, db := newTestUtil(t, Config{VFSName: "r7"})
	require.NoError(t, u.ImportDBUnchecked("/a.db", make([]byte, 512), 512))
	require.True(t, u.Exists("/a.db"))

	require.NoError(t, u.DeleteDB("/a.db"))
	require.False(t, u.Exists("/a.db"))

	tx, err := db.Transaction(true)
	require.NoError(t, err)
	recs, err := tx.GetAllForPath("/a.db")
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestCreateGatedOpen(t *testing.T) {
	newTestUtil(t, Config{VFSName: "r8"})
	v := vfs.Find("r8")

	_, _, err := v.Open("/missing.db", vfs.OPEN_READWRITE|vfs.OPEN_MAIN_DB)
	require.Error(t, err)
}
