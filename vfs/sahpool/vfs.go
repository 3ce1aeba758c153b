package sahpool

import (
	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// VFS is the SAH-Pool backend's vfs.VFS implementation. Unlike the Memory
// backend it never synthesizes anonymous temp files: every path must
// name a real user database, since the pool has no notion of a
// disposable in-memory scratch file (spec §4.3 "Open").
type VFS struct {
	name string
	pool *Pool
}

var _ vfs.VFS = (*VFS)(nil)

func newVFS(name string, pool *Pool) *VFS {
	return &VFS{name: name, pool: pool}
}

func (v *VFS) Open(name string, flags vfs.OpenFlag) (vfs.File, vfs.OpenFlag, error) {
	if name == "" {
		return nil, 0, sqlite3.CANTOPEN
	}
	path := vfs.NormalizePath(name)

	of, ok := v.pool.Lookup(path)
	if ok {
		v.pool.mu.Lock()
		v.pool.openPaths[path] = true
		v.pool.mu.Unlock()
		return &handle{vfs: v, path: path, of: of}, flags, nil
	}

	if flags&vfs.OPEN_CREATE == 0 {
		return nil, 0, sqlite3.CANTOPEN
	}

	of, err := v.pool.Open(path, flags)
	if err != nil {
		return nil, 0, err
	}
	return &handle{vfs: v, path: path, of: of}, flags, nil
}

func (v *VFS) Delete(name string, dirSync bool) error {
	return v.pool.Delete(vfs.NormalizePath(name))
}

func (v *VFS) Access(name string, flag vfs.AccessFlag) (bool, error) {
	return v.pool.Contains(vfs.NormalizePath(name)), nil
}

func (v *VFS) FullPathname(name string) (string, error) {
	return vfs.NormalizePath(name), nil
}
