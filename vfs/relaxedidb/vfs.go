package relaxedidb

import (
	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// tempTypes mirrors the set of file types this backend treats as
// ephemeral, memory-backend-style scratch space rather than a main-DB
// file resident in the IDB-backed cache (spec §4.4: "read/write on a
// temp file: same semantics as memory backend"). The rollback journal
// isn't a main-DB file either — the page-size lock-in only applies to
// OPEN_MAIN_DB — so it gets the same ephemeral treatment.
const tempTypes = vfs.OPEN_TEMP_DB | vfs.OPEN_TEMP_JOURNAL | vfs.OPEN_SUBJOURNAL | vfs.OPEN_MAIN_JOURNAL

// VFS is the Relaxed-IDB backend's vfs.VFS implementation.
type VFS struct {
	name string
	b    *backend
	host vfs.Host
}

var _ vfs.VFS = (*VFS)(nil)

func newVFS(name string, b *backend, host vfs.Host) *VFS {
	return &VFS{name: name, b: b, host: host}
}

func (v *VFS) Open(name string, flags vfs.OpenFlag) (vfs.File, vfs.OpenFlag, error) {
	if flags&tempTypes != 0 {
		return &tempHandle{}, flags | vfs.OPEN_MEMORY, nil
	}

	path := vfs.PrepareOpen(name, v.host)
	_, existed := v.b.lookup(path)
	if !existed && flags&vfs.OPEN_CREATE == 0 {
		return nil, 0, sqlite3.CANTOPEN
	}

	fs := v.b.fileFor(path)
	return &handle{b: v.b, fs: fs, path: path}, flags, nil
}

func (v *VFS) Delete(name string, dirSync bool) error {
	path := vfs.NormalizePath(name)
	if _, ok := v.b.lookup(path); !ok {
		return nil
	}
	v.b.forget(path)
	return v.b.delete(path, false)
}

func (v *VFS) Access(name string, flag vfs.AccessFlag) (bool, error) {
	_, ok := v.b.lookup(vfs.NormalizePath(name))
	return ok, nil
}

func (v *VFS) FullPathname(name string) (string, error) {
	return vfs.NormalizePath(name), nil
}
