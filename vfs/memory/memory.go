// Package memory implements spec §4.2's Memory VFS: each file is kept as
// a single byte vector in process memory, with no page granularity and
// no on-disk footprint at all. It is both a usable in-process database
// and the reference behavior for the sahpool and relaxedidb backends,
// whose tests check the same invariants; those tests do not run Memory
// side by side with the persistent backend.
package memory

import (
	"sync"

	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

func init() {
	_ = vfs.Register("memory", New(vfs.DefaultHost()))
}

// VFS implements vfs.VFS over an in-process map of path to file content.
type VFS struct {
	host vfs.Host

	mu    sync.Mutex
	files map[string]*file
}

// New returns a Memory VFS instance. Most callers use the package-level
// "memory" registration installed by init; New exists for tests and
// embedders that want an isolated instance rather than the shared
// process-wide registry entry.
func New(host vfs.Host) *VFS {
	return &VFS{host: host, files: map[string]*file{}}
}

func (v *VFS) Open(name string, flags vfs.OpenFlag) (vfs.File, vfs.OpenFlag, error) {
	path := vfs.PrepareOpen(name, v.host)

	v.mu.Lock()
	f, ok := v.files[path]
	if !ok {
		if !flags.Has(vfs.OPEN_CREATE) {
			v.mu.Unlock()
			return nil, flags, sqlite3.CANTOPEN
		}
		f = &file{}
		v.files[path] = f
	}
	v.mu.Unlock()

	return &handle{
		vfs:      v,
		file:     f,
		path:     path,
		readOnly: flags.Has(vfs.OPEN_READONLY),
	}, flags | vfs.OPEN_MEMORY, nil
}

func (v *VFS) Delete(name string, dirSync bool) error {
	path := vfs.NormalizePath(name)
	v.mu.Lock()
	delete(v.files, path)
	v.mu.Unlock()
	return nil
}

func (v *VFS) Access(name string, flag vfs.AccessFlag) (bool, error) {
	path := vfs.NormalizePath(name)
	v.mu.Lock()
	_, ok := v.files[path]
	v.mu.Unlock()
	return ok, nil
}

func (v *VFS) FullPathname(name string) (string, error) {
	return vfs.NormalizePath(name), nil
}

// ContainsFile reports whether path currently has file state, the same
// answer Access gives.
func (v *VFS) ContainsFile(path string) bool {
	path = vfs.NormalizePath(path)
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.files[path]
	return ok
}

var _ vfs.VFS = (*VFS)(nil)
