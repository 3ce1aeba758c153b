package relaxedidb

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// ErrNotFound is returned by admin operations that reference a path
// with no resident or persisted state.
var ErrNotFound = fmt.Errorf("relaxedidb: not found")

// Util is the Relaxed-IDB backend's admin surface (spec §6 "Admin
// operations").
type Util struct {
	cfg Config
	b   *backend
	vfs *VFS
}

var (
	installedMu sync.Mutex
	installed   = map[string]*Util{}
)

// Install opens db, runs cfg.Preload's bulk read, spawns the commit
// worker, registers a vfs.VFS under cfg.VFSName, and returns the admin
// handle. Calling Install again with the same VFSName returns the
// existing Util (spec "Registration singleton").
func Install(db Database, cfg Config) (*Util, error) {
	cfg = cfg.withDefaults()

	installedMu.Lock()
	defer installedMu.Unlock()

	if u, ok := installed[cfg.VFSName]; ok {
		return u, nil
	}

	if cfg.ClearOnInit {
		tx, err := db.Transaction(false)
		if err != nil {
			return nil, err
		}
		if err := tx.Clear(); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}

	b := newBackend(cfg, db)

	if err := runPreload(b, cfg.Preload); err != nil {
		return nil, err
	}

	v := newVFS(cfg.VFSName, b, cfg.Host)
	if err := vfs.Register(cfg.VFSName, v); err != nil {
		return nil, err
	}

	u := &Util{cfg: cfg, b: b, vfs: v}
	installed[cfg.VFSName] = u
	return u, nil
}

func runPreload(b *backend, p Preload) error {
	switch p.Kind {
	case PreloadNone:
		return nil
	case PreloadAll:
		tx, err := b.db.Transaction(true)
		if err != nil {
			return err
		}
		recs, err := tx.GetAll()
		if err != nil {
			return err
		}
		byPath := map[string][]Record{}
		for _, r := range recs {
			byPath[r.Path] = append(byPath[r.Path], r)
		}
		for path, recs := range byPath {
			b.fileFor(path).installRecords(recs)
		}
		return nil
	case PreloadPaths:
		return preloadPaths(b, p.Paths)
	default:
		return nil
	}
}

// preloadPaths fetches each path's records concurrently, bounded,
// grounded in the backend's use of golang.org/x/sync/errgroup for
// capacity provisioning elsewhere in this module.
func preloadPaths(b *backend, paths []string) error {
	var g errgroup.Group
	g.SetLimit(4)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			tx, err := b.db.Transaction(true)
			if err != nil {
				return err
			}
			recs, err := tx.GetAllForPath(path)
			if err != nil {
				return err
			}
			if len(recs) > 0 {
				b.fileFor(path).installRecords(recs)
			}
			return nil
		})
	}
	return g.Wait()
}

// PreloadDB fetches and merges in any paths not yet resident.
func (u *Util) PreloadDB(paths []string) error {
	var missing []string
	for _, path := range paths {
		if _, ok := u.b.lookup(path); !ok {
			missing = append(missing, path)
		}
	}
	return preloadPaths(u.b, missing)
}

// Exists reports whether path is currently resident.
func (u *Util) Exists(path string) bool {
	_, ok := u.b.lookup(path)
	return ok
}

// List returns every resident path.
func (u *Util) List() []string { return u.b.paths() }

// Count returns the number of resident paths.
func (u *Util) Count() int { return len(u.b.paths()) }

// ImportDB validates pageSize and the SQLite header magic, then calls
// ImportDBUnchecked.
func (u *Util) ImportDB(path string, data []byte, pageSize int64) error {
	if pageSize < 512 || pageSize > 65536 || pageSize&(pageSize-1) != 0 {
		return sqlite3.New(sqlite3.ERROR, fmt.Errorf("relaxedidb: page size %d is not a power of two in [512, 65536]", pageSize))
	}
	if len(data) < 16 || string(data[:16]) != sqliteHeaderMagic {
		return sqlite3.New(sqlite3.ERROR, fmt.Errorf("relaxedidb: not a SQLite database"))
	}
	return u.ImportDBUnchecked(path, data, pageSize)
}

const sqliteHeaderMagic = "SQLite format 3\x00"

// ImportDBUnchecked chunks data into pageSize records (zero-padding the
// final short chunk), installs them as dirty, and awaits a Sync (spec
// §4.4 "Admin" / "import").
func (u *Util) ImportDBUnchecked(path string, data []byte, pageSize int64) error {
	fs := newFileState(path)
	fs.blockSize = pageSize
	fs.hasPages = true

	for off := int64(0); off < int64(len(data)); off += pageSize {
		end := off + pageSize
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		page := make([]byte, pageSize)
		copy(page, data[off:end])
		fs.pages = fs.pages.Insert(off, page)
		fs.dirty[off] = true
	}
	fs.fileSize = int64(len(data))

	u.b.mu.Lock()
	u.b.files[path] = fs
	u.b.mu.Unlock()

	return u.b.sync(path, true)
}

// ExportDB allocates file_size bytes and copies every resident page in.
func (u *Util) ExportDB(path string) ([]byte, error) {
	fs, ok := u.b.lookup(path)
	if !ok {
		return nil, sqlite3.New(sqlite3.NOTFOUND, ErrNotFound)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	out := make([]byte, fs.fileSize)
	for iter := fs.pages.Iterate(); !iter.Done(); iter.Next() {
		offset := iter.GetKey()
		if offset >= fs.fileSize {
			continue
		}
		page := iter.GetValue()
		copy(out[offset:], page)
	}
	return out, nil
}

// DeleteDB drops path's in-memory entry and awaits its IDB deletion.
func (u *Util) DeleteDB(path string) error {
	u.b.forget(path)
	return u.b.delete(path, true)
}

// ClearAll drops the entire in-memory map and wipes the IDB store.
func (u *Util) ClearAll() error {
	for _, path := range u.b.paths() {
		u.b.forget(path)
	}

	tx, err := u.b.db.Transaction(false)
	if err != nil {
		return err
	}
	if err := tx.Clear(); err != nil {
		return err
	}
	return tx.Commit()
}
