package sahpool

import (
	"fmt"
	"io"
	"sync"

	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// ErrAlreadyInstalled is returned by Install when cfg.VFSName is already
// registered under a different Util instance than the caller's.
var ErrAlreadyInstalled = fmt.Errorf("sahpool: vfs name already installed")

// ErrAlreadyAssigned is returned by ImportDB/ImportDBUnchecked when path
// already has an assigned opaque file (spec §4.3 "Import": "fails if
// already assigned").
var ErrAlreadyAssigned = fmt.Errorf("sahpool: path already assigned")

// Util is the SAH-Pool backend's admin surface (spec §6 "Admin operations").
// It is the only way to grow/shrink the pool, inspect assignments, or
// import/export database bytes; none of that is reachable through the
// plain vfs.VFS interface SQLite itself drives.
type Util struct {
	cfg  Config
	root Directory
	pool *Pool
	vfs  *VFS
}

var (
	installedMu sync.Mutex
	installed   = map[string]*Util{}
)

// Install resolves cfg's directory inside root, builds (or reopens) its
// pool, registers a vfs.VFS under cfg.VFSName, and returns the admin
// handle. Calling Install again with the same VFSName returns the
// existing Util instead of creating a second pool over the same files.
func Install(root Directory, cfg Config, makeDefault bool) (*Util, error) {
	cfg = cfg.withDefaults()

	installedMu.Lock()
	defer installedMu.Unlock()

	if u, ok := installed[cfg.VFSName]; ok {
		return u, nil
	}

	dir, err := resolveDirectory(root, cfg.Directory)
	if err != nil {
		return nil, err
	}

	pool, err := NewPool(cfg, dir)
	if err != nil {
		return nil, err
	}

	v := newVFS(cfg.VFSName, pool)
	if err := vfs.Register(cfg.VFSName, v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAlreadyInstalled, err)
	}

	u := &Util{cfg: cfg, root: dir, pool: pool, vfs: v}
	installed[cfg.VFSName] = u
	return u, nil
}

func resolveDirectory(root Directory, segment string) (Directory, error) {
	if segment == "" {
		return root, nil
	}
	return root.GetDirectory(segment, true)
}

// GetCapacity reports the pool's total opaque file count.
func (u *Util) GetCapacity() int { return u.pool.GetCapacity() }

// AddCapacity grows the pool by n opaque files.
func (u *Util) AddCapacity(n int) error { return u.pool.AddCapacity(n) }

// ReduceCapacity shrinks the pool by up to n unassigned opaque files.
func (u *Util) ReduceCapacity(n int) error { return u.pool.ReduceCapacity(n) }

// ReserveMinimumCapacity grows the pool, if needed, to at least m.
func (u *Util) ReserveMinimumCapacity(m int) error { return u.pool.ReserveMinimumCapacity(m) }

// List returns every currently-assigned database path.
func (u *Util) List() []string { return u.pool.List() }

// Count returns the number of currently-assigned paths.
func (u *Util) Count() int { return u.pool.Count() }

// Exists reports whether path is currently assigned.
func (u *Util) Exists(path string) bool {
	return u.pool.Contains(vfs.NormalizePath(path))
}

// DeleteDB releases path's opaque file back to the pool.
func (u *Util) DeleteDB(path string) error {
	return u.pool.Delete(vfs.NormalizePath(path))
}

// ClearAll releases every assigned opaque file back to the pool.
func (u *Util) ClearAll() error { return u.pool.ClearAll() }

// ExportDB copies path's full opaque-file payload (the bytes SQLite
// sees, header sector excluded) to w.
func (u *Util) ExportDB(path string, w io.Writer) error {
	of, ok := u.pool.Lookup(vfs.NormalizePath(path))
	if !ok {
		return sqlite3.New(sqlite3.NOTFOUND, nil)
	}

	size, err := of.sah.Size()
	if err != nil {
		return err
	}
	payload := size - HeaderOffsetData
	if payload < 0 {
		payload = 0
	}

	const chunk = 64 * 1024
	buf := make([]byte, chunk)
	for off := int64(0); off < payload; off += chunk {
		n := chunk
		if remaining := payload - off; int64(n) > remaining {
			n = int(remaining)
		}
		read, err := of.sah.ReadAt(buf[:n], HeaderOffsetData+off)
		if err != nil {
			return err
		}
		if _, err := w.Write(buf[:read]); err != nil {
			return err
		}
	}
	return nil
}

// ImportDB assigns path a fresh opaque file and writes data as its full
// payload, validating the SQLite header magic bytes first, per spec §6
// "Admin operations". Like ImportDBUnchecked, it fails with
// ErrAlreadyAssigned if path already has an opaque file. Use
// ImportDBUnchecked to skip validation.
func (u *Util) ImportDB(path string, data []byte) error {
	if len(data) < 16 || string(data[:16]) != sqliteHeaderMagic {
		return sqlite3.New(sqlite3.ERROR, fmt.Errorf("sahpool: not a SQLite database"))
	}
	return u.ImportDBUnchecked(path, data)
}

const sqliteHeaderMagic = "SQLite format 3\x00"

// ImportDBUnchecked writes data as path's full payload without validating
// it looks like a SQLite database. It fails if path already has an
// assigned opaque file, and patches bytes 18-19 of the payload to
// 0x01, 0x01 to force a WAL/legacy-mode demotion (spec §4.3 "Import").
func (u *Util) ImportDBUnchecked(path string, data []byte) error {
	path = vfs.NormalizePath(path)

	if _, ok := u.pool.Lookup(path); ok {
		return sqlite3.New(sqlite3.ERROR, ErrAlreadyAssigned)
	}

	of, err := u.pool.Open(path, vfs.OPEN_CREATE|vfs.OPEN_READWRITE|vfs.OPEN_MAIN_DB)
	if err != nil {
		return err
	}
	// Import holds no SQLite handle open, so path must not stay in the
	// open set that Pause checks.
	defer u.pool.MarkClosed(path)

	payload := data
	if len(data) >= 20 {
		payload = append([]byte(nil), data...)
		payload[18], payload[19] = 0x01, 0x01
	}

	if err := of.sah.Truncate(HeaderOffsetData); err != nil {
		return err
	}
	if _, err := of.sah.WriteAt(payload, HeaderOffsetData); err != nil {
		return err
	}
	return of.sah.Flush()
}

// PauseVFS unregisters the VFS and releases its opaque files' OS-level
// handles without forgetting assignments, for callers that need to
// relinquish OPFS access temporarily (spec §4.3 "Pause/Unpause").
func (u *Util) PauseVFS() error {
	return u.pool.Pause(u.cfg.VFSName)
}

// UnpauseVFS reacquires handles and re-registers the VFS.
func (u *Util) UnpauseVFS() error {
	return u.pool.Unpause(u.cfg.VFSName, func() error {
		return vfs.Register(u.cfg.VFSName, u.vfs)
	})
}

// IsPaused reports whether the VFS is currently paused.
func (u *Util) IsPaused() bool { return u.pool.IsPaused() }
