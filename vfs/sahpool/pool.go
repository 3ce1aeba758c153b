package sahpool

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/btree"
	"golang.org/x/sync/errgroup"

	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// ErrPoolExhausted is returned by Open when every opaque file is
// assigned and none is available to hand out.
var ErrPoolExhausted = fmt.Errorf("sahpool: pool exhausted")

// ErrFilesOpen is returned by Pause when a user path is currently open;
// closing synchronous access handles out from under an open SQLite
// connection is undefined behavior (spec §4.3 "Pause/Unpause").
var ErrFilesOpen = fmt.Errorf("sahpool: cannot pause while files are open")

type opaqueFile struct {
	name string
	sah  SyncAccessHandle
}

// Pool is the directory of opaque files and the two maps (available,
// assigned) spec §3 describes as the SAH-Pool backend's core state.
type Pool struct {
	cfg Config
	dir Directory // the ".opaque" subdirectory

	mu        sync.Mutex
	available []*opaqueFile
	assigned  *btree.Map[string, *opaqueFile]
	openPaths map[string]bool
	paused    bool
}

// NewPool initializes a Pool rooted at root (the caller-resolved OPFS
// directory configured by cfg.Directory), performing spec §4.3's
// Initialization steps 2-4.
func NewPool(cfg Config, root Directory) (*Pool, error) {
	cfg = cfg.withDefaults()

	opaqueDir, err := root.GetDirectory(".opaque", true)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:       cfg,
		dir:       opaqueDir,
		assigned:  btree.NewMap[string, *opaqueFile](32),
		openPaths: map[string]bool{},
	}

	if err := p.loadExisting(); err != nil {
		return nil, err
	}

	if uint32(p.capacityLocked()) < cfg.InitialCapacity {
		if err := p.AddCapacity(int(cfg.InitialCapacity) - p.capacityLocked()); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Pool) loadExisting() error {
	names, err := p.dir.Entries()
	if err != nil {
		return err
	}

	for _, name := range names {
		fh, err := p.dir.GetFile(name, false)
		if err != nil {
			return err
		}
		sah, err := fh.CreateSyncAccessHandle()
		if err != nil {
			return err
		}
		of := &opaqueFile{name: name, sah: sah}

		if p.cfg.ClearOnInit {
			if err := writeHeader(sah, "", 0); err != nil {
				return err
			}
			p.available = append(p.available, of)
			continue
		}

		path, ok, err := readHeader(sah)
		if err != nil {
			return err
		}
		if !ok {
			p.available = append(p.available, of)
			continue
		}
		p.assigned.Set(path, of)
	}

	p.cfg.Logger.Debug("sahpool: loaded existing pool", "assigned", p.assigned.Len(), "available", len(p.available))
	return nil
}

func (p *Pool) capacityLocked() int {
	return len(p.available) + p.assigned.Len()
}

// GetCapacity reports the total number of opaque files, assigned or not
// (spec invariant 8).
func (p *Pool) GetCapacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacityLocked()
}

// AddCapacity creates n new opaque files and adds them to available.
func (p *Pool) AddCapacity(n int) error {
	if n <= 0 {
		return nil
	}

	created := make([]*opaqueFile, n)
	var g errgroup.Group
	g.SetLimit(4)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			of, err := p.createOpaqueFile()
			if err != nil {
				return err
			}
			created[i] = of
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.cfg.Logger.Warn("sahpool: failed to grow pool", "delta", n, "error", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.available = append(p.available, created...)
	p.cfg.Logger.Debug("sahpool: grew pool", "delta", n, "capacity", p.capacityLocked())
	return nil
}

func (p *Pool) createOpaqueFile() (*opaqueFile, error) {
	var raw [16]byte
	p.cfg.Host.Random(raw[:])
	raw[6] = raw[6]&0x0f | 0x40 // version 4
	raw[8] = raw[8]&0x3f | 0x80 // RFC 4122 variant
	name := uuid.UUID(raw).String()
	fh, err := p.dir.GetFile(name, true)
	if err != nil {
		return nil, err
	}
	sah, err := fh.CreateSyncAccessHandle()
	if err != nil {
		return nil, err
	}
	if err := writeHeader(sah, "", 0); err != nil {
		return nil, err
	}
	return &opaqueFile{name: name, sah: sah}, nil
}

// ReduceCapacity closes and removes up to n unassigned opaque files.
func (p *Pool) ReduceCapacity(n int) error {
	p.mu.Lock()
	k := n
	if k > len(p.available) {
		k = len(p.available)
	}
	removed := p.available[:k]
	p.available = p.available[k:]
	p.mu.Unlock()

	for _, of := range removed {
		if err := of.sah.Close(); err != nil {
			p.cfg.Logger.Warn("sahpool: failed to close opaque file during shrink", "name", of.name, "error", err)
			return err
		}
		if err := p.dir.RemoveEntry(of.name); err != nil {
			p.cfg.Logger.Warn("sahpool: failed to remove opaque file during shrink", "name", of.name, "error", err)
			return err
		}
	}
	p.cfg.Logger.Debug("sahpool: shrank pool", "removed", len(removed))
	return nil
}

// ReserveMinimumCapacity grows the pool so total capacity is at least m.
func (p *Pool) ReserveMinimumCapacity(m int) error {
	current := p.GetCapacity()
	if m <= current {
		return nil
	}
	return p.AddCapacity(m - current)
}

// Open assigns path to a free opaque file (spec §4.3 "Open").
func (p *Pool) Open(path string, flags vfs.OpenFlag) (*opaqueFile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.assigned.Get(path); ok {
		return nil, sqlite3.CANTOPEN
	}

	n := len(p.available)
	if n == 0 {
		return nil, sqlite3.New(sqlite3.CANTOPEN, ErrPoolExhausted)
	}
	of := p.available[n-1]
	p.available = p.available[:n-1]

	if err := writeHeader(of.sah, path, flags); err != nil {
		p.available = append(p.available, of)
		return nil, err
	}

	p.assigned.Set(path, of)
	p.openPaths[path] = true
	return of, nil
}

// Lookup finds an already-assigned opaque file by path.
func (p *Pool) Lookup(path string) (*opaqueFile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assigned.Get(path)
}

// Contains reports whether path is currently assigned.
func (p *Pool) Contains(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.assigned.Get(path)
	return ok
}

// MarkClosed removes path from the set of currently-open user paths that
// Pause checks. The set records paths, not handles: closing any one
// handle over path removes it, even if another handle over path is
// still open.
func (p *Pool) MarkClosed(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.openPaths, path)
}

// Delete returns path's opaque file to available and clears its header
// (spec §4.3 "Delete"). Deleting an unassigned path succeeds silently.
func (p *Pool) Delete(path string) error {
	p.mu.Lock()
	of, ok := p.assigned.Get(path)
	if !ok {
		p.mu.Unlock()
		return nil
	}
	p.assigned.Delete(path)
	delete(p.openPaths, path)
	p.mu.Unlock()

	if err := writeHeader(of.sah, "", 0); err != nil {
		return err
	}

	p.mu.Lock()
	p.available = append(p.available, of)
	p.mu.Unlock()
	return nil
}

// ClearAll deletes every assigned path.
func (p *Pool) ClearAll() error {
	p.mu.Lock()
	paths := make([]string, 0, p.assigned.Len())
	p.assigned.Scan(func(path string, _ *opaqueFile) bool {
		paths = append(paths, path)
		return true
	})
	p.mu.Unlock()

	for _, path := range paths {
		if err := p.Delete(path); err != nil {
			return err
		}
	}
	return nil
}

// List returns every assigned path in sorted order (the btree.Map's
// natural iteration order).
func (p *Pool) List() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	paths := make([]string, 0, p.assigned.Len())
	p.assigned.Scan(func(path string, _ *opaqueFile) bool {
		paths = append(paths, path)
		return true
	})
	return paths
}

// Count returns the number of assigned paths.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assigned.Len()
}

// Pause unregisters the VFS and closes every opaque file's synchronous
// access handle, keeping on-disk files intact, per spec §4.3
// "Pause/Unpause". It fails if any user path is currently open.
func (p *Pool) Pause(vfsName string) error {
	p.mu.Lock()
	if len(p.openPaths) > 0 {
		p.mu.Unlock()
		return ErrFilesOpen
	}

	all := make([]*opaqueFile, 0, len(p.available)+p.assigned.Len())
	all = append(all, p.available...)
	p.assigned.Scan(func(_ string, of *opaqueFile) bool {
		all = append(all, of)
		return true
	})
	p.paused = true
	p.mu.Unlock()

	vfs.Unregister(vfsName)

	for _, of := range all {
		if err := of.sah.Close(); err != nil {
			p.cfg.Logger.Warn("sahpool: failed to close opaque file during pause", "name", of.name, "error", err)
			return err
		}
	}
	p.cfg.Logger.Debug("sahpool: paused", "files", len(all))
	return nil
}

// Unpause reacquires synchronous access handles for every opaque file
// exactly as Initialization does, without clearing, then re-registers
// the VFS.
func (p *Pool) Unpause(vfsName string, register func() error) error {
	p.mu.Lock()
	p.available = nil
	p.assigned = btree.NewMap[string, *opaqueFile](32)
	p.openPaths = map[string]bool{}
	p.mu.Unlock()

	savedClearOnInit := p.cfg.ClearOnInit
	p.cfg.ClearOnInit = false
	err := p.loadExisting()
	p.cfg.ClearOnInit = savedClearOnInit
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()

	if err := register(); err != nil {
		return err
	}
	p.cfg.Logger.Debug("sahpool: unpaused")
	return nil
}

// IsPaused reports whether the pool is currently paused.
func (p *Pool) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}
