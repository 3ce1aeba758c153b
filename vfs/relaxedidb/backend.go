package relaxedidb

import "sync"

// backend is the shared state behind a Relaxed-IDB installation: the
// resident file map every open handle reads and writes through, plus
// the commit worker that write-backs it to IndexedDB.
type backend struct {
	cfg Config
	db  Database

	mu    sync.Mutex
	files map[string]*fileState

	worker *worker
}

func newBackend(cfg Config, db Database) *backend {
	b := &backend{cfg: cfg, db: db, files: map[string]*fileState{}}
	b.worker = startWorker(b)
	return b
}

// fileFor returns path's resident fileState, creating an empty one if
// it isn't yet resident.
func (b *backend) fileFor(path string) *fileState {
	b.mu.Lock()
	defer b.mu.Unlock()

	fs, ok := b.files[path]
	if !ok {
		fs = newFileState(path)
		b.files[path] = fs
	}
	return fs
}

func (b *backend) lookup(path string) (*fileState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fs, ok := b.files[path]
	return fs, ok
}

func (b *backend) forget(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.files, path)
}

func (b *backend) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.files))
	for path := range b.files {
		out = append(out, path)
	}
	return out
}

// sync enqueues path's dirty pages for commit, optionally blocking
// until the commit finishes.
func (b *backend) sync(path string, wait bool) error {
	if !wait {
		b.worker.enqueueSync(path, nil)
		return nil
	}
	notify := make(chan error, 1)
	b.worker.enqueueSync(path, notify)
	return <-notify
}

// delete enqueues path's full removal from IndexedDB, optionally
// blocking until it finishes.
func (b *backend) delete(path string, wait bool) error {
	if !wait {
		b.worker.enqueueDelete(path, nil)
		return nil
	}
	notify := make(chan error, 1)
	b.worker.enqueueDelete(path, notify)
	return <-notify
}
