// Package fakeidb is an in-memory stand-in for the browser's IndexedDB,
// implementing the vfs/relaxedidb.Database/Transaction contracts. It
// exists only so vfs/relaxedidb can be tested without a real browser;
// production wiring for the actual IndexedDB API is out of scope for
// this core (spec §1).
package fakeidb

import (
	"sort"
	"sync"

	"github.com/browsersql/sqlite3vfs/vfs/relaxedidb"
)

type key struct {
	path   string
	offset int64
}

// Database is an in-memory "blocks" object store keyed by (path, offset).
type Database struct {
	mu      sync.Mutex
	records map[key]relaxedidb.Record
}

// New returns an empty database.
func New() *Database {
	return &Database{records: map[key]relaxedidb.Record{}}
}

func (d *Database) Transaction(readOnly bool) (relaxedidb.Transaction, error) {
	return &transaction{db: d, readOnly: readOnly}, nil
}

type transaction struct {
	db       *Database
	readOnly bool
}

func (t *transaction) GetAll() ([]relaxedidb.Record, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	out := make([]relaxedidb.Record, 0, len(t.db.records))
	for _, r := range t.db.records {
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}

func (t *transaction) GetAllForPath(path string) ([]relaxedidb.Record, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	var out []relaxedidb.Record
	for k, r := range t.db.records {
		if k.path == path {
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out, nil
}

func (t *transaction) Put(r relaxedidb.Record) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.records[key{r.Path, r.Offset}] = r
	return nil
}

func (t *transaction) DeleteForPath(path string) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	for k := range t.db.records {
		if k.path == path {
			delete(t.db.records, k)
		}
	}
	return nil
}

func (t *transaction) DeleteRange(path string, from int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	for k := range t.db.records {
		if k.path == path && k.offset >= from {
			delete(t.db.records, k)
		}
	}
	return nil
}

func (t *transaction) Clear() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.records = map[key]relaxedidb.Record{}
	return nil
}

func (t *transaction) Commit() error { return nil }

func sortRecords(recs []relaxedidb.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Path != recs[j].Path {
			return recs[i].Path < recs[j].Path
		}
		return recs[i].Offset < recs[j].Offset
	})
}
