// Package relaxedidb implements spec §4.4's Relaxed-IDB VFS: a
// synchronous, in-memory-authoritative database whose content is
// write-backed to IndexedDB by a background commit worker. SQLite never
// waits on IDB; durability lags the in-memory state by however long the
// worker's queue takes to drain.
package relaxedidb

// Record is one IndexedDB record: one page of one file, keyed by the
// compound primary key (path, offset) per spec §6 "Persisted formats".
type Record struct {
	Path   string
	Offset int64
	Data   []byte
}

// Database models the IndexedDB database this backend opens at
// <vfs_name> (spec §4.4 "Initialization" / §6 "IndexedDB (consumed)").
// The production binding (out of scope for this core) wraps the
// browser's indexedDB API; relaxedidb/fakeidb provides an in-memory
// implementation for tests.
type Database interface {
	// Transaction opens a transaction on the "blocks" object store.
	Transaction(readOnly bool) (Transaction, error)
}

// Transaction is a single IndexedDB read-only or read-write transaction
// over the "blocks" object store.
type Transaction interface {
	// GetAll returns every record in the store.
	GetAll() ([]Record, error)
	// GetAllForPath returns every record whose key falls in
	// [(path, 0), (path, +inf)) — i.e. every page of path.
	GetAllForPath(path string) ([]Record, error)
	// Put inserts or replaces a record.
	Put(r Record) error
	// DeleteForPath deletes every record whose key falls in
	// [(path, 0), (path, +inf)).
	DeleteForPath(path string) error
	// DeleteRange deletes records for path with offset >= from.
	DeleteRange(path string, from int64) error
	// Clear empties the entire store.
	Clear() error
	// Commit finalizes the transaction. A read-only transaction's
	// Commit is a no-op other than releasing any held resources.
	Commit() error
}
