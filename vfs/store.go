package vfs

// Store is the generic "path → file state" map contract (spec §4.1's
// Store trait). No backend in this module implements it, and nothing in
// the framework is written against it: each backend keeps its own map
// behind its VFS methods.
//
// Implementations guard their own concurrency; Store itself makes no
// locking guarantee beyond what the backend's goroutine-affinity model
// already provides (spec §5: all of these are only ever touched from the
// single cooperative worker).
type Store[H any] interface {
	// AddFile creates file state for path and returns a handle for it.
	// AddFile must fail if path already has state, except where a
	// backend's own semantics say otherwise (documented per backend).
	AddFile(path string, flags OpenFlag) (H, error)

	// ContainsFile reports whether path has file state.
	ContainsFile(path string) bool

	// DeleteFile destroys the file state for path. Deleting an absent
	// path is not an error (spec invariant 4, delete idempotence).
	DeleteFile(path string) error

	// WithFile resolves path to its handle and runs fn against it. It
	// reports false if path has no file state.
	WithFile(path string, fn func(H)) bool
}
