package vfs

import (
	"strings"
)

// MaxPathname is the default xFullPathname buffer size backends may
// advertise. No backend in this module defines a different limit.
const MaxPathname = 1024

// VFS is the backend-agnostic contract the framework drives. Every
// trampoline in vfs/wasmbridge ultimately calls one of these methods
// after resolving app_data (the registered VFS) from the wasm guest's
// sqlite3_vfs pointer.
type VFS interface {
	// Open resolves or creates the file at name and returns an open File.
	// name arrives as the caller passed it (empty for an anonymous file);
	// each backend normalizes it itself, through [PrepareOpen] or
	// [NormalizePath].
	// Open must fail with sqlite3.CANTOPEN if name does not exist and
	// flags does not include OPEN_CREATE. The returned flags are the
	// actual flags in effect (a backend may add OPEN_MEMORY).
	Open(name string, flags OpenFlag) (File, OpenFlag, error)

	// Delete removes the file at name. dirSync requests that the
	// removal itself be made durable before Delete returns (irrelevant
	// to backends with no concept of a containing directory to fsync).
	// Deleting a file that doesn't exist is not an error.
	Delete(name string, dirSync bool) error

	// Access reports whether name exists (flag is ACCESS_EXISTS) or is
	// read/write-accessible (ACCESS_READWRITE / ACCESS_READ). Every
	// backend in this module reports existence alone, whatever the flag.
	Access(name string, flag AccessFlag) (bool, error)

	// FullPathname canonicalizes name into the form this VFS uses as a
	// map key. Every backend in this module returns [NormalizePath](name);
	// none passes name through verbatim.
	FullPathname(name string) (string, error)
}

// Host bundles the capabilities the spec says the framework must
// delegate to the embedding environment rather than letting a backend
// read its own clock or RNG (§4.5, §9 "host callbacks as a capability
// struct"). Tests inject a deterministic Host; production wiring (out of
// scope for this core) binds Random to a real CSPRNG and EpochMS to the
// worker's clock.
type Host struct {
	// Random fills buf with random bytes, as SQLite's xRandomness.
	Random func(buf []byte)
	// Sleep blocks for approximately the given number of microseconds,
	// as SQLite's xSleep. It returns the number of microseconds actually
	// slept.
	Sleep func(microseconds int64) int64
	// EpochMS returns milliseconds since the Unix epoch. The wasmbridge
	// xCurrentTimeInt64 trampoline converts it to the Julian-day
	// milliseconds SQLite expects.
	EpochMS func() int64
}

// NormalizePath resolves file:// URI fragments, ".." components, and
// duplicate slashes before a path becomes a Store key, per spec §3.
func NormalizePath(path string) string {
	path = strings.TrimPrefix(path, "file://")
	path = strings.TrimPrefix(path, "file:")

	hasLeadingSlash := strings.HasPrefix(path, "/")

	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}

	joined := strings.Join(out, "/")
	if hasLeadingSlash {
		return "/" + joined
	}
	return joined
}
