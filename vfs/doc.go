// Package vfs defines the backend-agnostic contract every storage
// backend in this module implements (the VFS and File interfaces), a
// Store interface describing a path→state map (which no backend here
// implements), and the registration/path-normalization helpers the
// framework provides to every backend.
//
// The wasm-facing half of the framework — the trampolines that actually
// marshal an sqlite3_vfs/sqlite3_io_methods call across a wasm guest's
// linear memory into a call on these interfaces — lives in the sibling
// [vfs/wasmbridge] package, so that backend packages (vfs/memory,
// vfs/sahpool, vfs/relaxedidb) can be imported, constructed, and tested
// without pulling in a wasm runtime.
package vfs
