package vfs

import (
	"fmt"
	"sync"
)

// ErrAlreadyRegistered is returned by Register when name is already bound.
type ErrAlreadyRegistered struct{ Name string }

func (e *ErrAlreadyRegistered) Error() string {
	return fmt.Sprintf("vfs: %q is already registered", e.Name)
}

// registry is the process-wide name → VFS map. Spec §9 calls this a
// "registration singleton": a single mutex-protected map serializes
// Register calls per name, and double-install (handled one layer up, by
// each backend's Install) returns the existing admin handle rather than
// failing outright. Register itself always fails on a name collision;
// it's the backend-specific Install wrapper that decides whether to
// treat that as "return the existing handle."
var (
	registryMu sync.Mutex
	registry   = map[string]VFS{}
)

// Register binds name to v. It corresponds to spec §4.1's registration
// algorithm steps 1-2. Step 3, invoking the engine's sqlite3_vfs_register,
// is not performed anywhere in this module: vfs/wasmbridge resolves a
// VFS by name through Find on every trampoline call, and Register alone
// is enough to make v resolvable by name for every Go-level entry point,
// including the admin surfaces.
func Register(name string, v VFS) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := registry[name]; ok {
		return &ErrAlreadyRegistered{Name: name}
	}
	registry[name] = v
	return nil
}

// Find returns the VFS registered under name, or nil if none is.
func Find(name string) VFS {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry[name]
}

// Unregister removes name from the registry. It is used by backends'
// Pause (which unregisters for the duration of the pause) and is a no-op
// if name isn't registered.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}
