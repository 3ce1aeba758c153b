package relaxedidb

import (
	"github.com/hashicorp/go-hclog"

	"github.com/browsersql/sqlite3vfs/vfs"
)

// DefaultVFSName mirrors spec §6's Configuration table.
const DefaultVFSName = "relaxed-idb"

// PreloadKind selects which records Install's initial bulk read fetches.
type PreloadKind int

const (
	// PreloadNone skips the initial bulk read entirely.
	PreloadNone PreloadKind = iota
	// PreloadAll fetches every record in the store.
	PreloadAll
	// PreloadPaths fetches only the records for Preload.Paths.
	PreloadPaths
)

// Preload selects Install's initial bulk-read policy (spec §4.4
// "Initialization" step 3).
type Preload struct {
	Kind  PreloadKind
	Paths []string
}

// All preloads every record in the store.
func All() Preload { return Preload{Kind: PreloadAll} }

// None skips the initial preload.
func None() Preload { return Preload{Kind: PreloadNone} }

// Paths preloads only the named paths.
func Paths(paths ...string) Preload {
	return Preload{Kind: PreloadPaths, Paths: paths}
}

// Config configures a Relaxed-IDB installation (spec §6).
type Config struct {
	// VFSName is the name this VFS registers under.
	VFSName string
	// ClearOnInit wipes the "blocks" store before preloading.
	ClearOnInit bool
	// Preload selects the initial bulk-read policy. Zero value is
	// PreloadNone's zero Kind, so the default is "preload nothing".
	Preload Preload

	// Host supplies randomness and clock access.
	Host vfs.Host
	// Logger receives Debug-level commit events and Warn-level IndexedDB
	// failures from the commit worker. Defaults to a null logger.
	Logger hclog.Logger
}

func (c Config) withDefaults() Config {
	if c.VFSName == "" {
		c.VFSName = DefaultVFSName
	}
	if c.Host.Random == nil {
		c.Host = vfs.DefaultHost()
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	return c
}
