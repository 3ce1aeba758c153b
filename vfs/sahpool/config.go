package sahpool

import (
	"github.com/hashicorp/go-hclog"

	"github.com/browsersql/sqlite3vfs/vfs"
)

// DefaultVFSName, DefaultDirectory, and DefaultInitialCapacity mirror
// spec §6's Configuration table.
const (
	DefaultVFSName         = "opfs-sahpool"
	DefaultDirectory       = ".opfs-sahpool"
	DefaultInitialCapacity = 6
)

// Config configures a SAH-Pool installation (spec §6).
type Config struct {
	// VFSName is the name this VFS registers under.
	VFSName string
	// Directory is the OPFS directory segment path this pool lives under.
	Directory string
	// ClearOnInit wipes every opaque file's header (returning the whole
	// pool to available) during Install, discarding prior assignments.
	ClearOnInit bool
	// InitialCapacity is the minimum number of opaque files Install
	// ensures exist, growing the pool if the directory currently holds
	// fewer.
	InitialCapacity uint32

	// Host supplies randomness (used to name opaque files) and is
	// otherwise unused by this backend, which never synthesizes a temp
	// file name of its own (SAH-Pool refuses anonymous opens, see Open).
	Host vfs.Host
	// Logger receives Debug-level pool lifecycle events and Warn-level
	// host storage failures. Defaults to a null logger.
	Logger hclog.Logger
}

func (c Config) withDefaults() Config {
	if c.VFSName == "" {
		c.VFSName = DefaultVFSName
	}
	if c.Directory == "" {
		c.Directory = DefaultDirectory
	}
	if c.InitialCapacity == 0 {
		c.InitialCapacity = DefaultInitialCapacity
	}
	if c.Host.Random == nil {
		c.Host = vfs.DefaultHost()
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	return c
}
