package vfs

import (
	"crypto/rand"
	"time"
)

// DefaultHost returns a [Host] bound to the Go runtime's own crypto RNG
// and clock. It stands in for the browser worker's host callbacks (spec
// §4.5) wherever this module runs outside an actual wasm guest — unit
// tests, the admin surface, and any embedder that hasn't wired a
// dedicated Host.
func DefaultHost() Host {
	return Host{
		Random: func(buf []byte) {
			// crypto/rand.Read never returns a short read or an error
			// worth propagating to a VFS callback with no error return.
			_, _ = rand.Read(buf)
		},
		Sleep: func(microseconds int64) int64 {
			time.Sleep(time.Duration(microseconds) * time.Microsecond)
			return microseconds
		},
		EpochMS: func() int64 {
			return time.Now().UnixMilli()
		},
	}
}
