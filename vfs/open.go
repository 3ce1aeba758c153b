package vfs

import "strings"

const tempNameLength = 16

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// TempName synthesizes a random base-36 filename for a file SQLite opens
// with a null name (temp databases, the TEMP journal, the subjournal, ...),
// per spec §4.1 step 1 of the xOpen algorithm. It never returns an empty
// string.
func TempName(host Host) string {
	raw := make([]byte, tempNameLength)
	host.Random(raw)

	var b strings.Builder
	b.Grow(tempNameLength)
	for _, c := range raw {
		b.WriteByte(base36Alphabet[int(c)%len(base36Alphabet)])
	}
	return b.String()
}

// PrepareOpen implements the name-resolution half of spec §4.1's generic
// xOpen algorithm: synthesizing a temp name when name is empty, then
// normalizing whatever name results. Backends call this first in their
// Open method, before consulting their Store.
func PrepareOpen(name string, host Host) string {
	if name == "" {
		name = "/" + TempName(host)
	}
	return NormalizePath(name)
}
