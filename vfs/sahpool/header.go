package sahpool

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/browsersql/sqlite3vfs/vfs"
)

const (
	// HeaderSize is the size of the reserved sector at the start of
	// every opaque file (spec §6 "Persisted formats").
	HeaderSize = 4096
	// HeaderOffsetData is where database payload begins.
	HeaderOffsetData = HeaderSize

	headerPathSize    = 512
	headerFlagsOffset = 512
	headerFlagsSize   = 4
	headerPrefixSize  = headerFlagsOffset + headerFlagsSize // 516
)

// ErrHeaderOverflow is returned by writeHeader when name doesn't fit in
// the header's 512-byte path field.
var ErrHeaderOverflow = errors.New("sahpool: path exceeds header capacity")

// disposableFlags marks an opaque file's header as holding a file this
// pool should never treat as assigned: a DELETEONCLOSE temp file or
// journal that a previous session didn't get a chance to clean up.
const disposableFlags = vfs.OPEN_DELETEONCLOSE | vfs.OPEN_TEMP_DB | vfs.OPEN_TEMP_JOURNAL | vfs.OPEN_SUBJOURNAL

// readHeader reads an opaque file's header and returns the assigned path,
// or ("", false) if the file should be treated as unassigned (spec
// §4.3 "Header I/O" / "Initialization" step 3).
func readHeader(sah SyncAccessHandle) (string, bool, error) {
	buf := make([]byte, headerPrefixSize)
	n, err := sah.ReadAt(buf, 0)
	if err != nil {
		return "", false, err
	}
	if n < headerPrefixSize {
		return "", false, nil
	}

	flags := vfs.OpenFlag(binary.LittleEndian.Uint32(buf[headerFlagsOffset:]))
	if flags&disposableFlags != 0 {
		return "", false, nil
	}

	nul := bytes.IndexByte(buf[:headerPathSize], 0)
	if nul == 0 {
		if err := sah.Truncate(HeaderSize); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	if nul < 0 {
		nul = headerPathSize
	}
	return string(buf[:nul]), true, nil
}

// writeHeader writes name (NUL-padded to 512 bytes) and flags to an
// opaque file's header. An empty name clears the header (used by Delete)
// and additionally truncates the backing file back to just the header
// sector, discarding payload.
func writeHeader(sah SyncAccessHandle, name string, flags vfs.OpenFlag) error {
	if len(name) >= headerPathSize {
		return ErrHeaderOverflow
	}

	prefix := make([]byte, headerPrefixSize)
	copy(prefix, name)
	binary.LittleEndian.PutUint32(prefix[headerFlagsOffset:], uint32(flags))

	if _, err := sah.WriteAt(prefix, 0); err != nil {
		return err
	}

	if name == "" {
		return sah.Truncate(HeaderSize)
	}
	return nil
}
