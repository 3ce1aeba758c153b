package relaxedidb

import (
	"errors"
	"sync"

	"github.com/edofic/go-ordmap/v2"

	"github.com/browsersql/sqlite3vfs/vfs"
)

// errWriteLengthMismatch is returned by fileState.write when the
// caller's buffer doesn't match the file's established block size
// (spec §4.4 "File I/O": "write ... require |buf| == block_size").
var errWriteLengthMismatch = errors.New("relaxedidb: write length does not match block size")

// errPageSizeConflict is returned by fileState.setBlockSize when a
// PRAGMA page_size request disagrees with an already-established block
// size (spec invariant 10, "page-size lock").
var errPageSizeConflict = errors.New("relaxedidb: page size conflicts with established block size")

// errSynchronousFullUnsupported is returned when a PRAGMA synchronous =
// full is attempted; this backend's durability model cannot honor it
// (spec §4.4 "Page-size policy").
var errSynchronousFullUnsupported = errors.New("relaxedidb: synchronous=full is not supported")

// fileState is a main-DB file's authoritative in-memory state: the
// page cache the Relaxed-IDB backend serves every read and write from
// (spec §4.4 "File I/O"). IndexedDB is a write-back target, never a
// read path once a file is resident.
type fileState struct {
	path string

	mu        sync.Mutex
	blockSize int64
	fileSize  int64
	// pages holds one entry per resident page, keyed by its offset.
	// A record fetched by preload may be smaller than blockSize if it
	// was the database's final, short page; realizePage pads it on
	// first access.
	pages    ordmap.NodeBuiltin[int64, []byte]
	dirty    map[int64]bool
	hasPages bool
}

func newFileState(path string) *fileState {
	return &fileState{
		path:  path,
		pages: ordmap.NewBuiltin[int64, []byte](),
		dirty: map[int64]bool{},
	}
}

// installRecords seeds the cache from preloaded IndexedDB records,
// raising blockSize to the largest record length seen. An already-set
// blockSize is kept only if no record is longer.
func (f *fileState) installRecords(recs []Record) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range recs {
		if int64(len(r.Data)) > f.blockSize {
			f.blockSize = int64(len(r.Data))
		}
		f.pages = f.pages.Insert(r.Offset, r.Data)
		f.hasPages = true
		end := r.Offset + int64(len(r.Data))
		if end > f.fileSize {
			f.fileSize = end
		}
	}
}

// realizePage returns page's bytes, lazily padding a short final page
// up to blockSize on first access (spec: "realizing a lazy buffer on
// first access").
func (f *fileState) realizePage(offset int64) ([]byte, bool) {
	page, ok := f.pages.Get(offset)
	if !ok {
		return nil, false
	}
	if int64(len(page)) < f.blockSize {
		padded := make([]byte, f.blockSize)
		copy(padded, page)
		f.pages = f.pages.Insert(offset, padded)
		page = padded
	}
	return page, true
}

func (f *fileState) read(buf []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.blockSize == 0 || f.fileSize == 0 {
		clear(buf)
		return 0, vfs.ErrShortRead
	}

	n := 0
	shortRead := false
	for n < len(buf) {
		pos := off + int64(n)
		if pos >= f.fileSize {
			shortRead = true
			break
		}
		pageOff := (pos / f.blockSize) * f.blockSize
		inPage := pos - pageOff
		want := len(buf) - n
		avail := int(f.blockSize - inPage)
		if want > avail {
			want = avail
		}

		page, ok := f.realizePage(pageOff)
		if !ok {
			clear(buf[n : n+want])
			shortRead = true
			n += want
			continue
		}
		copy(buf[n:n+want], page[inPage:int(inPage)+want])
		n += want
	}
	if n < len(buf) {
		clear(buf[n:])
		shortRead = true
	}
	if shortRead {
		return n, vfs.ErrShortRead
	}
	return n, nil
}

func (f *fileState) write(buf []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.blockSize == 0 {
		f.blockSize = int64(len(buf))
	}
	if int64(len(buf)) != f.blockSize {
		return 0, errWriteLengthMismatch
	}

	page := make([]byte, f.blockSize)
	copy(page, buf)
	f.pages = f.pages.Insert(off, page)
	f.hasPages = true
	f.dirty[off] = true

	if end := off + int64(len(buf)); end > f.fileSize {
		f.fileSize = end
	}
	return len(buf), nil
}

func (f *fileState) truncate(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if size < 0 {
		size = 0
	}
	f.fileSize = size
	return nil
}

// setBlockSize implements PRAGMA page_size interception (spec §4.4
// "Page-size policy"): establishes the block size if no pages exist
// yet, succeeds silently if it already matches, else fails.
func (f *fileState) setBlockSize(n int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hasPages {
		f.blockSize = n
		return nil
	}
	if f.blockSize == n {
		return nil
	}
	return errPageSizeConflict
}

func (f *fileState) size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fileSize
}

// snapshotDirty captures and clears the dirty set, returning the
// records the commit worker should persist plus the file_size
// watermark for the delete-range sweep (spec §4.4 "Commit worker").
func (f *fileState) snapshotDirty() (records []Record, fileSize int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fileSize = f.fileSize
	for offset := range f.dirty {
		if offset >= fileSize {
			f.pages = f.pages.Remove(offset)
			continue
		}
		page, ok := f.pages.Get(offset)
		if !ok {
			continue
		}
		records = append(records, Record{Path: f.path, Offset: offset, Data: page})
	}
	f.dirty = map[int64]bool{}
	return records, fileSize
}
