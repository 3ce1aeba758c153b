// Package wasmbridge implements spec §4.1's trampolines: the wazero host
// functions a wasm-compiled SQLite guest calls through its sqlite3_vfs
// and sqlite3_io_methods function tables. Each trampoline recovers the
// registered [vfs.VFS] (by name) and the open [vfs.File] (by the guest's
// sqlite3_file address) from package-level/handle-table state, dispatches
// to the typed Go method, and translates the result into the numeric
// code a wasm guest expects.
//
// Backend packages (vfs/memory, vfs/sahpool, vfs/relaxedidb) never import
// this package: they only implement vfs.VFS/vfs.File and are driven
// directly by Go callers (tests, the admin surface) or, when an actual
// wasm SQLite guest is instantiated, through the host module this
// package builds.
package wasmbridge

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/browsersql/sqlite3vfs/sqlite3"
	"github.com/browsersql/sqlite3vfs/vfs"
)

// HostModuleName is the wazero host module name the guest's wasm imports
// resolve against (the linker name baked into the compiled sqlite3.wasm;
// out of scope for this core, see spec §1).
const HostModuleName = "vfscore"

// Bridge owns the handle table and the shared [vfs.Host] used by the
// framework-level callbacks (xRandomness, xSleep, xCurrentTimeInt64).
// Backends may additionally hold their own Host for internal use (e.g.
// PrepareOpen's temp-name synthesis); Bridge's Host need not be the same
// value, though production wiring typically shares one Host everywhere.
type Bridge struct {
	host    vfs.Host
	handles *handleTable
}

// New returns a Bridge that drives VFS registered in the package-level
// vfs.Register/vfs.Find registry, using host for the trampolines that
// delegate directly to the embedding environment.
func New(host vfs.Host) *Bridge {
	return &Bridge{host: host, handles: newHandleTable()}
}

// Build instantiates the host module a wasm SQLite guest links its VFS
// imports against.
func (b *Bridge) Build(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	return rt.NewHostModuleBuilder(HostModuleName).
		NewFunctionBuilder().WithFunc(b.xOpen).Export("xOpen").
		NewFunctionBuilder().WithFunc(b.xClose).Export("xClose").
		NewFunctionBuilder().WithFunc(b.xRead).Export("xRead").
		NewFunctionBuilder().WithFunc(b.xWrite).Export("xWrite").
		NewFunctionBuilder().WithFunc(b.xTruncate).Export("xTruncate").
		NewFunctionBuilder().WithFunc(b.xSync).Export("xSync").
		NewFunctionBuilder().WithFunc(b.xFileSize).Export("xFileSize").
		NewFunctionBuilder().WithFunc(b.xLock).Export("xLock").
		NewFunctionBuilder().WithFunc(b.xUnlock).Export("xUnlock").
		NewFunctionBuilder().WithFunc(b.xCheckReservedLock).Export("xCheckReservedLock").
		NewFunctionBuilder().WithFunc(b.xSectorSize).Export("xSectorSize").
		NewFunctionBuilder().WithFunc(b.xDeviceCharacteristics).Export("xDeviceCharacteristics").
		NewFunctionBuilder().WithFunc(b.xAccess).Export("xAccess").
		NewFunctionBuilder().WithFunc(b.xFullPathname).Export("xFullPathname").
		NewFunctionBuilder().WithFunc(b.xDelete).Export("xDelete").
		NewFunctionBuilder().WithFunc(b.xFileControl).Export("xFileControl").
		NewFunctionBuilder().WithFunc(b.xRandomness).Export("xRandomness").
		NewFunctionBuilder().WithFunc(b.xSleep).Export("xSleep").
		NewFunctionBuilder().WithFunc(b.xCurrentTimeInt64).Export("xCurrentTimeInt64").
		Instantiate(ctx)
}

func readString(mod api.Module, ptr, length uint32) (string, bool) {
	if length == 0 {
		return "", true
	}
	buf, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return "", false
	}
	return string(buf), true
}

func (b *Bridge) resolveVFS(mod api.Module, namePtr, nameLen uint32) (string, vfs.VFS, bool) {
	name, ok := readString(mod, namePtr, nameLen)
	if !ok {
		return "", nil, false
	}
	return name, vfs.Find(name), true
}

// xOpen resolves the registered VFS, opens the (possibly anonymous) file
// named at zName, and stashes the resulting handle under pFile. It mirrors
// spec §4.1's generic xOpen algorithm.
func (b *Bridge) xOpen(ctx context.Context, mod api.Module, vfsNamePtr, vfsNameLen, zNamePtr, zNameLen, pFile, flags, pOutFlags uint32) uint32 {
	vfsName, v, ok := b.resolveVFS(mod, vfsNamePtr, vfsNameLen)
	if !ok {
		return uint32(sqlite3.IOERR)
	}
	if v == nil {
		return uint32(sqlite3.CANTOPEN)
	}

	var name string
	if zNameLen > 0 {
		name, ok = readString(mod, zNamePtr, zNameLen)
		if !ok {
			return uint32(sqlite3.IOERR)
		}
	}

	file, actualFlags, err := v.Open(name, vfs.OpenFlag(flags))
	if err != nil {
		return resultCode(err)
	}

	b.handles.store(pFile, &handle{
		vfsName: vfsName,
		vfs:     v,
		file:    file,
		flags:   actualFlags,
		path:    name,
	})

	mod.Memory().WriteUint32Le(pFile, uint32(actualFlags))
	if pOutFlags != 0 {
		mod.Memory().WriteUint32Le(pOutFlags, uint32(actualFlags))
	}
	return uint32(sqlite3.OK)
}

func (b *Bridge) xClose(ctx context.Context, mod api.Module, pFile uint32) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}

	err := h.file.Close()
	if h.flags.Has(vfs.OPEN_DELETEONCLOSE) {
		if derr := h.vfs.Delete(h.path, false); derr != nil && err == nil {
			err = derr
		}
	}
	b.handles.delete(pFile)
	return resultCode(err)
}

func (b *Bridge) xRead(ctx context.Context, mod api.Module, pFile, pBuf, iAmt uint32, iOfst uint64) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}

	buf := make([]byte, iAmt)
	_, err := h.file.ReadAt(buf, int64(iOfst))
	// Write the full iAmt-length buffer, not just the valid prefix: a short
	// read's zero-filled tail (spec invariant 2) has to reach the guest's
	// actual memory at pBuf, not just h.file's local copy.
	mod.Memory().Write(pBuf, buf)
	return resultCode(err)
}

func (b *Bridge) xWrite(ctx context.Context, mod api.Module, pFile, pBuf, iAmt uint32, iOfst uint64) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}

	data, ok := mod.Memory().Read(pBuf, iAmt)
	if !ok {
		return uint32(sqlite3.IOERR_WRITE)
	}
	_, err := h.file.WriteAt(data, int64(iOfst))
	return resultCode(err)
}

func (b *Bridge) xTruncate(ctx context.Context, mod api.Module, pFile uint32, size uint64) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}
	return resultCode(h.file.Truncate(int64(size)))
}

func (b *Bridge) xSync(ctx context.Context, mod api.Module, pFile, flags uint32) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}
	return resultCode(h.file.Sync(vfs.SyncFlag(flags)))
}

func (b *Bridge) xFileSize(ctx context.Context, mod api.Module, pFile, pSize uint32) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}
	size, err := h.file.Size()
	if err != nil {
		return resultCode(err)
	}
	mod.Memory().WriteUint64Le(pSize, uint64(size))
	return uint32(sqlite3.OK)
}

func (b *Bridge) xLock(ctx context.Context, mod api.Module, pFile, level uint32) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}
	return resultCode(h.file.Lock(vfs.LockLevel(level)))
}

func (b *Bridge) xUnlock(ctx context.Context, mod api.Module, pFile, level uint32) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}
	return resultCode(h.file.Unlock(vfs.LockLevel(level)))
}

func (b *Bridge) xCheckReservedLock(ctx context.Context, mod api.Module, pFile, pResOut uint32) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}
	reserved, err := h.file.CheckReservedLock()
	if err != nil {
		return resultCode(err)
	}
	var out uint32
	if reserved {
		out = 1
	}
	mod.Memory().WriteUint32Le(pResOut, out)
	return uint32(sqlite3.OK)
}

func (b *Bridge) xSectorSize(ctx context.Context, mod api.Module, pFile uint32) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return 512
	}
	if ss, ok := h.file.(vfs.FileSectorSize); ok {
		return uint32(ss.SectorSize())
	}
	return 512
}

func (b *Bridge) xDeviceCharacteristics(ctx context.Context, mod api.Module, pFile uint32) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return 0
	}
	if dc, ok := h.file.(vfs.FileDeviceCharacteristics); ok {
		return uint32(dc.DeviceCharacteristics())
	}
	return 0
}

func (b *Bridge) xAccess(ctx context.Context, mod api.Module, vfsNamePtr, vfsNameLen, zNamePtr, zNameLen, flag, pResOut uint32) uint32 {
	_, v, ok := b.resolveVFS(mod, vfsNamePtr, vfsNameLen)
	if !ok || v == nil {
		return uint32(sqlite3.CANTOPEN)
	}
	name, ok := readString(mod, zNamePtr, zNameLen)
	if !ok {
		return uint32(sqlite3.IOERR)
	}
	exists, err := v.Access(name, vfs.AccessFlag(flag))
	if err != nil {
		return resultCode(err)
	}
	var out uint32
	if exists {
		out = 1
	}
	mod.Memory().WriteUint32Le(pResOut, out)
	return uint32(sqlite3.OK)
}

func (b *Bridge) xFullPathname(ctx context.Context, mod api.Module, vfsNamePtr, vfsNameLen, zNamePtr, zNameLen, zOut, nOut uint32) uint32 {
	_, v, ok := b.resolveVFS(mod, vfsNamePtr, vfsNameLen)
	if !ok || v == nil {
		return uint32(sqlite3.CANTOPEN)
	}
	name, ok := readString(mod, zNamePtr, zNameLen)
	if !ok {
		return uint32(sqlite3.IOERR)
	}
	full, err := v.FullPathname(name)
	if err != nil {
		return resultCode(err)
	}
	if uint32(len(full))+1 > nOut {
		return uint32(sqlite3.CANTOPEN)
	}
	out := make([]byte, len(full)+1)
	copy(out, full)
	mod.Memory().Write(zOut, out)
	return uint32(sqlite3.OK)
}

func (b *Bridge) xDelete(ctx context.Context, mod api.Module, vfsNamePtr, vfsNameLen, zNamePtr, zNameLen, dirSync uint32) uint32 {
	_, v, ok := b.resolveVFS(mod, vfsNamePtr, vfsNameLen)
	if !ok || v == nil {
		return uint32(sqlite3.CANTOPEN)
	}
	name, ok := readString(mod, zNamePtr, zNameLen)
	if !ok {
		return uint32(sqlite3.IOERR)
	}
	return resultCode(v.Delete(name, dirSync != 0))
}

// xFileControl dispatches to the open file's optional FileControl
// extension (PRAGMA interception, commit triggers; see vfs.FileControl),
// returning NOTFOUND for files that don't implement it or ops the file
// doesn't recognize, exactly as if the framework's defaults had handled
// it. pArg is 0 for ops with no argument; for FCNTL_PRAGMA it points to
// four little-endian uint32 words in guest memory: namePtr, nameLen,
// valuePtr, valueLen.
func (b *Bridge) xFileControl(ctx context.Context, mod api.Module, pFile, op, pArg uint32) uint32 {
	h, ok := b.handles.lookup(pFile)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}
	fc, ok := h.file.(vfs.FileControl)
	if !ok {
		return uint32(sqlite3.NOTFOUND)
	}

	var arg any
	if vfs.FileControlOp(op) == vfs.FCNTL_PRAGMA {
		if pArg == 0 {
			return uint32(sqlite3.NOTFOUND)
		}
		namePtr, ok1 := mod.Memory().ReadUint32Le(pArg)
		nameLen, ok2 := mod.Memory().ReadUint32Le(pArg + 4)
		valuePtr, ok3 := mod.Memory().ReadUint32Le(pArg + 8)
		valueLen, ok4 := mod.Memory().ReadUint32Le(pArg + 12)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return uint32(sqlite3.IOERR)
		}
		name, ok := readString(mod, namePtr, nameLen)
		if !ok {
			return uint32(sqlite3.IOERR)
		}
		value, ok := readString(mod, valuePtr, valueLen)
		if !ok {
			return uint32(sqlite3.IOERR)
		}
		arg = [2]string{name, value}
	}

	return resultCode(fc.FileControl(vfs.FileControlOp(op), arg))
}

func (b *Bridge) xRandomness(ctx context.Context, mod api.Module, pBuf, nBuf uint32) uint32 {
	buf := make([]byte, nBuf)
	b.host.Random(buf)
	mod.Memory().Write(pBuf, buf)
	return nBuf
}

func (b *Bridge) xSleep(ctx context.Context, mod api.Module, microseconds uint32) uint32 {
	return uint32(b.host.Sleep(int64(microseconds)))
}

func (b *Bridge) xCurrentTimeInt64(ctx context.Context, mod api.Module, pOut uint32) uint32 {
	// SQLite's xCurrentTimeInt64 reports Julian-day milliseconds; the Unix
	// epoch is Julian day 2440587.5.
	const unixEpochJulianMS = 210866760000000
	mod.Memory().WriteUint64Le(pOut, uint64(b.host.EpochMS()+unixEpochJulianMS))
	return uint32(sqlite3.OK)
}

// OpenHandleCount reports the number of handles still open, mainly for
// tests and diagnostics: a nonzero count on shutdown indicates a leaked
// sqlite3 connection somewhere upstream.
func (b *Bridge) OpenHandleCount() int {
	b.handles.mu.Lock()
	defer b.handles.mu.Unlock()
	return len(b.handles.entries)
}
