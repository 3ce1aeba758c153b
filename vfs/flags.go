package vfs

// OpenFlag mirrors SQLite's xOpen flags (the subset the VFS layer cares
// about). Multiple flags are OR'ed together by the caller.
type OpenFlag uint32

const (
	OPEN_READONLY OpenFlag = 0x00000001
	OPEN_READWRITE OpenFlag = 0x00000002
	OPEN_CREATE    OpenFlag = 0x00000004
	OPEN_DELETEONCLOSE OpenFlag = 0x00000008
	OPEN_EXCLUSIVE     OpenFlag = 0x00000010

	OPEN_MAIN_DB      OpenFlag = 0x00000100
	OPEN_MAIN_JOURNAL OpenFlag = 0x00000800
	OPEN_TEMP_DB      OpenFlag = 0x00000200
	OPEN_TEMP_JOURNAL OpenFlag = 0x00001000
	OPEN_SUBJOURNAL   OpenFlag = 0x00002000
	OPEN_WAL          OpenFlag = 0x00080000

	// OPEN_MEMORY is set by a backend in its xOpen return flags (never by
	// the caller) to tell SQLite the file never touches real storage.
	OPEN_MEMORY OpenFlag = 0x00000080
)

// Has reports whether all bits in mask are set.
func (f OpenFlag) Has(mask OpenFlag) bool { return f&mask == mask }

// Any reports whether any bit in mask is set.
func (f OpenFlag) Any(mask OpenFlag) bool { return f&mask != 0 }

// LockLevel is SQLite's five-level file lock state machine.
type LockLevel int8

const (
	LOCK_NONE LockLevel = iota
	LOCK_SHARED
	LOCK_RESERVED
	LOCK_PENDING
	LOCK_EXCLUSIVE
)

// AccessFlag selects the kind of access xAccess checks for.
type AccessFlag uint32

const (
	ACCESS_EXISTS AccessFlag = iota
	ACCESS_READWRITE
	ACCESS_READ
)

// SyncFlag mirrors xSync's flags; the VFS framework passes these through
// to backends unexamined, and no backend in this module examines them
// either. Relaxed-IDB rejects PRAGMA synchronous=full in FileControl, not
// in Sync.
type SyncFlag uint32

const (
	SYNC_NORMAL   SyncFlag = 0x00002
	SYNC_FULL     SyncFlag = 0x00003
	SYNC_DATAONLY SyncFlag = 0x00010
)

// DeviceCharacteristic is the bitmask returned from xDeviceCharacteristics.
type DeviceCharacteristic uint32

const (
	IOCAP_ATOMIC              DeviceCharacteristic = 0x00000001
	IOCAP_SEQUENTIAL          DeviceCharacteristic = 0x00000400
	IOCAP_SAFE_APPEND         DeviceCharacteristic = 0x00000200
	IOCAP_UNDELETABLE_WHEN_OPEN DeviceCharacteristic = 0x00000800
	IOCAP_POWERSAFE_OVERWRITE DeviceCharacteristic = 0x00001000
)

// FileControl op codes recognized by xFileControl across backends.
type FileControlOp uint32

const (
	FCNTL_PRAGMA FileControlOp = 14
	FCNTL_SYNC   FileControlOp = 21
	FCNTL_COMMIT_PHASETWO FileControlOp = 22
)
