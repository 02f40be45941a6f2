package fat

import "errors"

// These errors may occur while working with a volume.
var (
	ErrInvalidBootSector = errors.New("invalid boot sector")
	ErrInvalidLayout     = errors.New("no FAT layout fits the requested size")
	ErrInvalidCluster    = errors.New("invalid cluster number")
	ErrCorruptChain      = errors.New("corrupt cluster chain")
	ErrVolumeFull        = errors.New("no free cluster left")
	ErrDirectoryFull     = errors.New("root directory is full")
	ErrInvalidName       = errors.New("invalid 8.3 file name")
	ErrFileExists        = errors.New("file already exists")
	ErrNotSupported      = errors.New("operation not supported")
	ErrReadOnly          = errors.New("file is not opened for writing")
)
