package fat

import (
	"os"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/aligator/fatstream/checkpoint"
	"github.com/spf13/afero"
)

// Fs provides the root directory of a Volume as afero.Fs.
// Subdirectories can not be created or opened.
type Fs struct {
	volume *Volume
}

var _ afero.Fs = (*Fs)(nil)

// New opens the volume stored in device as afero.Fs.
func New(device afero.File) (*Fs, error) {
	v, err := Open(device)
	if err != nil {
		return nil, err
	}
	return NewFs(v), nil
}

func NewFs(v *Volume) *Fs {
	return &Fs{volume: v}
}

func (fs *Fs) Volume() *Volume {
	return fs.volume
}

// splitName returns the file name inside of the root directory.
// It is empty for the root itself.
func splitName(name string) (string, error) {
	cleaned := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	if strings.Contains(cleaned, "/") {
		return "", os.ErrNotExist
	}
	return cleaned, nil
}

func (fs *Fs) lookup(op, name string) (*Entry, error) {
	base, err := splitName(name)
	if err != nil {
		return nil, &os.PathError{Op: op, Path: name, Err: err}
	}
	if base == "" {
		return nil, nil
	}

	e, ok := fs.volume.Root().Lookup(base)
	if !ok {
		return nil, &os.PathError{Op: op, Path: name, Err: os.ErrNotExist}
	}
	return e, nil
}

func notSupported(op, name string) error {
	return &os.PathError{Op: op, Path: name, Err: checkpoint.From(ErrNotSupported)}
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return notSupported("mkdir", name)
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	// The root always exists.
	if base, err := splitName(path); err == nil && base == "" {
		return nil
	}
	return notSupported("mkdir", path)
}

func (fs *Fs) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile supports os.O_CREATE, os.O_EXCL, os.O_TRUNC and os.O_APPEND.
// perm is only used to set the read only attribute of new files.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0

	base, err := splitName(name)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	if base == "" {
		if writable {
			return nil, &os.PathError{Op: "open", Path: name, Err: syscall.EISDIR}
		}
		return newFile(fs, nil, flag)
	}

	root := fs.volume.Root()
	e, ok := root.Lookup(base)
	switch {
	case !ok && flag&os.O_CREATE == 0:
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	case !ok:
		e, err = root.Create(base)
		if err != nil {
			return nil, &os.PathError{Op: "open", Path: name, Err: err}
		}
		if perm&0200 == 0 {
			if err := root.SetReadOnly(e, true); err != nil {
				return nil, &os.PathError{Op: "open", Path: name, Err: err}
			}
		}
	case flag&(os.O_CREATE|os.O_EXCL) == os.O_CREATE|os.O_EXCL:
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrExist}
	case writable && e.ReadOnly():
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	case writable && flag&os.O_TRUNC != 0:
		if err := root.Truncate(e, 0); err != nil {
			return nil, &os.PathError{Op: "open", Path: name, Err: err}
		}
	}

	if writable {
		if err := root.Allocate(e); err != nil {
			return nil, &os.PathError{Op: "open", Path: name, Err: err}
		}
	}

	return newFile(fs, e, flag)
}

func (fs *Fs) Remove(name string) error {
	return notSupported("remove", name)
}

func (fs *Fs) RemoveAll(path string) error {
	return notSupported("remove", path)
}

func (fs *Fs) Rename(oldname, newname string) error {
	return notSupported("rename", oldname)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	e, err := fs.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return rootFileInfo{}, nil
	}
	return e.FileInfo(), nil
}

func (fs *Fs) Name() string {
	return "fatstream"
}

// Chmod only supports toggling the read only attribute by the write permission of the owner.
func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	e, err := fs.lookup("chmod", name)
	if err != nil {
		return err
	}
	if e == nil {
		return notSupported("chmod", name)
	}
	return fs.volume.Root().SetReadOnly(e, mode&0200 == 0)
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return notSupported("chown", name)
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	e, err := fs.lookup("chtimes", name)
	if err != nil {
		return err
	}
	if e == nil {
		return notSupported("chtimes", name)
	}
	return fs.volume.Root().SetTimes(e, atime, mtime)
}
