package fat

import (
	"io"
	"os"
	"syscall"

	"github.com/aligator/fatstream"
	"github.com/aligator/fatstream/checkpoint"
)

// maxFileSize is the biggest size a directory entry can record.
const maxFileSize = 0xFFFFFFFF

// File is an open file or the open root directory of a Fs.
// It implements afero.File.
type File struct {
	fs    *Fs
	entry *Entry
	flag  int

	// stream is nil for the root directory.
	stream *fatstream.Stream

	readdirOffset int
	closed        bool
}

func newFile(fs *Fs, entry *Entry, flag int) (*File, error) {
	f := &File{
		fs:    fs,
		entry: entry,
		flag:  flag,
	}
	if entry == nil {
		return f, nil
	}

	stream, err := fatstream.NewStream(fs.volume, entry.File(), false)
	if err != nil {
		return nil, err
	}
	f.stream = stream
	return f, nil
}

func (f *File) pathError(op string, err error) error {
	return &os.PathError{Op: op, Path: f.Name(), Err: err}
}

func (f *File) checkFile(op string) error {
	if f.closed {
		return f.pathError(op, os.ErrClosed)
	}
	if f.stream == nil {
		return f.pathError(op, syscall.EISDIR)
	}
	return nil
}

func (f *File) checkWritable(op string) error {
	if err := f.checkFile(op); err != nil {
		return err
	}
	if f.flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return f.pathError(op, checkpoint.From(ErrReadOnly))
	}
	return nil
}

func (f *File) Close() error {
	if f.closed {
		return f.pathError("close", os.ErrClosed)
	}
	f.closed = true
	f.stream = nil
	return nil
}

func (f *File) Read(p []byte) (int, error) {
	if err := f.checkFile("read"); err != nil {
		return 0, err
	}
	return f.stream.Read(p)
}

// ReadAt reads from off without changing the offset used by Read and Write.
// It returns io.EOF if p could not be filled.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if err := f.checkFile("readat"); err != nil {
		return 0, err
	}

	position := f.stream.Position()
	defer f.stream.SetPosition(position)

	if err := f.stream.SetPosition(off); err != nil {
		return 0, f.pathError("readat", err)
	}

	n, err := f.stream.ReadBuffer(p, 0, len(p))
	if err != nil {
		return n, f.pathError("readat", err)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek changes the offset for the next Read or Write.
// Seeking beyond the end is allowed, a following write fills the gap with zeros.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.checkFile("seek"); err != nil {
		return 0, err
	}

	result, err := f.stream.Seek(offset, whence)
	if err != nil {
		return 0, f.pathError("seek", err)
	}
	return result, nil
}

func (f *File) Write(p []byte) (int, error) {
	if err := f.checkWritable("write"); err != nil {
		return 0, err
	}

	if f.flag&os.O_APPEND != 0 {
		if _, err := f.stream.Seek(0, io.SeekEnd); err != nil {
			return 0, err
		}
	}
	if f.stream.Position()+int64(len(p)) > maxFileSize {
		return 0, f.pathError("write", syscall.EFBIG)
	}
	return f.stream.Write(p)
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if err := f.checkWritable("writeat"); err != nil {
		return 0, err
	}
	if f.flag&os.O_APPEND != 0 {
		return 0, f.pathError("writeat", syscall.EINVAL)
	}
	if off+int64(len(p)) > maxFileSize {
		return 0, f.pathError("writeat", syscall.EFBIG)
	}

	position := f.stream.Position()
	defer f.stream.SetPosition(position)

	if err := f.stream.SetPosition(off); err != nil {
		return 0, f.pathError("writeat", err)
	}
	return f.stream.Write(p)
}

func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *File) Name() string {
	if f.entry == nil {
		return "/"
	}
	return f.entry.Name()
}

// Readdir lists the files of the root directory.
// With count > 0 at most count entries are returned and io.EOF signals the end.
// Otherwise all remaining entries are returned without error.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if f.closed {
		return nil, f.pathError("readdir", os.ErrClosed)
	}
	if f.entry != nil {
		return nil, f.pathError("readdir", syscall.ENOTDIR)
	}

	entries := f.fs.volume.Root().Entries()
	if f.readdirOffset > len(entries) {
		f.readdirOffset = len(entries)
	}
	entries = entries[f.readdirOffset:]

	if count > 0 {
		if len(entries) == 0 {
			return nil, io.EOF
		}
		if len(entries) > count {
			entries = entries[:count]
		}
	}
	f.readdirOffset += len(entries)

	result := make([]os.FileInfo, len(entries))
	for i, e := range entries {
		result[i] = e.FileInfo()
	}
	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}
	return names, nil
}

func (f *File) Stat() (os.FileInfo, error) {
	if f.entry == nil {
		return rootFileInfo{}, nil
	}
	return f.entry.FileInfo(), nil
}

// Sync flushes the whole volume.
func (f *File) Sync() error {
	if f.closed {
		return f.pathError("sync", os.ErrClosed)
	}
	return f.fs.volume.Sync()
}

// Truncate changes the size of the file. Growing fills the new space with zeros.
func (f *File) Truncate(size int64) error {
	if err := f.checkWritable("truncate"); err != nil {
		return err
	}
	if size < 0 {
		return f.pathError("truncate", syscall.EINVAL)
	}
	if size > maxFileSize {
		return f.pathError("truncate", syscall.EFBIG)
	}

	file := f.entry.File()
	if size > file.Size {
		position := f.stream.Position()
		defer f.stream.SetPosition(position)

		if err := f.stream.SetPosition(file.Size); err != nil {
			return err
		}
		_, err := f.stream.Write(make([]byte, size-file.Size))
		return err
	}

	if err := f.fs.volume.Root().Truncate(f.entry, size); err != nil {
		return f.pathError("truncate", err)
	}

	// The old stream still knows the freed clusters.
	position := f.stream.Position()
	stream, err := fatstream.NewStream(f.fs.volume, file, false)
	if err != nil {
		return err
	}
	f.stream = stream
	return f.stream.SetPosition(position)
}
