package fat

import (
	"os"
	"strings"
	"time"
)

// FileInfo returns the os.FileInfo of the entry as it is in memory.
func (e *Entry) FileInfo() os.FileInfo {
	h := e.header
	h.FileSize = uint32(e.file.Size)
	h.FirstClusterHI = uint16(e.file.FirstCluster >> 16)
	h.FirstClusterLO = uint16(e.file.FirstCluster)
	return entryHeaderFileInfo{h}
}

type entryHeaderFileInfo struct {
	entry EntryHeader
}

func (e entryHeaderFileInfo) Name() string {
	return displayName(e.entry.Name)
}

func (e entryHeaderFileInfo) Size() int64 {
	return int64(e.entry.FileSize)
}

func (e entryHeaderFileInfo) Mode() os.FileMode {
	if e.IsDir() {
		return os.ModeDir | 0755
	}
	if e.entry.Attribute&AttrReadOnly == AttrReadOnly {
		return 0444
	}
	return 0644
}

func (e entryHeaderFileInfo) ModTime() time.Time {
	return entryTime(e.entry.WriteDate, e.entry.WriteTime)
}

func (e entryHeaderFileInfo) IsDir() bool {
	return e.entry.Attribute&AttrDirectory == AttrDirectory
}

func (e entryHeaderFileInfo) Sys() interface{} {
	return e.entry
}

// rootFileInfo describes the root directory, which has no entry of its own.
type rootFileInfo struct{}

func (rootFileInfo) Name() string       { return "." }
func (rootFileInfo) Size() int64        { return 0 }
func (rootFileInfo) Mode() os.FileMode  { return os.ModeDir | 0755 }
func (rootFileInfo) ModTime() time.Time { return time.Time{} }
func (rootFileInfo) IsDir() bool        { return true }
func (rootFileInfo) Sys() interface{}   { return nil }

// displayName converts the padded 8.3 name into "NAME.EXT".
func displayName(raw [11]byte) string {
	name := strings.TrimRight(string(raw[:8]), " ")
	ext := strings.TrimRight(string(raw[8:11]), " ")

	// 0x05 stands for a real 0xE5 as first character.
	if len(name) > 0 && name[0] == 0x05 {
		name = "\xE5" + name[1:]
	}

	if ext != "" {
		name += "."
	}

	return name + ext
}

// shortName converts a file name into the padded, upper case 8.3 form.
func shortName(name string) ([11]byte, error) {
	var result [11]byte
	copy(result[:], "           ")

	if name == "" || name == "." || name == ".." {
		return result, ErrInvalidName
	}

	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}
	if base == "" || len(base) > 8 || len(ext) > 3 {
		return result, ErrInvalidName
	}

	for _, part := range []string{base, ext} {
		for i := 0; i < len(part); i++ {
			if !validNameChar(part[i]) {
				return result, ErrInvalidName
			}
		}
	}

	copy(result[:8], strings.ToUpper(base))
	copy(result[8:], strings.ToUpper(ext))
	return result, nil
}

func validNameChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c >= 0x80:
		return false
	}
	return strings.IndexByte("!#$%&'()-@^_`{}~", c) >= 0
}
