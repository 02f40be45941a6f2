package fat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/aligator/fatstream"
	"github.com/aligator/fatstream/checkpoint"
	"github.com/aligator/fatstream/internal/log"
)

// Entry is one file of a Directory.
type Entry struct {
	header EntryHeader
	file   fatstream.File

	// slot is the index of the entry in the directory.
	slot int

	// Values last written to the volume, to detect changes.
	persistedSize    int64
	persistedCluster uint32
}

func (e *Entry) Name() string {
	return displayName(e.header.Name)
}

// File is shared with every stream opened on the entry.
func (e *Entry) File() *fatstream.File {
	return &e.file
}

func (e *Entry) ReadOnly() bool {
	return e.header.Attribute&AttrReadOnly == AttrReadOnly
}

func (e *Entry) IsDir() bool {
	return e.header.Attribute&AttrDirectory == AttrDirectory
}

// Directory is the root directory of a volume.
//
// Only files directly in the root are supported. Entries which are not
// understood, like long names or deleted files, are kept as they are.
type Directory struct {
	volume *Volume

	slots   []EntryHeader
	entries []*Entry

	// Only used by FAT32, which stores the root in a cluster chain.
	file   fatstream.File
	stream *fatstream.Stream

	now func() time.Time
}

var _ fatstream.Listing = (*Directory)(nil)

func loadRoot(v *Volume) (*Directory, error) {
	d := &Directory{
		volume: v,
		now:    time.Now,
	}

	var raw []byte
	if v.geometry.fatType == FAT32 {
		d.file = fatstream.File{FirstCluster: v.geometry.rootCluster}
		stream, err := fatstream.NewStream(v, &d.file, true)
		if err != nil {
			return nil, err
		}
		d.stream = stream

		raw, err = io.ReadAll(stream)
		if err != nil {
			return nil, checkpoint.Wrap(err, ErrCorruptChain)
		}
	} else {
		raw = make([]byte, int64(v.geometry.rootDirSectors)*int64(v.geometry.bytesPerSector))
		if n, err := v.device.ReadAt(raw, v.geometry.rootDirOffset()); n != len(raw) {
			return nil, checkpoint.Wrap(fmt.Errorf("read root directory: %w", err), ErrInvalidBootSector)
		}
	}

	reader := bytes.NewReader(raw)
	for reader.Len() >= entrySize {
		var header EntryHeader
		if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
			return nil, checkpoint.From(err)
		}
		if header.Name[0] == entryEndOfDirectory {
			break
		}

		d.slots = append(d.slots, header)
		if !visible(header) {
			continue
		}

		d.entries = append(d.entries, &Entry{
			header: header,
			file: fatstream.File{
				Size:         int64(header.FileSize),
				FirstCluster: header.firstCluster(),
				Parent:       d,
			},
			slot:             len(d.slots) - 1,
			persistedSize:    int64(header.FileSize),
			persistedCluster: header.firstCluster(),
		})
	}

	log.Debug("root directory loaded", log.Fields{
		log.FieldSize: len(d.entries),
	})
	return d, nil
}

// visible reports if the header is a file or directory of its own.
func visible(header EntryHeader) bool {
	if header.Name[0] == entryDeleted {
		return false
	}
	if header.Attribute&AttrLongName == AttrLongName {
		return false
	}
	return header.Attribute&AttrVolumeID == 0
}

// Entries returns all files of the directory in the order they are stored.
func (d *Directory) Entries() []*Entry {
	result := make([]*Entry, len(d.entries))
	copy(result, d.entries)
	return result
}

// Lookup searches an entry by its name, ignoring the case.
func (d *Directory) Lookup(name string) (*Entry, bool) {
	raw, err := shortName(name)
	if err != nil {
		return nil, false
	}

	for _, e := range d.entries {
		if e.header.Name == raw {
			return e, true
		}
	}
	return nil, false
}

// Create adds an empty file. The file gets its first cluster immediately,
// so writes through a fatstream.Stream work without any further setup.
func (d *Directory) Create(name string) (*Entry, error) {
	raw, err := shortName(name)
	if err != nil {
		return nil, checkpoint.Wrap(fmt.Errorf("name %q", name), err)
	}
	if _, ok := d.Lookup(name); ok {
		return nil, checkpoint.Wrap(fmt.Errorf("name %q", name), ErrFileExists)
	}

	slot := d.freeSlot()
	if d.volume.geometry.fatType != FAT32 && slot >= int(d.volume.geometry.rootEntries) {
		return nil, checkpoint.From(ErrDirectoryFull)
	}

	cluster, err := d.newFirstCluster()
	if err != nil {
		return nil, err
	}

	now := d.now()
	header := EntryHeader{
		Name:           raw,
		Attribute:      AttrArchive,
		CreateTime:     FormatTime(now),
		CreateDate:     FormatDate(now),
		LastAccessDate: FormatDate(now),
		WriteTime:      FormatTime(now),
		WriteDate:      FormatDate(now),
		FirstClusterHI: uint16(cluster >> 16),
		FirstClusterLO: uint16(cluster),
	}

	if slot == len(d.slots) {
		d.slots = append(d.slots, header)
	} else {
		d.slots[slot] = header
	}

	e := &Entry{
		header: header,
		file: fatstream.File{
			FirstCluster: cluster,
			Parent:       d,
		},
		slot:             slot,
		persistedCluster: cluster,
	}
	d.entries = append(d.entries, e)

	log.Debug("file created", log.Fields{
		log.FieldName:    e.Name(),
		log.FieldCluster: cluster,
	})

	return e, d.PersistListing()
}

// Allocate gives e a zeroed first cluster if it has none yet. Empty files
// written by other tools often have no cluster at all, and a
// fatstream.Stream can only write to a file which has one.
func (d *Directory) Allocate(e *Entry) error {
	if e.file.FirstCluster != 0 {
		return nil
	}

	cluster, err := d.newFirstCluster()
	if err != nil {
		return err
	}
	e.file.FirstCluster = cluster

	log.Debug("first cluster allocated", log.Fields{
		log.FieldName:    e.Name(),
		log.FieldCluster: cluster,
	})
	return d.PersistListing()
}

// newFirstCluster allocates a zeroed cluster which ends its chain.
func (d *Directory) newFirstCluster() (uint32, error) {
	cluster, err := d.volume.NextFreeCluster(0)
	if err != nil {
		return 0, err
	}
	if err := d.volume.WriteCluster(cluster, nil); err != nil {
		return 0, err
	}
	if err := d.volume.SetChainEntry(cluster, d.volume.EOFMarker()); err != nil {
		return 0, err
	}
	return cluster, nil
}

// freeSlot returns the first deleted slot or the index behind the last one.
func (d *Directory) freeSlot() int {
	for i, header := range d.slots {
		if header.Name[0] == entryDeleted {
			return i
		}
	}
	return len(d.slots)
}

// PersistListing writes all entries back to the volume. Entries whose size
// or first cluster changed since the last call get a new write time.
func (d *Directory) PersistListing() error {
	now := d.now()
	for _, e := range d.entries {
		if e.file.Size != e.persistedSize || e.file.FirstCluster != e.persistedCluster {
			e.header.FileSize = uint32(e.file.Size)
			e.header.FirstClusterHI = uint16(e.file.FirstCluster >> 16)
			e.header.FirstClusterLO = uint16(e.file.FirstCluster)
			e.header.WriteTime = FormatTime(now)
			e.header.WriteDate = FormatDate(now)
			e.header.Attribute |= AttrArchive
		}
		d.slots[e.slot] = e.header
	}

	var encoded bytes.Buffer
	if err := binary.Write(&encoded, binary.LittleEndian, d.slots); err != nil {
		return checkpoint.From(err)
	}

	if err := d.write(encoded.Bytes()); err != nil {
		return err
	}

	for _, e := range d.entries {
		e.persistedSize = e.file.Size
		e.persistedCluster = e.file.FirstCluster
	}
	return nil
}

func (d *Directory) write(encoded []byte) error {
	g := d.volume.geometry

	if g.fatType != FAT32 {
		region := make([]byte, int64(g.rootDirSectors)*int64(g.bytesPerSector))
		if len(encoded) > len(region) {
			return checkpoint.Wrap(fmt.Errorf("%d entries for %d slots", len(d.slots), g.rootEntries), ErrDirectoryFull)
		}
		copy(region, encoded)
		_, err := d.volume.device.WriteAt(region, g.rootDirOffset())
		return checkpoint.From(err)
	}

	// The end of the chain ends the directory if the entries fill it completely.
	if len(encoded)%int(g.clusterSize()) != 0 {
		encoded = append(encoded, make([]byte, entrySize)...)
	}

	if err := d.stream.SetPosition(0); err != nil {
		return err
	}
	return d.stream.WriteBuffer(encoded, 0, len(encoded))
}

// Truncate shrinks the file of e to size and frees the clusters which are
// not needed anymore. The first cluster is always kept.
func (d *Directory) Truncate(e *Entry, size int64) error {
	if size < 0 || size > e.file.Size {
		return checkpoint.Wrap(fmt.Errorf("truncate %d bytes to %d", e.file.Size, size), fatstream.ErrArgument)
	}
	if size == e.file.Size {
		return nil
	}

	if e.file.FirstCluster != 0 {
		chain, err := d.volume.ReadChain(e.file.Size, e.file.FirstCluster)
		if err != nil {
			return err
		}

		clusterSize := int64(d.volume.ClusterSize())
		keep := int((size + clusterSize - 1) / clusterSize)
		if keep == 0 {
			keep = 1
		}

		if keep < len(chain) {
			if err := d.volume.SetChainEntry(chain[keep-1], d.volume.EOFMarker()); err != nil {
				return err
			}
			for _, cluster := range chain[keep:] {
				if err := d.volume.SetChainEntry(cluster, 0); err != nil {
					return err
				}
			}
		}
	}

	e.file.Size = size
	return d.PersistListing()
}

// SetReadOnly changes the read only attribute of e.
func (d *Directory) SetReadOnly(e *Entry, readOnly bool) error {
	if readOnly {
		e.header.Attribute |= AttrReadOnly
	} else {
		e.header.Attribute &^= AttrReadOnly
	}
	return d.PersistListing()
}

// SetTimes changes the access and write time of e.
func (d *Directory) SetTimes(e *Entry, atime, mtime time.Time) error {
	e.header.LastAccessDate = FormatDate(atime)
	e.header.WriteDate = FormatDate(mtime)
	e.header.WriteTime = FormatTime(mtime)
	return d.PersistListing()
}
