package fat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/aligator/fatstream/checkpoint"
)

// Type is the FAT variant, named by the width of its table entries.
type Type uint8

const (
	FAT12 Type = 12
	FAT16 Type = 16
	FAT32 Type = 32
)

func (t Type) String() string {
	return fmt.Sprintf("FAT%d", uint8(t))
}

// typeForClusters determines the FAT type by the count of data clusters.
// This is the only way the FAT specification allows.
func typeForClusters(clusters uint32) Type {
	switch {
	case clusters < 4085:
		return FAT12
	case clusters < 65525:
		return FAT16
	default:
		return FAT32
	}
}

const (
	bootSectorSize = 512
	mediaHardDisk  = 0xF8
	noLabel        = "NO NAME"
)

// geometry contains all layout information about the whole filesystem.
type geometry struct {
	fatType           Type
	bytesPerSector    uint32
	sectorsPerCluster uint32
	reservedSectors   uint32
	numFATs           uint32
	fatSectors        uint32
	rootEntries       uint32
	rootDirSectors    uint32
	totalSectors      uint32
	clusterCount      uint32
	media             byte

	// Only used by FAT32.
	rootCluster uint32

	volumeID uint32
	label    string
}

func (g geometry) clusterSize() uint32 {
	return g.bytesPerSector * g.sectorsPerCluster
}

func (g geometry) firstDataSector() uint32 {
	return g.reservedSectors + g.numFATs*g.fatSectors + g.rootDirSectors
}

func (g geometry) fatOffset(index uint32) int64 {
	return int64(g.reservedSectors+index*g.fatSectors) * int64(g.bytesPerSector)
}

func (g geometry) rootDirOffset() int64 {
	return int64(g.reservedSectors+g.numFATs*g.fatSectors) * int64(g.bytesPerSector)
}

func (g geometry) clusterOffset(cluster uint32) int64 {
	sector := int64(g.firstDataSector()) + int64(cluster-2)*int64(g.sectorsPerCluster)
	return sector * int64(g.bytesPerSector)
}

// maxCluster is the highest valid cluster number. The first two table
// entries are reserved, so data clusters start at 2.
func (g geometry) maxCluster() uint32 {
	return g.clusterCount + 1
}

// checkClusterLayout validates the sector size and the sectors per cluster.
// FAT only supports 512, 1024, 2048 and 4096 bytes per sector.
// Sectors per cluster has to be a power of two and greater than 0.
// Also the whole cluster size should not be more than 32K.
func checkClusterLayout(bytesPerSector uint16, sectorsPerCluster uint8) error {
	switch bytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return fmt.Errorf("invalid sector size %d", bytesPerSector)
	}

	if sectorsPerCluster == 0 || sectorsPerCluster&(sectorsPerCluster-1) != 0 {
		return fmt.Errorf("invalid sectors per cluster %d", sectorsPerCluster)
	}
	if uint32(bytesPerSector)*uint32(sectorsPerCluster) > 32*1024 {
		return fmt.Errorf("cluster size %d is bigger than 32K", uint32(bytesPerSector)*uint32(sectorsPerCluster))
	}
	return nil
}

func validMedia(media byte) bool {
	return media == 0xF0 || media >= 0xF8
}

func bootError(format string, a ...interface{}) error {
	return checkpoint.Wrap(fmt.Errorf(format, a...), ErrInvalidBootSector)
}

// readGeometry reads and checks the boot sector of a volume.
func readGeometry(r io.ReaderAt) (geometry, error) {
	sector := make([]byte, bootSectorSize)
	if n, err := r.ReadAt(sector, 0); n != bootSectorSize {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return geometry{}, checkpoint.Wrap(fmt.Errorf("read boot sector: %w", err), ErrInvalidBootSector)
	}

	bpb := BPB{}
	if err := binary.Read(bytes.NewReader(sector), binary.LittleEndian, &bpb); err != nil {
		return geometry{}, checkpoint.Wrap(err, ErrInvalidBootSector)
	}

	// Check if it is really a FAT filesystem.
	if !(bpb.BSJumpBoot[0] == 0xEB && bpb.BSJumpBoot[2] == 0x90) && !(bpb.BSJumpBoot[0] == 0xE9) {
		return geometry{}, bootError("no valid jump instructions at the beginning")
	}
	if sector[510] != 0x55 || sector[511] != 0xAA {
		return geometry{}, bootError("missing boot sector signature")
	}

	if err := checkClusterLayout(bpb.BytesPerSector, bpb.SectorsPerCluster); err != nil {
		return geometry{}, checkpoint.Wrap(err, ErrInvalidBootSector)
	}

	// The reserved sector count should not be 0.
	// Note: for FAT12 and FAT16 it is typically 1 for FAT32 it is typically 32.
	if bpb.ReservedSectorCount == 0 {
		return geometry{}, bootError("invalid reserved sector count")
	}
	if bpb.NumFATs == 0 {
		return geometry{}, bootError("no FAT on the volume")
	}
	if !validMedia(bpb.Media) {
		return geometry{}, bootError("invalid media value %#x", bpb.Media)
	}

	g := geometry{
		bytesPerSector:    uint32(bpb.BytesPerSector),
		sectorsPerCluster: uint32(bpb.SectorsPerCluster),
		reservedSectors:   uint32(bpb.ReservedSectorCount),
		numFATs:           uint32(bpb.NumFATs),
		rootEntries:       uint32(bpb.RootEntryCount),
		media:             bpb.Media,
	}
	g.rootDirSectors = (g.rootEntries*entrySize + g.bytesPerSector - 1) / g.bytesPerSector

	if bpb.TotalSectors16 != 0 {
		g.totalSectors = uint32(bpb.TotalSectors16)
	} else {
		g.totalSectors = bpb.TotalSectors32
	}

	var fat32 FAT32SpecificData
	if err := binary.Read(bytes.NewReader(bpb.FATSpecificData[:]), binary.LittleEndian, &fat32); err != nil {
		return geometry{}, checkpoint.Wrap(err, ErrInvalidBootSector)
	}

	g.fatSectors = uint32(bpb.FATSize16)
	if g.fatSectors == 0 {
		g.fatSectors = fat32.FatSize
	}
	if g.fatSectors == 0 {
		return geometry{}, bootError("invalid FAT size")
	}

	if g.totalSectors <= g.firstDataSector() {
		return geometry{}, bootError("no data sectors left, total sectors %d", g.totalSectors)
	}
	g.clusterCount = (g.totalSectors - g.firstDataSector()) / g.sectorsPerCluster
	g.fatType = typeForClusters(g.clusterCount)

	// The table must be able to address every cluster.
	if entries := uint64(g.fatSectors) * uint64(g.bytesPerSector) * 8 / uint64(g.fatType); entries < uint64(g.maxCluster())+1 {
		return geometry{}, bootError("FAT with %d entries is too small for %d clusters", entries, g.clusterCount)
	}

	if g.fatType == FAT32 {
		if bpb.RootEntryCount != 0 {
			return geometry{}, bootError("FAT32 with root entry count %d", bpb.RootEntryCount)
		}
		g.rootCluster = fat32.RootCluster
		if g.rootCluster < 2 || g.rootCluster > g.maxCluster() {
			return geometry{}, bootError("invalid root cluster %d", g.rootCluster)
		}
		g.volumeID = fat32.BSVolumeID
		g.label = labelString(fat32.BSVolumeLabel)
	} else {
		if g.rootEntries == 0 {
			return geometry{}, bootError("%v without root directory entries", g.fatType)
		}

		var fat16 FAT16SpecificData
		if err := binary.Read(bytes.NewReader(bpb.FATSpecificData[:]), binary.LittleEndian, &fat16); err != nil {
			return geometry{}, checkpoint.Wrap(err, ErrInvalidBootSector)
		}
		g.volumeID = fat16.BSVolumeID
		g.label = labelString(fat16.BSVolumeLabel)
	}

	return g, nil
}

func labelString(label [11]byte) string {
	trimmed := strings.TrimRight(string(label[:]), " \x00")
	if trimmed == noLabel {
		return ""
	}
	return trimmed
}

func labelBytes(label string) [11]byte {
	if label == "" {
		label = noLabel
	}

	var result [11]byte
	copy(result[:], "           ")
	copy(result[:], strings.ToUpper(label))
	return result
}

// FormatOptions configure Format. Zero values select the defaults.
type FormatOptions struct {
	// BytesPerSector defaults to 512.
	BytesPerSector uint16
	// SectorsPerCluster defaults to 1.
	SectorsPerCluster uint8
	// Label is at most 11 characters.
	Label string
}

// layout computes the geometry of a new volume with size bytes.
// The FAT type follows from the resulting cluster count, so every type is
// tried until the count matches it.
func layout(size int64, opts FormatOptions) (geometry, error) {
	if opts.BytesPerSector == 0 {
		opts.BytesPerSector = 512
	}
	if opts.SectorsPerCluster == 0 {
		opts.SectorsPerCluster = 1
	}
	if err := checkClusterLayout(opts.BytesPerSector, opts.SectorsPerCluster); err != nil {
		return geometry{}, checkpoint.Wrap(err, ErrInvalidLayout)
	}
	if len(opts.Label) > 11 {
		return geometry{}, checkpoint.Wrap(fmt.Errorf("label %q is longer than 11 characters", opts.Label), ErrInvalidLayout)
	}

	totalSectors := size / int64(opts.BytesPerSector)
	if totalSectors <= 0 || totalSectors > 0xFFFFFFFF {
		return geometry{}, checkpoint.Wrap(fmt.Errorf("size %d is out of range", size), ErrInvalidLayout)
	}

	for _, fatType := range []Type{FAT12, FAT16, FAT32} {
		g := geometry{
			fatType:           fatType,
			bytesPerSector:    uint32(opts.BytesPerSector),
			sectorsPerCluster: uint32(opts.SectorsPerCluster),
			reservedSectors:   1,
			numFATs:           2,
			rootEntries:       512,
			totalSectors:      uint32(totalSectors),
			media:             mediaHardDisk,
			label:             opts.Label,
		}
		if fatType == FAT32 {
			g.reservedSectors = 32
			g.rootEntries = 0
			g.rootCluster = 2
		}
		g.rootDirSectors = (g.rootEntries*entrySize + g.bytesPerSector - 1) / g.bytesPerSector

		metaSectors := g.reservedSectors + g.rootDirSectors
		if g.totalSectors <= metaSectors {
			continue
		}

		// Overestimate the clusters to be sure the table covers all of them.
		estimate := uint64((g.totalSectors-metaSectors)/g.sectorsPerCluster) + 2
		fatBytes := (estimate*uint64(fatType) + 7) / 8
		g.fatSectors = uint32((fatBytes + uint64(g.bytesPerSector) - 1) / uint64(g.bytesPerSector))

		if g.totalSectors <= g.firstDataSector() {
			continue
		}
		g.clusterCount = (g.totalSectors - g.firstDataSector()) / g.sectorsPerCluster
		if g.clusterCount == 0 || typeForClusters(g.clusterCount) != fatType {
			continue
		}

		return g, nil
	}

	return geometry{}, checkpoint.Wrap(fmt.Errorf("size %d with %d byte clusters", size, uint32(opts.BytesPerSector)*uint32(opts.SectorsPerCluster)), ErrInvalidLayout)
}

// bootSector encodes g as boot sector.
func (g geometry) bootSector() ([]byte, error) {
	bpb := BPB{
		BSJumpBoot:          [3]byte{0xEB, 0x3C, 0x90},
		BytesPerSector:      uint16(g.bytesPerSector),
		SectorsPerCluster:   uint8(g.sectorsPerCluster),
		ReservedSectorCount: uint16(g.reservedSectors),
		NumFATs:             uint8(g.numFATs),
		RootEntryCount:      uint16(g.rootEntries),
		Media:               g.media,
		SectorsPerTrack:     32,
		NumberOfHeads:       64,
	}
	copy(bpb.BSOEMName[:], "FATSTRM ")

	if g.totalSectors < 0x10000 && g.fatType != FAT32 {
		bpb.TotalSectors16 = uint16(g.totalSectors)
	} else {
		bpb.TotalSectors32 = g.totalSectors
	}

	var specific bytes.Buffer
	var err error
	if g.fatType == FAT32 {
		bpb.BSJumpBoot[1] = 0x58
		data := FAT32SpecificData{
			FatSize:         g.fatSectors,
			RootCluster:     g.rootCluster,
			FSInfo:          fsInfoSector,
			BkBootSector:    backupBootSector,
			BSDriveNumber:   0x80,
			BSBootSignature: 0x29,
			BSVolumeID:      g.volumeID,
			BSVolumeLabel:   labelBytes(g.label),
		}
		copy(data.BSFileSystemType[:], "FAT32   ")
		err = binary.Write(&specific, binary.LittleEndian, data)
	} else {
		bpb.FATSize16 = uint16(g.fatSectors)
		data := FAT16SpecificData{
			BSDriveNumber:   0x80,
			BSBootSignature: 0x29,
			BSVolumeID:      g.volumeID,
			BSVolumeLabel:   labelBytes(g.label),
		}
		copy(data.BSFileSystemType[:], g.fatType.String()+"   ")
		err = binary.Write(&specific, binary.LittleEndian, data)
	}
	if err != nil {
		return nil, checkpoint.From(err)
	}
	copy(bpb.FATSpecificData[:], specific.Bytes())

	var sector bytes.Buffer
	if err := binary.Write(&sector, binary.LittleEndian, bpb); err != nil {
		return nil, checkpoint.From(err)
	}

	result := make([]byte, g.bytesPerSector)
	copy(result, sector.Bytes())
	result[510] = 0x55
	result[511] = 0xAA
	return result, nil
}

const (
	fsInfoSector     = 1
	backupBootSector = 6
)

// fsInfo encodes an FSInfo sector which leaves the free count unknown.
func (g geometry) fsInfo() []byte {
	sector := make([]byte, g.bytesPerSector)
	binary.LittleEndian.PutUint32(sector[0:], 0x41615252)
	binary.LittleEndian.PutUint32(sector[484:], 0x61417272)
	binary.LittleEndian.PutUint32(sector[488:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(sector[492:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(sector[508:], 0xAA550000)
	return sector
}
