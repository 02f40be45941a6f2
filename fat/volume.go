package fat

import (
	"fmt"
	"io"

	"github.com/aligator/fatstream"
	"github.com/aligator/fatstream/checkpoint"
	"github.com/aligator/fatstream/internal/log"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Volume is a FAT12, FAT16 or FAT32 filesystem stored in a file.
// It provides the cluster level primitives used by fatstream.Stream.
//
// All changes are written through to the device immediately.
// A Volume is not safe for concurrent use.
type Volume struct {
	device   afero.File
	geometry geometry
	table    *table
	root     *Directory

	zeros []byte
}

var _ fatstream.Volume = (*Volume)(nil)

// Open mounts the volume stored in device.
func Open(device afero.File) (*Volume, error) {
	g, err := readGeometry(device)
	if err != nil {
		return nil, err
	}

	data := make([]byte, int64(g.fatSectors)*int64(g.bytesPerSector))
	if n, err := device.ReadAt(data, g.fatOffset(0)); n != len(data) {
		return nil, checkpoint.Wrap(fmt.Errorf("read allocation table: %w", err), ErrInvalidBootSector)
	}

	v := &Volume{
		device:   device,
		geometry: g,
		table:    newTable(g.fatType, data),
		zeros:    make([]byte, g.clusterSize()),
	}

	v.root, err = loadRoot(v)
	if err != nil {
		return nil, err
	}

	log.Info("volume opened", log.Fields{
		log.FieldImage:    device.Name(),
		log.FieldFATType:  g.fatType.String(),
		log.FieldClusters: g.clusterCount,
	})
	return v, nil
}

// Format creates a new, empty volume of size bytes in device and opens it.
// Everything stored in device before is lost.
func Format(device afero.File, size int64, opts FormatOptions) (*Volume, error) {
	g, err := layout(size, opts)
	if err != nil {
		return nil, err
	}
	g.volumeID = uuid.New().ID()

	if err := device.Truncate(size); err != nil {
		return nil, checkpoint.From(err)
	}

	// Clear everything in front of the data region.
	meta := make([]byte, int64(g.firstDataSector())*int64(g.bytesPerSector))
	if _, err := device.WriteAt(meta, 0); err != nil {
		return nil, checkpoint.From(err)
	}

	boot, err := g.bootSector()
	if err != nil {
		return nil, err
	}
	if _, err := device.WriteAt(boot, 0); err != nil {
		return nil, checkpoint.From(err)
	}
	if g.fatType == FAT32 {
		sectorSize := int64(g.bytesPerSector)
		if _, err := device.WriteAt(g.fsInfo(), fsInfoSector*sectorSize); err != nil {
			return nil, checkpoint.From(err)
		}
		if _, err := device.WriteAt(boot, backupBootSector*sectorSize); err != nil {
			return nil, checkpoint.From(err)
		}
	}

	t := newTable(g.fatType, make([]byte, int64(g.fatSectors)*int64(g.bytesPerSector)))
	t.set(0, 0x0FFFFF00|uint32(g.media))
	t.set(1, t.eof())
	if g.fatType == FAT32 {
		t.set(g.rootCluster, t.eof())
		if _, err := device.WriteAt(make([]byte, g.clusterSize()), g.clusterOffset(g.rootCluster)); err != nil {
			return nil, checkpoint.From(err)
		}
	}
	for i := uint32(0); i < g.numFATs; i++ {
		if _, err := device.WriteAt(t.data, g.fatOffset(i)); err != nil {
			return nil, checkpoint.From(err)
		}
	}

	log.Info("volume formatted", log.Fields{
		log.FieldImage:    device.Name(),
		log.FieldFATType:  g.fatType.String(),
		log.FieldClusters: g.clusterCount,
	})

	return Open(device)
}

func (v *Volume) Type() Type {
	return v.geometry.fatType
}

// Label returns the volume label, empty if there is none.
func (v *Volume) Label() string {
	return v.geometry.label
}

func (v *Volume) VolumeID() uint32 {
	return v.geometry.volumeID
}

// ClusterCount is the number of data clusters.
func (v *Volume) ClusterCount() uint32 {
	return v.geometry.clusterCount
}

// FreeClusters counts the clusters which are not in use.
func (v *Volume) FreeClusters() uint32 {
	var free uint32
	for cluster := uint32(2); cluster <= v.geometry.maxCluster(); cluster++ {
		if v.table.get(cluster) == 0 {
			free++
		}
	}
	return free
}

func (v *Volume) Root() *Directory {
	return v.root
}

func (v *Volume) ClusterSize() uint32 {
	return v.geometry.clusterSize()
}

func (v *Volume) EOFMarker() uint32 {
	return v.table.eof()
}

func (v *Volume) checkCluster(cluster uint32) error {
	if cluster < 2 || cluster > v.geometry.maxCluster() {
		return checkpoint.Wrap(fmt.Errorf("cluster %d is not in range [2, %d]", cluster, v.geometry.maxCluster()), ErrInvalidCluster)
	}
	return nil
}

func (v *Volume) checkBuffer(buffer []byte) error {
	if len(buffer) != int(v.ClusterSize()) {
		return checkpoint.Wrap(fmt.Errorf("buffer of %d bytes for clusters of %d bytes", len(buffer), v.ClusterSize()), fatstream.ErrArgument)
	}
	return nil
}

// ReadCluster fills dst with the content of cluster.
func (v *Volume) ReadCluster(cluster uint32, dst []byte) error {
	if err := v.checkCluster(cluster); err != nil {
		return err
	}
	if err := v.checkBuffer(dst); err != nil {
		return err
	}

	n, err := v.device.ReadAt(dst, v.geometry.clusterOffset(cluster))
	if n == len(dst) && err == io.EOF {
		err = nil
	}
	if err == nil && n != len(dst) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return checkpoint.Wrap(fmt.Errorf("read cluster %d: %w", cluster, err), ErrInvalidCluster)
	}
	return nil
}

// WriteCluster stores src in cluster. A nil src clears the cluster.
func (v *Volume) WriteCluster(cluster uint32, src []byte) error {
	if err := v.checkCluster(cluster); err != nil {
		return err
	}
	if src == nil {
		src = v.zeros
	}
	if err := v.checkBuffer(src); err != nil {
		return err
	}

	_, err := v.device.WriteAt(src, v.geometry.clusterOffset(cluster))
	return checkpoint.From(err)
}

// NextFreeCluster searches the first free cluster behind after and wraps
// around at the end of the volume.
func (v *Volume) NextFreeCluster(after uint32) (uint32, error) {
	max := v.geometry.maxCluster()

	start := after + 1
	if start < 2 || start > max {
		start = 2
	}

	for cluster := start; cluster <= max; cluster++ {
		if v.table.get(cluster) == 0 {
			return cluster, nil
		}
	}
	for cluster := uint32(2); cluster < start; cluster++ {
		if v.table.get(cluster) == 0 {
			return cluster, nil
		}
	}

	return 0, checkpoint.From(ErrVolumeFull)
}

// SetChainEntry sets the table entry of cluster in every FAT copy.
// value has to be 0, another cluster or EOFMarker().
func (v *Volume) SetChainEntry(cluster uint32, value uint32) error {
	if err := v.checkCluster(cluster); err != nil {
		return err
	}
	if value != 0 && value != v.EOFMarker() {
		if err := v.checkCluster(value); err != nil {
			return err
		}
	}

	off, changed := v.table.set(cluster, value)
	for i := uint32(0); i < v.geometry.numFATs; i++ {
		if _, err := v.device.WriteAt(changed, v.geometry.fatOffset(i)+int64(off)); err != nil {
			return checkpoint.From(err)
		}
	}
	return nil
}

// ReadChain follows the allocation table from first to the end of the chain.
func (v *Volume) ReadChain(sizeHint int64, first uint32) ([]uint32, error) {
	if first == 0 {
		return []uint32{}, nil
	}

	capacity := 1
	if sizeHint > 0 {
		capacity = int(sizeHint/int64(v.ClusterSize())) + 1
	}
	if capacity > int(v.geometry.clusterCount) {
		capacity = int(v.geometry.clusterCount)
	}
	chain := make([]uint32, 0, capacity)

	cluster := first
	for {
		if err := v.checkCluster(cluster); err != nil {
			return nil, checkpoint.Wrap(err, ErrCorruptChain)
		}
		// A chain can never be longer than the volume, so it has to contain a loop.
		if uint32(len(chain)) >= v.geometry.clusterCount {
			return nil, checkpoint.Wrap(fmt.Errorf("chain starting at %d does not end", first), ErrCorruptChain)
		}
		chain = append(chain, cluster)

		next := v.table.get(cluster)
		switch {
		case v.table.isEOF(next):
			return chain, nil
		case next == 0:
			return nil, checkpoint.Wrap(fmt.Errorf("cluster %d links to a free cluster", cluster), ErrCorruptChain)
		case v.table.isBad(next):
			return nil, checkpoint.Wrap(fmt.Errorf("cluster %d links to a bad cluster", cluster), ErrCorruptChain)
		}
		cluster = next
	}
}

// Sync flushes the device.
func (v *Volume) Sync() error {
	return checkpoint.From(v.device.Sync())
}

// Close closes the device. The volume must not be used afterwards.
func (v *Volume) Close() error {
	return checkpoint.From(v.device.Close())
}
