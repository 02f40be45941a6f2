// Package fatstream provides a byte addressable stream over files of a
// FAT style volume. The content of such a file is not contiguous but
// scattered across fixed-size clusters which are linked through the
// volume wide allocation table.
//
// The stream only depends on the small collaborator interfaces of this
// package. The fat sub package provides an implementation for FAT12, FAT16
// and FAT32 images.
package fatstream

//go:generate mockgen -destination=fatstream_mock.go -package fatstream -self_package github.com/aligator/fatstream github.com/aligator/fatstream Listing,Volume

// ClusterStore reads and writes whole clusters.
type ClusterStore interface {
	// ClusterSize is the amount of bytes of one cluster.
	ClusterSize() uint32
	// ReadCluster fills dst, which has the length of one cluster.
	ReadCluster(cluster uint32, dst []byte) error
	// WriteCluster persists src, which has the length of one cluster.
	// A nil src fills the cluster with zeros.
	WriteCluster(cluster uint32, src []byte) error
}

// Allocator hands out free clusters and mutates the allocation table.
type Allocator interface {
	// NextFreeCluster returns an unused cluster, preferably one after the given one.
	NextFreeCluster(after uint32) (uint32, error)
	// SetChainEntry sets the allocation table entry of cluster to value,
	// which is either the successor or EOFMarker().
	SetChainEntry(cluster uint32, value uint32) error
	// EOFMarker is the end of chain value of the volume's FAT variant.
	EOFMarker() uint32
}

// ChainReader resolves the cluster chain of a file.
type ChainReader interface {
	// ReadChain returns the ordered clusters starting at first.
	// It returns an empty chain if first is 0.
	// sizeHint is the recorded file size and only used to size the result.
	ReadChain(sizeHint int64, first uint32) ([]uint32, error)
}

// Volume is everything a Stream needs from the underlying filesystem.
type Volume interface {
	ClusterStore
	Allocator
	ChainReader
}

// Listing is the directory which holds the entry of a file.
type Listing interface {
	// PersistListing writes the directory entries back to the volume.
	PersistListing() error
}

// File is the metadata of a file which is shared with the directory layer.
type File struct {
	// Size in bytes.
	Size int64
	// FirstCluster is 0 for files without any content.
	FirstCluster uint32
	// Parent may be nil, in which case size changes are not persisted.
	Parent Listing
}
