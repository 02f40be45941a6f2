package fatstream

import (
	"fmt"
	"io"

	"github.com/aligator/fatstream/checkpoint"
	"github.com/aligator/fatstream/internal/log"
)

// Stream reads and writes the content of one File by translating its
// position into a cluster of the file's chain and an offset inside of it.
//
// The cluster chain is resolved on first use and cached for the lifetime of
// the stream. Changes made to the same chain by anything else than this
// stream are not noticed.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	volume Volume
	file   *File

	// ignoreSize makes the stream trust the chain length instead of
	// the recorded file size. It is used to scan raw cluster content,
	// e.g. directory listings, whose size is not recorded anywhere.
	ignoreSize bool

	position int64

	chain    []uint32
	resolved bool

	scratch []byte
}

// NewStream creates a stream over file. It fails with ErrState if
// volume or file is missing.
func NewStream(volume Volume, file *File, ignoreSize bool) (*Stream, error) {
	if file == nil {
		return nil, checkpoint.Wrap(fmt.Errorf("no file given"), ErrState)
	}
	if volume == nil {
		return nil, checkpoint.Wrap(fmt.Errorf("no volume given"), ErrState)
	}

	return &Stream{
		volume:     volume,
		file:       file,
		ignoreSize: ignoreSize,
	}, nil
}

func (s *Stream) File() *File {
	return s.file
}

func (s *Stream) IgnoreSize() bool {
	return s.ignoreSize
}

func (s *Stream) Position() int64 {
	return s.position
}

// SetPosition moves the stream. There is no upper bound: reading beyond the
// end just returns nothing, writing beyond the end grows the chain.
func (s *Stream) SetPosition(position int64) error {
	if position < 0 {
		return argumentError("position %d must not be negative", position)
	}
	s.position = position
	return nil
}

// resolveChain loads the cluster chain once. A file without first cluster
// stays unresolved unless the recorded size is ignored.
func (s *Stream) resolveChain() error {
	if s.resolved {
		return nil
	}
	if s.file.FirstCluster == 0 && !s.ignoreSize {
		return nil
	}

	chain, err := s.volume.ReadChain(s.file.Size, s.file.FirstCluster)
	if err != nil {
		return checkpoint.Wrap(err, ErrResolveChain)
	}
	if chain == nil {
		chain = []uint32{}
	}

	s.chain = chain
	s.resolved = true

	log.Debug("cluster chain resolved", log.Fields{
		log.FieldCluster: s.file.FirstCluster,
		log.FieldChain:   len(chain),
	})
	return nil
}

// Chain returns a copy of the resolved cluster chain. It is nil for a file
// without any cluster.
func (s *Stream) Chain() ([]uint32, error) {
	if err := s.resolveChain(); err != nil {
		return nil, err
	}
	if !s.resolved {
		return nil, nil
	}

	chain := make([]uint32, len(s.chain))
	copy(chain, s.chain)
	return chain, nil
}

// EffectiveSize is the size which bounds reads: the recorded file size, or
// the capacity of the whole chain if the size is ignored.
func (s *Stream) EffectiveSize() (int64, error) {
	if !s.ignoreSize {
		return s.file.Size, nil
	}

	if err := s.resolveChain(); err != nil {
		return 0, err
	}
	return s.chainCapacity(), nil
}

func (s *Stream) chainCapacity() int64 {
	return int64(len(s.chain)) * int64(s.volume.ClusterSize())
}

func (s *Stream) scratchBuffer() []byte {
	size := int(s.volume.ClusterSize())
	if len(s.scratch) != size {
		s.scratch = make([]byte, size)
	}
	return s.scratch
}

// ReadBuffer reads up to count bytes into buffer[offset:] and returns how
// many bytes were read. It never reads beyond the effective size.
// Reading an empty file, at the end or without resolvable chain returns 0
// and no error.
func (s *Stream) ReadBuffer(buffer []byte, offset, count int) (int, error) {
	// An empty file has nothing to offer, regardless of the arguments.
	if !s.ignoreSize && s.file.Size == 0 {
		return 0, nil
	}

	if err := checkRange("read", buffer, offset, count); err != nil {
		return 0, err
	}

	if err := s.resolveChain(); err != nil {
		return 0, err
	}
	if !s.resolved {
		return 0, nil
	}

	if !s.ignoreSize && s.position == s.file.Size {
		return 0, nil
	}

	size := s.file.Size
	if s.ignoreSize {
		size = s.chainCapacity()
	}

	remaining := int64(count)
	if available := size - s.position; remaining > available {
		remaining = available
	}
	if remaining <= 0 {
		return 0, nil
	}

	clusterSize := int64(s.volume.ClusterSize())
	scratch := s.scratchBuffer()

	read := 0
	for remaining > 0 {
		index := s.position / clusterSize
		inCluster := s.position % clusterSize

		if index >= int64(len(s.chain)) {
			return read, checkpoint.Wrap(
				fmt.Errorf("cluster index %d of chain with length %d", index, len(s.chain)),
				ErrShortChain,
			)
		}

		if err := s.volume.ReadCluster(s.chain[index], scratch); err != nil {
			return read, checkpoint.Wrap(err, ErrReadStream)
		}

		n := clusterSize - inCluster
		if n > remaining {
			n = remaining
		}

		copy(buffer[offset:], scratch[inCluster:inCluster+n])

		offset += int(n)
		remaining -= n
		read += int(n)
		s.position += n
	}

	return read, nil
}

// WriteBuffer writes count bytes from buffer[offset:] at the current
// position. The chain grows as needed. In size tracking mode the file size
// is raised and the parent listing persisted if the file got bigger.
//
// Writing to a file without first cluster does nothing unless the size is
// ignored. Creating the first cluster is up to the directory layer.
func (s *Stream) WriteBuffer(buffer []byte, offset, count int) error {
	_, err := s.write(buffer, offset, count)
	return err
}

func (s *Stream) write(buffer []byte, offset, count int) (int, error) {
	if err := checkRange("write", buffer, offset, count); err != nil {
		return 0, err
	}

	if err := s.resolveChain(); err != nil {
		return 0, err
	}
	if !s.resolved {
		log.Debug("write to a file without clusters ignored", log.Fields{
			log.FieldSize: s.file.Size,
		})
		return 0, nil
	}

	clusterSize := int64(s.volume.ClusterSize())
	scratch := s.scratchBuffer()

	written := 0
	for count > 0 {
		index := s.position / clusterSize
		inCluster := s.position % clusterSize

		fresh := false
		for index >= int64(len(s.chain)) {
			if err := s.grow(); err != nil {
				return written, err
			}
			fresh = true
		}

		n := clusterSize - inCluster
		if n > int64(count) {
			n = int64(count)
		}

		if fresh {
			// Already zeroed on disk, the buffer may still hold the last cluster.
			for i := range scratch {
				scratch[i] = 0
			}
		} else if n < clusterSize {
			if err := s.volume.ReadCluster(s.chain[index], scratch); err != nil {
				return written, checkpoint.Wrap(err, ErrWriteStream)
			}
		}

		copy(scratch[inCluster:], buffer[offset:offset+int(n)])

		if err := s.volume.WriteCluster(s.chain[index], scratch); err != nil {
			return written, checkpoint.Wrap(err, ErrWriteStream)
		}

		count -= int(n)
		offset += int(n)
		written += int(n)
		s.position += n
	}

	if !s.ignoreSize && written > 0 && s.position > s.file.Size {
		log.Debug("file grew", log.Fields{
			log.FieldSize: s.position,
		})

		s.file.Size = s.position
		if s.file.Parent != nil {
			if err := s.file.Parent.PersistListing(); err != nil {
				return written, checkpoint.Wrap(err, ErrWriteStream)
			}
		}
	}

	return written, nil
}

// grow appends one zeroed cluster to the chain and links it in the
// allocation table.
func (s *Stream) grow() error {
	last := s.file.FirstCluster
	if len(s.chain) > 0 {
		last = s.chain[len(s.chain)-1]
	}

	next, err := s.volume.NextFreeCluster(last)
	if err != nil {
		return checkpoint.Wrap(err, ErrWriteStream)
	}

	if err := s.volume.WriteCluster(next, nil); err != nil {
		return checkpoint.Wrap(err, ErrWriteStream)
	}

	if len(s.chain) > 0 {
		if err := s.volume.SetChainEntry(last, next); err != nil {
			return checkpoint.Wrap(err, ErrWriteStream)
		}
	}

	if err := s.volume.SetChainEntry(next, s.volume.EOFMarker()); err != nil {
		return checkpoint.Wrap(err, ErrWriteStream)
	}

	s.chain = append(s.chain, next)
	if len(s.chain) == 1 {
		s.file.FirstCluster = next
	}

	log.Debug("cluster appended", log.Fields{
		log.FieldCluster: next,
		log.FieldChain:   len(s.chain),
	})
	return nil
}

// Read implements io.Reader. It returns io.EOF if nothing is left to read.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n, err := s.ReadBuffer(p, 0, len(p))
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer. Writing to a file without any cluster results
// in io.ErrShortWrite.
func (s *Stream) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n, err := s.write(p, 0, len(p))
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Seek implements io.Seeker. io.SeekEnd is relative to the effective size.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = s.position + offset
	case io.SeekEnd:
		size, err := s.EffectiveSize()
		if err != nil {
			return 0, err
		}
		offset = size + offset
	default:
		return 0, argumentError("invalid whence %d", whence)
	}

	if err := s.SetPosition(offset); err != nil {
		return 0, err
	}
	return offset, nil
}
