package fatstream

import (
	"errors"
	"fmt"

	"github.com/aligator/fatstream/checkpoint"
)

// These errors may occur while processing a stream.
var (
	// ErrArgument is returned for negative counts, offsets or positions and
	// for buffers which are too small. Nothing is changed in that case.
	ErrArgument = errors.New("invalid argument")
	// ErrState is returned if a stream is created without a file or volume.
	ErrState = errors.New("invalid stream state")

	ErrResolveChain = errors.New("could not resolve the cluster chain")
	ErrReadStream   = errors.New("could not read the stream")
	ErrWriteStream  = errors.New("could not write the stream")
	// ErrShortChain means the chain ends before the recorded file size.
	ErrShortChain = errors.New("cluster chain is shorter than the file")
)

func argumentError(format string, a ...interface{}) error {
	return checkpoint.Wrap(fmt.Errorf(format, a...), ErrArgument)
}

// checkRange validates the buffer arguments of a read or write.
func checkRange(op string, buffer []byte, offset, count int) error {
	switch {
	case count < 0:
		return argumentError("%s: count %d must not be negative", op, count)
	case offset < 0:
		return argumentError("%s: offset %d must not be negative", op, offset)
	case buffer == nil:
		return argumentError("%s: buffer must not be nil", op)
	case len(buffer)-offset < count:
		return argumentError("%s: buffer of length %d is too short for offset %d and count %d", op, len(buffer), offset, count)
	}
	return nil
}
