// Package checkpoint decorates errors with the source location they passed
// through, which results in something similar to a stacktrace.
// Both the decorating error and the cause of a checkpoint can be checked by
// errors.Is and retrieved by errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
)

// From wraps err by a new checkpoint which only adds the caller location.
// It returns nil, if err == nil.
func From(err error) error {
	if err == nil || isPassthrough(err) {
		return err
	}

	return newCheckpoint(nil, err)
}

// Wrap adds a checkpoint to cause and describes it by err.
// Returns nil if cause == nil.
//
// This allows to predefine errors and to attach them to whatever went wrong
// below:
//  var ErrWriteStream = errors.New("could not write the stream")
//
//  func write() error {
//  	err := volume.WriteCluster(n, buf)
//  	return checkpoint.Wrap(err, ErrWriteStream)
//  }
// errors.Is(err, ErrWriteStream) is true afterwards, and so is errors.Is for
// the error returned by WriteCluster.
func Wrap(cause, err error) error {
	if cause == nil || isPassthrough(cause) {
		return cause
	}

	return newCheckpoint(err, cause)
}

// Location returns the source location of the outermost checkpoint in err.
func Location(err error) (file string, line int, ok bool) {
	var c *checkpoint
	if !errors.As(err, &c) || !c.callerOk {
		return "", 0, false
	}
	return c.file, c.line, true
}

// io.EOF and io.ErrUnexpectedEOF must be returned unchanged
// https://github.com/golang/go/issues/39155
func isPassthrough(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

type checkpoint struct {
	err   error
	cause error

	callerOk bool
	file     string
	line     int
}

func newCheckpoint(err, cause error) *checkpoint {
	// Skip newCheckpoint and the exported function calling it.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:      err,
		cause:    cause,
		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

func (c *checkpoint) Error() string {
	location := "unknown"
	if c.callerOk {
		location = fmt.Sprintf("%s:%d", c.file, c.line)
	}

	if c.err == nil {
		return fmt.Sprintf("%s: %v", location, c.cause)
	}
	return fmt.Sprintf("%s: %v: %v", location, c.err, c.cause)
}

func (c *checkpoint) Unwrap() error {
	return c.cause
}

func (c *checkpoint) Is(target error) bool {
	return c.err != nil && errors.Is(c.err, target)
}

func (c *checkpoint) As(target interface{}) bool {
	if c.err == nil {
		return false
	}
	return errors.As(c.err, target)
}
