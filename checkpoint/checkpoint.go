// Package checkpoint decorates errors with the position of the code which
// returned them, which results in something similar to a stacktrace when an
// error travels through several layers of the driver.
// Every error added to a checkpoint can still be checked by errors.Is and
// retrieved by errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From wraps err by a checkpoint holding the caller position.
// It returns nil if err is nil.
func From(err error) error {
	if err == nil || isSentinelEOF(err) {
		return err
	}

	return newCheckpoint(err, nil, 2)
}

// Wrap adds a checkpoint to prev which is further described by err.
// It returns nil if prev is nil, which allows predefined errors to be
// attached unconditionally:
//  var ErrSectorUnreadable = errors.New("sector could not be read")
//
//  func readSector() error {
//  	err := disk.ReadSectors(...)
//  	return checkpoint.Wrap(err, ErrSectorUnreadable)
//  }
// Both errors.Is(err, ErrSectorUnreadable) and errors.Is(err, <the disk error>)
// hold for the result.
func Wrap(prev, err error) error {
	if prev == nil || isSentinelEOF(prev) {
		return prev
	}

	return newCheckpoint(prev, err, 2)
}

// Wrapf is like Wrap but builds the describing error from a format string.
// Use %w in the format to keep another sentinel matchable.
func Wrapf(prev error, format string, args ...interface{}) error {
	if prev == nil || isSentinelEOF(prev) {
		return prev
	}

	return newCheckpoint(prev, fmt.Errorf(format, args...), 2)
}

// io.EOF must be returned unwrapped.
// https://github.com/golang/go/issues/39155
func isSentinelEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

func newCheckpoint(prev, err error, skip int) *checkpoint {
	_, file, line, ok := runtime.Caller(skip)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "unknown"
	}

	return &checkpoint{
		err:  err,
		prev: prev,
		file: file,
		line: line,
	}
}

type checkpoint struct {
	// err describes the checkpoint, it may be nil when created by From.
	err  error
	prev error

	file string
	line int
}

func (e *checkpoint) location() string {
	if e.line == 0 {
		return e.file
	}
	return fmt.Sprintf("%s:%d", e.file, e.line)
}

func (e *checkpoint) Error() string {
	var b strings.Builder
	b.WriteString(e.location())
	if e.err != nil {
		b.WriteString(": ")
		b.WriteString(e.err.Error())
	}

	if _, ok := e.prev.(*checkpoint); ok {
		b.WriteString("\n")
		b.WriteString(e.prev.Error())
		return b.String()
	}

	b.WriteString("\n\t")
	b.WriteString(strings.ReplaceAll(e.prev.Error(), "\n", "\n\t"))
	return b.String()
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	if e.err == nil {
		return false
	}
	return errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	if e.err == nil {
		return false
	}
	return errors.As(e.err, target)
}
