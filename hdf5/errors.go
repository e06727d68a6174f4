// Package hdf5 is a small persistence wrapper over a pure Go HDF5 subset:
// files, groups, contiguous datasets and compact attributes, with shape
// checked hyperslab access and name-mapped enumerations.
package hdf5

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound     = errors.New("object not found")
	ErrExists       = errors.New("object already exists")
	ErrNotDataset   = errors.New("object is not a dataset")
	ErrNotGroup     = errors.New("object is not a group")
	ErrInvalidPath  = errors.New("invalid path")
	ErrClosed       = errors.New("file is closed")
	ErrReadOnly     = errors.New("file is read-only")
	ErrOutOfRange   = errors.New("selection out of range")
	ErrTypeMismatch = errors.New("datatype mismatch")
	ErrInvalidEnum  = errors.New("value is not an enum member")
	ErrLinkDepth    = errors.New("maximum link depth exceeded")
)

// MaxLinkDepth bounds group nesting when loading a file.
const MaxLinkDepth = 100

// Error carries any failure raised while reading or writing HDF5 structures,
// so callers only depend on this package's error type.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("hdf5: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("hdf5: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var he *Error
	if errors.As(err, &he) {
		return err
	}
	return &Error{Op: op, Path: path, Err: err}
}
