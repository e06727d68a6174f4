// Package spectrum accumulates histograms of detector hits. A Consumer owns
// one spectrum's Metadata and data; a Kind supplies the variant specific
// behavior (1D, loss-free 1D, 2D coincidence) and a Registry builds
// Consumers by type name, file extension, or serialized type tag.
package spectrum

import "errors"

var (
	// ErrTypeMismatch is returned when metadata or serialized data names a
	// different spectrum type than the consumer.
	ErrTypeMismatch = errors.New("spectrum type mismatch")
	// ErrUnsupportedFormat is returned for file formats a kind cannot read or write.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrPattern is returned when channel patterns select the wrong number of channels.
	ErrPattern = errors.New("invalid channel pattern")
	// ErrMalformed is returned when serialized spectrum data cannot be parsed.
	ErrMalformed = errors.New("malformed spectrum data")
	// ErrUnknownType is returned when no registered type matches.
	ErrUnknownType = errors.New("unknown spectrum type")
	// ErrNotInitialized is returned when an operation needs an initialized spectrum.
	ErrNotInitialized = errors.New("spectrum not initialized")
)
