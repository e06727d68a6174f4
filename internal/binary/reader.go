// Package binary provides low-level binary I/O shared by the HDF5 format
// engine and the fixed-size grid codecs.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidSize is returned when an invalid offset or length size is specified.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

// ErrShortRead is returned when fewer bytes than requested are available.
var ErrShortRead = errors.New("short read")

// Config holds reader and writer configuration.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int // 2, 4, or 8 bytes
	LengthSize int // 2, 4, or 8 bytes
}

// DefaultConfig returns little-endian byte order with 8-byte offsets and lengths.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// Validate checks that offset and length sizes are supported.
func (c Config) Validate() error {
	for _, s := range []int{c.OffsetSize, c.LengthSize} {
		if s != 2 && s != 4 && s != 8 {
			return fmt.Errorf("%w: got %d", ErrInvalidSize, s)
		}
	}
	return nil
}

// Reader reads fixed and variable-width values from an io.ReaderAt while
// tracking its own position.
type Reader struct {
	r   io.ReaderAt
	cfg Config
	pos int64
}

// NewReader creates a binary reader with the given configuration.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{r: r, cfg: cfg}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, cfg: r.cfg, pos: offset}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = fmt.Errorf("%w: wanted %d bytes at %d, got %d", ErrShortRead, n, r.pos, got)
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.cfg.ByteOrder.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.cfg.ByteOrder.Uint32(buf), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return r.cfg.ByteOrder.Uint64(buf), nil
}

// ReadUintN reads an unsigned integer of n bytes.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return decodeUint(r.cfg.ByteOrder, buf), nil
}

// ReadOffset reads a file offset using the configured offset size.
func (r *Reader) ReadOffset() (uint64, error) {
	return r.ReadUintN(r.cfg.OffsetSize)
}

// ReadLength reads a length value using the configured length size.
func (r *Reader) ReadLength() (uint64, error) {
	return r.ReadUintN(r.cfg.LengthSize)
}

// ReadUint16s reads n consecutive 16-bit words.
func (r *Reader) ReadUint16s(n int) ([]uint16, error) {
	buf, err := r.ReadBytes(2 * n)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = r.cfg.ByteOrder.Uint16(buf[2*i:])
	}
	return out, nil
}

// ReadUint32s reads n consecutive 32-bit words.
func (r *Reader) ReadUint32s(n int) ([]uint32, error) {
	buf, err := r.ReadBytes(4 * n)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = r.cfg.ByteOrder.Uint32(buf[4*i:])
	}
	return out, nil
}

// IsUndefinedOffset reports whether offset is the all-ones sentinel.
func (r *Reader) IsUndefinedOffset(offset uint64) bool {
	return offset == undefined(r.cfg.OffsetSize)
}

// Config returns the reader configuration.
func (r *Reader) Config() Config {
	return r.cfg
}

// decodeUint decodes a variable-width unsigned integer.
func decodeUint(order binary.ByteOrder, buf []byte) uint64 {
	switch len(buf) {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	case 8:
		return order.Uint64(buf)
	}
	// Non-standard widths are little-endian
	var val uint64
	for i := len(buf) - 1; i >= 0; i-- {
		val = (val << 8) | uint64(buf[i])
	}
	return val
}

func undefined(size int) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*size) - 1
}
