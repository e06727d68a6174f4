package format

import (
	"fmt"

	"github.com/robert-malhotra/go-spectra/internal/binary"
)

// Layout classes.
const (
	LayoutCompact    uint8 = 0
	LayoutContiguous uint8 = 1
)

// Layout is a version 3 data layout message.
type Layout struct {
	Class   uint8
	Address uint64
	Size    uint64
	// Compact holds the raw data of a compact layout.
	Compact []byte
}

// Type implements Message.
func (*Layout) Type() MessageType { return MsgLayout }

// Encode writes a contiguous layout.
func (l *Layout) Encode(w *binary.Writer) error {
	if err := w.WriteBytes([]byte{3, LayoutContiguous}); err != nil {
		return err
	}
	if err := w.WriteOffset(l.Address); err != nil {
		return err
	}
	return w.WriteLength(l.Size)
}

// DecodeLayout parses a version 3 layout message.
func DecodeLayout(r *binary.Reader) (*Layout, error) {
	head, err := r.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	if head[0] != 3 {
		return nil, fmt.Errorf("%w: layout version %d", ErrUnsupportedVersion, head[0])
	}
	l := &Layout{Class: head[1]}
	switch l.Class {
	case LayoutCompact:
		n, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		l.Size = uint64(n)
		if l.Compact, err = r.ReadBytes(int(n)); err != nil {
			return nil, err
		}
	case LayoutContiguous:
		if l.Address, err = r.ReadOffset(); err != nil {
			return nil, err
		}
		if l.Size, err = r.ReadLength(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: chunked or virtual layout", ErrUnsupported)
	}
	return l, nil
}

// FillValue is a version 3 fill value message with no value defined.
type FillValue struct{}

// Type implements Message.
func (FillValue) Type() MessageType { return MsgFillValue }

// Encode implements Message.
func (FillValue) Encode(w *binary.Writer) error {
	// Late allocation, write fill value only if set
	return w.WriteBytes([]byte{3, 0x0A})
}
