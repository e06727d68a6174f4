package format

import (
	"fmt"

	"github.com/robert-malhotra/go-spectra/internal/binary"
)

// Unlimited marks a dimension without an upper bound.
const Unlimited = ^uint64(0)

// Dataspace describes the extent of a dataset or attribute.
// A dataspace with no dimensions is scalar.
type Dataspace struct {
	Dims    []uint64
	MaxDims []uint64
}

// Elements returns the number of elements in the dataspace.
func (ds *Dataspace) Elements() uint64 {
	n := uint64(1)
	for _, d := range ds.Dims {
		n *= d
	}
	return n
}

// Type implements Message.
func (*Dataspace) Type() MessageType { return MsgDataspace }

// Encode implements Message.
func (ds *Dataspace) Encode(w *binary.Writer) error {
	var flags, kind uint8
	if ds.MaxDims != nil {
		flags = 0x01
	}
	if len(ds.Dims) > 0 {
		kind = 1
	}
	if err := w.WriteBytes([]byte{2, uint8(len(ds.Dims)), flags, kind}); err != nil {
		return err
	}
	for _, d := range ds.Dims {
		if err := w.WriteLength(d); err != nil {
			return err
		}
	}
	for _, d := range ds.MaxDims {
		if err := w.WriteLength(d); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDataspace parses a version 1 or 2 dataspace message.
func DecodeDataspace(r *binary.Reader) (*Dataspace, error) {
	head, err := r.ReadBytes(3)
	if err != nil {
		return nil, err
	}
	version, rank, flags := head[0], int(head[1]), head[2]
	switch version {
	case 1:
		// Reserved byte and reserved word
		r.Skip(5)
	case 2:
		kind, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if kind == 2 {
			return &Dataspace{Dims: []uint64{0}}, nil
		}
	default:
		return nil, fmt.Errorf("%w: dataspace version %d", ErrUnsupportedVersion, version)
	}

	ds := &Dataspace{}
	if rank > 0 {
		ds.Dims = make([]uint64, rank)
		for i := range ds.Dims {
			if ds.Dims[i], err = r.ReadLength(); err != nil {
				return nil, err
			}
		}
	}
	if flags&0x01 != 0 {
		ds.MaxDims = make([]uint64, rank)
		for i := range ds.MaxDims {
			if ds.MaxDims[i], err = r.ReadLength(); err != nil {
				return nil, err
			}
		}
	}
	return ds, nil
}
