package format

import (
	"fmt"

	"github.com/robert-malhotra/go-spectra/internal/binary"
)

// Attribute is a compact attribute stored in an object header.
type Attribute struct {
	Name  string
	Dtype *Datatype
	Space *Dataspace
	Data  []byte
}

// Type implements Message.
func (*Attribute) Type() MessageType { return MsgAttribute }

// Encode writes a version 3 attribute message.
func (a *Attribute) Encode(w *binary.Writer) error {
	cfg := w.Config()
	dt, err := Marshal(cfg, a.Dtype)
	if err != nil {
		return err
	}
	ds, err := Marshal(cfg, a.Space)
	if err != nil {
		return err
	}
	// Version, flags
	if err := w.WriteBytes([]byte{3, 0}); err != nil {
		return err
	}
	for _, n := range []int{len(a.Name) + 1, len(dt), len(ds)} {
		if err := w.WriteUint16(uint16(n)); err != nil {
			return err
		}
	}
	// ASCII name encoding
	if err := w.WriteUint8(0); err != nil {
		return err
	}
	for _, part := range [][]byte{append([]byte(a.Name), 0), dt, ds, a.Data} {
		if err := w.WriteBytes(part); err != nil {
			return err
		}
	}
	return nil
}

// DecodeAttribute parses a version 1 or 3 attribute message.
func DecodeAttribute(r *binary.Reader) (*Attribute, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 && version != 3 {
		return nil, fmt.Errorf("%w: attribute version %d", ErrUnsupportedVersion, version)
	}
	// Flags or reserved
	r.Skip(1)
	sizes := make([]int, 3)
	for i := range sizes {
		n, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		sizes[i] = int(n)
	}
	pad := func(n int) int { return n }
	if version == 1 {
		pad = func(n int) int { return (n + 7) &^ 7 }
	} else {
		r.Skip(1)
	}

	name, err := r.ReadBytes(pad(sizes[0]))
	if err != nil {
		return nil, err
	}
	a := &Attribute{Name: string(trimNull(name))}

	start := r.Pos()
	if a.Dtype, err = DecodeDatatype(r); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	r = r.At(start + int64(pad(sizes[1])))

	start = r.Pos()
	if a.Space, err = DecodeDataspace(r); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	r = r.At(start + int64(pad(sizes[2])))

	if a.Data, err = r.ReadBytes(int(a.Space.Elements()) * int(a.Dtype.Size)); err != nil {
		return nil, fmt.Errorf("attribute %q data: %w", a.Name, err)
	}
	return a, nil
}

func trimNull(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
