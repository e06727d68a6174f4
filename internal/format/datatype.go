package format

import (
	"fmt"

	"github.com/robert-malhotra/go-spectra/internal/binary"
)

// Class is a datatype class.
type Class uint8

// Datatype classes in the supported subset.
const (
	ClassFixedPoint Class = 0
	ClassFloat      Class = 1
	ClassString     Class = 3
	ClassEnum       Class = 8
)

func (c Class) String() string {
	switch c {
	case ClassFixedPoint:
		return "integer"
	case ClassFloat:
		return "float"
	case ClassString:
		return "string"
	case ClassEnum:
		return "enum"
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// EnumMember is one named value of an enumeration type.
type EnumMember struct {
	Name  string
	Value int64
}

// Datatype describes the element type of a dataset or attribute.
// All numeric types are little-endian.
type Datatype struct {
	Class   Class
	Size    uint32
	Signed  bool
	Base    *Datatype
	Members []EnumMember
}

// IntType returns a fixed-point type of size bytes.
func IntType(size uint32, signed bool) *Datatype {
	return &Datatype{Class: ClassFixedPoint, Size: size, Signed: signed}
}

// FloatType returns an IEEE 754 type of 4 or 8 bytes.
func FloatType(size uint32) *Datatype {
	return &Datatype{Class: ClassFloat, Size: size}
}

// StringType returns a fixed-length, null-terminated ASCII string type.
func StringType(size uint32) *Datatype {
	if size == 0 {
		size = 1
	}
	return &Datatype{Class: ClassString, Size: size}
}

// EnumType returns an enumeration over an integer base type.
func EnumType(base *Datatype, members []EnumMember) *Datatype {
	return &Datatype{Class: ClassEnum, Size: base.Size, Base: base, Members: members}
}

// Type implements Message.
func (*Datatype) Type() MessageType { return MsgDatatype }

// Encode implements Message.
func (dt *Datatype) Encode(w *binary.Writer) error {
	version := uint8(1)
	if dt.Class == ClassEnum {
		// Version 3 stores member names without padding
		version = 3
	}
	if err := w.WriteUint8(uint8(dt.Class) | version<<4); err != nil {
		return err
	}
	if err := w.WriteUintN(uint64(dt.classBits()), 3); err != nil {
		return err
	}
	if err := w.WriteUint32(dt.Size); err != nil {
		return err
	}

	switch dt.Class {
	case ClassFixedPoint:
		// Bit offset, bit precision
		if err := w.WriteUint16(0); err != nil {
			return err
		}
		return w.WriteUint16(uint16(dt.Size * 8))
	case ClassFloat:
		return w.WriteBytes(floatProperties(dt.Size))
	case ClassString:
		return nil
	case ClassEnum:
		if dt.Base == nil {
			return fmt.Errorf("%w: enum without base type", ErrUnsupported)
		}
		if err := dt.Base.Encode(w); err != nil {
			return err
		}
		for _, m := range dt.Members {
			if err := w.WriteBytes(append([]byte(m.Name), 0)); err != nil {
				return err
			}
		}
		for _, m := range dt.Members {
			if err := w.WriteUintN(uint64(m.Value), int(dt.Base.Size)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: datatype class %s", ErrUnsupported, dt.Class)
}

func (dt *Datatype) classBits() uint32 {
	switch dt.Class {
	case ClassFixedPoint:
		if dt.Signed {
			return 0x08
		}
	case ClassFloat:
		// Implied mantissa MSB, sign bit location
		return 0x20 | (dt.Size*8-1)<<8
	case ClassEnum:
		return uint32(len(dt.Members))
	}
	return 0
}

func floatProperties(size uint32) []byte {
	if size == 4 {
		return []byte{0, 0, 32, 0, 23, 8, 0, 23, 127, 0, 0, 0}
	}
	return []byte{0, 0, 64, 0, 52, 11, 0, 52, 0xff, 0x03, 0, 0}
}

// DecodeDatatype parses a datatype message at r's position.
func DecodeDatatype(r *binary.Reader) (*Datatype, error) {
	head, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	bits, err := r.ReadUintN(3)
	if err != nil {
		return nil, err
	}
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	class, version := Class(head&0x0f), head>>4
	if bits&0x01 != 0 && (class == ClassFixedPoint || class == ClassFloat) {
		return nil, fmt.Errorf("%w: big-endian %s", ErrUnsupported, class)
	}
	dt := &Datatype{Class: class, Size: uint32(size)}

	switch class {
	case ClassFixedPoint:
		dt.Signed = bits&0x08 != 0
		r.Skip(4)
	case ClassFloat:
		r.Skip(12)
	case ClassString:
	case ClassEnum:
		if dt.Base, err = DecodeDatatype(r); err != nil {
			return nil, err
		}
		n := int(bits & 0xffff)
		dt.Members = make([]EnumMember, n)
		for i := range dt.Members {
			if dt.Members[i].Name, err = readCString(r, version < 3); err != nil {
				return nil, err
			}
		}
		for i := range dt.Members {
			v, err := r.ReadUintN(int(dt.Base.Size))
			if err != nil {
				return nil, err
			}
			dt.Members[i].Value = signExtend(v, int(dt.Base.Size), dt.Base.Signed)
		}
	default:
		return nil, fmt.Errorf("%w: datatype class %s", ErrUnsupported, class)
	}
	return dt, nil
}

// readCString reads a null-terminated string, optionally padded to 8 bytes.
func readCString(r *binary.Reader, padded bool) (string, error) {
	start := r.Pos()
	var name []byte
	for {
		b, err := r.ReadUint8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		name = append(name, b)
	}
	if padded {
		if n := (r.Pos() - start) % 8; n != 0 {
			r.Skip(8 - n)
		}
	}
	return string(name), nil
}

func signExtend(v uint64, size int, signed bool) int64 {
	if !signed || size >= 8 {
		return int64(v)
	}
	shift := uint(64 - 8*size)
	return int64(v<<shift) >> shift
}
