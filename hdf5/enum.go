package hdf5

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/go-spectra/internal/format"
)

// EnumMember is one named value of an Enum.
type EnumMember = format.EnumMember

// Enum maps integer values to member names. Values are stored with the
// enumeration type attached, and read back by member name, so files stay
// readable when member values are renumbered.
type Enum struct {
	members []EnumMember
}

// NewEnum returns an enum numbering names from zero.
func NewEnum(names ...string) *Enum {
	e := &Enum{}
	for i, n := range names {
		e.members = append(e.members, EnumMember{Name: n, Value: int64(i)})
	}
	return e
}

// NewEnumMembers returns an enum with explicit values.
func NewEnumMembers(members ...EnumMember) *Enum {
	return &Enum{members: append([]EnumMember(nil), members...)}
}

// Name returns the member name for value.
func (e *Enum) Name(value int64) (string, bool) {
	for _, m := range e.members {
		if m.Value == value {
			return m.Name, true
		}
	}
	return "", false
}

// Value returns the value for a member name.
func (e *Enum) Value(name string) (int64, bool) {
	for _, m := range e.members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

func (e *Enum) datatype() *format.Datatype {
	base := format.IntType(1, true)
	for _, m := range e.members {
		if m.Value < math.MinInt8 || m.Value > math.MaxInt8 {
			base = format.IntType(4, true)
			break
		}
	}
	return format.EnumType(base, e.members)
}

// WriteEnum stores value as a scalar attribute of the enum type.
func (l *Location) WriteEnum(name string, e *Enum, value int64) error {
	if _, ok := e.Name(value); !ok {
		return wrap("write attribute", l.path+"@"+name, fmt.Errorf("%w: %d", ErrInvalidEnum, value))
	}
	dt := e.datatype()
	data := make([]byte, dt.Size)
	putUint(data, uint64(value))
	return l.put(&format.Attribute{Name: name, Dtype: dt, Space: &format.Dataspace{}, Data: data})
}

// ReadEnum reads an enum attribute and maps it by member name onto e.
func (l *Location) ReadEnum(name string, e *Enum) (int64, error) {
	a, err := l.get(name)
	if err != nil {
		return 0, err
	}
	where := l.path + "@" + name
	if a.Dtype.Class != format.ClassEnum {
		return 0, wrap("read attribute", where, fmt.Errorf("%w: %s is not an enum", ErrTypeMismatch, a.Dtype.Class))
	}
	raw, err := decodeValues[int64](a.Dtype, a.Data, 1)
	if err != nil {
		return 0, wrap("read attribute", where, err)
	}
	stored := NewEnumMembers(a.Dtype.Members...)
	member, ok := stored.Name(raw[0])
	if !ok {
		return 0, wrap("read attribute", where, fmt.Errorf("%w: stored value %d", ErrInvalidEnum, raw[0]))
	}
	v, ok := e.Value(member)
	if !ok {
		return 0, wrap("read attribute", where, fmt.Errorf("%w: unknown member %q", ErrInvalidEnum, member))
	}
	return v, nil
}
