package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-spectra/internal/format"
)

// Location is an object that carries attributes: a group or a dataset.
type Location struct {
	file *File
	node *node
	path string
}

// Attributed is implemented by *Group and *Dataset.
type Attributed interface {
	location() *Location
}

func (l *Location) location() *Location { return l }

// Name returns the last path component.
func (l *Location) Name() string {
	if l.path == "/" {
		return "/"
	}
	return path.Base(l.path)
}

// Path returns the absolute path.
func (l *Location) Path() string {
	return l.path
}

// File returns the owning file.
func (l *Location) File() *File {
	return l.file
}

// Attrs returns attribute names in storage order.
func (l *Location) Attrs() []string {
	l.file.mu.Lock()
	defer l.file.mu.Unlock()
	names := make([]string, len(l.node.attrs))
	for i, a := range l.node.attrs {
		names[i] = a.Name
	}
	return names
}

// HasAttr reports whether the named attribute exists.
func (l *Location) HasAttr(name string) bool {
	l.file.mu.Lock()
	defer l.file.mu.Unlock()
	return l.node.attr(name) != nil
}

// RemoveAttr deletes an attribute if present.
func (l *Location) RemoveAttr(name string) error {
	if err := l.file.checkWritable("remove attribute", l.path); err != nil {
		return err
	}
	l.file.mu.Lock()
	defer l.file.mu.Unlock()
	l.node.removeAttr(name)
	return nil
}

// AttrInfo describes an attribute without decoding it.
type AttrInfo struct {
	Name  string
	Class string
	Dims  []uint64
}

// AttrInfos describes every attribute.
func (l *Location) AttrInfos() []AttrInfo {
	l.file.mu.Lock()
	defer l.file.mu.Unlock()
	out := make([]AttrInfo, len(l.node.attrs))
	for i, a := range l.node.attrs {
		out[i] = AttrInfo{Name: a.Name, Class: a.Dtype.Class.String(), Dims: a.Space.Dims}
	}
	return out
}

// WriteString stores a scalar fixed-length string attribute.
func (l *Location) WriteString(name, value string) error {
	data := append([]byte(value), 0)
	return l.put(&format.Attribute{
		Name:  name,
		Dtype: format.StringType(uint32(len(data))),
		Space: &format.Dataspace{},
		Data:  data,
	})
}

// ReadString reads a scalar string attribute.
func (l *Location) ReadString(name string) (string, error) {
	a, err := l.get(name)
	if err != nil {
		return "", err
	}
	if a.Dtype.Class != format.ClassString {
		return "", wrap("read attribute", l.path+"@"+name, fmt.Errorf("%w: %s is not a string", ErrTypeMismatch, a.Dtype.Class))
	}
	data := a.Data
	if len(data) > int(a.Dtype.Size) {
		data = data[:a.Dtype.Size]
	}
	for i, c := range data {
		if c == 0 {
			return string(data[:i]), nil
		}
	}
	return string(data), nil
}

func (l *Location) put(a *format.Attribute) error {
	if err := validName(a.Name); err != nil {
		return wrap("write attribute", l.path, err)
	}
	if err := l.file.checkWritable("write attribute", l.path+"@"+a.Name); err != nil {
		return err
	}
	l.file.mu.Lock()
	defer l.file.mu.Unlock()
	l.node.setAttr(a)
	return nil
}

func (l *Location) get(name string) (*format.Attribute, error) {
	l.file.mu.Lock()
	defer l.file.mu.Unlock()
	a := l.node.attr(name)
	if a == nil {
		return nil, wrap("read attribute", l.path+"@"+name, ErrNotFound)
	}
	return a, nil
}

// WriteAttr stores a scalar numeric attribute.
func WriteAttr[T Number](obj Attributed, name string, value T) error {
	data, dt := encodeValues([]T{value})
	return obj.location().put(&format.Attribute{Name: name, Dtype: dt, Space: &format.Dataspace{}, Data: data})
}

// WriteAttrSlice stores a one-dimensional numeric attribute.
func WriteAttrSlice[T Number](obj Attributed, name string, values []T) error {
	data, dt := encodeValues(values)
	space := &format.Dataspace{Dims: []uint64{uint64(len(values))}}
	return obj.location().put(&format.Attribute{Name: name, Dtype: dt, Space: space, Data: data})
}

// ReadAttr reads a scalar numeric attribute, converting to T.
func ReadAttr[T Number](obj Attributed, name string) (T, error) {
	vals, err := ReadAttrSlice[T](obj, name)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(vals) != 1 {
		var zero T
		return zero, wrap("read attribute", obj.location().path+"@"+name,
			fmt.Errorf("%w: %d elements, want scalar", ErrTypeMismatch, len(vals)))
	}
	return vals[0], nil
}

// ReadAttrSlice reads every element of a numeric attribute, converting to T.
func ReadAttrSlice[T Number](obj Attributed, name string) ([]T, error) {
	l := obj.location()
	a, err := l.get(name)
	if err != nil {
		return nil, err
	}
	vals, err := decodeValues[T](a.Dtype, a.Data, int(a.Space.Elements()))
	if err != nil {
		return nil, wrap("read attribute", l.path+"@"+name, err)
	}
	return vals, nil
}
