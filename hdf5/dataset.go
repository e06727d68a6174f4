package hdf5

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-spectra/internal/format"
)

// Dataset is an n-dimensional array of fixed-size elements.
type Dataset struct {
	Location
}

// CreateDataset creates a zero-filled dataset of element type T under g.
func CreateDataset[T Number](g *Group, name string, shape Shape) (*Dataset, error) {
	where := joinPath(g.path, name)
	if err := validName(name); err != nil {
		return nil, wrap("create dataset", where, err)
	}
	if err := g.file.checkWritable("create dataset", where); err != nil {
		return nil, err
	}
	dt := datatypeOf[T]()
	g.file.mu.Lock()
	defer g.file.mu.Unlock()
	if g.node.child(name) != nil {
		return nil, wrap("create dataset", where, ErrExists)
	}
	n := &node{name: name, data: &datasetData{
		dtype: dt,
		shape: shape,
		raw:   make([]byte, shape.Elements()*uint64(dt.Size)),
	}}
	g.node.children = append(g.node.children, n)
	return &Dataset{Location{file: g.file, node: n, path: where}}, nil
}

// RequireDataset opens name if it exists with a compatible shape and
// element type, and creates it otherwise.
func RequireDataset[T Number](g *Group, name string, shape Shape) (*Dataset, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return CreateDataset[T](g, name, shape)
	}
	want := datatypeOf[T]()
	got := ds.node.data
	if got.dtype.Class != want.Class || got.dtype.Size != want.Size {
		return nil, wrap("require dataset", ds.path, fmt.Errorf("%w: stored %d-byte %s", ErrTypeMismatch, got.dtype.Size, got.dtype.Class))
	}
	if got.shape.Rank() != shape.Rank() {
		return nil, wrap("require dataset", ds.path, fmt.Errorf("%w: stored shape %s", ErrOutOfRange, got.shape))
	}
	return ds, nil
}

// Shape returns the current shape.
func (d *Dataset) Shape() Shape {
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	return d.node.data.shape
}

// Class returns the element type class name.
func (d *Dataset) Class() string {
	return d.node.data.dtype.Class.String()
}

// ElementSize returns the element size in bytes.
func (d *Dataset) ElementSize() int {
	return int(d.node.data.dtype.Size)
}

// Write replaces the whole dataset. len(data) must equal the number of elements.
func Write[T Number](d *Dataset, data []T) error {
	shape := d.Shape()
	start := make([]uint64, shape.Rank())
	return WriteSlab(d, start, shape.Dims(), data)
}

// Read returns every element in row-major order.
func Read[T Number](d *Dataset) ([]T, error) {
	shape := d.Shape()
	return ReadSlab[T](d, make([]uint64, shape.Rank()), shape.Dims())
}

// WriteSlab writes a block of count elements at start. Blocks reaching past
// the current extent grow an extendable dataset; blocks past its maximum
// extent fail with ErrOutOfRange.
func WriteSlab[T Number](d *Dataset, start, count []uint64, data []T) error {
	if err := d.file.checkWritable("write", d.path); err != nil {
		return err
	}
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	dd := d.node.data

	if !dd.shape.CanContain(start, count) {
		return wrap("write", d.path, fmt.Errorf("%w: start %v count %v in %s", ErrOutOfRange, start, count, dd.shape))
	}
	if n := product(count); uint64(len(data)) != n {
		return wrap("write", d.path, fmt.Errorf("%w: %d values for %d elements", ErrOutOfRange, len(data), n))
	}
	if !dd.shape.Contains(start, count) {
		dd.resize(dd.shape.extended(start, count))
	}

	stored, err := convertForStore(dd.dtype, data)
	if err != nil {
		return wrap("write", d.path, err)
	}
	size := uint64(dd.dtype.Size)
	abs := make([]uint64, len(start))
	var i uint64
	forEach(count, func(idx []uint64) {
		for k := range idx {
			abs[k] = start[k] + idx[k]
		}
		off := dd.shape.offset(abs) * size
		copy(dd.raw[off:off+size], stored[i*size:(i+1)*size])
		i++
	})
	return nil
}

// ReadSlab reads a block of count elements at start.
func ReadSlab[T Number](d *Dataset, start, count []uint64) ([]T, error) {
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	dd := d.node.data
	if !dd.shape.Contains(start, count) {
		return nil, wrap("read", d.path, fmt.Errorf("%w: start %v count %v in %s", ErrOutOfRange, start, count, dd.shape))
	}
	size := uint64(dd.dtype.Size)
	block := make([]byte, 0, product(count)*size)
	abs := make([]uint64, len(start))
	forEach(count, func(idx []uint64) {
		for k := range idx {
			abs[k] = start[k] + idx[k]
		}
		off := dd.shape.offset(abs) * size
		block = append(block, dd.raw[off:off+size]...)
	})
	vals, err := decodeValues[T](dd.dtype, block, int(product(count)))
	if err != nil {
		return nil, wrap("read", d.path, err)
	}
	return vals, nil
}

// ReadElement reads the single element at index.
func ReadElement[T Number](d *Dataset, index ...uint64) (T, error) {
	count := make([]uint64, len(index))
	for i := range count {
		count[i] = 1
	}
	vals, err := ReadSlab[T](d, index, count)
	if err != nil {
		var zero T
		return zero, err
	}
	return vals[0], nil
}

// convertForStore encodes data in the dataset's stored element type.
func convertForStore[T Number](dt *format.Datatype, data []T) ([]byte, error) {
	raw, src := encodeValues(data)
	if src.Class == dt.Class && src.Size == dt.Size && src.Signed == dt.Signed {
		return raw, nil
	}
	switch dt.Class {
	case format.ClassFloat:
		if dt.Size == 4 {
			vals, err := decodeValues[float32](src, raw, len(data))
			if err != nil {
				return nil, err
			}
			out, _ := encodeValues(vals)
			return out, nil
		}
		vals, err := decodeValues[float64](src, raw, len(data))
		if err != nil {
			return nil, err
		}
		out, _ := encodeValues(vals)
		return out, nil
	case format.ClassFixedPoint:
		vals, err := decodeValues[int64](src, raw, len(data))
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(vals)*int(dt.Size))
		for i, v := range vals {
			putUint(out[i*int(dt.Size):(i+1)*int(dt.Size)], uint64(v))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot store numbers as %s", ErrTypeMismatch, dt.Class)
}

// resize re-lays out the data for a larger extent.
func (dd *datasetData) resize(to Shape) {
	size := uint64(dd.dtype.Size)
	raw := make([]byte, to.Elements()*size)
	forEach(dd.shape.dims, func(idx []uint64) {
		from := dd.shape.offset(idx) * size
		dst := to.offset(idx) * size
		copy(raw[dst:dst+size], dd.raw[from:from+size])
	})
	dd.shape, dd.raw = to, raw
}

func product(vals []uint64) uint64 {
	n := uint64(1)
	for _, v := range vals {
		n *= v
	}
	return n
}

// CreateStringDataset creates a one-dimensional dataset of fixed-length,
// null-terminated strings holding values. The element width is the longest
// value plus its terminator.
func CreateStringDataset(g *Group, name string, values []string) (*Dataset, error) {
	where := joinPath(g.path, name)
	if err := validName(name); err != nil {
		return nil, wrap("create dataset", where, err)
	}
	if err := g.file.checkWritable("create dataset", where); err != nil {
		return nil, err
	}
	width := 1
	for _, v := range values {
		width = max(width, len(v)+1)
	}
	raw := make([]byte, len(values)*width)
	for i, v := range values {
		copy(raw[i*width:], v)
	}
	g.file.mu.Lock()
	defer g.file.mu.Unlock()
	if g.node.child(name) != nil {
		return nil, wrap("create dataset", where, ErrExists)
	}
	n := &node{name: name, data: &datasetData{
		dtype: format.StringType(uint32(width)),
		shape: NewShape(uint64(len(values))),
		raw:   raw,
	}}
	g.node.children = append(g.node.children, n)
	return &Dataset{Location{file: g.file, node: n, path: where}}, nil
}

// ReadStrings returns every element of a string dataset in row-major order.
func ReadStrings(d *Dataset) ([]string, error) {
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	dd := d.node.data
	if dd.dtype.Class != format.ClassString {
		return nil, wrap("read", d.path, fmt.Errorf("%w: %s is not a string", ErrTypeMismatch, dd.dtype.Class))
	}
	width := int(dd.dtype.Size)
	out := make([]string, dd.shape.Elements())
	for i := range out {
		elem := dd.raw[i*width : (i+1)*width]
		if end := bytes.IndexByte(elem, 0); end >= 0 {
			elem = elem[:end]
		}
		out[i] = string(elem)
	}
	return out, nil
}
