package hdf5

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-spectra/internal/format"
)

// Unlimited marks a dimension that may grow without bound.
const Unlimited = format.Unlimited

// Shape is the extent of a dataset: its rank, current dimensions and
// maximum dimensions.
type Shape struct {
	dims []uint64
	max  []uint64
}

// NewShape returns a fixed shape with the given dimensions.
func NewShape(dims ...uint64) Shape {
	d := append([]uint64(nil), dims...)
	return Shape{dims: d, max: append([]uint64(nil), d...)}
}

// NewExtendableShape returns a shape whose dimensions may grow up to max.
// Use Unlimited for unbounded dimensions.
func NewExtendableShape(dims, max []uint64) (Shape, error) {
	if len(dims) != len(max) {
		return Shape{}, fmt.Errorf("%w: rank %d with %d max dims", ErrOutOfRange, len(dims), len(max))
	}
	for i := range dims {
		if max[i] != Unlimited && dims[i] > max[i] {
			return Shape{}, fmt.Errorf("%w: dim %d is %d, max %d", ErrOutOfRange, i, dims[i], max[i])
		}
	}
	return Shape{dims: append([]uint64(nil), dims...), max: append([]uint64(nil), max...)}, nil
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int { return len(s.dims) }

// Dims returns a copy of the current dimensions.
func (s Shape) Dims() []uint64 { return append([]uint64(nil), s.dims...) }

// MaxDims returns a copy of the maximum dimensions.
func (s Shape) MaxDims() []uint64 { return append([]uint64(nil), s.max...) }

// Elements returns the number of elements in the current extent.
func (s Shape) Elements() uint64 {
	n := uint64(1)
	for _, d := range s.dims {
		n *= d
	}
	return n
}

// Extendable reports whether any dimension may grow.
func (s Shape) Extendable() bool {
	for i := range s.dims {
		if s.max[i] != s.dims[i] {
			return true
		}
	}
	return false
}

// Contains reports whether the block at start with the given count lies
// inside the current extent.
func (s Shape) Contains(start, count []uint64) bool {
	return s.fits(start, count, s.dims)
}

// CanContain reports whether the block lies inside the maximum extent.
func (s Shape) CanContain(start, count []uint64) bool {
	return s.fits(start, count, s.max)
}

func (s Shape) fits(start, count, bound []uint64) bool {
	if len(start) != len(s.dims) || len(count) != len(s.dims) {
		return false
	}
	for i := range start {
		if bound[i] == Unlimited {
			continue
		}
		if start[i] > bound[i] || count[i] > bound[i]-start[i] {
			return false
		}
	}
	return true
}

// extended returns a shape grown to cover the block.
func (s Shape) extended(start, count []uint64) Shape {
	out := Shape{dims: s.Dims(), max: s.MaxDims()}
	for i := range out.dims {
		if end := start[i] + count[i]; end > out.dims[i] {
			out.dims[i] = end
		}
	}
	return out
}

// offset returns the row-major linear index of idx.
func (s Shape) offset(idx []uint64) uint64 {
	var off uint64
	for i, v := range idx {
		off = off*s.dims[i] + v
	}
	return off
}

func (s Shape) dataspace() *format.Dataspace {
	ds := &format.Dataspace{Dims: s.Dims()}
	if s.Extendable() {
		ds.MaxDims = s.MaxDims()
	}
	return ds
}

func (s Shape) String() string {
	parts := make([]string, len(s.dims))
	for i, d := range s.dims {
		parts[i] = fmt.Sprint(d)
		if s.max[i] == Unlimited {
			parts[i] += "/inf"
		} else if s.max[i] != d {
			parts[i] += fmt.Sprintf("/%d", s.max[i])
		}
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// forEach calls fn for every index of a block of the given count, in
// row-major order. The slice passed to fn is reused.
func forEach(count []uint64, fn func(idx []uint64)) {
	for _, c := range count {
		if c == 0 {
			return
		}
	}
	idx := make([]uint64, len(count))
	for {
		fn(idx)
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < count[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
