package hdf5

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"golang.org/x/exp/constraints"

	"github.com/robert-malhotra/go-spectra/internal/format"
)

// Number is any element type that maps to an HDF5 integer or float.
type Number interface {
	constraints.Integer | constraints.Float
}

// datatypeOf returns the little-endian HDF5 type for T.
func datatypeOf[T Number]() *format.Datatype {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		return format.IntType(1, true)
	case reflect.Uint8:
		return format.IntType(1, false)
	case reflect.Int16:
		return format.IntType(2, true)
	case reflect.Uint16:
		return format.IntType(2, false)
	case reflect.Int32:
		return format.IntType(4, true)
	case reflect.Uint32:
		return format.IntType(4, false)
	case reflect.Int, reflect.Int64:
		return format.IntType(8, true)
	case reflect.Float32:
		return format.FloatType(4)
	case reflect.Float64:
		return format.FloatType(8)
	}
	return format.IntType(8, false)
}

func encodeValues[T Number](vals []T) ([]byte, *format.Datatype) {
	dt := datatypeOf[T]()
	size := int(dt.Size)
	out := make([]byte, len(vals)*size)
	for i, v := range vals {
		b := out[i*size : (i+1)*size]
		switch {
		case dt.Class == format.ClassFloat && size == 4:
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		case dt.Class == format.ClassFloat:
			binary.LittleEndian.PutUint64(b, math.Float64bits(float64(v)))
		default:
			putUint(b, uint64(v))
		}
	}
	return out, dt
}

// decodeValues converts n stored elements of type dt into T.
func decodeValues[T Number](dt *format.Datatype, data []byte, n int) ([]T, error) {
	if dt.Class == format.ClassEnum {
		dt = dt.Base
	}
	size := int(dt.Size)
	if len(data) < n*size {
		return nil, fmt.Errorf("%w: %d bytes for %d elements of size %d", ErrOutOfRange, len(data), n, size)
	}
	out := make([]T, n)
	for i := range out {
		b := data[i*size : (i+1)*size]
		switch dt.Class {
		case format.ClassFloat:
			switch size {
			case 4:
				out[i] = T(math.Float32frombits(binary.LittleEndian.Uint32(b)))
			case 8:
				out[i] = T(math.Float64frombits(binary.LittleEndian.Uint64(b)))
			default:
				return nil, fmt.Errorf("%w: %d-byte float", ErrTypeMismatch, size)
			}
		case format.ClassFixedPoint:
			u := getUint(b)
			if dt.Signed {
				out[i] = T(signed(u, size))
			} else {
				out[i] = T(u)
			}
		default:
			return nil, fmt.Errorf("%w: cannot read %s as a number", ErrTypeMismatch, dt.Class)
		}
	}
	return out, nil
}

func putUint(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func signed(v uint64, size int) int64 {
	if size >= 8 {
		return int64(v)
	}
	shift := uint(64 - 8*size)
	return int64(v<<shift) >> shift
}
