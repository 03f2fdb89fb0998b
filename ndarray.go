package dice

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/dustin/go-humanize"
)

var (
	// ErrShapeMismatch means two arrays or an array and its data disagree on shape
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrOutOfBounds means a range reaches outside the array
	ErrOutOfBounds = errors.New("range out of bounds")
)

// NDArray is a strided N-dimensional array of T. Views created with View
// share the storage of the array they came from; Clone always copies.
type NDArray[T any] struct {
	data    []T
	shape   []int
	strides []int
	offset  int
}

var _ Array[*NDArray[int32]] = (*NDArray[int32])(nil)

// New allocates a zero-filled array. It panics on a negative dimension.
func New[T any](shape ...int) *NDArray[T] {
	size := 1
	for _, n := range shape {
		if n < 0 {
			panic(fmt.Sprintf("dice: negative dimension in shape %v", shape))
		}
		size *= n
	}
	return &NDArray[T]{
		data:    make([]T, size),
		shape:   slices.Clone(shape),
		strides: rowMajorStrides(shape),
	}
}

// FromSlice creates an array of the given shape holding a copy of data,
// which is read in row-major order
func FromSlice[T any](data []T, shape ...int) (*NDArray[T], error) {
	a := New[T](shape...)
	if len(data) != len(a.data) {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(data), shape)
	}
	copy(a.data, data)
	return a, nil
}

// ScalarOf creates a rank-0 array holding v
func ScalarOf[T any](v T) *NDArray[T] {
	return &NDArray[T]{data: []T{v}}
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= shape[d]
	}
	return strides
}

func (a *NDArray[T]) Shape() []int { return slices.Clone(a.shape) }

func (a *NDArray[T]) Rank() int { return len(a.shape) }

// Size is the number of elements
func (a *NDArray[T]) Size() int {
	n := 1
	for _, d := range a.shape {
		n *= d
	}
	return n
}

func (a *NDArray[T]) offsetOf(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("dice: %d indices for array of rank %d", len(idx), len(a.shape)))
	}
	off := a.offset
	for d, i := range idx {
		if i < 0 || i >= a.shape[d] {
			panic(fmt.Sprintf("dice: index %v out of range for shape %v", idx, a.shape))
		}
		off += i * a.strides[d]
	}
	return off
}

// At returns the element at idx. It panics if idx is out of range.
func (a *NDArray[T]) At(idx ...int) T {
	return a.data[a.offsetOf(idx)]
}

// Set stores v at idx. It panics if idx is out of range.
func (a *NDArray[T]) Set(v T, idx ...int) {
	a.data[a.offsetOf(idx)] = v
}

// View returns the region selected by one range per dimension. The view
// shares storage with a.
func (a *NDArray[T]) View(ranges ...Range) (*NDArray[T], error) {
	if len(ranges) != len(a.shape) {
		return nil, fmt.Errorf("%w: %d ranges for shape %v", ErrShapeMismatch, len(ranges), a.shape)
	}
	v := &NDArray[T]{
		data:    a.data,
		shape:   make([]int, len(ranges)),
		strides: slices.Clone(a.strides),
		offset:  a.offset,
	}
	for d, r := range ranges {
		if r.Start < 0 || r.Stop < r.Start || r.Stop > a.shape[d] {
			return nil, fmt.Errorf("%w: %s at dimension %d of shape %v", ErrOutOfBounds, r, d, a.shape)
		}
		v.shape[d] = r.Len()
		if r.Len() > 0 {
			v.offset += r.Start * a.strides[d]
		}
	}
	return v, nil
}

// each calls fn with the storage offset of every element, in row-major order
func (a *NDArray[T]) each(fn func(off int)) {
	n := a.Size()
	if n == 0 {
		return
	}
	rank := len(a.shape)
	idx := make([]int, rank)
	off := a.offset
	for i := 0; i < n; i++ {
		fn(off)
		for d := rank - 1; d >= 0; d-- {
			idx[d]++
			off += a.strides[d]
			if idx[d] < a.shape[d] {
				break
			}
			off -= idx[d] * a.strides[d]
			idx[d] = 0
		}
	}
}

// Values returns a row-major copy of the elements
func (a *NDArray[T]) Values() []T {
	vals := make([]T, 0, a.Size())
	a.each(func(off int) {
		vals = append(vals, a.data[off])
	})
	return vals
}

// Clone copies a into new contiguous storage
func (a *NDArray[T]) Clone() *NDArray[T] {
	return &NDArray[T]{
		data:    a.Values(),
		shape:   slices.Clone(a.shape),
		strides: rowMajorStrides(a.shape),
	}
}

// CopyFrom overwrites the elements of a with those of src, which must have
// the same shape
func (a *NDArray[T]) CopyFrom(src *NDArray[T]) error {
	if !slices.Equal(a.shape, src.shape) {
		return fmt.Errorf("%w: copying %v into %v", ErrShapeMismatch, src.shape, a.shape)
	}
	vals := src.Values()
	i := 0
	a.each(func(off int) {
		a.data[off] = vals[i]
		i++
	})
	return nil
}

// Fill sets every element to v
func (a *NDArray[T]) Fill(v T) {
	a.each(func(off int) {
		a.data[off] = v
	})
}

// IsContiguous reports whether the elements of a occupy one row-major run of
// its storage
func (a *NDArray[T]) IsContiguous() bool {
	return slices.Equal(a.strides, rowMajorStrides(a.shape)) || a.Size() <= 1
}

func (a *NDArray[T]) String() string {
	var zero T
	nbytes := uint64(a.Size()) * uint64(reflect.TypeOf(&zero).Elem().Size())
	return fmt.Sprintf("NDArray[%T]%v (%s)", zero, a.shape, humanize.Bytes(nbytes))
}

func (a *NDArray[T]) elements() []any {
	vals := a.Values()
	els := make([]any, len(vals))
	for i, v := range vals {
		els[i] = v
	}
	return els
}
