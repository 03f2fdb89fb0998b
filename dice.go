// Package dice partitions N-dimensional arrays into regular grids of
// contiguous blocks, and stores arrays as zarr v2 chunk grids built the same
// way.
package dice

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

var (
	// ErrInvalidInput means a length or axis argument is neither an integer nor
	// a 1-D sequence of integers
	ErrInvalidInput = errors.New("input must be an integer or a 1-D sequence of integers")
	// ErrInvalidElement means a sequence argument holds a non-integer
	ErrInvalidElement = errors.New("each element of input must be an integer")
	// ErrCardinalityMismatch means the count of block lengths is neither one nor
	// the count of dicing dimensions
	ErrCardinalityMismatch = errors.New("length must be a single integer or one integer per dicing dimension")
	ErrDimensionOutOfRange = errors.New("dimension out of range")
	ErrDuplicateAxis       = errors.New("duplicate dicing dimension")
	ErrInvalidLength       = errors.New("block length must be positive")
)

// Array is anything that can be diced: it reports its shape, produces views
// of rectangular regions, and copies itself into independent storage.
type Array[A any] interface {
	Shape() []int
	View(ranges ...Range) (A, error)
	Clone() A
}

// Option configures Plan, Slices and Dice
type Option func(*options)

type options struct {
	dims    *IntSeq
	noClone bool
}

// Dims selects the axes to dice. Axes not selected keep their full extent.
// The order of dims sets the enumeration order of blocks: the last listed
// axis varies fastest. By default every axis is diced in ascending order.
func Dims(dims IntSeq) Option {
	return func(o *options) {
		o.dims = &dims
	}
}

// NoClone makes Dice return views that share storage with the source array.
// Writing to such a block writes to the source.
func NoClone() Option {
	return func(o *options) {
		o.noClone = true
	}
}

func collect(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Grid is the layout of blocks over an array shape
type Grid struct {
	// Shape of the diced array.
	Shape []int
	// Diced axes, in enumeration order.
	Dims []int
	// Block length per dimension. Axes that are not diced hold their extent.
	Lengths []int
	// Number of blocks per dimension.
	Counts []int
	// Per dimension, the ranges of every block along it.
	Boundaries [][]Range
}

// Plan lays out a grid of blocks over shape. length is either one value,
// used on every diced axis, or one value per diced axis in Dims order. The
// last block along an axis is shorter when length doesn't divide its extent.
func Plan(shape []int, length IntSeq, opts ...Option) (*Grid, error) {
	o := collect(opts)
	rank := len(shape)
	for d, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative extent %d at dimension %d", ErrInvalidInput, n, d)
		}
	}

	dims := make([]int, rank)
	for d := range dims {
		dims[d] = d
	}
	if o.dims != nil {
		if o.dims.Len() == 0 {
			return nil, fmt.Errorf("%w: no dicing dimensions", ErrInvalidInput)
		}
		dims = o.dims.Values()
	}
	seen := make([]bool, rank)
	for _, d := range dims {
		if d < 0 || d >= rank {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrDimensionOutOfRange, d, rank)
		}
		if seen[d] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateAxis, d)
		}
		seen[d] = true
	}

	lens := length.Values()
	if len(lens) == 0 {
		return nil, fmt.Errorf("%w: no block length", ErrInvalidInput)
	}
	if len(lens) != 1 && len(lens) != len(dims) {
		return nil, fmt.Errorf("%w: %d lengths for %d dimensions", ErrCardinalityMismatch, len(lens), len(dims))
	}
	for _, l := range lens {
		if l <= 0 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, l)
		}
	}

	g := &Grid{
		Shape:      slices.Clone(shape),
		Dims:       dims,
		Lengths:    slices.Clone(shape),
		Counts:     make([]int, rank),
		Boundaries: make([][]Range, rank),
	}
	for i, d := range dims {
		if len(lens) == 1 {
			g.Lengths[d] = lens[0]
		} else {
			g.Lengths[d] = lens[i]
		}
	}

	for d := 0; d < rank; d++ {
		n, l := 0, g.Lengths[d]
		if shape[d] > 0 {
			n = (shape[d]-1)/l + 1
		}
		bounds := make([]Range, n)
		for i := range bounds {
			start := i * l
			bounds[i] = Range{Start: start, Stop: start + min(l, shape[d]-start)}
		}
		g.Counts[d] = n
		g.Boundaries[d] = bounds
	}
	return g, nil
}

// Len is the total number of blocks
func (g *Grid) Len() int {
	n := 1
	for _, c := range g.Counts {
		n *= c
	}
	return n
}

// order lists every dimension so the fastest varying comes last. Dimensions
// that aren't diced have at most one block and go first.
func (g *Grid) order() []int {
	order := make([]int, 0, len(g.Shape))
	for d := range g.Shape {
		if !slices.Contains(g.Dims, d) {
			order = append(order, d)
		}
	}
	return append(order, g.Dims...)
}

// All iterates over every block of the grid with its position in the
// enumeration
func (g *Grid) All() iter.Seq2[int, Slice] {
	return func(yield func(int, Slice) bool) {
		n := g.Len()
		if n == 0 {
			return
		}
		order := g.order()
		coords := make([]int, len(g.Shape))
		for i := 0; i < n; i++ {
			if !yield(i, g.slice(coords)) {
				return
			}
			for k := len(order) - 1; k >= 0; k-- {
				d := order[k]
				coords[d]++
				if coords[d] < g.Counts[d] {
					break
				}
				coords[d] = 0
			}
		}
	}
}

func (g *Grid) slice(coords []int) Slice {
	s := Slice{
		Coords: slices.Clone(coords),
		Ranges: make([]Range, len(coords)),
	}
	for d, c := range coords {
		s.Ranges[d] = g.Boundaries[d][c]
	}
	return s
}

// Slices returns every block of the grid in enumeration order
func (g *Grid) Slices() []Slice {
	ss := make([]Slice, 0, g.Len())
	for _, s := range g.All() {
		ss = append(ss, s)
	}
	return ss
}

// Slices plans a grid over shape and returns its block descriptors without
// touching any data
func Slices(shape []int, length IntSeq, opts ...Option) ([]Slice, error) {
	g, err := Plan(shape, length, opts...)
	if err != nil {
		return nil, err
	}
	return g.Slices(), nil
}

// Dice cuts a into blocks of the given length. Blocks own their storage
// unless NoClone is passed, in which case they are views into a.
func Dice[A Array[A]](a A, length IntSeq, opts ...Option) ([]A, error) {
	o := collect(opts)
	g, err := Plan(a.Shape(), length, opts...)
	if err != nil {
		return nil, err
	}

	blocks := make([]A, 0, g.Len())
	for _, s := range g.All() {
		b, err := a.View(s.Ranges...)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", s, err)
		}
		if !o.noClone {
			b = b.Clone()
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
