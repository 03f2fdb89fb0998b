package dice

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// IntSeq is either a single integer or an ordered sequence of integers. It is
// the canonical form of block lengths and axis selections. A scalar broadcasts
// across every selected axis; a sequence pairs one value with each axis.
type IntSeq struct {
	vals   []int
	scalar bool
}

// Scalar returns a single-integer IntSeq
func Scalar(n int) IntSeq {
	return IntSeq{vals: []int{n}, scalar: true}
}

// PerAxis returns an IntSeq holding ns in order
func PerAxis(ns ...int) IntSeq {
	return IntSeq{vals: append([]int(nil), ns...)}
}

// Ints is PerAxis for any integer type
func Ints[T constraints.Integer](ns ...T) IntSeq {
	vals := make([]int, len(ns))
	for i, n := range ns {
		vals[i] = int(n)
	}
	return IntSeq{vals: vals}
}

// Values returns a copy of the integers in s
func (s IntSeq) Values() []int {
	return append([]int(nil), s.vals...)
}

func (s IntSeq) Len() int { return len(s.vals) }

func (s IntSeq) IsScalar() bool { return s.scalar }

func (s IntSeq) String() string {
	if s.scalar {
		return strconv.Itoa(s.vals[0])
	}
	strs := make([]string, len(s.vals))
	for i, v := range s.vals {
		strs[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(strs, ", ") + "]"
}

// elementer is implemented by arrays that can hand their values to Normalize
type elementer interface {
	Shape() []int
	elements() []any
}

// Normalize converts an untyped value into an IntSeq. It accepts, in order of
// precedence: a non-empty Go slice or array, or a rank-1 NDArray, whose
// elements are all integers; a set, meaning a non-empty map of integer keys to
// struct{} or bool, whose keys come back sorted; a rank-0 NDArray holding an
// integer; an integer. json.Number values count as integers when they parse as
// one. Booleans, floats and strings are never integers.
func Normalize(x any) (IntSeq, error) {
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return IntSeq{}, fmt.Errorf("%w: got nil %T", ErrInvalidInput, x)
	}

	switch v := x.(type) {
	case IntSeq:
		return v, nil
	case elementer:
		shape := v.Shape()
		switch {
		case len(shape) == 1 && shape[0] > 0:
			return seqOf(v.elements())
		case len(shape) == 0:
			el := v.elements()[0]
			n, ok := toInt(el)
			if !ok {
				return IntSeq{}, fmt.Errorf("%w: 0-d array holds %T", ErrInvalidElement, el)
			}
			return Scalar(n), nil
		}
		return IntSeq{}, fmt.Errorf("%w: got array of shape %v", ErrInvalidInput, shape)
	}

	switch {
	case (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() > 0:
		els := make([]any, rv.Len())
		for i := range els {
			els[i] = rv.Index(i).Interface()
		}
		return seqOf(els)
	case rv.Kind() == reflect.Map && isSet(rv.Type()) && rv.Len() > 0:
		return setOf(rv)
	}

	if n, ok := toInt(x); ok {
		return Scalar(n), nil
	}
	return IntSeq{}, fmt.Errorf("%w: got %T", ErrInvalidInput, x)
}

func seqOf(els []any) (IntSeq, error) {
	vals := make([]int, len(els))
	for i, el := range els {
		n, ok := toInt(el)
		if !ok {
			return IntSeq{}, fmt.Errorf("%w: element %d is %T", ErrInvalidElement, i, el)
		}
		vals[i] = n
	}
	return IntSeq{vals: vals}, nil
}

// isSet reports whether t is a map used as a set
func isSet(t reflect.Type) bool {
	if t.Kind() != reflect.Map {
		return false
	}
	elem := t.Elem()
	return elem.Kind() == reflect.Bool || (elem.Kind() == reflect.Struct && elem.NumField() == 0)
}

// setOf collects the members of a set. A bool-valued set holds only the keys
// mapped to true.
func setOf(rv reflect.Value) (IntSeq, error) {
	vals := make([]int, 0, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		if v := it.Value(); v.Kind() == reflect.Bool && !v.Bool() {
			continue
		}
		n, ok := toInt(it.Key().Interface())
		if !ok {
			return IntSeq{}, fmt.Errorf("%w: set member is %s", ErrInvalidElement, it.Key().Type())
		}
		vals = append(vals, n)
	}
	if len(vals) == 0 {
		return IntSeq{}, fmt.Errorf("%w: empty set", ErrInvalidInput)
	}
	slices.Sort(vals)
	return IntSeq{vals: vals}, nil
}

func toInt(x any) (int, bool) {
	switch v := x.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil || n > math.MaxInt || n < math.MinInt {
			return 0, false
		}
		return int(n), true
	case float16.Float16:
		// uint16 underneath, but a float
		return 0, false
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt {
			return 0, false
		}
		return int(u), true
	}
	return 0, false
}
