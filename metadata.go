package dice

import (
	"errors"
	"fmt"
)

// ErrInvalidMetadata means array metadata can't describe a chunk grid
var ErrInvalidMetadata = errors.New("invalid array metadata")

// ZarrFormat is the version of the storage specification this package writes
const ZarrFormat = 2

type MetaType string

const (
	// MTAttributes stores userland metadata keyed by array name
	MTAttributes MetaType = ".zattrs"
	// MTArray is the key for storing metadata on an array store
	MTArray MetaType = ".zarray"
)

// Attributes is the userland metadata of an array
type Attributes map[string]interface{}

// Each array requires essential configuration metadata to be stored,
// enabling correct interpretation of the stored data.
// This metadata is encoded using JSON and stored as the value of the
// “.zarray” key within an array store.
type ArrayMeta struct {
	// An integer defining the version of the storage specification to which
	// the array store adheres.
	ZarrFormat int `json:"zarr_format"`
	// A list of integers defining the length of each dimension of the array.
	Shape []int `json:"shape"`
	// A list of integers defining the length of each dimension of a chunk of the
	// array. Note that all chunks within a Zarr array have the same shape.
	Chunks []int `json:"chunks"`
	// The data type of the array.
	Dtype Dtype `json:"dtype"`
	// The primary compression codec, or null if no compressor is to be used.
	Compressor *CompressionMeta `json:"compressor"`

	// A scalar value providing the default value to use for uninitialized
	// portions of the array, or null if no fill_value is to be used.
	FillValue interface{} `json:"fill_value"`
	// Either “C” or “F”, defining the layout of bytes within each chunk of the
	// array. “C” means row-major order, i.e., the last dimension varies fastest;
	// “F” means column-major order, i.e., the first dimension varies fastest.
	// Only “C” is supported.
	Order string `json:"order"`
	// A list of JSON objects providing codec configurations, or null if no
	// filters are to be applied.
	Filters []Filter `json:"filters"`

	// optional fields

	// If present, either the string "." or "/" defining the separator placed
	// between the dimensions of a chunk. If the value is not set, then the
	// default MUST be assumed to be ".", leading to chunk keys of the form “0.0”.
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

func (m *ArrayMeta) MetaType() MetaType { return MTArray }

// Validate checks that m describes a chunk grid this package can read and write
func (m *ArrayMeta) Validate() error {
	if len(m.Chunks) != len(m.Shape) {
		return fmt.Errorf("%w: %d chunk lengths for shape %v", ErrInvalidMetadata, len(m.Chunks), m.Shape)
	}
	for d, n := range m.Shape {
		if n < 0 {
			return fmt.Errorf("%w: negative extent %d at dimension %d", ErrInvalidMetadata, n, d)
		}
		if m.Chunks[d] <= 0 {
			return fmt.Errorf("%w: chunk length %d at dimension %d", ErrInvalidMetadata, m.Chunks[d], d)
		}
	}
	if m.Dtype.ByteSize <= 0 {
		return fmt.Errorf("%w: dtype %q has no size", ErrInvalidMetadata, m.Dtype)
	}
	if m.Order != "" && m.Order != "C" {
		return fmt.Errorf("%w: unsupported order %q", ErrInvalidMetadata, m.Order)
	}
	if len(m.Filters) > 0 {
		return fmt.Errorf("%w: filters are not supported", ErrInvalidMetadata)
	}
	switch m.DimensionSeparator {
	case "", ".", "/":
	default:
		return fmt.Errorf("%w: dimension separator %q", ErrInvalidMetadata, m.DimensionSeparator)
	}
	return nil
}

func (m *ArrayMeta) separator() string {
	if m.DimensionSeparator == "" {
		return "."
	}
	return m.DimensionSeparator
}

// chunkLength is the block length that dices the array into its chunks
func (m *ArrayMeta) chunkLength() IntSeq {
	if len(m.Chunks) == 0 {
		return Scalar(1)
	}
	return PerAxis(m.Chunks...)
}

// nbytes is the size of the uncompressed array data
func (m *ArrayMeta) nbytes() uint64 {
	n := uint64(m.Dtype.ByteSize)
	for _, d := range m.Shape {
		n *= uint64(d)
	}
	return n
}

type Filter struct {
	ID     string `json:"id"`
	Delta  string `json:"delta,omitempty"`
	Dtype  string `json:"dtype,omitempty"`
	AsType string `json:"astype,omitempty"`
}
