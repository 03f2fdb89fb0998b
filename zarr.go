package dice

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"
)

var (
	// ErrReadOnly means a write was attempted on an array opened with ModeRead
	ErrReadOnly = errors.New("array is read only")
	// ErrNoMetadata means the array path holds no .zarray metadata
	ErrNoMetadata = errors.New("array has no metadata")
)

// Array is a zarr v2 array kept in a Store. Its data is diced into chunks of
// the metadata's chunk shape, one store key per chunk.
type Array struct {
	path  Path
	store Store
	mode  PersistenceMode
	meta  *ArrayMeta
}

// Create writes array metadata to path and returns the array opened for
// reading and writing
func Create(store Store, path string, m *ArrayMeta) (*Array, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.ZarrFormat == 0 {
		m.ZarrFormat = ZarrFormat
	}
	if m.Order == "" {
		m.Order = "C"
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	p := NewPath(path)
	if err := store.Put(p.Join(string(m.MetaType())).String(), bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Array{
		path:  p,
		store: store,
		mode:  ModeReadWrite,
		meta:  m,
	}, nil
}

// Open loads the array at path. An array without metadata can be opened, but
// can't be read or written.
func Open(store Store, path string, mode PersistenceMode) (*Array, error) {
	p := NewPath(path)
	a := &Array{
		path:  p,
		store: store,
		mode:  mode,
	}

	f, err := store.Get(p.Join(string(MTArray)).String())
	if errors.Is(err, ErrNotfound) {
		return a, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	a.meta = &ArrayMeta{}
	if err := json.NewDecoder(f).Decode(a.meta); err != nil {
		return nil, err
	}
	if err := a.meta.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", a.Path(), err)
	}
	return a, nil
}

// Meta returns the array metadata, nil if there is none
func (a *Array) Meta() *ArrayMeta { return a.meta }

func (a *Array) Info() string {
	if a.meta == nil {
		return fmt.Sprintf("<dice.Array %s>", a.Path())
	}
	return fmt.Sprintf("<dice.Array %s shape=%v chunks=%v dtype=%s nbytes=%s>",
		a.Path(), a.meta.Shape, a.meta.Chunks, a.meta.Dtype, humanize.Bytes(a.meta.nbytes()))
}

func (a *Array) Path() string {
	return a.path.String()
}

// Grid is the chunk grid of the array
func (a *Array) Grid() (*Grid, error) {
	if a.meta == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMetadata, a.Path())
	}
	return Plan(a.meta.Shape, a.meta.chunkLength())
}

// Attributes reads the user attributes of the array. Numbers decode as
// json.Number, which Normalize understands.
func (a *Array) Attributes() (Attributes, error) {
	f, err := a.store.Get(a.path.Join(string(MTAttributes)).String())
	if errors.Is(err, ErrNotfound) {
		return Attributes{}, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	attrs := Attributes{}
	if err := dec.Decode(&attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (a *Array) SetAttributes(attrs Attributes) error {
	if a.mode == ModeRead {
		return fmt.Errorf("%w: %s", ErrReadOnly, a.Path())
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	return a.store.Put(a.path.Join(string(MTAttributes)).String(), bytes.NewReader(data))
}

// Write stores src as the data of a. src must match the array shape, and T
// the array dtype. Edge chunks are padded with zero values.
func Write[T any](a *Array, src *NDArray[T]) error {
	if a.mode == ModeRead {
		return fmt.Errorf("%w: %s", ErrReadOnly, a.Path())
	}
	g, err := a.Grid()
	if err != nil {
		return err
	}
	if err := checkDtype[T](a.meta.Dtype); err != nil {
		return err
	}
	if !slices.Equal(src.Shape(), a.meta.Shape) {
		return fmt.Errorf("%w: writing %v to array of shape %v", ErrShapeMismatch, src.Shape(), a.meta.Shape)
	}

	var zero T
	chunk := New[T](a.meta.Chunks...)
	for _, s := range g.All() {
		block, err := src.View(s.Ranges...)
		if err != nil {
			return err
		}
		dst, err := chunk.View(s.origin()...)
		if err != nil {
			return err
		}
		chunk.Fill(zero)
		if err := dst.CopyFrom(block); err != nil {
			return err
		}
		if err := writeChunk(a, s.Coords, chunk.data); err != nil {
			return fmt.Errorf("chunk %s: %w", ChunkKey(s.Coords, a.meta.separator()), err)
		}
		klog.V(2).Infof("wrote chunk %s %s of %s", ChunkKey(s.Coords, a.meta.separator()), s, a.Path())
	}
	klog.V(1).Infof("wrote %d chunks to %s", g.Len(), a.Info())
	return nil
}

func writeChunk[T any](a *Array, coords []int, vals []T) error {
	buf := &bytes.Buffer{}
	w, err := a.meta.Compressor.Compressor(buf)
	if err != nil {
		return err
	}
	if err := binary.Write(w, a.meta.Dtype.binaryOrder(), vals); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return a.store.Put(a.chunkPath(coords).String(), buf)
}

// Read loads the data of a. Chunks missing from the store read as zero values.
func Read[T any](a *Array) (*NDArray[T], error) {
	g, err := a.Grid()
	if err != nil {
		return nil, err
	}
	if err := checkDtype[T](a.meta.Dtype); err != nil {
		return nil, err
	}

	out := New[T](a.meta.Shape...)
	chunk := New[T](a.meta.Chunks...)
	read := 0
	for _, s := range g.All() {
		err := readChunk(a, s.Coords, chunk.data)
		if errors.Is(err, ErrNotfound) {
			klog.V(2).Infof("chunk %s of %s is missing", ChunkKey(s.Coords, a.meta.separator()), a.Path())
			continue
		} else if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", ChunkKey(s.Coords, a.meta.separator()), err)
		}

		src, err := chunk.View(s.origin()...)
		if err != nil {
			return nil, err
		}
		dst, err := out.View(s.Ranges...)
		if err != nil {
			return nil, err
		}
		if err := dst.CopyFrom(src); err != nil {
			return nil, err
		}
		read++
	}
	klog.V(1).Infof("read %d of %d chunks from %s", read, g.Len(), a.Info())
	return out, nil
}

func readChunk[T any](a *Array, coords []int, vals []T) error {
	f, err := a.store.Get(a.chunkPath(coords).String())
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := a.meta.Compressor.Decompressor(f)
	if err != nil {
		return err
	}
	defer r.Close()
	return binary.Read(r, a.meta.Dtype.binaryOrder(), vals)
}

func (a *Array) chunkPath(coords []int) Path {
	return a.path.Join(ChunkKey(coords, a.meta.separator()))
}

type PersistenceMode string

const (
	// Persistence mode:
	// ‘r’ means read only (must exist);
	ModeRead PersistenceMode = "r"
	//‘r+’ means read/write (must exist)
	ModeReadWrite PersistenceMode = "r+"
	// ‘a’ means read/write (create if doesn’t exist)
	ModeReadWriteCreate PersistenceMode = "a"
	// ‘w’ means create (overwrite if exists)
	ModeWrite PersistenceMode = "w"
	// ‘w-’ means create (fail if exists).
	ModeWriteFail PersistenceMode = "w-"
)

// Path is a logical path within a store
type Path []string

// NewPath normalizes a posix-style path so it is the same across storage
// systems: backslashes become slashes, leading and trailing slashes are
// stripped, and runs of slashes collapse into one.
func NewPath(posix string) Path {
	posix = strings.ReplaceAll(posix, `\`, "/")
	p := Path{}
	for _, el := range strings.Split(posix, "/") {
		if el != "" {
			p = append(p, el)
		}
	}
	return p
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) Join(elems ...string) Path {
	return append(slices.Clone(p), elems...)
}
