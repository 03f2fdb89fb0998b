package dice

import (
	"errors"
	"fmt"
	"io"

	"github.com/qri-io/dataset/compression"
)

// ErrUnsupportedCodec means chunks use a compressor this package can't run
var ErrUnsupportedCodec = errors.New("unsupported compressor")

// codecFormats maps zarr codec ids to dataset compression formats
var codecFormats = map[string]string{
	"gzip": "gzip",
	"zstd": "zst",
}

// CompressionMeta defines compression settings for chunk data. A nil
// CompressionMeta, or one with an empty ID, stores chunks uncompressed.
type CompressionMeta struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

func (m *CompressionMeta) raw() bool {
	return m == nil || m.ID == ""
}

func (m *CompressionMeta) format() (string, error) {
	f, ok := codecFormats[m.ID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCodec, m.ID)
	}
	return f, nil
}

func (m *CompressionMeta) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	if m.raw() {
		return r, nil
	}
	f, err := m.format()
	if err != nil {
		return nil, err
	}
	return compression.Decompressor(f, r)
}

// Compressor wraps w so bytes written are compressed. The returned writer
// must be closed to flush.
func (m *CompressionMeta) Compressor(w io.Writer) (io.WriteCloser, error) {
	if m.raw() {
		return nopWriteCloser{w}, nil
	}
	f, err := m.format()
	if err != nil {
		return nil, err
	}
	return compression.Compressor(f, w)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
