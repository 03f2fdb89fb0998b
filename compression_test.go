package dice

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzipChunksRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	m := float32Meta([]int{6, 5}, []int{4, 4})
	m.Compressor = &CompressionMeta{ID: "gzip"}
	z, err := Create(s, "gz", m)
	require.NoError(t, err)

	src := New[float32](6, 5)
	for i := range src.data {
		src.data[i] = float32(i) * 1.5
	}
	require.NoError(t, Write(z, src))

	f, err := s.Get("gz/1.1")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Greater(t, len(data), 2)
	assert.Equal(t, []byte{0x1f, 0x8b}, data[:2], "chunk should be gzip framed")

	z, err = Open(s, "gz", ModeRead)
	require.NoError(t, err)
	require.NotNil(t, z.Meta().Compressor)
	assert.Equal(t, "gzip", z.Meta().Compressor.ID)

	got, err := Read[float32](z)
	require.NoError(t, err)
	assert.Equal(t, src.Values(), got.Values())
}

func TestUnsupportedCodec(t *testing.T) {
	m := float32Meta([]int{4}, []int{2})
	m.Compressor = &CompressionMeta{ID: "blosc", Cname: "lz4"}
	z, err := Create(NewMemoryStore(), "blosc", m)
	require.NoError(t, err)

	err = Write(z, New[float32](4))
	assert.ErrorIs(t, err, ErrUnsupportedCodec)

	_, err = m.Compressor.Decompressor(io.NopCloser(bytes.NewReader(nil)))
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestRawCodec(t *testing.T) {
	var m *CompressionMeta
	buf := &bytes.Buffer{}
	w, err := m.Compressor(buf)
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "abc", buf.String())

	r, err := (&CompressionMeta{}).Decompressor(io.NopCloser(buf))
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}
