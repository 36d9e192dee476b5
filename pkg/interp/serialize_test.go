package interp_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/bbin/pkg/interp"
)

func TestSerializeFlatFieldsRoundTrip(t *testing.T) {
	p, err := interp.Prepare(`int width; int height;`)
	require.NoError(t, err)

	data := []byte{0, 0, 2, 128, 0, 0, 1, 224}
	root, err := p.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := p.Serialize(root.Struct, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, out.Bytes())
}

func TestSerializePNGStyleChunkArrayRoundTrip(t *testing.T) {
	p, err := interp.Prepare(`long header; chunk[_]{int length; int type; byte[length] data; int crc;}`)
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(make([]byte, 8))
	writeChunk := func(chunkType string, payload []byte) {
		buf.Write([]byte{0, 0, 0, byte(len(payload))})
		buf.WriteString(chunkType)
		buf.Write(payload)
		buf.Write([]byte{0, 0, 0, 0})
	}
	writeChunk("IHDR", []byte{1, 2, 3})
	writeChunk("IEND", nil)

	root, err := p.Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = p.Serialize(root.Struct, &out)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out.Bytes())
}

func TestSerializeCountedStructArrayRoundTrip(t *testing.T) {
	p, err := interp.Prepare(`byte count; entry[(count)]{ int x; }`)
	require.NoError(t, err)

	cases := [][]byte{
		{0},
		{2, 0, 0, 0, 1, 0, 0, 0, 2},
	}
	for _, data := range cases {
		root, err := p.Parse(bytes.NewReader(data))
		require.NoError(t, err)

		var out bytes.Buffer
		_, err = p.Serialize(root.Struct, &out)
		require.NoError(t, err)
		assert.Equal(t, data, out.Bytes())
	}
}

func TestSerializeWithAlignAndSkipRoundTrip(t *testing.T) {
	p, err := interp.Prepare(`byte tag; align:4; int value; skip:2; byte trailer;`)
	require.NoError(t, err)

	data := []byte{0xAB, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0xEE}
	root, err := p.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := p.Serialize(root.Struct, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, out.Bytes())
}

func TestSerializeWholeStreamBitArrayRoundTrip(t *testing.T) {
	p, err := interp.Prepare(`bit:4[_] nibbles;`)
	require.NoError(t, err)

	data := []byte{0x12, 0x34}
	root, err := p.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = p.Serialize(root.Struct, &out)
	require.NoError(t, err)
	assert.Equal(t, data, out.Bytes())
}
