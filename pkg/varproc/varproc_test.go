package varproc_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/bbin/pkg/bstream"
	"github.com/twinfer/bbin/pkg/interp"
	"github.com/twinfer/bbin/pkg/varproc"
)

func TestYAMLValueProvider(t *testing.T) {
	p, err := varproc.NewYAMLValueProvider([]byte("headerSize: 12\nmagic: 4\n"))
	require.NoError(t, err)

	v, ok, err := p.Value("headerSize")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(12), v)

	_, ok, err = p.Value("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestYAMLValueProviderRejectsNonInteger(t *testing.T) {
	_, err := varproc.NewYAMLValueProvider([]byte("name: hello\n"))
	assert.Error(t, err)
}

func TestExprValueProvider(t *testing.T) {
	p, err := varproc.NewExprValueProvider(map[string]string{
		"doubled": "base * 2",
	}, map[string]any{"base": int64(21)})
	require.NoError(t, err)

	v, ok, err := p.Value("doubled")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(42), v)
}

func TestCELVarFieldProcessorReadVar(t *testing.T) {
	proc, err := varproc.NewCELVarFieldProcessor(`extra == 0 ? "uint8" : "int32"`)
	require.NoError(t, err)

	stream := bstream.New(bytes.NewReader([]byte{0x7F}), bstream.LSB0)
	ctx := &interp.ReadContext{Stream: stream, ByteOrder: bstream.BigEndian}

	v, err := proc.ReadVar(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7F), v)
}

func TestCELVarFieldProcessorReadVarArray(t *testing.T) {
	proc, err := varproc.NewCELVarFieldProcessor(`"uint8"`)
	require.NoError(t, err)

	stream := bstream.New(bytes.NewReader([]byte{1, 2, 3}), bstream.LSB0)
	ctx := &interp.ReadContext{Stream: stream, ByteOrder: bstream.BigEndian}

	vals, err := proc.ReadVarArray(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, uint8(1), vals[0])
	assert.Equal(t, uint8(3), vals[2])
}

func TestCELVarFieldProcessorReadVarArrayWholeStream(t *testing.T) {
	proc, err := varproc.NewCELVarFieldProcessor(`"uint8"`)
	require.NoError(t, err)

	stream := bstream.New(bytes.NewReader([]byte{1, 2, 3, 4}), bstream.LSB0)
	ctx := &interp.ReadContext{Stream: stream, ByteOrder: bstream.BigEndian}

	vals, err := proc.ReadVarArray(ctx, -1, 0)
	require.NoError(t, err)
	require.Len(t, vals, 4)
	assert.Equal(t, uint8(4), vals[3])
}

func TestWindowsTextTypeReadCustomArrayWholeStream(t *testing.T) {
	var wt varproc.WindowsTextType

	// Two 2-byte "wintext" strings back to back, consumed until the
	// stream runs dry rather than for a fixed element count.
	stream := bstream.New(bytes.NewReader([]byte{'h', 'i', 'y', 'o'}), bstream.LSB0)
	ctx := &interp.ReadContext{Stream: stream, ByteOrder: bstream.BigEndian}

	vals, err := wt.ReadCustomArray(ctx, "wintext", -1, 2)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, "hi", vals[0])
	assert.Equal(t, "yo", vals[1])
}

func TestWindowsTextTypeReadCustom(t *testing.T) {
	var wt varproc.WindowsTextType
	assert.True(t, wt.Handles("wintext"))
	assert.False(t, wt.Handles("byte"))

	// 0xE9 is Windows-1252 for lowercase e-acute.
	stream := bstream.New(bytes.NewReader([]byte{'c', 'a', 'f', 0xE9}), bstream.LSB0)
	ctx := &interp.ReadContext{Stream: stream, ByteOrder: bstream.BigEndian}

	v, err := wt.ReadCustom(ctx, "wintext", 4)
	require.NoError(t, err)
	assert.Equal(t, "café", v)
}
