package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFlatFields(t *testing.T) {
	block, err := Compile(`int width; int height; byte flags;`)
	require.NoError(t, err)
	require.Len(t, block.NamedFields, 3)
	assert.Equal(t, "width", block.NamedFields[0].LocalName)
	assert.Equal(t, 0, block.NamedFields[0].Depth)
	assert.Equal(t, byte(CodeInt)|FlagNamed, block.Code[0])
}

func TestCompilePNGStyleChunkArray(t *testing.T) {
	src := `long header; chunk[_]{int length; int type; byte[length] data; int crc;}`
	block, err := Compile(src)
	require.NoError(t, err)
	require.Len(t, block.NamedFields, 6)
	assert.Equal(t, "chunk", block.NamedFields[1].LocalName)
	assert.Equal(t, "chunk.length", block.NamedFields[2].Path)
	assert.Equal(t, 1, block.NamedFields[2].Depth)
	require.Len(t, block.SizeEvaluators, 1)
	assert.Equal(t, "length", block.SizeEvaluators[0].Source())
}

func TestCompileBitWidthOutOfRangeFails(t *testing.T) {
	_, err := Compile(`bit:9 x;`)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
}

func TestCompileForwardReferenceFails(t *testing.T) {
	_, err := Compile(`byte[length] data; int length;`)
	require.Error(t, err)
}

func TestCompileDuplicateFieldNameFails(t *testing.T) {
	_, err := Compile(`int x; int x;`)
	require.Error(t, err)
}

func TestCompileUnknownFieldAssumedExternal(t *testing.T) {
	block, err := Compile(`byte[(externalCount)] data;`)
	require.NoError(t, err)
	require.Len(t, block.SizeEvaluators, 1)
}

func TestCompileNestedWholeStreamStructRejected(t *testing.T) {
	_, err := Compile(`outer[_]{ inner[_]{ int x; } }`)
	require.Error(t, err)
}

func TestCompileCustomTypeField(t *testing.T) {
	block, err := Compile(`win1252str:16 name;`)
	require.NoError(t, err)
	require.Len(t, block.CustomTypeDescriptors, 1)
	assert.Equal(t, "win1252str", block.CustomTypeDescriptors[0].TypeName)
}

func TestCompileVarFieldSetsFlag(t *testing.T) {
	block, err := Compile(`var:1 discriminant;`)
	require.NoError(t, err)
	assert.True(t, block.HasVarFields)
}

func TestCompileAlignAndSkipDirectives(t *testing.T) {
	block, err := Compile(`byte b; align:4; skip:2; int x;`)
	require.NoError(t, err)
	assert.Contains(t, block.Code, byte(CodeAlign))
	assert.Contains(t, block.Code, byte(CodeSkip))
}

func TestCompileResetCounterDirective(t *testing.T) {
	block, err := Compile(`reset$$; byte b;`)
	require.NoError(t, err)
	assert.Equal(t, byte(CodeResetCounter), block.Code[0])
}

func TestCompileByteOrderPrefix(t *testing.T) {
	block, err := Compile(`<int littleValue; >int bigValue;`)
	require.NoError(t, err)
	// first instruction: named int with little-endian flag set
	assert.NotZero(t, block.Code[0]&FlagLittleEndian)
}

func TestCompileExpressionExtraAndExpressionArrayOrdering(t *testing.T) {
	// Both the bit width and the array length are expressions here, so
	// both land in SizeEvaluators; the extra-parameter program must be
	// pushed first, matching the order handleAtomic consumes them in.
	block, err := Compile(`byte w; byte n; bit:(w)[(n)] x;`)
	require.NoError(t, err)
	require.Len(t, block.SizeEvaluators, 2)
	assert.Equal(t, "w", block.SizeEvaluators[0].Source())
	assert.Equal(t, "(n)", block.SizeEvaluators[1].Source())
}

func TestCompileStructBackPointerRoundTrips(t *testing.T) {
	block, err := Compile(`header[2]{ int x; }`)
	require.NoError(t, err)
	// STRUCT_START opcode is byte 0; verify a STRUCT_END exists somewhere
	// followed by a 5-byte padded back-pointer within bounds.
	foundEnd := false
	for i, b := range block.Code {
		if b == byte(CodeStructEnd) {
			foundEnd = true
			require.True(t, i+1+maxPackedIntWidth <= len(block.Code))
			var pos int
			backPtr, err := unpackUint(block.Code[i+1:], &pos)
			require.NoError(t, err)
			assert.Equal(t, uint32(0), backPtr)
		}
	}
	assert.True(t, foundEnd)
}
