package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/bbin/pkg/field"
)

func TestStructByNameAndByPath(t *testing.T) {
	root := field.Struct{
		Fields: []field.Value{
			field.Int{Info: field.Info{Name: "width", Path: "width"}, Val: 640},
			field.Struct{
				Info: field.Info{Name: "header", Path: "header"},
				Fields: []field.Value{
					field.Int{Info: field.Info{Name: "length", Path: "header.length"}, Val: 12},
				},
			},
		},
	}

	v, ok := root.ByName("width")
	require.True(t, ok)
	assert.Equal(t, int32(640), v.(field.Int).Val)

	v, ok = root.ByPath("header.length")
	require.True(t, ok)
	assert.Equal(t, int32(12), v.(field.Int).Val)

	_, ok = root.ByPath("missing")
	assert.False(t, ok)
}

func TestStructArrayAt(t *testing.T) {
	arr := field.StructArray{
		Info: field.Info{Name: "chunk"},
		Elements: []field.Struct{
			{Fields: []field.Value{field.Int{Val: 1}}},
			{Fields: []field.Value{field.Int{Val: 2}}},
		},
	}
	el, err := arr.At(1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), el.Fields[0].(field.Int).Val)

	_, err = arr.At(5)
	assert.Error(t, err)
}

func TestNumericValue(t *testing.T) {
	n, ok := field.NumericValue(field.UByte{Val: 200})
	require.True(t, ok)
	assert.Equal(t, int64(200), n)

	n, ok = field.NumericValue(field.Bool{Val: true})
	require.True(t, ok)
	assert.Equal(t, int64(1), n)

	_, ok = field.NumericValue(field.Struct{})
	assert.False(t, ok)
}

func TestEqualAndDiff(t *testing.T) {
	a := field.Int{Info: field.Info{Name: "x"}, Val: 5}
	b := field.Int{Info: field.Info{Name: "x"}, Val: 5}
	c := field.Int{Info: field.Info{Name: "x"}, Val: 6}

	assert.True(t, field.Equal(a, b))
	assert.False(t, field.Equal(a, c))
	assert.NotEmpty(t, field.Diff(a, c))
}
