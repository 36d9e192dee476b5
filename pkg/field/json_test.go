package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/twinfer/bbin/pkg/field"
)

func TestToJSONStruct(t *testing.T) {
	s := field.Struct{
		Fields: []field.Value{
			field.Int{Info: field.Info{Name: "width"}, Val: 640},
			field.ByteArray{Info: field.Info{Name: "data"}, Vals: []int8{1, 2, 3}},
		},
	}
	out := field.ToJSON(s).(map[string]any)
	assert.Equal(t, int32(640), out["width"])
	assert.Equal(t, []int8{1, 2, 3}, out["data"])
}

func TestToJSONStructArray(t *testing.T) {
	arr := field.StructArray{
		Elements: []field.Struct{
			{Fields: []field.Value{field.Int{Info: field.Info{Name: "x"}, Val: 1}}},
			{Fields: []field.Value{field.Int{Info: field.Info{Name: "x"}, Val: 2}}},
		},
	}
	out := field.ToJSON(arr).([]any)
	assert.Len(t, out, 2)
	assert.Equal(t, int32(1), out[0].(map[string]any)["x"])
}
