package expreval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/bbin/pkg/expreval"
)

type mapContext struct {
	fields   map[string]int32
	external map[string]int32
	counter  int32
}

func (c mapContext) FieldValue(name string) (int32, bool) {
	v, ok := c.fields[name]
	return v, ok
}

func (c mapContext) External(name string) (int32, bool, error) {
	v, ok := c.external[name]
	return v, ok, nil
}

func (c mapContext) Counter() int32 { return c.counter }

func eval(t *testing.T, expr string, ctx expreval.Context) int32 {
	t.Helper()
	prog, err := expreval.Compile(expr)
	require.NoError(t, err)
	v, err := prog.Eval(ctx)
	require.NoError(t, err)
	return v
}

func TestArithmeticPrecedence(t *testing.T) {
	ctx := mapContext{}
	assert.EqualValues(t, 14, eval(t, "2 + 3 * 4", ctx))
	assert.EqualValues(t, 20, eval(t, "(2 + 3) * 4", ctx))
	assert.EqualValues(t, -5, eval(t, "-5", ctx))
	assert.EqualValues(t, 5, eval(t, "10 % 5 + 5", ctx))
}

func TestBitwiseOperators(t *testing.T) {
	ctx := mapContext{}
	assert.EqualValues(t, 0x0F, eval(t, "0x0A | 0x05", ctx))
	assert.EqualValues(t, 0x0A, eval(t, "0x0F & 0x0A", ctx))
	assert.EqualValues(t, 0x05, eval(t, "0x0F ^ 0x0A", ctx))
	assert.EqualValues(t, -11, eval(t, "~10", ctx))
	assert.EqualValues(t, 8, eval(t, "1 << 3", ctx))
	assert.EqualValues(t, -1, eval(t, "-1 >> 3", ctx))
}

func TestUnsignedShiftMasksTo32Bits(t *testing.T) {
	ctx := mapContext{}
	got := eval(t, "-1 >>> 28", ctx)
	assert.EqualValues(t, 0xF, got)
}

func TestNamedFieldResolutionPrefersLocalThenExternal(t *testing.T) {
	ctx := mapContext{
		fields:   map[string]int32{"length": 42},
		external: map[string]int32{"length": 99},
	}
	assert.EqualValues(t, 42, eval(t, "length", ctx))
}

func TestNamedFieldFallsBackToExternalProvider(t *testing.T) {
	ctx := mapContext{external: map[string]int32{"tableSize": 7}}
	assert.EqualValues(t, 7, eval(t, "tableSize", ctx))
}

func TestUnknownFieldFails(t *testing.T) {
	prog, err := expreval.Compile("bogus")
	require.NoError(t, err)
	_, err = prog.Eval(mapContext{})
	require.Error(t, err)
	var uf *expreval.UnknownFieldError
	assert.ErrorAs(t, err, &uf)
}

func TestDivideByZeroFails(t *testing.T) {
	prog, err := expreval.Compile("1 / 0")
	require.NoError(t, err)
	_, err = prog.Eval(mapContext{})
	require.Error(t, err)
	var dz *expreval.DivideByZeroError
	assert.ErrorAs(t, err, &dz)
}

func TestStreamCounterSymbol(t *testing.T) {
	ctx := mapContext{counter: 12}
	assert.EqualValues(t, 24, eval(t, "$$ * 2", ctx))
}

func TestMalformedExpressionFails(t *testing.T) {
	_, err := expreval.Compile("1 + ")
	require.Error(t, err)
	_, err = expreval.Compile("(1 + 2")
	require.Error(t, err)
}
