package varproc

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/twinfer/bbin/pkg/interp"
)

// CELVarFieldProcessor implements interp.VarFieldProcessor.ReadVar by
// using a compiled CEL program as a tagged-union discriminator: given
// the field's extra parameter, the program picks which underlying
// primitive width and signedness to actually read off the stream.
// Grounded on the teacher's internal/cel/environment.go CEL environment
// cache: one *cel.Env and one compiled cel.Program built once at
// construction, evaluated per field site.
type CELVarFieldProcessor struct {
	prog cel.Program
}

// discriminators is the closed set of primitive reads a discriminator
// expression may select.
const (
	discInt8   = "int8"
	discUint8  = "uint8"
	discInt16  = "int16"
	discUint16 = "uint16"
	discInt32  = "int32"
	discUint32 = "uint32"
	discInt64  = "int64"
	discUint64 = "uint64"
)

// NewCELVarFieldProcessor compiles discriminatorExpr, a CEL expression
// over an "extra" int variable that must evaluate to one of the
// discXxx string constants above.
func NewCELVarFieldProcessor(discriminatorExpr string) (*CELVarFieldProcessor, error) {
	env, err := cel.NewEnv(cel.Variable("extra", cel.IntType))
	if err != nil {
		return nil, fmt.Errorf("varproc: building CEL environment: %w", err)
	}
	ast, issues := env.Compile(discriminatorExpr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("varproc: compiling discriminator %q: %w", discriminatorExpr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("varproc: building CEL program: %w", err)
	}
	return &CELVarFieldProcessor{prog: prg}, nil
}

func (c *CELVarFieldProcessor) discriminate(extra int64) (string, error) {
	out, _, err := c.prog.Eval(map[string]any{"extra": extra})
	if err != nil {
		return "", fmt.Errorf("varproc: evaluating discriminator: %w", err)
	}
	disc, ok := out.Value().(string)
	if !ok {
		return "", fmt.Errorf("varproc: discriminator produced %T, want string", out.Value())
	}
	return disc, nil
}

func (c *CELVarFieldProcessor) readOne(ctx *interp.ReadContext, disc string) (any, error) {
	switch disc {
	case discInt8:
		v, err := ctx.Stream.ReadByte()
		return int8(v), err
	case discUint8:
		return ctx.Stream.ReadByte()
	case discInt16:
		v, err := ctx.Stream.ReadUint16(ctx.ByteOrder)
		return int16(v), err
	case discUint16:
		return ctx.Stream.ReadUint16(ctx.ByteOrder)
	case discInt32:
		v, err := ctx.Stream.ReadUint32(ctx.ByteOrder)
		return int32(v), err
	case discUint32:
		return ctx.Stream.ReadUint32(ctx.ByteOrder)
	case discInt64:
		v, err := ctx.Stream.ReadUint64(ctx.ByteOrder)
		return int64(v), err
	case discUint64:
		return ctx.Stream.ReadUint64(ctx.ByteOrder)
	default:
		return nil, fmt.Errorf("varproc: unknown discriminator %q", disc)
	}
}

// ReadVar implements interp.VarFieldProcessor.
func (c *CELVarFieldProcessor) ReadVar(ctx *interp.ReadContext, extra int64) (any, error) {
	disc, err := c.discriminate(extra)
	if err != nil {
		return nil, err
	}
	return c.readOne(ctx, disc)
}

// ReadVarArray implements interp.VarFieldProcessor. count is -1 for a
// whole-stream array, in which case elements are read until the stream
// is exhausted rather than a fixed number of times.
func (c *CELVarFieldProcessor) ReadVarArray(ctx *interp.ReadContext, count int, extra int64) ([]any, error) {
	disc, err := c.discriminate(extra)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		var out []any
		for {
			has, err := ctx.Stream.HasAvailableData()
			if err != nil {
				return nil, err
			}
			if !has {
				return out, nil
			}
			v, err := c.readOne(ctx, disc)
			if err != nil {
				return nil, fmt.Errorf("varproc: var array element %d: %w", len(out), err)
			}
			out = append(out, v)
		}
	}
	out := make([]any, count)
	for i := 0; i < count; i++ {
		v, err := c.readOne(ctx, disc)
		if err != nil {
			return nil, fmt.Errorf("varproc: var array element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
