package compiler

import "github.com/twinfer/bbin/pkg/expreval"

// NamedFieldInfo identifies a named field's position in the field tree.
// Depth -1 is reserved for the synthetic root struct the interpreter
// wraps around a whole parse; every field the compiler itself emits gets
// depth >= 0.
type NamedFieldInfo struct {
	Path      string
	LocalName string
	Depth     int
}

// CustomTypeDescriptor carries the parameters a CustomFieldTypeProcessor
// needs to interpret one custom-typed field site.
type CustomTypeDescriptor struct {
	TypeName string
}

// CompiledBlock is the immutable product of compilation: bytecode plus
// the side tables the interpreter walks in lock-step with it. Many
// parses may run concurrently against the same CompiledBlock.
type CompiledBlock struct {
	Code                  []byte
	NamedFields           []NamedFieldInfo
	SizeEvaluators        []*expreval.Program
	CustomTypeDescriptors []CustomTypeDescriptor
	// HasVarFields is true when the script declares at least one "var"
	// field; a Parser rejects Parse calls made without a
	// VarFieldProcessor up front rather than only when that field is
	// reached.
	HasVarFields bool
	// HasEvaluatedArrays is true whenever SizeEvaluators is non-empty:
	// an array-length expression, an extra-parameter expression (e.g.
	// bit:(w)), or an align/skip expression. The name predates the
	// extra-parameter case; it means "this block has expressions to
	// evaluate", not only "this block has expression-sized arrays".
	HasEvaluatedArrays bool
}
