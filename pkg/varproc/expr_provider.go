package varproc

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprValueProvider implements interp.ExternalValueProvider by compiling
// a small set of named expr-lang programs once at construction and
// evaluating them per lookup. Each program may reference only the
// constants passed in env: not the other registered names, and never a
// field read from the stream. An ExternalValueProvider is consulted only
// after the script's own named fields have already failed to resolve,
// so it has no visibility into the parse in progress.
//
// This is a caller-supplied value source, not the compiled-expression
// evaluator pkg/expreval runs inside a CompiledBlock; expr-lang's much
// larger grammar never reaches the bytecode interpreter itself.
type ExprValueProvider struct {
	programs map[string]*vm.Program
	env      map[string]any
}

// NewExprValueProvider compiles exprs (name -> expr-lang source) against
// env and returns a provider. Compilation happens once, up front;
// Value only runs vm.Run.
func NewExprValueProvider(exprs map[string]string, env map[string]any) (*ExprValueProvider, error) {
	p := &ExprValueProvider{
		programs: make(map[string]*vm.Program, len(exprs)),
		env:      env,
	}
	for name, src := range exprs {
		prog, err := expr.Compile(src, expr.Env(env), expr.AsInt64())
		if err != nil {
			return nil, fmt.Errorf("varproc: compiling expression for %q: %w", name, err)
		}
		p.programs[name] = prog
	}
	return p, nil
}

// Value implements interp.ExternalValueProvider.
func (p *ExprValueProvider) Value(name string) (int32, bool, error) {
	prog, ok := p.programs[name]
	if !ok {
		return 0, false, nil
	}
	out, err := expr.Run(prog, p.env)
	if err != nil {
		return 0, true, fmt.Errorf("varproc: evaluating %q: %w", name, err)
	}
	n, ok := out.(int64)
	if !ok {
		return 0, true, fmt.Errorf("varproc: expression %q produced %T, want int64", name, out)
	}
	return int32(n), true, nil
}
