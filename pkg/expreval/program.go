package expreval

// Op identifies a postfix instruction.
type Op uint8

const (
	OpLiteral Op = iota
	OpField
	OpCounter
	OpNeg
	OpNot
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpUShr
)

// Instr is one postfix instruction. Literal is meaningful only for
// OpLiteral, FieldName only for OpField.
type Instr struct {
	Op        Op
	Literal   int32
	FieldName string
}

// Program is a compiled expression: a flat postfix instruction sequence
// with precedence and associativity already resolved.
type Program struct {
	src   string
	instr []Instr
}

// Source returns the original expression text, used in error messages.
func (p *Program) Source() string {
	return p.src
}

// FieldNames returns the distinct field names the program references,
// in first-occurrence order. Used by the compiler to check for forward
// references before an expression ever runs.
func (p *Program) FieldNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, in := range p.instr {
		if in.Op != OpField || seen[in.FieldName] {
			continue
		}
		seen[in.FieldName] = true
		out = append(out, in.FieldName)
	}
	return out
}

// Context supplies the values a Program may reference while evaluating.
type Context interface {
	// FieldValue resolves a named field reference. ok is false if name is
	// not a known field at the current evaluation scope.
	FieldValue(name string) (value int32, ok bool)
	// External is consulted when FieldValue reports not-found.
	External(name string) (value int32, ok bool, err error)
	// Counter returns the underlying stream's current byte counter.
	Counter() int32
}

// Eval walks the postfix program against ctx.
func (p *Program) Eval(ctx Context) (int32, error) {
	var stack []int32
	push := func(v int32) { stack = append(stack, v) }
	pop := func() int32 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	for _, in := range p.instr {
		switch in.Op {
		case OpLiteral:
			push(in.Literal)
		case OpCounter:
			push(ctx.Counter())
		case OpField:
			if v, ok := ctx.FieldValue(in.FieldName); ok {
				push(v)
				continue
			}
			v, ok, err := ctx.External(in.FieldName)
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, &UnknownFieldError{Name: in.FieldName}
			}
			push(v)
		case OpNeg:
			push(-pop())
		case OpNot:
			push(^pop())
		case OpAdd:
			b, a := pop(), pop()
			push(a + b)
		case OpSub:
			b, a := pop(), pop()
			push(a - b)
		case OpMul:
			b, a := pop(), pop()
			push(a * b)
		case OpDiv:
			b, a := pop(), pop()
			if b == 0 {
				return 0, &DivideByZeroError{Expr: p.src}
			}
			push(a / b)
		case OpMod:
			b, a := pop(), pop()
			if b == 0 {
				return 0, &DivideByZeroError{Expr: p.src}
			}
			push(a % b)
		case OpAnd:
			b, a := pop(), pop()
			push(a & b)
		case OpOr:
			b, a := pop(), pop()
			push(a | b)
		case OpXor:
			b, a := pop(), pop()
			push(a ^ b)
		case OpShl:
			b, a := pop(), pop()
			push(a << uint32(b&31))
		case OpShr:
			b, a := pop(), pop()
			push(a >> uint32(b&31))
		case OpUShr:
			b, a := pop(), pop()
			push(int32(uint32(a) >> uint32(b&31)))
		}
	}
	return pop(), nil
}
