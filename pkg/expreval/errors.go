package expreval

import "fmt"

// CompileError reports a malformed expression detected at Compile time.
type CompileError struct {
	Expr string
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("expreval: cannot compile %q: %s", e.Expr, e.Msg)
}

// DivideByZeroError reports an integer division or modulo by zero
// encountered while evaluating a Program.
type DivideByZeroError struct {
	Expr string
}

func (e *DivideByZeroError) Error() string {
	return fmt.Sprintf("expreval: division by zero evaluating %q", e.Expr)
}

// UnknownFieldError reports a named field reference that could not be
// resolved against the evaluation context or the external value provider.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("expreval: unknown field reference %q", e.Name)
}
