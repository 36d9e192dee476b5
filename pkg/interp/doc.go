// Package interp walks a compiler.CompiledBlock against a bit stream and
// produces a field.Struct tree.
//
// # Cursors
//
// A parse keeps four things in lock-step as it walks the bytecode: the
// instruction pointer into CompiledBlock.Code, an index into
// CompiledBlock.NamedFields, an index into CompiledBlock.SizeEvaluators,
// and the Go call stack's own recursion depth for nested structs. All
// four save and restore together whenever a counted struct array
// re-enters its body for another iteration.
//
// # Skip mode
//
// A struct array with a compile-time-known count of zero, or one whose
// count evaluates to zero at parse time, still has its body walked once
// to advance the three cursors past it; nothing is appended to the
// result tree and no field is recorded in the NamedNumericFieldMap.
package interp
