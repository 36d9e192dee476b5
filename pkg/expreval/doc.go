// Package expreval implements the fixed-operator integer expression
// language used for array sizes, skip counts, align values, and bit
// widths in compiled scripts.
//
// # Scope
//
// The language intentionally supports a fixed operator set only:
// + - * / % & | ^ ~ << >> >>> together with parentheses, decimal and
// hex integer literals, dotted field references, and the stream-position
// symbol $$. It is not a general-purpose expression language and never
// will be — a script that needs more than this should not be expressing
// it as a size formula.
//
// # Compilation
//
// Compile parses an expression once, at script-compile time, into a
// Program: a flat postfix instruction list with precedence and
// associativity already resolved. Evaluating a Program is a simple stack
// walk with no parsing on the hot path, which matters because array-size
// expressions run once per element of every counted or expression-sized
// array in a parse.
//
// # Semantics
//
// All arithmetic is 32-bit two's complement with wrap-around, matching
// the field values the evaluator operates on. Division and modulo by
// zero fail with *DivideByZeroError. >>> is an unsigned (logical) right
// shift, implemented by masking the operand to 32 bits before shifting.
package expreval
