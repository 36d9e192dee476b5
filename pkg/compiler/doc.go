// Package compiler turns a script token stream into a CompiledBlock: a
// flat opcode byte sequence plus the side tables the interpreter walks in
// lock-step with it (named fields, array-size evaluators, custom-type
// descriptors).
//
// # Two-pass design
//
// Compile first parses the token stream into a small declaration tree
// (parseScript), then walks that tree once to emit bytecode. Splitting
// parsing from emission lets the compiler collect every field name
// declared anywhere in the script before checking any expression for
// forward references.
//
// # Instruction encoding
//
// Every instruction is 1-2 opcode bytes (the type code and flags, plus an
// extension byte when FlagWide is set) followed by zero or more packed
// varints: an extra-parameter literal (bit width, skip count, align
// value, var/custom extra), an array-length literal, and a custom-type
// table index, in that order when present. Every STRUCT_END opcode is
// followed by a fixed-width packed slot holding the offset of its
// matching STRUCT_START instruction, from which the interpreter finds the
// body's start offset so it can re-enter the struct for counted or
// whole-stream repetition.
package compiler
