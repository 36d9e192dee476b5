// Package script tokenizes the text form of a binary-layout script.
//
// This is the "external tokenizer" collaborator that pkg/compiler
// consumes: it turns script source into a flat token stream and does not
// itself understand field types, structs, or array semantics. Every token
// carries its byte span in the source, so the compiler can recover the
// raw text of an expression site (a bracketed array size, or a
// parenthesized extra/align/skip value) for pkg/expreval; the tokenizer
// never parses arithmetic.
package script
