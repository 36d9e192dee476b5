// Package field defines the parsed field tree the interpreter builds
// while walking a CompiledBlock: a closed set of value types, one per
// script type, plus Struct and StructArray for nesting.
//
// Every value carries an Info with its local name and full dotted path,
// both empty for unnamed fields. Struct exposes ByName and ByPath for
// looking up a descendant by the same names the script declared; path
// lookup does not reach through a StructArray element without an
// explicit index, since a path alone cannot say which element to enter.
package field
