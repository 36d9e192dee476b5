package interp

import "fmt"

// ParsingError reports a malformed bytecode stream or a value the
// interpreter refuses to act on (a negative array length, an
// out-of-range bit width discovered only at eval time). Path is the
// full dotted path of the field being read when the error occurred, or
// "" if it happened before any field had a name.
type ParsingError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ParsingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("interp: %s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("interp: %s", e.Msg)
}

func (e *ParsingError) Unwrap() error { return e.Err }

// UnsupportedTypeError reports a custom type name with no registered
// CustomFieldTypeProcessor, or a var field with no VarFieldProcessor.
type UnsupportedTypeError struct {
	TypeName string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("interp: no processor registered for type %q", e.TypeName)
}
