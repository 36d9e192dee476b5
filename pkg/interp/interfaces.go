package interp

import "github.com/twinfer/bbin/pkg/bstream"

// ExternalValueProvider resolves a field name an expression references
// that no field declared anywhere in the script owns. YAML-backed
// lookups, expr-lang programs, and similar plug-ins implement this.
type ExternalValueProvider interface {
	Value(name string) (v int32, ok bool, err error)
}

// ReadContext is what a VarFieldProcessor or CustomFieldTypeProcessor
// gets to read from and resolve names against while producing one
// field's value.
type ReadContext struct {
	Stream    *bstream.Stream
	ByteOrder bstream.ByteOrder
	Names     *NamedNumericFieldMap
}

// VarFieldProcessor produces the value for a "var"-typed field. extra
// is the compile-time or evaluated extra parameter attached to the
// field site, 0 if the script gave none.
type VarFieldProcessor interface {
	ReadVar(ctx *ReadContext, extra int64) (any, error)
	ReadVarArray(ctx *ReadContext, count int, extra int64) ([]any, error)
}

// CustomFieldTypeProcessor produces the value for a non-builtin type
// name (e.g. a fixed-width encoded string type).
type CustomFieldTypeProcessor interface {
	// Handles reports whether this processor knows typeName.
	Handles(typeName string) bool
	ReadCustom(ctx *ReadContext, typeName string, extra int64) (any, error)
	ReadCustomArray(ctx *ReadContext, typeName string, count int, extra int64) ([]any, error)
}

// WriteContext is what a VarFieldWriter or CustomFieldTypeWriter gets to
// write to while serializing one field's value back to bytes. It mirrors
// ReadContext on the write side.
type WriteContext struct {
	Stream    *bstream.WriteStream
	ByteOrder bstream.ByteOrder
	Names     *NamedNumericFieldMap
}

// VarFieldWriter writes back the value of a "var"-typed field produced
// by a VarFieldProcessor, mirroring it on the write direction. v is
// whatever ReadVar/ReadVarArray previously returned, taken from the
// field tree being serialized.
type VarFieldWriter interface {
	WriteVar(ctx *WriteContext, v any, extra int64) error
	WriteVarArray(ctx *WriteContext, vs []any, extra int64) error
}

// CustomFieldTypeWriter writes back the value of a non-builtin typed
// field, mirroring CustomFieldTypeProcessor on the write direction.
type CustomFieldTypeWriter interface {
	Handles(typeName string) bool
	WriteCustom(ctx *WriteContext, typeName string, v any, extra int64) error
	WriteCustomArray(ctx *WriteContext, typeName string, vs []any, extra int64) error
}
