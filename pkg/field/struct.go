package field

import (
	"fmt"
	"strings"
)

// Struct is one parsed struct instance: an ordered list of child fields,
// named and unnamed alike, in declaration order.
type Struct struct {
	Info
	Fields []Value
}

func (Struct) isValue() {}

var _ Value = Struct{}

// ByName returns the direct child with the given local name.
func (s Struct) ByName(name string) (Value, bool) {
	for _, f := range s.Fields {
		if f.FieldName() == name {
			return f, true
		}
	}
	return nil, false
}

// ByPath resolves a dotted path against this struct's descendants,
// descending only through nested Struct values. A path segment that
// names a StructArray resolves no further; use At on that value to
// pick an element and continue with ByPath from there.
func (s Struct) ByPath(path string) (Value, bool) {
	segments := strings.Split(path, ".")
	var cur Value = s
	for _, seg := range segments {
		st, ok := cur.(Struct)
		if !ok {
			return nil, false
		}
		next, ok := st.ByName(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// At returns the i-th child field by declaration order.
func (s Struct) At(i int) (Value, error) {
	if i < 0 || i >= len(s.Fields) {
		return nil, fmt.Errorf("field: index %d out of range (%d fields)", i, len(s.Fields))
	}
	return s.Fields[i], nil
}

// StructArray is a repeated struct: either a fixed count or however
// many whole-stream iterations a parse produced.
type StructArray struct {
	Info
	Elements []Struct
}

func (StructArray) isValue() {}

var _ Value = StructArray{}

// At returns the i-th element.
func (a StructArray) At(i int) (Struct, error) {
	if i < 0 || i >= len(a.Elements) {
		return Struct{}, fmt.Errorf("field: index %d out of range (%d elements)", i, len(a.Elements))
	}
	return a.Elements[i], nil
}

func (a StructArray) Len() int { return len(a.Elements) }
