package field

// ToJSON converts a parsed field tree into plain Go values (map[string]any,
// []any, and primitives) suitable for encoding/json or a structured
// message body. Struct becomes a map keyed by field name, StructArray and
// every ArrayValue become a slice, everything else becomes its scalar Val.
func ToJSON(v Value) any {
	switch f := v.(type) {
	case Struct:
		out := make(map[string]any, len(f.Fields))
		for _, child := range f.Fields {
			out[child.FieldName()] = ToJSON(child)
		}
		return out
	case StructArray:
		out := make([]any, len(f.Elements))
		for i, elem := range f.Elements {
			out[i] = ToJSON(elem)
		}
		return out
	case Bit:
		return f.Val
	case Bool:
		return f.Val
	case Byte:
		return f.Val
	case UByte:
		return f.Val
	case Short:
		return f.Val
	case UShort:
		return f.Val
	case Int:
		return f.Val
	case Long:
		return f.Val
	case Var:
		return f.Val
	case Custom:
		return f.Val
	case BitArray:
		return f.Vals
	case BoolArray:
		return f.Vals
	case ByteArray:
		return f.Vals
	case UByteArray:
		return f.Vals
	case ShortArray:
		return f.Vals
	case UShortArray:
		return f.Vals
	case IntArray:
		return f.Vals
	case LongArray:
		return f.Vals
	case CustomArray:
		return f.Vals
	case VarArray:
		return f.Vals
	default:
		return nil
	}
}
