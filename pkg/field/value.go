package field

// Value is implemented by every node in a parsed field tree.
type Value interface {
	FieldName() string
	FieldPath() string
	isValue()
}

// Info carries the identity shared by every field: its local name and
// its full dotted path from the parse root. Both are empty for an
// unnamed field.
type Info struct {
	Name string
	Path string
}

func (i Info) FieldName() string { return i.Name }
func (i Info) FieldPath() string { return i.Path }
func (Info) isValue()            {}

// Bit holds a single sub-byte field read with the width recorded at
// compile time.
type Bit struct {
	Info
	Width int
	Val   byte
}

type Bool struct {
	Info
	Val bool
}

type Byte struct {
	Info
	Val int8
}

type UByte struct {
	Info
	Val uint8
}

type Short struct {
	Info
	Val int16
}

type UShort struct {
	Info
	Val uint16
}

type Int struct {
	Info
	Val int32
}

type Long struct {
	Info
	Val int64
}

// Var holds the value a VarFieldProcessor produced; its dynamic type is
// whatever that processor chose to return.
type Var struct {
	Info
	Val any
}

// Custom holds the value a CustomFieldTypeProcessor produced for one
// non-builtin type name.
type Custom struct {
	Info
	TypeName string
	Val      any
}

type BitArray struct {
	Info
	Width int
	Vals  []byte
}

type BoolArray struct {
	Info
	Vals []bool
}

type ByteArray struct {
	Info
	Vals []int8
}

type UByteArray struct {
	Info
	Vals []uint8
}

type ShortArray struct {
	Info
	Vals []int16
}

type UShortArray struct {
	Info
	Vals []uint16
}

type IntArray struct {
	Info
	Vals []int32
}

type LongArray struct {
	Info
	Vals []int64
}

type CustomArray struct {
	Info
	TypeName string
	Vals     []any
}

// VarArray holds the values a VarFieldProcessor produced for a "var"
// array site.
type VarArray struct {
	Info
	Vals []any
}

var (
	_ Value = Bit{}
	_ Value = Bool{}
	_ Value = Byte{}
	_ Value = UByte{}
	_ Value = Short{}
	_ Value = UShort{}
	_ Value = Int{}
	_ Value = Long{}
	_ Value = Var{}
	_ Value = Custom{}
	_ Value = BitArray{}
	_ Value = BoolArray{}
	_ Value = ByteArray{}
	_ Value = UByteArray{}
	_ Value = ShortArray{}
	_ Value = UShortArray{}
	_ Value = IntArray{}
	_ Value = LongArray{}
	_ Value = CustomArray{}
	_ Value = VarArray{}
)

// NumericValue reports whether v carries a single integer value usable
// by NamedNumericFieldMap, and if so, its value widened to int64.
func NumericValue(v Value) (int64, bool) {
	switch f := v.(type) {
	case Bit:
		return int64(f.Val), true
	case Bool:
		if f.Val {
			return 1, true
		}
		return 0, true
	case Byte:
		return int64(f.Val), true
	case UByte:
		return int64(f.Val), true
	case Short:
		return int64(f.Val), true
	case UShort:
		return int64(f.Val), true
	case Int:
		return int64(f.Val), true
	case Long:
		return f.Val, true
	default:
		return 0, false
	}
}
