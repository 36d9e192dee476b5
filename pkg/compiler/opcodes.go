package compiler

// Type codes occupy the low nibble of an instruction's first opcode byte.
// Sixteen values are reserved; one (0x0F) remains unused for future field types.
const (
	CodeResetCounter = 0x00
	CodeAlign        = 0x01
	CodeSkip         = 0x02
	CodeBit          = 0x03
	CodeBool         = 0x04
	CodeByte         = 0x05
	CodeUByte        = 0x06
	CodeShort        = 0x07
	CodeUShort       = 0x08
	CodeInt          = 0x09
	CodeLong         = 0x0A
	CodeVar          = 0x0B
	CodeStructStart  = 0x0C
	CodeStructEnd    = 0x0D
	CodeCustomType   = 0x0E

	codeTypeMask = 0x0F
	// CodeTypeMask is codeTypeMask exported for the interpreter, which
	// decodes the same opcode byte layout from a separate package.
	CodeTypeMask = codeTypeMask
)

// Flags occupy the high nibble of the first opcode byte.
const (
	FlagNamed         = 0x10
	FlagArray         = 0x20
	FlagLittleEndian  = 0x40
	FlagWide          = 0x80
)

// Extension flags occupy the low bits of the second opcode byte, present
// only when FlagWide is set.
const (
	ExtFlagExtraAsExpression       = 0x01
	ExtFlagExpressionOrWholeStream = 0x02
)

// maxPackedIntWidth is the number of bytes always reserved for a struct
// body-start back-pointer, per the "reserve the max packed width" strategy
// spec.md §9 prefers over two-pass rewriting or duplicate emission. Five
// bytes hold any value up to 2^35, comfortably beyond any real script's
// instruction count.
const maxPackedIntWidth = 5
