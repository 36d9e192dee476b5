package compiler

import (
	"fmt"
	"strings"

	"github.com/twinfer/bbin/pkg/expreval"
	"github.com/twinfer/bbin/pkg/script"
)

// Compile lexes and compiles a script's source text into a CompiledBlock.
func Compile(src string) (*CompiledBlock, error) {
	toks, err := script.Lex(src)
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	decls, err := parseScript(src, toks)
	if err != nil {
		return nil, err
	}
	return CompileDecls(decls)
}

// CompileDecls compiles an already-parsed declaration tree. Exported so
// tests (and future script-generation tooling) can build trees directly.
func CompileDecls(decls []*decl) (*CompiledBlock, error) {
	allFull, allLocal := collectNames(decls, nil)
	e := &emitter{
		declaredSoFar: map[string]bool{},
		allFullPaths:  allFull,
		allLocalNames: allLocal,
	}
	if err := e.emitList(decls, nil, false); err != nil {
		return nil, err
	}
	return &CompiledBlock{
		Code:                  e.code,
		NamedFields:           e.namedFields,
		SizeEvaluators:        e.evaluators,
		CustomTypeDescriptors: e.customTypes,
		HasVarFields:          e.hasVarFields,
		HasEvaluatedArrays:    e.hasEvaluatedArrays,
	}, nil
}

func collectNames(decls []*decl, scope []string) (fullPaths, localNames map[string]bool) {
	fullPaths = map[string]bool{}
	localNames = map[string]bool{}
	var walk func(decls []*decl, scope []string)
	walk = func(decls []*decl, scope []string) {
		for _, d := range decls {
			switch d.kind {
			case declStruct:
				path := dottedPath(scope, d.name)
				fullPaths[path] = true
				localNames[d.name] = true
				walk(d.body, append(append([]string{}, scope...), d.name))
			case declField:
				if d.name != "" {
					path := dottedPath(scope, d.name)
					fullPaths[path] = true
					localNames[d.name] = true
				}
			}
		}
	}
	walk(decls, scope)
	return fullPaths, localNames
}

func dottedPath(scope []string, name string) string {
	if len(scope) == 0 {
		return name
	}
	return strings.Join(scope, ".") + "." + name
}

type emitter struct {
	code               []byte
	namedFields        []NamedFieldInfo
	evaluators         []*expreval.Program
	customTypes        []CustomTypeDescriptor
	hasVarFields       bool
	hasEvaluatedArrays bool

	declaredSoFar map[string]bool
	allFullPaths  map[string]bool
	allLocalNames map[string]bool
}

// emitList emits one struct scope's worth of declarations. insideWholeStream
// tracks whether the enclosing struct array is itself whole-stream, since a
// nested whole-stream struct array is not permitted inside one.
func (e *emitter) emitList(decls []*decl, scope []string, insideWholeStream bool) error {
	seen := map[string]bool{}
	for _, d := range decls {
		switch d.kind {
		case declReset:
			e.code = append(e.code, byte(CodeResetCounter))
		case declAlign:
			if err := e.emitDirective(d, CodeAlign, scope); err != nil {
				return err
			}
		case declSkip:
			if err := e.emitDirective(d, CodeSkip, scope); err != nil {
				return err
			}
		case declStruct:
			if d.name != "" {
				if seen[d.name] {
					return &CompileError{Pos: d.pos, Msg: fmt.Sprintf("duplicate field name %q", d.name)}
				}
				seen[d.name] = true
			}
			if d.array == arrWhole && insideWholeStream {
				return &CompileError{Pos: d.pos, Msg: "a whole-stream struct array cannot nest inside another whole-stream array"}
			}
			if err := e.emitStruct(d, scope); err != nil {
				return err
			}
		case declField:
			if d.name != "" {
				if seen[d.name] {
					return &CompileError{Pos: d.pos, Msg: fmt.Sprintf("duplicate field name %q", d.name)}
				}
				seen[d.name] = true
			}
			if err := e.emitField(d, scope); err != nil {
				return err
			}
		}
		e.markDeclared(d, scope)
	}
	return nil
}

func (e *emitter) markDeclared(d *decl, scope []string) {
	name := d.name
	if name == "" {
		return
	}
	e.declaredSoFar[name] = true
	e.declaredSoFar[dottedPath(scope, name)] = true
}

// compileExpr compiles an expression and checks every field it references
// against what has already been declared at this point in the script.
func (e *emitter) compileExpr(exprSrc string, pos int) (*expreval.Program, error) {
	prog, err := expreval.Compile(exprSrc)
	if err != nil {
		return nil, &CompileError{Pos: pos, Msg: fmt.Sprintf("bad expression %q: %v", exprSrc, err)}
	}
	for _, name := range prog.FieldNames() {
		if e.declaredSoFar[name] {
			continue
		}
		if e.allFullPaths[name] || e.allLocalNames[name] {
			return nil, &CompileError{Pos: pos, Msg: fmt.Sprintf("forward reference to field %q", name)}
		}
		// Not declared anywhere in the script; assumed to be resolved by
		// an ExternalValueProvider at parse time.
	}
	return prog, nil
}

func (e *emitter) emitDirective(d *decl, code int, scope []string) error {
	extraAsExpr := d.extraExpr != ""
	opBytes := buildOpcodeBytes(code, false, false, false, extraAsExpr, false)
	e.code = append(e.code, opBytes...)
	if extraAsExpr {
		prog, err := e.compileExpr(d.extraExpr, d.pos)
		if err != nil {
			return err
		}
		e.evaluators = append(e.evaluators, prog)
		e.hasEvaluatedArrays = true
	} else {
		e.code = appendPackedUint(e.code, uint32(d.extraLiteral))
	}
	return nil
}

var atomicCodes = map[string]int{
	"bit":    CodeBit,
	"bool":   CodeBool,
	"byte":   CodeByte,
	"ubyte":  CodeUByte,
	"short":  CodeShort,
	"ushort": CodeUShort,
	"int":    CodeInt,
	"long":   CodeLong,
	"var":    CodeVar,
}

func (e *emitter) emitField(d *decl, scope []string) error {
	code, known := atomicCodes[d.typeName]
	isCustom := false
	customIdx := 0
	if !known {
		code = CodeCustomType
		isCustom = true
		customIdx = len(e.customTypes)
		e.customTypes = append(e.customTypes, CustomTypeDescriptor{TypeName: d.typeName})
	}
	if code == CodeBit && !d.hasExtra {
		return &CompileError{Pos: d.pos, Msg: "bit field requires a :width extra parameter"}
	}
	if code == CodeBit && d.extraExpr == "" {
		if d.extraLiteral < 1 || d.extraLiteral > 8 {
			return &CompileError{Pos: d.pos, Msg: fmt.Sprintf("bit width %d out of range 1..8", d.extraLiteral)}
		}
	}
	if code == CodeVar {
		e.hasVarFields = true
	}

	extraAsExpr := d.hasExtra && d.extraExpr != ""
	isArray, extOrWhole := arrayFlagsFor(d.array)
	opBytes := buildOpcodeBytes(code, d.name != "", isArray, d.hasByteOrderPrefix && d.littleEndian, extraAsExpr, extOrWhole)
	e.code = append(e.code, opBytes...)

	if d.array == arrExpr {
		e.hasEvaluatedArrays = true
	}

	// The extra parameter (bit width / var extra / custom extra) is
	// always emitted before the array-length slot, whether each is a
	// literal (code byte stream) or an expression (evaluator table).
	// The interpreter's handleAtomic resolves them in this same order;
	// swapping it here without swapping there desynchronizes both
	// cursors, not just one.
	//
	// Bit, var, and custom types always carry an extra-parameter slot in
	// the bytecode, defaulting to a literal 0 when the script gave none,
	// so the interpreter never has to guess whether one is present.
	needsExtraSlot := code == CodeBit || code == CodeVar || isCustom
	if needsExtraSlot {
		if extraAsExpr {
			prog, err := e.compileExpr(d.extraExpr, d.pos)
			if err != nil {
				return err
			}
			e.evaluators = append(e.evaluators, prog)
			e.hasEvaluatedArrays = true
		} else {
			e.code = appendPackedUint(e.code, uint32(d.extraLiteral))
		}
	}

	if isArray && d.array == arrLiteral {
		e.code = appendPackedUint(e.code, uint32(d.arrayLiteral))
	}
	if d.array == arrExpr {
		prog, err := e.compileExpr(d.arrayExpr, d.pos)
		if err != nil {
			return err
		}
		e.evaluators = append(e.evaluators, prog)
	}

	if isCustom {
		e.code = appendPackedUint(e.code, uint32(customIdx))
	}

	if d.name != "" {
		e.namedFields = append(e.namedFields, NamedFieldInfo{
			Path:      dottedPath(scope, d.name),
			LocalName: d.name,
			Depth:     len(scope),
		})
	}
	return nil
}

func (e *emitter) emitStruct(d *decl, scope []string) error {
	startOffset := len(e.code)
	isArray, extOrWhole := arrayFlagsFor(d.array)
	opBytes := buildOpcodeBytes(CodeStructStart, d.name != "", isArray, false, false, extOrWhole)
	e.code = append(e.code, opBytes...)

	if isArray && d.array == arrLiteral {
		e.code = appendPackedUint(e.code, uint32(d.arrayLiteral))
	}
	if d.array == arrExpr {
		prog, err := e.compileExpr(d.arrayExpr, d.pos)
		if err != nil {
			return err
		}
		e.evaluators = append(e.evaluators, prog)
		e.hasEvaluatedArrays = true
	}

	if d.name != "" {
		e.namedFields = append(e.namedFields, NamedFieldInfo{
			Path:      dottedPath(scope, d.name),
			LocalName: d.name,
			Depth:     len(scope),
		})
	}

	childScope := append(append([]string{}, scope...), d.name)
	if err := e.emitList(d.body, childScope, d.array == arrWhole); err != nil {
		return err
	}

	e.code = append(e.code, byte(CodeStructEnd))
	e.code = appendPackedUintPadded(e.code, uint32(startOffset), maxPackedIntWidth)
	return nil
}

func arrayFlagsFor(k arrayKind) (isArray, extOrWhole bool) {
	switch k {
	case arrNone:
		return false, false
	case arrLiteral:
		return true, false
	case arrWhole:
		return false, true
	case arrExpr:
		return true, true
	}
	return false, false
}

// buildOpcodeBytes assembles the 1-2 opcode bytes for one instruction.
func buildOpcodeBytes(code int, named, isArray, littleEndian, extraAsExpr, extOrWhole bool) []byte {
	first := byte(code)
	if named {
		first |= FlagNamed
	}
	if isArray {
		first |= FlagArray
	}
	if littleEndian {
		first |= FlagLittleEndian
	}
	wide := extraAsExpr || extOrWhole
	if wide {
		first |= FlagWide
	}
	out := []byte{first}
	if wide {
		var ext byte
		if extraAsExpr {
			ext |= ExtFlagExtraAsExpression
		}
		if extOrWhole {
			ext |= ExtFlagExpressionOrWholeStream
		}
		out = append(out, ext)
	}
	return out
}
