package interp

import (
	"fmt"

	"github.com/twinfer/bbin/pkg/compiler"
	"github.com/twinfer/bbin/pkg/expreval"
)

// cursors are the three table indices a parse or serialize pass keeps in
// lock-step with the instruction pointer; recursion depth is the fourth,
// carried by the Go call stack itself.
type cursors struct {
	pc      int
	nameIdx int
	evalIdx int
}

type header struct {
	codeType    int
	named       bool
	isArray     bool
	little      bool
	extraAsExpr bool
	extOrWhole  bool
}

// cursorWalk is everything about walking a CompiledBlock's bytecode,
// evaluator table, and named-field table that reading and writing share:
// only what sits on the other end of the walk (a byte reader building
// values or a byte writer consuming them) differs. counter reports the
// current byte position for $$-style stream-position expressions,
// supplied by the read or write stream respectively.
type cursorWalk struct {
	block   *compiler.CompiledBlock
	names   *NamedNumericFieldMap
	counter func() int64
}

func (w *cursorWalk) nextEvaluator(cur *cursors) (*expreval.Program, error) {
	if cur.evalIdx >= len(w.block.SizeEvaluators) {
		return nil, &ParsingError{Msg: "size-evaluator table exhausted"}
	}
	p := w.block.SizeEvaluators[cur.evalIdx]
	cur.evalIdx++
	return p, nil
}

func (w *cursorWalk) nextNamedInfo(cur *cursors) (compiler.NamedFieldInfo, error) {
	if cur.nameIdx >= len(w.block.NamedFields) {
		return compiler.NamedFieldInfo{}, &ParsingError{Msg: "named-field table exhausted"}
	}
	nf := w.block.NamedFields[cur.nameIdx]
	cur.nameIdx++
	return nf, nil
}

func (w *cursorWalk) evalExpr(prog *expreval.Program) (int32, error) {
	ctx := evalContext{names: w.names, counter: int32(w.counter())}
	return prog.Eval(ctx)
}

func (w *cursorWalk) wrapErr(path string, err error) error {
	return &ParsingError{Path: path, Msg: err.Error(), Err: err}
}

// readOrEvalLiteral resolves one directive/extra parameter: a literal
// packed into the bytecode, or an expression evaluated against the
// current field values and stream counter.
func (w *cursorWalk) readOrEvalLiteral(cur *cursors, asExpr bool) (int64, error) {
	if asExpr {
		prog, err := w.nextEvaluator(cur)
		if err != nil {
			return 0, err
		}
		v, err := w.evalExpr(prog)
		if err != nil {
			return 0, &ParsingError{Msg: err.Error(), Err: err}
		}
		return int64(v), nil
	}
	v, err := unpackPackedUint(w.block.Code, &cur.pc)
	if err != nil {
		return 0, &ParsingError{Msg: err.Error(), Err: err}
	}
	return int64(v), nil
}

// resolveCount decodes the (isArray, extOrWhole) pair into an element
// count, whether the array is whole-stream, and how many bytecode bytes
// a literal count consumed (0 for expression or whole-stream counts;
// used only by struct-array re-entry to relocate the body start).
func (w *cursorWalk) resolveCount(cur *cursors, isArray, extOrWhole bool) (count int, whole bool, literalWidth int, err error) {
	switch {
	case !isArray && extOrWhole:
		return -1, true, 0, nil
	case isArray && !extOrWhole:
		before := cur.pc
		v, err := unpackPackedUint(w.block.Code, &cur.pc)
		if err != nil {
			return 0, false, 0, &ParsingError{Msg: err.Error(), Err: err}
		}
		return int(v), false, cur.pc - before, nil
	case isArray && extOrWhole:
		prog, err := w.nextEvaluator(cur)
		if err != nil {
			return 0, false, 0, err
		}
		v, err := w.evalExpr(prog)
		if err != nil {
			return 0, false, 0, &ParsingError{Msg: err.Error(), Err: err}
		}
		if v < 0 {
			return 0, false, 0, &ParsingError{Msg: fmt.Sprintf("negative array length %d", v)}
		}
		return int(v), false, 0, nil
	default:
		return 0, false, 0, nil
	}
}

func (w *cursorWalk) readHeader(cur *cursors) header {
	first := w.block.Code[cur.pc]
	cur.pc++
	h := header{
		codeType: int(first) & compiler.CodeTypeMask,
		named:    first&compiler.FlagNamed != 0,
		isArray:  first&compiler.FlagArray != 0,
		little:   first&compiler.FlagLittleEndian != 0,
	}
	if first&compiler.FlagWide != 0 {
		ext := w.block.Code[cur.pc]
		cur.pc++
		h.extraAsExpr = ext&compiler.ExtFlagExtraAsExpression != 0
		h.extOrWhole = ext&compiler.ExtFlagExpressionOrWholeStream != 0
	}
	return h
}

// consumeStructEndBackPointer reads the fixed-width packed integer the
// compiler wrote right after a CODE_STRUCT_END: the offset of the
// STRUCT_START instruction's own opcode byte, used to re-enter the body
// for another array iteration.
func (w *cursorWalk) consumeStructEndBackPointer(cur *cursors) (int, error) {
	v, err := unpackPackedUint(w.block.Code, &cur.pc)
	if err != nil {
		return 0, &ParsingError{Msg: err.Error(), Err: err}
	}
	return int(v), nil
}

func countOrWhole(count int, whole bool) int {
	if whole {
		return -1
	}
	return count
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
