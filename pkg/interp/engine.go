package interp

import (
	"errors"
	"fmt"

	"github.com/twinfer/bbin/pkg/bstream"
	"github.com/twinfer/bbin/pkg/compiler"
	"github.com/twinfer/bbin/pkg/field"
)

// errStopAtEOF is returned internally when WithSkipRemainingFieldsIfEOF
// is set and the stream runs dry exactly on an instruction boundary. It
// never escapes Parse as an error; Parse converts it into a clean,
// partial result.
var errStopAtEOF = errors.New("interp: stopped cleanly at end of stream")

// engine is the read-direction walk over a CompiledBlock: it pulls bytes
// off stream and builds the field.Value tree. Everything about walking
// the bytecode itself that doesn't care which direction data flows
// lives in the embedded cursorWalk.
type engine struct {
	cursorWalk
	stream  *bstream.Stream
	opts    *options
	varProc VarFieldProcessor
}

func newEngine(block *compiler.CompiledBlock, stream *bstream.Stream, opts *options, names *NamedNumericFieldMap, varProc VarFieldProcessor) *engine {
	e := &engine{stream: stream, opts: opts, varProc: varProc}
	e.cursorWalk = cursorWalk{block: block, names: names, counter: stream.Counter}
	return e
}

// parseBody walks instructions starting at cur.pc until a matching
// CODE_STRUCT_END or, at the top level, the end of the bytecode. In
// skip mode no field is appended and the stream is never touched; only
// the name/eval cursors and the trailing struct back-pointer are
// consumed, keeping later sibling instructions correctly indexed.
func (e *engine) parseBody(cur *cursors, skip bool) ([]field.Value, error) {
	var fields []field.Value
	for {
		if cur.pc >= len(e.block.Code) {
			return fields, nil
		}
		if e.opts.skipRemainingOnEOF && !skip {
			has, herr := e.stream.HasAvailableData()
			if herr != nil {
				return fields, e.wrapErr("", herr)
			}
			if !has {
				e.opts.logger.Warn("stopping cleanly at end of stream", "offset", e.stream.Counter())
				return fields, errStopAtEOF
			}
		}

		instrStart := cur.pc
		h := e.readHeader(cur)
		if h.codeType == compiler.CodeStructEnd {
			return fields, nil
		}

		var info field.Info
		if h.named {
			nf, err := e.nextNamedInfo(cur)
			if err != nil {
				return fields, err
			}
			info = field.Info{Name: nf.LocalName, Path: nf.Path}
		}

		e.opts.logger.Debug("dispatch", "pc", instrStart, "code", h.codeType, "path", info.Path, "array", h.isArray || h.extOrWhole, "skip", skip)

		switch h.codeType {
		case compiler.CodeResetCounter:
			if !skip {
				e.stream.ResetCounter()
			}
		case compiler.CodeAlign:
			lit, err := e.readOrEvalLiteral(cur, h.extraAsExpr)
			if err != nil {
				return fields, err
			}
			if !skip {
				if err := e.stream.Align(int(lit)); err != nil {
					return fields, e.wrapErr("", err)
				}
			}
		case compiler.CodeSkip:
			lit, err := e.readOrEvalLiteral(cur, h.extraAsExpr)
			if err != nil {
				return fields, err
			}
			if !skip {
				if _, err := e.stream.Skip(int(lit)); err != nil {
					return fields, e.wrapErr("", err)
				}
			}
		case compiler.CodeStructStart:
			val, err := e.handleStruct(cur, instrStart, info, h, skip)
			stop := errors.Is(err, errStopAtEOF)
			if err != nil && !stop {
				return fields, err
			}
			if !skip && val != nil {
				fields = append(fields, val)
			}
			if stop {
				return fields, errStopAtEOF
			}
		default:
			val, err := e.handleAtomic(cur, h, info, skip)
			if err != nil {
				return fields, err
			}
			if !skip && val != nil {
				fields = append(fields, val)
			}
		}
	}
}

func (e *engine) handleStruct(cur *cursors, instrStart int, info field.Info, h header, skip bool) (field.Value, error) {
	opcodeByteCount := 1
	if h.extOrWhole {
		opcodeByteCount = 2
	}
	isArr := h.isArray || h.extOrWhole

	var count, literalWidth int
	var whole bool
	if isArr {
		var err error
		count, whole, literalWidth, err = e.resolveCount(cur, h.isArray, h.extOrWhole)
		if err != nil {
			return nil, err
		}
	}

	if skip {
		if _, err := e.parseBody(cur, true); err != nil {
			return nil, err
		}
		if _, err := e.consumeStructEndBackPointer(cur); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if !isArr {
		e.names.pushScope()
		body, err := e.parseBody(cur, false)
		e.names.popScope()
		stop := errors.Is(err, errStopAtEOF)
		if err != nil && !stop {
			return nil, err
		}
		if _, bpErr := e.consumeStructEndBackPointer(cur); bpErr != nil {
			return nil, bpErr
		}
		s := field.Struct{Info: info, Fields: body}
		if stop {
			return s, errStopAtEOF
		}
		return s, nil
	}

	if count == 0 && !whole {
		if _, err := e.parseBody(cur, true); err != nil {
			return nil, err
		}
		if _, err := e.consumeStructEndBackPointer(cur); err != nil {
			return nil, err
		}
		return field.StructArray{Info: info, Elements: nil}, nil
	}

	e.names.pushScope()
	// Every iteration walks the same lexical body, so it must re-consume
	// the same slice of NamedFields/SizeEvaluators each time, not the
	// next slice along: nameIdx and evalIdx are saved here and restored
	// at the top of every iteration, the same way pc rewinds to
	// bodyStart. Left unrestored, the second iteration of any array
	// element containing a named field or an expression would read past
	// where the first iteration left off and exhaust the table.
	savedNameIdx, savedEvalIdx := cur.nameIdx, cur.evalIdx
	var elements []field.Struct
	stoppedAtEOF := false
	endPC := cur.pc
	for whole || len(elements) < count {
		if whole {
			has, herr := e.stream.HasAvailableData()
			if herr != nil {
				e.names.popScope()
				return nil, e.wrapErr(info.Path, herr)
			}
			if !has {
				break
			}
		}
		cur.nameIdx, cur.evalIdx = savedNameIdx, savedEvalIdx
		if len(elements) > 0 {
			e.names.resetScope()
		}
		body, err := e.parseBody(cur, false)
		stop := errors.Is(err, errStopAtEOF)
		if err != nil && !stop {
			e.names.popScope()
			return nil, err
		}
		backPtr, bpErr := e.consumeStructEndBackPointer(cur)
		if bpErr != nil {
			e.names.popScope()
			return nil, bpErr
		}
		endPC = cur.pc
		elements = append(elements, field.Struct{Fields: body})
		if stop {
			stoppedAtEOF = true
			break
		}
		if whole || len(elements) < count {
			cur.pc = backPtr + opcodeByteCount + literalWidth
		}
	}
	// A whole-stream array rewinds pc to the body start before it learns
	// the stream is exhausted; continue after the last STRUCT_END instead.
	if len(elements) > 0 {
		cur.pc = endPC
	}
	// A whole-stream array that never ran even once still has to advance
	// past its body's table slots, the same way the explicit zero-count
	// case above does with an actual skip walk: those slots are reserved
	// once at compile time regardless of how many times the body runs.
	if len(elements) == 0 && whole && !stoppedAtEOF {
		cur.nameIdx, cur.evalIdx = savedNameIdx, savedEvalIdx
		if _, err := e.parseBody(cur, true); err != nil {
			e.names.popScope()
			return nil, err
		}
		if _, err := e.consumeStructEndBackPointer(cur); err != nil {
			e.names.popScope()
			return nil, err
		}
	}
	e.names.popScope()
	result := field.StructArray{Info: info, Elements: elements}
	if stoppedAtEOF {
		return result, errStopAtEOF
	}
	return result, nil
}

func (e *engine) handleAtomic(cur *cursors, h header, info field.Info, skip bool) (field.Value, error) {
	// The compiler emits the extra-parameter evaluator (bit width / var
	// extra / custom extra) before the array-length evaluator whenever
	// both are expressions (emitField writes the extra slot, then the
	// array-size expression). Consuming SizeEvaluators out of that order
	// hands each program the other's slot, so extra must be resolved
	// here first.
	var extra int64
	needsExtra := h.codeType == compiler.CodeBit || h.codeType == compiler.CodeVar || h.codeType == compiler.CodeCustomType
	if needsExtra {
		v, err := e.readOrEvalLiteral(cur, h.extraAsExpr)
		if err != nil {
			return nil, err
		}
		extra = v
	}

	var count, literalWidth int
	var whole bool
	isArr := h.isArray || h.extOrWhole
	if isArr {
		var err error
		count, whole, literalWidth, err = e.resolveCount(cur, h.isArray, h.extOrWhole)
		_ = literalWidth
		if err != nil {
			return nil, err
		}
	}

	var customTypeName string
	if h.codeType == compiler.CodeCustomType {
		idxVal, err := unpackPackedUint(e.block.Code, &cur.pc)
		if err != nil {
			return nil, &ParsingError{Path: info.Path, Msg: err.Error(), Err: err}
		}
		if int(idxVal) >= len(e.block.CustomTypeDescriptors) {
			return nil, &ParsingError{Path: info.Path, Msg: "custom type index out of range"}
		}
		customTypeName = e.block.CustomTypeDescriptors[idxVal].TypeName
	}

	if skip {
		return nil, nil
	}

	order := bstream.BigEndian
	if h.little {
		order = bstream.LittleEndian
	}
	n := countOrWhole(count, whole)

	switch h.codeType {
	case compiler.CodeBit:
		if !isArr {
			v, err := e.stream.ReadBitField(int(extra))
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			e.names.put(info.Name, info.Path, int64(v))
			return field.Bit{Info: info, Width: int(extra), Val: v}, nil
		}
		vs, err := e.stream.ReadBitsArray(n, int(extra))
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		return field.BitArray{Info: info, Width: int(extra), Vals: vs}, nil

	case compiler.CodeBool:
		if !isArr {
			v, err := e.stream.ReadBoolean()
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			e.names.put(info.Name, info.Path, boolToInt64(v))
			return field.Bool{Info: info, Val: v}, nil
		}
		vs, err := e.stream.ReadBoolArray(n)
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		return field.BoolArray{Info: info, Vals: vs}, nil

	case compiler.CodeByte:
		if !isArr {
			b, err := e.stream.ReadByte()
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			v := int8(b)
			e.names.put(info.Name, info.Path, int64(v))
			return field.Byte{Info: info, Val: v}, nil
		}
		bs, err := e.stream.ReadByteArray(n)
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		vs := make([]int8, len(bs))
		for i, b := range bs {
			vs[i] = int8(b)
		}
		return field.ByteArray{Info: info, Vals: vs}, nil

	case compiler.CodeUByte:
		if !isArr {
			b, err := e.stream.ReadByte()
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			e.names.put(info.Name, info.Path, int64(b))
			return field.UByte{Info: info, Val: b}, nil
		}
		bs, err := e.stream.ReadByteArray(n)
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		return field.UByteArray{Info: info, Vals: bs}, nil

	case compiler.CodeShort:
		if !isArr {
			v, err := e.stream.ReadUint16(order)
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			sv := int16(v)
			e.names.put(info.Name, info.Path, int64(sv))
			return field.Short{Info: info, Val: sv}, nil
		}
		vs, err := e.stream.ReadUint16Array(n, order)
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		out := make([]int16, len(vs))
		for i, v := range vs {
			out[i] = int16(v)
		}
		return field.ShortArray{Info: info, Vals: out}, nil

	case compiler.CodeUShort:
		if !isArr {
			v, err := e.stream.ReadUint16(order)
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			e.names.put(info.Name, info.Path, int64(v))
			return field.UShort{Info: info, Val: v}, nil
		}
		vs, err := e.stream.ReadUint16Array(n, order)
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		return field.UShortArray{Info: info, Vals: vs}, nil

	case compiler.CodeInt:
		if !isArr {
			v, err := e.stream.ReadUint32(order)
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			iv := int32(v)
			e.names.put(info.Name, info.Path, int64(iv))
			return field.Int{Info: info, Val: iv}, nil
		}
		vs, err := e.stream.ReadUint32Array(n, order)
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		out := make([]int32, len(vs))
		for i, v := range vs {
			out[i] = int32(v)
		}
		return field.IntArray{Info: info, Vals: out}, nil

	case compiler.CodeLong:
		if !isArr {
			v, err := e.stream.ReadUint64(order)
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			lv := int64(v)
			e.names.put(info.Name, info.Path, lv)
			return field.Long{Info: info, Val: lv}, nil
		}
		vs, err := e.stream.ReadUint64Array(n, order)
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		out := make([]int64, len(vs))
		for i, v := range vs {
			out[i] = int64(v)
		}
		return field.LongArray{Info: info, Vals: out}, nil

	case compiler.CodeVar:
		if e.varProc == nil {
			return nil, &UnsupportedTypeError{TypeName: "var"}
		}
		rc := &ReadContext{Stream: e.stream, ByteOrder: order, Names: e.names}
		if !isArr {
			v, err := e.varProc.ReadVar(rc, extra)
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			return field.Var{Info: info, Val: v}, nil
		}
		vs, err := e.varProc.ReadVarArray(rc, n, extra)
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		return field.VarArray{Info: info, Vals: vs}, nil

	case compiler.CodeCustomType:
		if e.opts.customTypeProc == nil || !e.opts.customTypeProc.Handles(customTypeName) {
			return nil, &UnsupportedTypeError{TypeName: customTypeName}
		}
		rc := &ReadContext{Stream: e.stream, ByteOrder: order, Names: e.names}
		if !isArr {
			v, err := e.opts.customTypeProc.ReadCustom(rc, customTypeName, extra)
			if err != nil {
				return nil, e.wrapErr(info.Path, err)
			}
			return field.Custom{Info: info, TypeName: customTypeName, Val: v}, nil
		}
		vs, err := e.opts.customTypeProc.ReadCustomArray(rc, customTypeName, n, extra)
		if err != nil {
			return nil, e.wrapErr(info.Path, err)
		}
		return field.CustomArray{Info: info, TypeName: customTypeName, Vals: vs}, nil
	}

	return nil, &ParsingError{Path: info.Path, Msg: fmt.Sprintf("unknown opcode type %d", h.codeType)}
}
