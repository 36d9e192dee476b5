package interp

import (
	"fmt"

	"github.com/twinfer/bbin/pkg/bstream"
	"github.com/twinfer/bbin/pkg/compiler"
	"github.com/twinfer/bbin/pkg/field"
)

// skipBody walks a struct body purely structurally, advancing pc,
// nameIdx, and evalIdx without touching any reader or writer. The
// serializer uses it when a struct array in the tree has zero elements
// (the read side gets the same effect from parseBody's skip mode): the
// body's named-field and evaluator slots still occupy
// fixed positions in the compiled tables that every later sibling
// instruction's cursor position depends on, whether or not the body
// ever actually ran.
func (w *cursorWalk) skipBody(cur *cursors) error {
	for {
		if cur.pc >= len(w.block.Code) {
			return nil
		}
		h := w.readHeader(cur)
		if h.codeType == compiler.CodeStructEnd {
			return nil
		}
		if h.named {
			if _, err := w.nextNamedInfo(cur); err != nil {
				return err
			}
		}
		switch h.codeType {
		case compiler.CodeResetCounter:
		case compiler.CodeAlign, compiler.CodeSkip:
			if _, err := w.readOrEvalLiteral(cur, h.extraAsExpr); err != nil {
				return err
			}
		case compiler.CodeStructStart:
			if err := w.skipStruct(cur, h); err != nil {
				return err
			}
		default:
			if err := w.skipAtomic(cur, h); err != nil {
				return err
			}
		}
	}
}

func (w *cursorWalk) skipStruct(cur *cursors, h header) error {
	isArr := h.isArray || h.extOrWhole
	if isArr {
		if _, _, _, err := w.resolveCount(cur, h.isArray, h.extOrWhole); err != nil {
			return err
		}
	}
	if err := w.skipBody(cur); err != nil {
		return err
	}
	_, err := w.consumeStructEndBackPointer(cur)
	return err
}

func (w *cursorWalk) skipAtomic(cur *cursors, h header) error {
	needsExtra := h.codeType == compiler.CodeBit || h.codeType == compiler.CodeVar || h.codeType == compiler.CodeCustomType
	if needsExtra {
		if _, err := w.readOrEvalLiteral(cur, h.extraAsExpr); err != nil {
			return err
		}
	}
	isArr := h.isArray || h.extOrWhole
	if isArr {
		if _, _, _, err := w.resolveCount(cur, h.isArray, h.extOrWhole); err != nil {
			return err
		}
	}
	if h.codeType == compiler.CodeCustomType {
		if _, err := unpackPackedUint(w.block.Code, &cur.pc); err != nil {
			return err
		}
	}
	return nil
}

// serializer is the write-direction mirror of engine: it walks the same
// CompiledBlock in the same instruction order, but pulls values out of
// an already-built field tree instead of a byte reader, and writes
// bytes to ws instead of reading them from a stream. Array counts
// embedded in the script's bytecode are only consumed to keep the shared
// cursors synchronized; the number of elements actually written always
// comes from the tree's own slice lengths, which is ground truth for what
// a caller wants emitted. Extra parameters (e.g. a bit width) are taken
// from the script, as on the read side.
type serializer struct {
	cursorWalk
	ws               *bstream.WriteStream
	opts             *options
	varWriter        VarFieldWriter
	customTypeWriter CustomFieldTypeWriter
}

func newSerializer(block *compiler.CompiledBlock, ws *bstream.WriteStream, opts *options, names *NamedNumericFieldMap, varWriter VarFieldWriter, customTypeWriter CustomFieldTypeWriter) *serializer {
	s := &serializer{ws: ws, opts: opts, varWriter: varWriter, customTypeWriter: customTypeWriter}
	s.cursorWalk = cursorWalk{block: block, names: names, counter: ws.Counter}
	return s
}

// writeBody walks instructions starting at cur.pc until a matching
// CODE_STRUCT_END or the end of the bytecode, consuming one element of
// fields for every struct or atomic instruction dispatched, in the
// exact order parseBody originally appended them.
func (s *serializer) writeBody(cur *cursors, fields []field.Value) error {
	idx := 0
	next := func(path string) (field.Value, error) {
		if idx >= len(fields) {
			return nil, &ParsingError{Path: path, Msg: "field tree exhausted before bytecode"}
		}
		v := fields[idx]
		idx++
		return v, nil
	}

	for {
		if cur.pc >= len(s.block.Code) {
			return nil
		}
		instrStart := cur.pc
		h := s.readHeader(cur)
		if h.codeType == compiler.CodeStructEnd {
			return nil
		}

		var info field.Info
		if h.named {
			nf, err := s.nextNamedInfo(cur)
			if err != nil {
				return err
			}
			info = field.Info{Name: nf.LocalName, Path: nf.Path}
		}

		s.opts.logger.Debug("serialize dispatch", "pc", instrStart, "code", h.codeType, "path", info.Path)

		switch h.codeType {
		case compiler.CodeResetCounter:
			if err := s.ws.ResetCounter(); err != nil {
				return s.wrapErr("", err)
			}
		case compiler.CodeAlign:
			lit, err := s.readOrEvalLiteral(cur, h.extraAsExpr)
			if err != nil {
				return err
			}
			if err := s.ws.Align(int(lit)); err != nil {
				return s.wrapErr("", err)
			}
		case compiler.CodeSkip:
			lit, err := s.readOrEvalLiteral(cur, h.extraAsExpr)
			if err != nil {
				return err
			}
			if err := s.ws.Skip(int(lit)); err != nil {
				return s.wrapErr("", err)
			}
		case compiler.CodeStructStart:
			val, err := next(info.Path)
			if err != nil {
				return err
			}
			if err := s.writeStruct(cur, info, h, val); err != nil {
				return err
			}
		default:
			val, err := next(info.Path)
			if err != nil {
				return err
			}
			if err := s.writeAtomic(cur, h, info, val); err != nil {
				return err
			}
		}
	}
}

func (s *serializer) writeStruct(cur *cursors, info field.Info, h header, val field.Value) error {
	isArr := h.isArray || h.extOrWhole
	if isArr {
		if _, _, _, err := s.resolveCount(cur, h.isArray, h.extOrWhole); err != nil {
			return err
		}

		arr, ok := val.(field.StructArray)
		if !ok {
			return &ParsingError{Path: info.Path, Msg: fmt.Sprintf("expected StructArray, got %T", val)}
		}
		if len(arr.Elements) == 0 {
			if err := s.skipBody(cur); err != nil {
				return err
			}
			_, err := s.consumeStructEndBackPointer(cur)
			return err
		}

		// Every element re-consumes the same slice of the shared
		// NamedFields/SizeEvaluators tables that one lexical occurrence
		// of the body reserved, mirroring the read-direction re-entry.
		savedNameIdx, savedEvalIdx := cur.nameIdx, cur.evalIdx
		s.names.pushScope()
		defer s.names.popScope()
		for i, el := range arr.Elements {
			cur.nameIdx, cur.evalIdx = savedNameIdx, savedEvalIdx
			if i > 0 {
				s.names.resetScope()
			}
			bodyStart := cur.pc
			if err := s.writeBody(cur, el.Fields); err != nil {
				return err
			}
			if _, err := s.consumeStructEndBackPointer(cur); err != nil {
				return err
			}
			if i < len(arr.Elements)-1 {
				cur.pc = bodyStart
			}
		}
		return nil
	}

	st, ok := val.(field.Struct)
	if !ok {
		return &ParsingError{Path: info.Path, Msg: fmt.Sprintf("expected Struct, got %T", val)}
	}
	s.names.pushScope()
	err := s.writeBody(cur, st.Fields)
	s.names.popScope()
	if err != nil {
		return err
	}
	_, err = s.consumeStructEndBackPointer(cur)
	return err
}

func (s *serializer) writeAtomic(cur *cursors, h header, info field.Info, val field.Value) error {
	var extra int64
	needsExtra := h.codeType == compiler.CodeBit || h.codeType == compiler.CodeVar || h.codeType == compiler.CodeCustomType
	if needsExtra {
		v, err := s.readOrEvalLiteral(cur, h.extraAsExpr)
		if err != nil {
			return err
		}
		extra = v
	}

	isArr := h.isArray || h.extOrWhole
	if isArr {
		if _, _, _, err := s.resolveCount(cur, h.isArray, h.extOrWhole); err != nil {
			return err
		}
	}

	var customTypeName string
	if h.codeType == compiler.CodeCustomType {
		idxVal, err := unpackPackedUint(s.block.Code, &cur.pc)
		if err != nil {
			return &ParsingError{Path: info.Path, Msg: err.Error(), Err: err}
		}
		if int(idxVal) >= len(s.block.CustomTypeDescriptors) {
			return &ParsingError{Path: info.Path, Msg: "custom type index out of range"}
		}
		customTypeName = s.block.CustomTypeDescriptors[idxVal].TypeName
	}

	order := bstream.BigEndian
	if h.little {
		order = bstream.LittleEndian
	}

	typeMismatch := func(want string) error {
		return &ParsingError{Path: info.Path, Msg: fmt.Sprintf("expected %s, got %T", want, val)}
	}

	switch h.codeType {
	case compiler.CodeBit:
		if !isArr {
			v, ok := val.(field.Bit)
			if !ok {
				return typeMismatch("field.Bit")
			}
			s.names.put(info.Name, info.Path, int64(v.Val))
			if err := s.ws.WriteBitField(v.Val, int(extra)); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.BitArray)
		if !ok {
			return typeMismatch("field.BitArray")
		}
		if err := s.ws.WriteBitsArray(v.Vals, int(extra)); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil

	case compiler.CodeBool:
		if !isArr {
			v, ok := val.(field.Bool)
			if !ok {
				return typeMismatch("field.Bool")
			}
			s.names.put(info.Name, info.Path, boolToInt64(v.Val))
			if err := s.ws.WriteBoolean(v.Val); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.BoolArray)
		if !ok {
			return typeMismatch("field.BoolArray")
		}
		if err := s.ws.WriteBoolArray(v.Vals); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil

	case compiler.CodeByte:
		if !isArr {
			v, ok := val.(field.Byte)
			if !ok {
				return typeMismatch("field.Byte")
			}
			s.names.put(info.Name, info.Path, int64(v.Val))
			if err := s.ws.WriteByte(byte(v.Val)); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.ByteArray)
		if !ok {
			return typeMismatch("field.ByteArray")
		}
		bs := make([]byte, len(v.Vals))
		for i, b := range v.Vals {
			bs[i] = byte(b)
		}
		if err := s.ws.WriteByteArray(bs); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil

	case compiler.CodeUByte:
		if !isArr {
			v, ok := val.(field.UByte)
			if !ok {
				return typeMismatch("field.UByte")
			}
			s.names.put(info.Name, info.Path, int64(v.Val))
			if err := s.ws.WriteByte(v.Val); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.UByteArray)
		if !ok {
			return typeMismatch("field.UByteArray")
		}
		if err := s.ws.WriteByteArray(v.Vals); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil

	case compiler.CodeShort:
		if !isArr {
			v, ok := val.(field.Short)
			if !ok {
				return typeMismatch("field.Short")
			}
			s.names.put(info.Name, info.Path, int64(v.Val))
			if err := s.ws.WriteUint16(uint16(v.Val), order); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.ShortArray)
		if !ok {
			return typeMismatch("field.ShortArray")
		}
		out := make([]uint16, len(v.Vals))
		for i, x := range v.Vals {
			out[i] = uint16(x)
		}
		if err := s.ws.WriteUint16Array(out, order); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil

	case compiler.CodeUShort:
		if !isArr {
			v, ok := val.(field.UShort)
			if !ok {
				return typeMismatch("field.UShort")
			}
			s.names.put(info.Name, info.Path, int64(v.Val))
			if err := s.ws.WriteUint16(v.Val, order); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.UShortArray)
		if !ok {
			return typeMismatch("field.UShortArray")
		}
		if err := s.ws.WriteUint16Array(v.Vals, order); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil

	case compiler.CodeInt:
		if !isArr {
			v, ok := val.(field.Int)
			if !ok {
				return typeMismatch("field.Int")
			}
			s.names.put(info.Name, info.Path, int64(v.Val))
			if err := s.ws.WriteUint32(uint32(v.Val), order); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.IntArray)
		if !ok {
			return typeMismatch("field.IntArray")
		}
		out := make([]uint32, len(v.Vals))
		for i, x := range v.Vals {
			out[i] = uint32(x)
		}
		if err := s.ws.WriteUint32Array(out, order); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil

	case compiler.CodeLong:
		if !isArr {
			v, ok := val.(field.Long)
			if !ok {
				return typeMismatch("field.Long")
			}
			s.names.put(info.Name, info.Path, v.Val)
			if err := s.ws.WriteUint64(uint64(v.Val), order); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.LongArray)
		if !ok {
			return typeMismatch("field.LongArray")
		}
		out := make([]uint64, len(v.Vals))
		for i, x := range v.Vals {
			out[i] = uint64(x)
		}
		if err := s.ws.WriteUint64Array(out, order); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil

	case compiler.CodeVar:
		if s.varWriter == nil {
			return &UnsupportedTypeError{TypeName: "var"}
		}
		wc := &WriteContext{Stream: s.ws, ByteOrder: order, Names: s.names}
		if !isArr {
			v, ok := val.(field.Var)
			if !ok {
				return typeMismatch("field.Var")
			}
			if err := s.varWriter.WriteVar(wc, v.Val, extra); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.VarArray)
		if !ok {
			return typeMismatch("field.VarArray")
		}
		if err := s.varWriter.WriteVarArray(wc, v.Vals, extra); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil

	case compiler.CodeCustomType:
		if s.customTypeWriter == nil || !s.customTypeWriter.Handles(customTypeName) {
			return &UnsupportedTypeError{TypeName: customTypeName}
		}
		wc := &WriteContext{Stream: s.ws, ByteOrder: order, Names: s.names}
		if !isArr {
			v, ok := val.(field.Custom)
			if !ok {
				return typeMismatch("field.Custom")
			}
			if err := s.customTypeWriter.WriteCustom(wc, customTypeName, v.Val, extra); err != nil {
				return s.wrapErr(info.Path, err)
			}
			return nil
		}
		v, ok := val.(field.CustomArray)
		if !ok {
			return typeMismatch("field.CustomArray")
		}
		if err := s.customTypeWriter.WriteCustomArray(wc, customTypeName, v.Vals, extra); err != nil {
			return s.wrapErr(info.Path, err)
		}
		return nil
	}

	return &ParsingError{Path: info.Path, Msg: fmt.Sprintf("unknown opcode type %d", h.codeType)}
}
