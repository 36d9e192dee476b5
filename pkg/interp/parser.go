package interp

import (
	"errors"
	"fmt"
	"io"

	"github.com/twinfer/bbin/pkg/bstream"
	"github.com/twinfer/bbin/pkg/compiler"
	"github.com/twinfer/bbin/pkg/field"
)

// Parser holds a compiled script and the plug-ins configured for it.
// A Parser is safe for concurrent use: Parse allocates a fresh stream,
// cursors, and field scope for every call and returns its byte counter
// in the result rather than storing it on the Parser.
type Parser struct {
	block *compiler.CompiledBlock
	opts  *options
}

// Prepare compiles src and returns a ready-to-use Parser. It mirrors
// the several prepare(...) overloads of a hand-written parser builder
// as a single entry point plus functional options.
func Prepare(src string, opts ...Option) (*Parser, error) {
	block, err := compiler.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("interp: %w", err)
	}
	return &Parser{block: block, opts: newOptions(opts)}, nil
}

// PrepareCompiled builds a Parser from an already-compiled block,
// skipping lexing and compilation entirely.
func PrepareCompiled(block *compiler.CompiledBlock, opts ...Option) *Parser {
	return &Parser{block: block, opts: newOptions(opts)}
}

// CompiledBlock returns the block this Parser walks. Multiple Parsers
// with different options may share one CompiledBlock.
func (p *Parser) CompiledBlock() *compiler.CompiledBlock { return p.block }

// ParseResult is what one Parse call produces: the parsed field tree,
// wrapped in an unnamed Struct, plus how many bytes that call consumed
// from its reader. It is returned by value so concurrent Parse calls
// on a shared Parser never contend over where the counter lives.
type ParseResult struct {
	field.Struct
	FinalStreamByteCounter int64
}

// Parse reads r according to the compiled script and returns the
// top-level field tree. varProc and external are supplied fresh for
// this call alone: neither is bound at Prepare time, so one compiled
// Parser can be shared by concurrent callers that each need a
// different var-field or external-value source.
func (p *Parser) Parse(r io.Reader, popts ...ParseOption) (ParseResult, error) {
	cfg := newParseConfig(popts)
	if p.block.HasVarFields && cfg.varProc == nil {
		return ParseResult{}, &ParsingError{Msg: "script declares var fields but no VarFieldProcessor was supplied"}
	}
	stream := bstream.New(r, p.opts.bitOrder)
	namesNeeded := p.block.HasVarFields || p.block.HasEvaluatedArrays
	e := newEngine(p.block, stream, p.opts, newNamedNumericFieldMap(cfg.external, namesNeeded), cfg.varProc)
	cur := &cursors{}
	fields, err := e.parseBody(cur, false)
	counter := stream.Counter()
	if err != nil && !errors.Is(err, errStopAtEOF) {
		return ParseResult{}, err
	}
	return ParseResult{Struct: field.Struct{Fields: fields}, FinalStreamByteCounter: counter}, nil
}

// Serialize walks root against the compiled script in write direction
// and emits the corresponding bytes to w: the exact mirror of Parse.
// The number of array elements written comes from root's own slice
// lengths, not from the script's array-size literals or expressions, so
// a caller-modified tree (e.g. a different number of array elements than
// the original parse produced) serializes consistently with its own
// shape rather than the input it may have originally been parsed from.
// Extra parameters (bit widths, var/custom extras) and align/skip values
// are still taken from the bytecode or evaluated from the script.
// Struct sizes never need back-patching on the way out: the script's
// STRUCT_END back-pointers are read from the already-compiled bytecode,
// never recomputed, per the fixed-width reservation compiled in
// alongside them.
func (p *Parser) Serialize(root field.Struct, w io.Writer, sopts ...SerializeOption) (int64, error) {
	cfg := newSerializeConfig(sopts)
	if p.block.HasVarFields && cfg.varWriter == nil {
		return 0, &ParsingError{Msg: "script declares var fields but no VarFieldWriter was supplied"}
	}
	ws := bstream.NewWriter(w, p.opts.bitOrder)
	namesNeeded := p.block.HasVarFields || p.block.HasEvaluatedArrays
	s := newSerializer(p.block, ws, p.opts, newNamedNumericFieldMap(cfg.external, namesNeeded), cfg.varWriter, cfg.customTypeWriter)
	cur := &cursors{}
	if err := s.writeBody(cur, root.Fields); err != nil {
		return 0, err
	}
	if err := ws.Flush(); err != nil {
		return 0, fmt.Errorf("interp: %w", err)
	}
	return ws.Counter(), nil
}
