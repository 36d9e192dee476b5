package compiler

import (
	"fmt"
	"strings"

	"github.com/twinfer/bbin/pkg/script"
)

// CompileError reports a malformed script detected while compiling.
type CompileError struct {
	Pos int
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiler: %s (offset %d)", e.Msg, e.Pos)
}

type declKind int

const (
	declField declKind = iota
	declStruct
	declAlign
	declSkip
	declReset
)

type arrayKind int

const (
	arrNone arrayKind = iota
	arrLiteral
	arrExpr
	arrWhole
)

// decl is one parsed script statement: a field, a nested struct, or a
// directive. Struct decls carry a Body of child decls.
type decl struct {
	kind declKind
	pos  int

	hasByteOrderPrefix bool
	littleEndian       bool

	typeName string // declField only: bit, bool, byte, ubyte, short, ushort, int, long, var, or a custom type name

	hasExtra     bool
	extraLiteral int64
	extraExpr    string

	array        arrayKind
	arrayLiteral int64
	arrayExpr    string

	name string // "" if unnamed (declField only; declStruct always has a name)
	body []*decl
}

type astParser struct {
	src  string
	toks []script.Token
	pos  int
}

// parseScript parses the full token stream produced from src into a flat
// top-level declaration list.
func parseScript(src string, toks []script.Token) ([]*decl, error) {
	p := &astParser{src: src, toks: toks}
	decls, err := p.parseDeclList(false)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != script.EOF {
		return nil, &CompileError{Pos: p.cur().Start, Msg: "unexpected trailing tokens"}
	}
	return decls, nil
}

func (p *astParser) cur() script.Token  { return p.toks[p.pos] }
func (p *astParser) advance() script.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *astParser) expect(k script.Kind) (script.Token, error) {
	if p.cur().Kind != k {
		return script.Token{}, &CompileError{Pos: p.cur().Start, Msg: fmt.Sprintf("expected %s, found %s", k, p.cur().Kind)}
	}
	return p.advance(), nil
}

// parseDeclList parses statements until a matching '}' (insideBraces=true)
// or EOF (insideBraces=false).
func (p *astParser) parseDeclList(insideBraces bool) ([]*decl, error) {
	var out []*decl
	for {
		if insideBraces && p.cur().Kind == script.RBrace {
			p.advance()
			return out, nil
		}
		if p.cur().Kind == script.EOF {
			if insideBraces {
				return nil, &CompileError{Pos: p.cur().Start, Msg: "unbalanced braces: missing '}'"}
			}
			return out, nil
		}
		d, err := p.parseOneDecl()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
}

func (p *astParser) parseOneDecl() (*decl, error) {
	t := p.cur()
	if t.Kind == script.Ident && (t.Text == "align" || t.Text == "skip" || t.Text == "reset$$") {
		return p.parseDirective()
	}
	return p.parseFieldOrStruct()
}

func (p *astParser) parseDirective() (*decl, error) {
	t := p.advance()
	d := &decl{pos: t.Start}
	switch t.Text {
	case "reset$$":
		d.kind = declReset
	case "align":
		d.kind = declAlign
	case "skip":
		d.kind = declSkip
	}
	if d.kind == declReset {
		if _, err := p.expect(script.Semicolon); err != nil {
			return nil, err
		}
		return d, nil
	}
	if _, err := p.expect(script.Colon); err != nil {
		return nil, err
	}
	lit, expr, err := p.parseLiteralOrParenExpr()
	if err != nil {
		return nil, err
	}
	d.hasExtra = true
	d.extraLiteral = lit
	d.extraExpr = expr
	if _, err := p.expect(script.Semicolon); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *astParser) parseLiteralOrParenExpr() (int64, string, error) {
	switch p.cur().Kind {
	case script.Number:
		t := p.advance()
		return t.Num, "", nil
	case script.LParen:
		text, err := p.captureParenExpr()
		return 0, text, err
	default:
		return 0, "", &CompileError{Pos: p.cur().Start, Msg: "expected a number or parenthesized expression"}
	}
}

// captureParenExpr consumes a balanced '(' ... ')' span and returns the
// raw source text between the parens.
func (p *astParser) captureParenExpr() (string, error) {
	open, err := p.expect(script.LParen)
	if err != nil {
		return "", err
	}
	depth := 1
	for depth > 0 {
		if p.cur().Kind == script.EOF {
			return "", &CompileError{Pos: open.Start, Msg: "unbalanced parentheses"}
		}
		switch p.cur().Kind {
		case script.LParen:
			depth++
		case script.RParen:
			depth--
		}
		if depth == 0 {
			break
		}
		p.advance()
	}
	closeTok := p.cur()
	text := p.src[open.End:closeTok.Start]
	p.advance() // consume ')'
	return text, nil
}

// tryParseArraySuffix looks for a '[' ... ']' suffix starting at the
// parser's current position. If none is present it is a no-op.
//
// The array-size expression need not be parenthesized: "byte[length]"
// and "byte[(a&1)*b]" both parse, since anything inside the brackets
// that is not exactly "_" or a bare integer literal is captured
// verbatim as expression source, up to the matching ']' (nested
// parentheses are tracked so an expression may use them freely).
func (p *astParser) tryParseArraySuffix(d *decl) error {
	if p.cur().Kind != script.LBracket {
		d.array = arrNone
		return nil
	}
	open := p.advance()
	if p.cur().Kind == script.Ident && p.cur().Text == "_" && p.toks[p.pos+1].Kind == script.RBracket {
		p.advance()
		p.advance()
		d.array = arrWhole
		return nil
	}
	if p.cur().Kind == script.Number && p.toks[p.pos+1].Kind == script.RBracket {
		t := p.advance()
		p.advance()
		d.array = arrLiteral
		d.arrayLiteral = t.Num
		return nil
	}
	text, err := p.captureBracketExpr(open)
	if err != nil {
		return err
	}
	d.array = arrExpr
	d.arrayExpr = text
	return nil
}

// captureBracketExpr consumes tokens up to the matching ']' (honoring
// nested parentheses) and returns the raw source text between the
// opening '[' and that ']'.
func (p *astParser) captureBracketExpr(open script.Token) (string, error) {
	depth := 0
	i := p.pos
	for {
		switch p.toks[i].Kind {
		case script.EOF:
			return "", &CompileError{Pos: open.Start, Msg: "unterminated '[' expression"}
		case script.LParen:
			depth++
		case script.RParen:
			depth--
		case script.RBracket:
			if depth == 0 {
				closeTok := p.toks[i]
				text := strings.TrimSpace(p.src[open.End:closeTok.Start])
				p.pos = i + 1
				return text, nil
			}
		}
		i++
	}
}

// lookaheadIsStruct reports whether, starting at pos (just past a type
// or struct-name identifier), an optional array suffix is followed by
// '{'. It does not consume any tokens.
func (p *astParser) lookaheadIsStruct(pos int) bool {
	i := pos
	if p.toks[i].Kind == script.LBracket {
		depth := 1
		i++
		for i < len(p.toks) && depth > 0 {
			switch p.toks[i].Kind {
			case script.LBracket:
				depth++
			case script.RBracket:
				depth--
			case script.EOF:
				return false
			}
			i++
		}
	}
	return i < len(p.toks) && p.toks[i].Kind == script.LBrace
}

func (p *astParser) parseFieldOrStruct() (*decl, error) {
	start := p.cur()
	d := &decl{pos: start.Start}

	if p.cur().Kind == script.Lt {
		p.advance()
		d.hasByteOrderPrefix = true
		d.littleEndian = true
	} else if p.cur().Kind == script.Gt {
		p.advance()
		d.hasByteOrderPrefix = true
		d.littleEndian = false
	}

	nameTok, err := p.expect(script.Ident)
	if err != nil {
		return nil, err
	}

	if p.lookaheadIsStruct(p.pos) {
		d.kind = declStruct
		d.name = nameTok.Text
		if err := p.tryParseArraySuffix(d); err != nil {
			return nil, err
		}
		if _, err := p.expect(script.LBrace); err != nil {
			return nil, err
		}
		body, err := p.parseDeclList(true)
		if err != nil {
			return nil, err
		}
		d.body = body
		return d, nil
	}

	d.kind = declField
	d.typeName = nameTok.Text

	if p.cur().Kind == script.Colon {
		p.advance()
		lit, expr, err := p.parseLiteralOrParenExpr()
		if err != nil {
			return nil, err
		}
		d.hasExtra = true
		d.extraLiteral = lit
		d.extraExpr = expr
	}

	if err := p.tryParseArraySuffix(d); err != nil {
		return nil, err
	}

	if p.cur().Kind == script.Ident {
		d.name = p.advance().Text
	}

	if _, err := p.expect(script.Semicolon); err != nil {
		return nil, err
	}
	return d, nil
}
