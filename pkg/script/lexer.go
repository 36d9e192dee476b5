package script

import (
	"fmt"
	"unicode"
)

// LexError reports a malformed script detected during tokenization.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("script: %s at offset %d", e.Msg, e.Pos)
}

// Lex tokenizes src into a flat token stream terminated by an EOF token.
func Lex(src string) ([]Token, error) {
	var toks []Token
	runes := []rune(src)
	i, n := 0, len(runes)

	single := map[rune]Kind{
		'[': LBracket, ']': RBracket,
		'{': LBrace, '}': RBrace,
		';': Semicolon, ':': Colon,
		'(': LParen, ')': RParen,
	}
	ops := "+-*/%&|^~"

	for i < n {
		c := runes[i]
		start := i
		switch {
		case unicode.IsSpace(c):
			i++
			continue
		case c == '<':
			i++
			toks = append(toks, Token{Kind: Lt, Text: "<", Start: start, End: i})
		case c == '>':
			i++
			toks = append(toks, Token{Kind: Gt, Text: ">", Start: start, End: i})
		case c == '$':
			// only valid as part of the reset$$ directive or the $$ counter
			// symbol inside an expression; both are handled as identifier text.
			j := i
			for j < n && runes[j] == '$' {
				j++
			}
			toks = append(toks, Token{Kind: Ident, Text: string(runes[i:j]), Start: start, End: j})
			i = j
		default:
			if k, ok := single[c]; ok {
				i++
				toks = append(toks, Token{Kind: k, Text: string(c), Start: start, End: i})
				continue
			}
			if containsRune(ops, c) {
				i++
				toks = append(toks, Token{Kind: Op, Text: string(c), Start: start, End: i})
				continue
			}
			if unicode.IsDigit(c) {
				j := i
				hex := false
				if c == '0' && j+1 < n && (runes[j+1] == 'x' || runes[j+1] == 'X') {
					hex = true
					j += 2
					for j < n && isHexDigit(runes[j]) {
						j++
					}
				} else {
					for j < n && unicode.IsDigit(runes[j]) {
						j++
					}
				}
				text := string(runes[i:j])
				val, err := parseIntLiteral(text, hex)
				if err != nil {
					return nil, &LexError{Pos: start, Msg: err.Error()}
				}
				toks = append(toks, Token{Kind: Number, Text: text, Num: val, Start: start, End: j})
				i = j
				continue
			}
			if unicode.IsLetter(c) || c == '_' {
				j := i
				for j < n && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_' || runes[j] == '.') {
					j++
				}
				if string(runes[i:j]) == "reset" && j+1 < n && runes[j] == '$' && runes[j+1] == '$' {
					j += 2
				}
				toks = append(toks, Token{Kind: Ident, Text: string(runes[i:j]), Start: start, End: j})
				i = j
				continue
			}
			return nil, &LexError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}

	toks = append(toks, Token{Kind: EOF, Start: n, End: n})
	return toks, nil
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func parseIntLiteral(text string, hex bool) (int64, error) {
	var v int64
	if hex {
		for _, c := range text[2:] {
			v = v*16 + int64(hexDigitValue(c))
		}
		return v, nil
	}
	for _, c := range text {
		v = v*10 + int64(c-'0')
	}
	return v, nil
}

func hexDigitValue(c rune) int64 {
	switch {
	case c >= '0' && c <= '9':
		return int64(c - '0')
	case c >= 'a' && c <= 'f':
		return int64(c-'a') + 10
	default:
		return int64(c-'A') + 10
	}
}
