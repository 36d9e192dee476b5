package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/bbin/pkg/script"
)

func kinds(toks []script.Token) []script.Kind {
	out := make([]script.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexBasicFieldDeclaration(t *testing.T) {
	toks, err := script.Lex("int header;")
	require.NoError(t, err)
	assert.Equal(t, []script.Kind{script.Ident, script.Ident, script.Semicolon, script.EOF}, kinds(toks))
}

func TestLexArrayWithWholeStreamMarker(t *testing.T) {
	toks, err := script.Lex("byte[_] data;")
	require.NoError(t, err)
	assert.Equal(t, []script.Kind{
		script.Ident, script.LBracket, script.Ident, script.RBracket, script.Ident, script.Semicolon, script.EOF,
	}, kinds(toks))
	assert.Equal(t, "_", toks[2].Text)
}

func TestLexHexAndDecimalLiterals(t *testing.T) {
	toks, err := script.Lex("bit:4 a; skip:0x10;")
	require.NoError(t, err)
	var nums []int64
	for _, tk := range toks {
		if tk.Kind == script.Number {
			nums = append(nums, tk.Num)
		}
	}
	assert.Equal(t, []int64{4, 16}, nums)
}

func TestLexByteOrderPrefix(t *testing.T) {
	toks, err := script.Lex("<int ChunkID;")
	require.NoError(t, err)
	assert.Equal(t, script.Lt, toks[0].Kind)
}

func TestLexResetCounterDirective(t *testing.T) {
	toks, err := script.Lex("reset$$;")
	require.NoError(t, err)
	assert.Equal(t, "reset$$", toks[0].Text)
}

func TestLexParenthesizedExpression(t *testing.T) {
	toks, err := script.Lex("byte[(Header.ColorMapType & 1) * Header.CMapLength] x;")
	require.NoError(t, err)
	require.NoError(t, err)
	// sanity: parens balance and dotted identifiers survive as one token
	depth := 0
	for _, tk := range toks {
		if tk.Kind == script.LParen {
			depth++
		}
		if tk.Kind == script.RParen {
			depth--
		}
	}
	assert.Equal(t, 0, depth)
	assert.Contains(t, kinds(toks), script.Ident)
}

func TestLexUnexpectedCharacterFails(t *testing.T) {
	_, err := script.Lex("int a = 1;")
	require.Error(t, err)
}
