package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()

	l := NewLexer("test.hql", src)

	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Kind == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerPunctuation(t *testing.T) {
	toks := lexAll(t, `( ) [ ] { } #[ ' ` + "`" + ` ~ ~@ . : ,`)

	kinds := make([]Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}

	require.Equal(t, []Kind{
		LParen, RParen, LBracket, RBracket, LBrace, RBrace, HashLBracket,
		Quote, Backtick, Unquote, UnquoteSplicing, Dot, Colon, Comma,
	}, kinds)
}

func TestLexerSymbolAndNumber(t *testing.T) {
	toks := lexAll(t, `foo-bar 42 -3 3.14 -1.5e10 +`)

	require.Len(t, toks, 6)
	require.Equal(t, Symbol, toks[0].Kind)
	require.Equal(t, "foo-bar", toks[0].Text)
	require.Equal(t, Number, toks[1].Kind)
	require.Equal(t, "42", toks[1].Text)
	require.Equal(t, Number, toks[2].Kind)
	require.Equal(t, "-3", toks[2].Text)
	require.Equal(t, Number, toks[3].Kind)
	require.Equal(t, "3.14", toks[3].Text)
	require.Equal(t, Number, toks[4].Kind)
	require.Equal(t, "-1.5e10", toks[4].Text)
	require.Equal(t, Symbol, toks[5].Kind)
	require.Equal(t, "+", toks[5].Text)
}

func TestLexerDottedSymbolSplitsOnDot(t *testing.T) {
	toks := lexAll(t, `module.property`)

	require.Len(t, toks, 3)
	require.Equal(t, Symbol, toks[0].Kind)
	require.Equal(t, "module", toks[0].Text)
	require.Equal(t, Dot, toks[1].Kind)
	require.Equal(t, Symbol, toks[2].Kind)
	require.Equal(t, "property", toks[2].Text)
	require.True(t, Adjacent(toks[0], toks[1]))
	require.True(t, Adjacent(toks[1], toks[2]))
}

func TestLexerString(t *testing.T) {
	toks := lexAll(t, `"hello \"world\"\n"`)

	require.Len(t, toks, 1)
	require.Equal(t, String, toks[0].Kind)
	require.Equal(t, "hello \"world\"\n", toks[0].Text)
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer("test.hql", `"unterminated`)
	_, err := l.Next()
	require.Error(t, err)

	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, UnterminatedString, lexErr.Kind)
}

func TestLexerComments(t *testing.T) {
	toks := lexAll(t, "; line comment\nfoo // trailing\n/* block\ncomment */ bar")

	require.Len(t, toks, 2)
	require.Equal(t, "foo", toks[0].Text)
	require.Equal(t, "bar", toks[1].Text)
}

func TestLexerPositionsTrackLineAndColumn(t *testing.T) {
	toks := lexAll(t, "(foo\n  bar)")

	require.Equal(t, Pos{File: "test.hql", Line: 1, Col: 1, Offset: 0}, toks[0].Begin())
	require.Equal(t, Pos{File: "test.hql", Line: 2, Col: 3, Offset: 7}, toks[2].Begin())
}

func TestStripBOM(t *testing.T) {
	require.Equal(t, "foo", StripBOM("﻿foo"))
}
