package parse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLexerTokenizesIdentsKeywordsCtorsAndPunct(t *testing.T) {
	toks, err := newLexer("rule target(Cons(hd, tl)) -> hd + 1 # trailing comment\n").tokenize()
	require.NoError(t, err)

	var kinds []tokenKind
	var texts []string
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
		texts = append(texts, tok.text)
	}
	require.Equal(t, []string{
		"rule", "target", "(", "Cons", "(", "hd", ",", "tl", ")", ")", "->", "hd", "+", "1", "",
	}, texts)
	require.Equal(t, tokIdent, toks[0].kind) // "rule" is not a reserved keyword
	require.Equal(t, tokCtor, toks[3].kind)
	require.Equal(t, tokInt, toks[13].kind)
	require.Equal(t, tokEOF, toks[len(toks)-1].kind)
}

func TestLexerSkipsBlockComments(t *testing.T) {
	toks, err := newLexer("int (* a block comment *) bool").tokenize()
	require.NoError(t, err)
	require.Equal(t, []string{"int", "bool", ""}, []string{toks[0].text, toks[1].text, toks[2].text})
}

func TestLexerRejectsUnknownCharacter(t *testing.T) {
	_, err := newLexer("x ~ y").tokenize()
	require.Error(t, err)
}

func TestLexerRecognizesMultiCharPunct(t *testing.T) {
	toks, err := newLexer("a <= b && c != d").tokenize()
	require.NoError(t, err)
	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.text)
	}
	require.Equal(t, []string{"a", "<=", "b", "&&", "c", "!=", "d", ""}, texts)
}
