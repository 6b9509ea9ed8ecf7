package rfc5322

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeAtomsAndDelimiters(t *testing.T) {
	tokens, err := Tokenize([]byte("a, b ,c"), ",", Options{})
	require.NoError(t, err)

	var kinds []TokenKind

	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, []TokenKind{
		TokenAtom, TokenDelimiter, TokenAtom, TokenDelimiter, TokenAtom,
	}, kinds)
}

func TestTokenizeQuotedString(t *testing.T) {
	tokens, err := Tokenize([]byte(`"Joe Q. Public"`), ",", Options{QString: true})
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenQuotedString, tokens[0].Kind)
	assert.Equal(t, "Joe Q. Public", tokens[0].Text)
}

func TestTokenizeComments(t *testing.T) {
	tokens, err := Tokenize([]byte("a(comment(nested))b"), "", Options{Comments: true})
	require.NoError(t, err)

	var opens, closes int

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenCommentOpen:
			opens++
		case TokenCommentClose:
			closes++
		}
	}

	assert.Equal(t, 2, opens)
	assert.Equal(t, 2, closes)
}

func TestTokenizeEncodedWordRun(t *testing.T) {
	tokens, err := Tokenize([]byte("=?UTF-8?B?w6k=?= =?UTF-8?B?w6k=?="), "", Options{RFC2047: true})
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenEncodedWord, tokens[0].Kind)
	assert.Equal(t, "éé", tokens[0].Text)
}
