package rulekit_test

import (
	"errors"
	"testing"

	"github.com/ezachrisen/rulekit"
	"github.com/matryer/is"
)

func TestTokenize(t *testing.T) {
	is := is.New(t)

	toks, err := rulekit.Tokenize(`age>=30 and (dept != "R&D" OR x < -1.5)`)
	is.NoErr(err)

	want := []rulekit.Token{
		{Kind: rulekit.KindIdent, Text: "age", Pos: 0},
		{Kind: rulekit.KindGE, Text: ">=", Pos: 3},
		{Kind: rulekit.KindNumber, Text: "30", Pos: 5},
		{Kind: rulekit.KindAnd, Text: "and", Pos: 8},
		{Kind: rulekit.KindLParen, Text: "(", Pos: 12},
		{Kind: rulekit.KindIdent, Text: "dept", Pos: 13},
		{Kind: rulekit.KindNE, Text: "!=", Pos: 18},
		{Kind: rulekit.KindString, Text: "R&D", Pos: 21},
		{Kind: rulekit.KindOr, Text: "OR", Pos: 27},
		{Kind: rulekit.KindIdent, Text: "x", Pos: 30},
		{Kind: rulekit.KindLT, Text: "<", Pos: 32},
		{Kind: rulekit.KindNumber, Text: "-1.5", Pos: 34},
		{Kind: rulekit.KindRParen, Text: ")", Pos: 38},
		{Kind: rulekit.KindEOF, Text: "", Pos: 39},
	}
	is.Equal(toks, want)
}

func TestTokenizeEmpty(t *testing.T) {
	is := is.New(t)
	toks, err := rulekit.Tokenize("   ")
	is.NoErr(err)
	is.Equal(toks, []rulekit.Token{{Kind: rulekit.KindEOF, Pos: 3}})
}

func TestTokenizeErrors(t *testing.T) {

	cases := map[string]struct {
		src  string
		pos  int
		char rune
	}{
		"unknown character": {src: "a > 1 & b = 2", pos: 6, char: '&'},
		"lone bang":         {src: "a ! 1", pos: 2, char: '!'},
		"unterminated":      {src: "a = 'abc", pos: 4, char: '\''},
		"bare sign":         {src: "a > - 1", pos: 4, char: '-'},
		"trailing dot":      {src: "a > 1.", pos: 5, char: '.'},
		"non ascii":         {src: "a = é", pos: 4, char: 'é'},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			_, err := rulekit.Tokenize(c.src)
			var lexErr *rulekit.LexError
			is.True(errors.As(err, &lexErr))
			is.Equal(lexErr.Pos, c.pos)
			is.Equal(lexErr.Char, c.char)
		})
	}
}

func TestLexErrorExcerpt(t *testing.T) {
	is := is.New(t)
	src := "a > 1 # b"
	_, err := rulekit.Tokenize(src)
	var lexErr *rulekit.LexError
	is.True(errors.As(err, &lexErr))
	is.Equal(lexErr.Excerpt(src), "a > 1 # b\n      ^")
}

func TestErrorExcerptMultibyte(t *testing.T) {
	is := is.New(t)
	src := "name = 'é' # b"
	_, err := rulekit.Tokenize(src)
	var lexErr *rulekit.LexError
	is.True(errors.As(err, &lexErr))
	is.Equal(lexErr.Pos, 12)
	is.Equal(lexErr.Excerpt(src), "name = 'é' # b\n           ^")
}
