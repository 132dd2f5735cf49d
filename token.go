package rulekit

import (
	"fmt"
	"strings"
)

// Kind identifies the lexical class of a Token.
type Kind int

const (
	KindEOF Kind = iota
	KindIdent
	KindNumber
	KindString
	KindGT // >
	KindLT // <
	KindGE // >=
	KindLE // <=
	KindEQ // =
	KindNE // !=
	KindAnd
	KindOr
	KindLParen
	KindRParen
)

var kindNames = map[Kind]string{
	KindEOF:    "end of input",
	KindIdent:  "identifier",
	KindNumber: "number",
	KindString: "string",
	KindGT:     "'>'",
	KindLT:     "'<'",
	KindGE:     "'>='",
	KindLE:     "'<='",
	KindEQ:     "'='",
	KindNE:     "'!='",
	KindAnd:    "AND",
	KindOr:     "OR",
	KindLParen: "'('",
	KindRParen: "')'",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsComparison reports whether the kind is one of the six comparison operators.
func (k Kind) IsComparison() bool {
	return k >= KindGT && k <= KindNE
}

// Token is a single lexeme of a rule string.
type Token struct {
	Kind Kind
	// Text is the exact source text of the token. For strings the quotes are
	// stripped.
	Text string
	// Pos is the byte offset of the token in the source.
	Pos int
}

func (t Token) String() string {
	switch t.Kind {
	case KindIdent, KindNumber:
		return fmt.Sprintf("%s %s", t.Kind, t.Text)
	case KindString:
		return fmt.Sprintf("string '%s'", t.Text)
	default:
		return t.Kind.String()
	}
}

// Tokenize splits the source into tokens. The returned slice always ends with
// a KindEOF token positioned at len(source).
func Tokenize(source string) ([]Token, error) {
	l := lexer{src: source}
	return l.run()
}

type lexer struct {
	src    string
	pos    int
	tokens []Token
}

func (l *lexer) run() ([]Token, error) {
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.emit(KindEOF, "", l.pos)
			return l.tokens, nil
		}

		start := l.pos
		c := l.src[l.pos]
		switch {
		case isIdentStart(c):
			l.lexIdent()
		case isDigit(c):
			if err := l.lexNumber(); err != nil {
				return nil, err
			}
		case c == '+' || c == '-':
			if l.pos+1 >= len(l.src) || !isDigit(l.src[l.pos+1]) {
				return nil, l.errorf(start, "sign must be followed by a digit")
			}
			if err := l.lexNumber(); err != nil {
				return nil, err
			}
		case c == '\'' || c == '"':
			if err := l.lexString(c); err != nil {
				return nil, err
			}
		case c == '(':
			l.pos++
			l.emit(KindLParen, "(", start)
		case c == ')':
			l.pos++
			l.emit(KindRParen, ")", start)
		case c == '>' || c == '<' || c == '!' || c == '=':
			if err := l.lexOperator(); err != nil {
				return nil, err
			}
		default:
			return nil, l.errorf(start, "")
		}
	}
}

func (l *lexer) emit(k Kind, text string, pos int) {
	l.tokens = append(l.tokens, Token{Kind: k, Text: text, Pos: pos})
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) lexIdent() {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	switch {
	case strings.EqualFold(text, "AND"):
		l.emit(KindAnd, text, start)
	case strings.EqualFold(text, "OR"):
		l.emit(KindOr, text, start)
	default:
		l.emit(KindIdent, text, start)
	}
}

func (l *lexer) lexNumber() error {
	start := l.pos
	if c := l.src[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		if l.pos+1 >= len(l.src) || !isDigit(l.src[l.pos+1]) {
			return l.errorf(l.pos, "fractional part must have digits")
		}
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	l.emit(KindNumber, l.src[start:l.pos], start)
	return nil
}

func (l *lexer) lexString(quote byte) error {
	start := l.pos
	end := strings.IndexByte(l.src[start+1:], quote)
	if end < 0 {
		return l.errorf(start, "unterminated string")
	}
	l.pos = start + 1 + end + 1
	l.emit(KindString, l.src[start+1:start+1+end], start)
	return nil
}

// lexOperator matches the two-character operators before their one-character
// prefixes.
func (l *lexer) lexOperator() error {
	start := l.pos
	if l.pos+1 < len(l.src) && l.src[l.pos+1] == '=' {
		var k Kind
		switch l.src[l.pos] {
		case '>':
			k = KindGE
		case '<':
			k = KindLE
		case '!':
			k = KindNE
		}
		if k != KindEOF {
			l.pos += 2
			l.emit(k, l.src[start:l.pos], start)
			return nil
		}
	}
	switch l.src[l.pos] {
	case '>':
		l.pos++
		l.emit(KindGT, ">", start)
	case '<':
		l.pos++
		l.emit(KindLT, "<", start)
	case '=':
		l.pos++
		l.emit(KindEQ, "=", start)
	default:
		return l.errorf(start, "")
	}
	return nil
}

func (l *lexer) errorf(pos int, reason string) error {
	r := []rune(l.src[pos:])[0]
	return &LexError{Pos: pos, Char: r, Reason: reason}
}

// ValidAttribute reports whether name can be written as an attribute in rule
// source: an identifier that is not a connective.
func ValidAttribute(name string) bool {
	if name == "" || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentPart(name[i]) {
			return false
		}
	}
	return !strings.EqualFold(name, "AND") && !strings.EqualFold(name, "OR")
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
