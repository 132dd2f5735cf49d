package rulekit

import (
	"strconv"
	"strings"
)

// Parse builds an AST from a token sequence produced by Tokenize.
//
// Grammar, loosest binding first:
//
//	expr      := andExpr ( OR andExpr )*
//	andExpr   := primary ( AND primary )*
//	primary   := comparand | '(' expr ')'
//	comparand := IDENT comparisonOp literal
//	literal   := NUMBER | STRING | true | false
//
// AND binds tighter than OR and both are left-associative, so
// "a AND b OR c AND d" is "(a AND b) OR (c AND d)". Comparands must be joined
// by an explicit connective.
func Parse(tokens []Token) (Node, error) {
	p := parser{tokens: tokens}
	if p.peek().Kind == KindEOF {
		return nil, p.errorf(KindIdent, KindLParen)
	}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != KindEOF {
		return nil, p.errorf(KindAnd, KindOr, KindEOF)
	}
	return n, nil
}

// Compile tokenizes and parses the rule string. With WithSchema, the
// resulting tree is also checked against the schema.
func Compile(source string, opts ...CompileOption) (Node, error) {
	o := compileOptions{}
	applyCompileOptions(&o, opts...)

	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	n, err := Parse(tokens)
	if err != nil {
		return nil, err
	}
	if o.schema != nil {
		if err := o.schema.Check(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string, opts ...CompileOption) Node {
	n, err := Compile(source, opts...)
	if err != nil {
		panic("rulekit: Compile(" + strconv.Quote(source) + "): " + err.Error())
	}
	return n
}

type compileOptions struct {
	schema *Schema
}

// CompileOption controls Compile.
type CompileOption func(o *compileOptions)

func applyCompileOptions(o *compileOptions, opts ...CompileOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithSchema checks every comparand against the schema after parsing.
func WithSchema(s Schema) CompileOption {
	return func(o *compileOptions) {
		o.schema = &s
	}
}

type parser struct {
	tokens []Token
	pos    int
}

// peek returns the current token. Running off the end of a sequence that
// lacks a terminator yields a synthetic EOF.
func (p *parser) peek() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	end := 0
	if len(p.tokens) > 0 {
		last := p.tokens[len(p.tokens)-1]
		end = last.Pos + len(last.Text)
	}
	return Token{Kind: KindEOF, Pos: end}
}

func (p *parser) next() Token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *parser) errorf(expected ...Kind) error {
	found := p.peek()
	return &ParseError{Pos: found.Pos, Expected: expected, Found: found}
}

func (p *parser) expr() (Node, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == KindOr {
		p.next()
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = NewOperator(Or, left, right)
	}
	return left, nil
}

func (p *parser) andExpr() (Node, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == KindAnd {
		p.next()
		right, err := p.primary()
		if err != nil {
			return nil, err
		}
		left = NewOperator(And, left, right)
	}
	return left, nil
}

func (p *parser) primary() (Node, error) {
	switch p.peek().Kind {
	case KindIdent:
		return p.comparand()
	case KindLParen:
		p.next()
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.peek().Kind != KindRParen {
			return nil, p.errorf(KindAnd, KindOr, KindRParen)
		}
		p.next()
		return n, nil
	default:
		return nil, p.errorf(KindIdent, KindLParen)
	}
}

var comparisonKinds = []Kind{KindGT, KindLT, KindGE, KindLE, KindEQ, KindNE}

func (p *parser) comparand() (Node, error) {
	attr := p.next()
	if !p.peek().Kind.IsComparison() {
		return nil, p.errorf(comparisonKinds...)
	}
	op := opFromKind(p.next().Kind)

	t := p.peek()
	var lit Literal
	switch {
	case t.Kind == KindNumber:
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, &LexError{Pos: t.Pos, Char: rune(t.Text[0]), Reason: "number out of range"}
		}
		lit = NumberLit(f)
	case t.Kind == KindString:
		lit = StringLit(t.Text)
	case t.Kind == KindIdent && strings.EqualFold(t.Text, "true"):
		lit = BoolLit(true)
	case t.Kind == KindIdent && strings.EqualFold(t.Text, "false"):
		lit = BoolLit(false)
	default:
		return nil, p.errorf(KindNumber, KindString)
	}
	p.next()
	return NewComparand(attr.Text, op, lit), nil
}
