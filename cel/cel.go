package cel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ezachrisen/rulekit"
	celgo "github.com/google/cel-go/cel"
)

// Program is a rule compiled to a CEL program. It is safe for concurrent use.
type Program struct {
	source string
	leaves []*rulekit.Comparand
	prg    celgo.Program
}

// Compile translates the rule tree into CEL, type checks it against the
// schema (which may be empty) and builds a CEL program.
//
// Ordering comparisons against strings or booleans are rejected here, since
// rulekit.Evaluate never accepts them.
func Compile(n rulekit.Node, s rulekit.Schema) (*Program, error) {
	if n == nil {
		return nil, fmt.Errorf("compiling nil rule")
	}
	if err := s.Check(n); err != nil {
		return nil, err
	}
	leaves := rulekit.Leaves(n)
	for _, c := range leaves {
		if !rulekit.ValidAttribute(c.Attribute()) {
			return nil, fmt.Errorf("invalid attribute name %q", c.Attribute())
		}
		if _, ok := c.Literal().AsNumber(); !ok && c.Op().Ordering() {
			return nil, fmt.Errorf("%s: %w", c, rulekit.ErrUnsupportedOperator)
		}
	}

	names, types := attributeTypes(n)
	opts, err := declarations(s, names, types)
	if err != nil {
		return nil, err
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}

	src := Source(n)
	ast, iss := env.Compile(src)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compiling %s: %w", src, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building program for %s: %w", src, err)
	}
	return &Program{source: src, leaves: leaves, prg: prg}, nil
}

// Source returns the CEL expression of the program.
func (p *Program) Source() string {
	return p.source
}

// Eval evaluates the program against the record. Missing attributes and
// values of the wrong type are reported as *rulekit.EvalError, checked in
// the order the comparands appear in the rule.
func (p *Program) Eval(data map[string]any) (bool, error) {
	act := make(map[string]any, len(p.leaves))
	for _, c := range p.leaves {
		v, ok := data[c.Attribute()]
		if !ok {
			return false, &rulekit.EvalError{Kind: rulekit.MissingAttribute, Attribute: c.Attribute(), Op: c.Op(), Literal: c.Literal()}
		}
		if !matches(v, c.Literal()) {
			return false, &rulekit.EvalError{Kind: rulekit.TypeMismatch, Attribute: c.Attribute(), Op: c.Op(), Value: v, Literal: c.Literal()}
		}
		if f, ok := rulekit.ToFloat(v); ok {
			v = f
		}
		act[c.Attribute()] = v
	}

	out, _, err := p.prg.Eval(act)
	if err != nil {
		return false, fmt.Errorf("evaluating %s: %w", p.source, err)
	}
	pass, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("evaluating %s: expected bool, got %T", p.source, out.Value())
	}
	return pass, nil
}

func matches(v any, lit rulekit.Literal) bool {
	switch lit.Type().(type) {
	case rulekit.Float:
		_, ok := rulekit.ToFloat(v)
		return ok
	case rulekit.String:
		_, ok := v.(string)
		return ok
	case rulekit.Bool:
		_, ok := v.(bool)
		return ok
	}
	return false
}

// Source renders the rule tree as a fully parenthesized CEL expression.
func Source(n rulekit.Node) string {
	var sb strings.Builder
	writeSource(&sb, n)
	return sb.String()
}

func writeSource(sb *strings.Builder, n rulekit.Node) {
	switch v := n.(type) {
	case *rulekit.Operator:
		sb.WriteString("(")
		writeSource(sb, v.Left())
		if v.Connective() == rulekit.And {
			sb.WriteString(" && ")
		} else {
			sb.WriteString(" || ")
		}
		writeSource(sb, v.Right())
		sb.WriteString(")")
	case *rulekit.Comparand:
		sb.WriteString("(")
		sb.WriteString(v.Attribute())
		sb.WriteString(" ")
		if v.Op() == rulekit.OpEQ {
			sb.WriteString("==")
		} else {
			sb.WriteString(v.Op().String())
		}
		sb.WriteString(" ")
		sb.WriteString(literal(v.Literal()))
		sb.WriteString(")")
	}
}

func literal(l rulekit.Literal) string {
	if f, ok := l.AsNumber(); ok {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	if s, ok := l.AsString(); ok {
		return strconv.Quote(s)
	}
	b, _ := l.AsBool()
	return strconv.FormatBool(b)
}
