package rulekit

import (
	"fmt"
	"strconv"
	"strings"
)

// Connective is a logical operator joining two sub-expressions.
type Connective int

const (
	And Connective = iota + 1
	Or
)

func (c Connective) String() string {
	switch c {
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return fmt.Sprintf("Connective(%d)", int(c))
	}
}

func (c Connective) precedence() int {
	if c == And {
		return 2
	}
	return 1
}

// Op is a comparison operator.
type Op int

const (
	OpGT Op = iota + 1
	OpLT
	OpGE
	OpLE
	OpEQ
	OpNE
)

var opText = map[Op]string{
	OpGT: ">",
	OpLT: "<",
	OpGE: ">=",
	OpLE: "<=",
	OpEQ: "=",
	OpNE: "!=",
}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Ordering reports whether the operator compares by order rather than equality.
func (o Op) Ordering() bool {
	return o == OpGT || o == OpLT || o == OpGE || o == OpLE
}

// ParseOp returns the operator spelled s.
func ParseOp(s string) (Op, error) {
	for op, text := range opText {
		if text == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown comparison operator %q", s)
}

func opFromKind(k Kind) Op {
	switch k {
	case KindGT:
		return OpGT
	case KindLT:
		return OpLT
	case KindGE:
		return OpGE
	case KindLE:
		return OpLE
	case KindEQ:
		return OpEQ
	case KindNE:
		return OpNE
	}
	return 0
}

type literalKind int

const (
	numberLiteral literalKind = iota + 1
	stringLiteral
	boolLiteral
)

// Literal is the constant operand of a comparand: a number, a string or a
// boolean. Literals are comparable with ==.
type Literal struct {
	kind literalKind
	num  float64
	str  string
	b    bool
}

func NumberLit(f float64) Literal { return Literal{kind: numberLiteral, num: f} }
func StringLit(s string) Literal  { return Literal{kind: stringLiteral, str: s} }
func BoolLit(b bool) Literal      { return Literal{kind: boolLiteral, b: b} }

func (l Literal) AsNumber() (float64, bool) { return l.num, l.kind == numberLiteral }
func (l Literal) AsString() (string, bool)  { return l.str, l.kind == stringLiteral }
func (l Literal) AsBool() (bool, bool)      { return l.b, l.kind == boolLiteral }

// Value returns the literal as a float64, string or bool.
func (l Literal) Value() any {
	switch l.kind {
	case numberLiteral:
		return l.num
	case stringLiteral:
		return l.str
	case boolLiteral:
		return l.b
	}
	return nil
}

// Type returns the schema type of the literal.
func (l Literal) Type() Type {
	switch l.kind {
	case numberLiteral:
		return Float{}
	case stringLiteral:
		return String{}
	case boolLiteral:
		return Bool{}
	}
	return Any{}
}

// String renders the literal as it would appear in a rule.
func (l Literal) String() string {
	switch l.kind {
	case numberLiteral:
		return strconv.FormatFloat(l.num, 'f', -1, 64)
	case stringLiteral:
		if strings.ContainsRune(l.str, '\'') {
			return `"` + l.str + `"`
		}
		return "'" + l.str + "'"
	case boolLiteral:
		return strconv.FormatBool(l.b)
	}
	return "<invalid>"
}

// Node is a node of a rule's abstract syntax tree. It is either an *Operator
// or a *Comparand. Nodes are never modified after construction and may be
// shared between trees.
type Node interface {
	// Weight is the number of comparand leaves in the subtree.
	Weight() int
	// String renders the subtree as a rule string that compiles back to an
	// equal tree.
	String() string
	node()
}

// Operator joins two subtrees with a connective.
type Operator struct {
	conn   Connective
	left   Node
	right  Node
	weight int
}

// NewOperator returns an operator node. Both children must be non-nil.
func NewOperator(c Connective, left, right Node) *Operator {
	if left == nil || right == nil {
		panic("rulekit: operator with nil child")
	}
	return &Operator{
		conn:   c,
		left:   left,
		right:  right,
		weight: left.Weight() + right.Weight(),
	}
}

func (o *Operator) Connective() Connective { return o.conn }
func (o *Operator) Left() Node             { return o.left }
func (o *Operator) Right() Node            { return o.right }
func (o *Operator) Weight() int            { return o.weight }
func (*Operator) node()                    {}

func (o *Operator) String() string {
	var sb strings.Builder
	writeNode(&sb, o)
	return sb.String()
}

// Comparand is a leaf condition: attribute, comparison operator and literal.
type Comparand struct {
	attr string
	op   Op
	lit  Literal
}

// NewComparand returns a leaf. The attribute is not checked; only names for
// which ValidAttribute holds render back to source that compiles.
func NewComparand(attribute string, op Op, lit Literal) *Comparand {
	return &Comparand{attr: attribute, op: op, lit: lit}
}

func (c *Comparand) Attribute() string { return c.attr }
func (c *Comparand) Op() Op            { return c.op }
func (c *Comparand) Literal() Literal  { return c.lit }
func (c *Comparand) Weight() int       { return 1 }
func (*Comparand) node()               {}

func (c *Comparand) String() string {
	return c.attr + " " + c.op.String() + " " + c.lit.String()
}

func writeNode(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Comparand:
		sb.WriteString(v.String())
	case *Operator:
		// Left-associative: a left child of equal precedence needs no
		// parentheses, a right child does.
		writeChild(sb, v.left, v.conn.precedence() > precedenceOf(v.left))
		sb.WriteString(" ")
		sb.WriteString(v.conn.String())
		sb.WriteString(" ")
		writeChild(sb, v.right, v.conn.precedence() >= precedenceOf(v.right))
	}
}

func writeChild(sb *strings.Builder, n Node, paren bool) {
	if paren {
		sb.WriteString("(")
		writeNode(sb, n)
		sb.WriteString(")")
		return
	}
	writeNode(sb, n)
}

// precedenceOf returns the binding strength of the node's root; leaves bind
// tightest.
func precedenceOf(n Node) int {
	if o, ok := n.(*Operator); ok {
		return o.conn.precedence()
	}
	return 3
}

// Equal reports whether two trees are structurally identical: same variants,
// connectives, attributes, operators and literals, with children in the same
// order.
func Equal(a, b Node) bool {
	if a == b {
		return true
	}
	switch x := a.(type) {
	case *Comparand:
		y, ok := b.(*Comparand)
		return ok && x.attr == y.attr && x.op == y.op && x.lit == y.lit
	case *Operator:
		y, ok := b.(*Operator)
		return ok && x.conn == y.conn && x.weight == y.weight &&
			Equal(x.left, y.left) && Equal(x.right, y.right)
	}
	return false
}

// Leaves returns the comparands of the tree in source order.
func Leaves(n Node) []*Comparand {
	var out []*Comparand
	stack := []Node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch v := top.(type) {
		case *Comparand:
			out = append(out, v)
		case *Operator:
			stack = append(stack, v.right, v.left)
		}
	}
	return out
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func Depth(n Node) int {
	o, ok := n.(*Operator)
	if !ok {
		return 1
	}
	return 1 + max(Depth(o.left), Depth(o.right))
}

const maxTreeDepth = 64

// Tree renders the AST with box-drawing characters.
//
// Example output:
//
//	AND
//	├── age > 30
//	└── OR
//	    ├── salary > 50000
//	    └── experience > 5
func Tree(n Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(label(n))
	sb.WriteString("\n")
	buildTree(&sb, n, "", 0)
	return sb.String()
}

func label(n Node) string {
	if o, ok := n.(*Operator); ok {
		return o.conn.String()
	}
	return n.String()
}

func buildTree(sb *strings.Builder, n Node, prefix string, depth int) {
	o, ok := n.(*Operator)
	if !ok {
		return
	}
	if depth >= maxTreeDepth {
		sb.WriteString(prefix)
		sb.WriteString("└── ...\n")
		return
	}
	for i, child := range []Node{o.left, o.right} {
		connector, childPrefix := "├── ", "│   "
		if i == 1 {
			connector, childPrefix = "└── ", "    "
		}
		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(label(child))
		sb.WriteString("\n")
		buildTree(sb, child, prefix+childPrefix, depth+1)
	}
}
