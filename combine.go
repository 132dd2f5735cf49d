package rulekit

import (
	"strconv"
	"strings"
)

// Combine merges several rules into one tree that passes exactly when every
// input passes (for records on which all inputs evaluate without error).
//
// The inputs are split into their top-level AND clauses and each clause into
// its OR terms. Then:
//
//   - identical clauses are kept once;
//   - a clause whose terms include all terms of another clause is dropped
//     (absorption: A AND (A OR B) is A);
//   - two clauses sharing terms S are factored, (S OR X) AND (S OR Y)
//     becoming S OR (X AND Y), preferring the pair whose shared terms carry
//     the most comparands.
//
// Identical subtrees in the result are the same *Operator or *Comparand
// value, shared with the inputs where possible. Inputs are never modified.
// A single input is returned as is.
func Combine(nodes ...Node) (Node, error) {
	in := interner{}
	var clauses []*clause
	for _, n := range nodes {
		if n == nil {
			continue
		}
		for _, c := range flatten(n, And) {
			clauses = append(clauses, newClause(in, c))
		}
	}
	switch {
	case len(clauses) == 0:
		return nil, &CombineError{Empty: true}
	case len(nodes) == 1:
		return nodes[0], nil
	}

	clauses = absorb(clauses)
	for {
		i, j, ok := bestFactor(clauses)
		if !ok {
			break
		}
		clauses[i] = factor(in, clauses[i], clauses[j])
		clauses = append(clauses[:j], clauses[j+1:]...)
		clauses = absorb(clauses)
	}

	var out Node
	for _, c := range clauses {
		n := c.build()
		if out == nil {
			out = n
			continue
		}
		out = NewOperator(And, out, n)
	}
	return in.intern(out), nil
}

// flatten returns the operands of the maximal chain of conn at the root of n,
// in source order.
func flatten(n Node, conn Connective) []Node {
	o, ok := n.(*Operator)
	if !ok || o.conn != conn {
		return []Node{n}
	}
	return append(flatten(o.left, conn), flatten(o.right, conn)...)
}

// clause is one conjunct of the combined rule: the disjunction of its terms.
type clause struct {
	// node is the original subtree; nil once the clause has been rewritten.
	node  Node
	terms []Node
	keys  []string
}

func newClause(in interner, n Node) *clause {
	n = in.intern(n)
	c := &clause{node: n}
	for _, t := range flatten(n, Or) {
		c.add(t)
	}
	return c
}

func (c *clause) add(t Node) {
	k := fingerprint(t)
	if c.has(k) {
		return
	}
	c.terms = append(c.terms, t)
	c.keys = append(c.keys, k)
}

func (c *clause) has(key string) bool {
	for _, k := range c.keys {
		if k == key {
			return true
		}
	}
	return false
}

// subsetOf reports whether every term of c is a term of d.
func (c *clause) subsetOf(d *clause) bool {
	for _, k := range c.keys {
		if !d.has(k) {
			return false
		}
	}
	return true
}

func (c *clause) build() Node {
	if c.node != nil {
		return c.node
	}
	return fold(Or, c.terms)
}

// absorb drops every clause implied by an earlier or smaller clause. Of two
// clauses with the same terms the first is kept.
func absorb(clauses []*clause) []*clause {
	out := clauses[:0:0]
	for i, c := range clauses {
		absorbed := false
		for j, d := range clauses {
			if i == j || !d.subsetOf(c) {
				continue
			}
			// d implies c. Keep c only when they are equivalent and c comes first.
			if c.subsetOf(d) && i < j {
				continue
			}
			absorbed = true
			break
		}
		if !absorbed {
			out = append(out, c)
		}
	}
	return out
}

// bestFactor returns the pair of clauses whose shared terms have the largest
// total weight.
func bestFactor(clauses []*clause) (int, int, bool) {
	bi, bj, best := 0, 0, 0
	for i := range clauses {
		for j := i + 1; j < len(clauses); j++ {
			w := 0
			for k, key := range clauses[i].keys {
				if clauses[j].has(key) {
					w += clauses[i].terms[k].Weight()
				}
			}
			if w > best {
				bi, bj, best = i, j, w
			}
		}
	}
	return bi, bj, best > 0
}

// factor rewrites (S OR X) AND (S OR Y) as S OR (X AND Y).
func factor(in interner, a, b *clause) *clause {
	var shared, restA, restB []Node
	for k, t := range a.terms {
		if b.has(a.keys[k]) {
			shared = append(shared, t)
		} else {
			restA = append(restA, t)
		}
	}
	for k, t := range b.terms {
		if !a.has(b.keys[k]) {
			restB = append(restB, t)
		}
	}

	c := &clause{}
	for _, t := range shared {
		c.add(t)
	}
	c.add(in.intern(NewOperator(And, fold(Or, restA), fold(Or, restB))))
	return c
}

// fold joins the nodes left-associatively with conn.
func fold(conn Connective, nodes []Node) Node {
	out := nodes[0]
	for _, n := range nodes[1:] {
		out = NewOperator(conn, out, n)
	}
	return out
}

// interner maps every distinct subtree to a single representative node.
type interner map[string]Node

func (in interner) intern(n Node) Node {
	key := fingerprint(n)
	if c, ok := in[key]; ok {
		return c
	}
	if o, ok := n.(*Operator); ok {
		l, r := in.intern(o.left), in.intern(o.right)
		if l != o.left || r != o.right {
			n = NewOperator(o.conn, l, r)
		}
	}
	in[key] = n
	return n
}

// fingerprint returns a string that is equal for two trees exactly when
// Equal reports them equal.
func fingerprint(n Node) string {
	var sb strings.Builder
	writeFingerprint(&sb, n)
	return sb.String()
}

func writeFingerprint(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Comparand:
		sb.WriteString(strconv.Quote(v.attr))
		sb.WriteString(v.op.String())
		switch v.lit.kind {
		case numberLiteral:
			sb.WriteString("n")
			f := v.lit.num
			if f == 0 {
				f = 0 // -0 equals 0
			}
			sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		case stringLiteral:
			sb.WriteString("s")
			sb.WriteString(strconv.Quote(v.lit.str))
		case boolLiteral:
			sb.WriteString("b")
			sb.WriteString(strconv.FormatBool(v.lit.b))
		}
	case *Operator:
		sb.WriteString("(")
		sb.WriteString(v.conn.String())
		sb.WriteString(" ")
		writeFingerprint(sb, v.left)
		sb.WriteString(" ")
		writeFingerprint(sb, v.right)
		sb.WriteString(")")
	}
}
