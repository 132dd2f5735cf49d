package rulekit

import (
	"encoding/json"
	"errors"
	"strconv"
)

// EvalOptions determine how a tree is evaluated.
// See the functional definitions below for the meaning.
type EvalOptions struct {
	MaxDepth     int
	ShortCircuit bool
}

// EvalOption sets an evaluation option.
type EvalOption func(f *EvalOptions)

// Given an array of EvalOption functions, apply their effect
// on the EvalOptions struct.
func applyEvalOptions(o *EvalOptions, opts ...EvalOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// MaxDepth fails evaluation with DepthExceeded when the tree is deeper than n
// nodes. Default: 0 (no limit)
func MaxDepth(n int) EvalOption {
	return func(f *EvalOptions) {
		f.MaxDepth = n
	}
}

// ShortCircuit skips the right operand of AND when the left is false, and of
// OR when the left is true. Errors the skipped operand would have raised are
// not reported.
// Default: off
func ShortCircuit(b bool) EvalOption {
	return func(f *EvalOptions) {
		f.ShortCircuit = b
	}
}

// Evaluate tests the rule against the attribute record. The record maps
// attribute names to numbers (any Go numeric type or json.Number), strings or
// booleans. The record is only read.
//
// Evaluation stops at the first failure, which is returned as an *EvalError.
func Evaluate(n Node, data map[string]any, opts ...EvalOption) (bool, error) {
	o := EvalOptions{}
	applyEvalOptions(&o, opts...)
	e := evaluator{data: data, opts: o}
	return e.eval(n, 1, nil)
}

type evaluator struct {
	data map[string]any
	opts EvalOptions
}

// eval evaluates n. When d is non-nil it is filled with the outcome of n and
// its children.
func (e *evaluator) eval(n Node, depth int, d *Diagnostics) (pass bool, err error) {
	if d != nil {
		defer func() {
			d.Evaluated = true
			d.Pass = pass
			d.Err = err
		}()
	}
	if e.opts.MaxDepth > 0 && depth > e.opts.MaxDepth {
		return false, &EvalError{Kind: DepthExceeded}
	}

	switch v := n.(type) {
	case *Comparand:
		if d != nil {
			d.Input = e.data[v.attr]
		}
		return e.compare(v)
	case *Operator:
		dl, dr := d.child(v.left), d.child(v.right)
		l, err := e.eval(v.left, depth+1, dl)
		if err != nil {
			return false, err
		}
		if e.opts.ShortCircuit {
			if v.conn == And && !l {
				return false, nil
			}
			if v.conn == Or && l {
				return true, nil
			}
		}
		r, err := e.eval(v.right, depth+1, dr)
		if err != nil {
			return false, err
		}
		if v.conn == And {
			return l && r, nil
		}
		return l || r, nil
	}
	return false, &EvalError{Kind: UnsupportedOperator}
}

func (e *evaluator) compare(c *Comparand) (bool, error) {
	v, ok := e.data[c.attr]
	if !ok {
		return false, &EvalError{Kind: MissingAttribute, Attribute: c.attr, Op: c.op, Literal: c.lit}
	}
	mismatch := &EvalError{Kind: TypeMismatch, Attribute: c.attr, Op: c.op, Value: v, Literal: c.lit}
	unsupported := &EvalError{Kind: UnsupportedOperator, Attribute: c.attr, Op: c.op, Value: v, Literal: c.lit}

	switch c.lit.kind {
	case numberLiteral:
		f, ok := ToFloat(v)
		if !ok {
			return false, mismatch
		}
		return compareNumbers(f, c.op, c.lit.num)
	case stringLiteral:
		s, ok := v.(string)
		if !ok {
			return false, mismatch
		}
		return compareEquality(s == c.lit.str, c.op, unsupported)
	case boolLiteral:
		b, ok := v.(bool)
		if !ok {
			return false, mismatch
		}
		return compareEquality(b == c.lit.b, c.op, unsupported)
	}
	return false, unsupported
}

func compareNumbers(a float64, op Op, b float64) (bool, error) {
	switch op {
	case OpGT:
		return a > b, nil
	case OpLT:
		return a < b, nil
	case OpGE:
		return a >= b, nil
	case OpLE:
		return a <= b, nil
	case OpEQ:
		return a == b, nil
	case OpNE:
		return a != b, nil
	}
	return false, &EvalError{Kind: UnsupportedOperator, Op: op}
}

func compareEquality(equal bool, op Op, unsupported error) (bool, error) {
	switch op {
	case OpEQ:
		return equal, nil
	case OpNE:
		return !equal, nil
	}
	return false, unsupported
}

// ToFloat converts any Go numeric value, or a json.Number, to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if errors.Is(err, strconv.ErrRange) {
			// past the float64 range; f is ±Inf
			return f, true
		}
		return f, err == nil
	}
	return 0, false
}
