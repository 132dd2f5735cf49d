package rulekit_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/ezachrisen/rulekit"
	"github.com/matryer/is"
)

const nested = "((age > 30 AND department = 'Sales') OR (age < 25 AND department = 'Marketing')) AND (salary > 50000 OR experience > 5)"

func TestEvaluate(t *testing.T) {

	cases := map[string]struct {
		rule string
		data map[string]any
		want bool
	}{
		"simple pass": {
			rule: "age > 30 AND department = 'Sales'",
			data: map[string]any{"age": 35, "department": "Sales"},
			want: true,
		},
		"simple fail": {
			rule: "age > 30 AND department = 'Sales'",
			data: map[string]any{"age": 20, "department": "Sales"},
			want: false,
		},
		"nested pass": {
			rule: nested,
			data: map[string]any{"age": 35, "department": "Sales", "salary": 100000, "experience": 5},
			want: true,
		},
		"nested fail": {
			rule: nested,
			data: map[string]any{"age": 35, "department": "Sales", "salary": 10000, "experience": 2},
			want: false,
		},
		"mixed numeric types": {
			rule: "a = 2 AND b >= 1.5 AND c < 10 AND d != 3",
			data: map[string]any{"a": int8(2), "b": float32(1.5), "c": uint64(9), "d": json.Number("4")},
			want: true,
		},
		"not equal string": {
			rule: "department != 'Sales'",
			data: map[string]any{"department": "sales"},
			want: true,
		},
		"boolean": {
			rule: "active = true AND trial != true",
			data: map[string]any{"active": true, "trial": false},
			want: true,
		},
		"or": {
			rule: "a > 5 OR b <= 1",
			data: map[string]any{"a": 1, "b": 1},
			want: true,
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			got, err := rulekit.Evaluate(rulekit.MustCompile(c.rule), c.data)
			is.NoErr(err)
			is.Equal(got, c.want)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {

	cases := map[string]struct {
		rule     string
		data     map[string]any
		kind     rulekit.EvalErrorKind
		sentinel error
		attr     string
	}{
		"missing attribute": {
			rule:     "age > 30 AND department = 'Sales'",
			data:     map[string]any{"department": "Sales"},
			kind:     rulekit.MissingAttribute,
			sentinel: rulekit.ErrMissingAttribute,
			attr:     "age",
		},
		"string value against number": {
			rule:     "age > 30",
			data:     map[string]any{"age": "thirty"},
			kind:     rulekit.TypeMismatch,
			sentinel: rulekit.ErrTypeMismatch,
			attr:     "age",
		},
		"number value against string": {
			rule:     "department = 'Sales'",
			data:     map[string]any{"department": 7},
			kind:     rulekit.TypeMismatch,
			sentinel: rulekit.ErrTypeMismatch,
			attr:     "department",
		},
		"bool value against number": {
			rule:     "a != 1",
			data:     map[string]any{"a": true},
			kind:     rulekit.TypeMismatch,
			sentinel: rulekit.ErrTypeMismatch,
			attr:     "a",
		},
		"ordering strings": {
			rule:     "department > 'A'",
			data:     map[string]any{"department": "Sales"},
			kind:     rulekit.UnsupportedOperator,
			sentinel: rulekit.ErrUnsupportedOperator,
			attr:     "department",
		},
		"ordering booleans": {
			rule:     "active >= false",
			data:     map[string]any{"active": true},
			kind:     rulekit.UnsupportedOperator,
			sentinel: rulekit.ErrUnsupportedOperator,
			attr:     "active",
		},
		"error in right operand of passing or": {
			rule:     "a = 1 OR b = 1",
			data:     map[string]any{"a": 1},
			kind:     rulekit.MissingAttribute,
			sentinel: rulekit.ErrMissingAttribute,
			attr:     "b",
		},
		"left error reported first": {
			rule:     "a = 1 AND b = 1",
			data:     map[string]any{"a": "x"},
			kind:     rulekit.TypeMismatch,
			sentinel: rulekit.ErrTypeMismatch,
			attr:     "a",
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			got, err := rulekit.Evaluate(rulekit.MustCompile(c.rule), c.data)
			is.Equal(got, false)
			var evalErr *rulekit.EvalError
			is.True(errors.As(err, &evalErr))
			is.Equal(evalErr.Kind, c.kind)
			is.Equal(evalErr.Attribute, c.attr)
			is.True(errors.Is(err, c.sentinel))
		})
	}
}

func TestEvaluateShortCircuit(t *testing.T) {
	is := is.New(t)

	or := rulekit.MustCompile("a = 1 OR b = 1")
	and := rulekit.MustCompile("a = 2 AND b = 1")
	data := map[string]any{"a": 1}

	pass, err := rulekit.Evaluate(or, data, rulekit.ShortCircuit(true))
	is.NoErr(err)
	is.True(pass)

	pass, err = rulekit.Evaluate(and, data, rulekit.ShortCircuit(true))
	is.NoErr(err)
	is.True(!pass)

	// The right operand decides, so its error is reported.
	_, err = rulekit.Evaluate(rulekit.MustCompile("a = 2 OR b = 1"), data, rulekit.ShortCircuit(true))
	is.True(errors.Is(err, rulekit.ErrMissingAttribute))
}

func TestEvaluateMaxDepth(t *testing.T) {
	is := is.New(t)
	n := rulekit.MustCompile("a = 1 AND (b = 1 OR (c = 1 AND d = 1))")
	data := map[string]any{"a": 1, "b": 1, "c": 1, "d": 1}

	pass, err := rulekit.Evaluate(n, data, rulekit.MaxDepth(4))
	is.NoErr(err)
	is.True(pass)

	_, err = rulekit.Evaluate(n, data, rulekit.MaxDepth(3))
	var evalErr *rulekit.EvalError
	is.True(errors.As(err, &evalErr))
	is.Equal(evalErr.Kind, rulekit.DepthExceeded)
	is.True(errors.Is(err, rulekit.ErrDepthExceeded))
}

func TestEvaluateDeterministic(t *testing.T) {
	is := is.New(t)
	n := rulekit.MustCompile(nested)
	data := map[string]any{"age": 35, "department": "Sales", "salary": 100000}
	_, first := rulekit.Evaluate(n, data)
	for i := 0; i < 10; i++ {
		_, err := rulekit.Evaluate(n, data)
		is.Equal(err.Error(), first.Error())
	}
}

func TestEvaluateConcurrent(t *testing.T) {
	is := is.New(t)
	n := rulekit.MustCompile(nested)
	data := map[string]any{"age": 35, "department": "Sales", "salary": 100000, "experience": 5}

	results := make(chan bool)
	for i := 0; i < 8; i++ {
		go func() {
			pass, err := rulekit.Evaluate(n, data)
			results <- err == nil && pass
		}()
	}
	for i := 0; i < 8; i++ {
		is.True(<-results)
	}
}

func TestToFloat(t *testing.T) {
	is := is.New(t)
	for _, v := range []any{int(3), int16(3), uint8(3), float32(3), json.Number("3")} {
		f, ok := rulekit.ToFloat(v)
		is.True(ok)
		is.Equal(f, 3.0)
	}
	for _, v := range []any{"3", true, nil, json.Number("x")} {
		_, ok := rulekit.ToFloat(v)
		is.True(!ok)
	}

	f, ok := rulekit.ToFloat(json.Number("1e400"))
	is.True(ok)
	is.True(math.IsInf(f, 1))
	f, ok = rulekit.ToFloat(json.Number("-1e400"))
	is.True(ok)
	is.True(math.IsInf(f, -1))
}

func TestEvaluateOutOfRangeNumber(t *testing.T) {
	is := is.New(t)
	rec, err := rulekit.DecodeRecord([]byte(`{"a": 1e400, "b": -1e400}`))
	is.NoErr(err)
	pass, err := rulekit.Evaluate(rulekit.MustCompile("a > 5 AND b < 5"), rec)
	is.NoErr(err)
	is.True(pass)
}
