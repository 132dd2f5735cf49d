package rulekit_test

import (
	"encoding/json"
	"testing"

	"github.com/ezachrisen/rulekit"
	"github.com/matryer/is"
)

func TestJSON(t *testing.T) {
	is := is.New(t)
	n := rulekit.MustCompile("age > 30 AND (department = 'Sales' OR active = true)")

	b, err := json.Marshal(n)
	is.NoErr(err)
	is.Equal(string(b), `{"type":"operator","connective":"AND",`+
		`"left":{"type":"comparand","attribute":"age","operator":">","value":30},`+
		`"right":{"type":"operator","connective":"OR",`+
		`"left":{"type":"comparand","attribute":"department","operator":"=","value":"Sales"},`+
		`"right":{"type":"comparand","attribute":"active","operator":"=","value":true}}}`)

	back, err := rulekit.UnmarshalNode(b)
	is.NoErr(err)
	is.True(rulekit.Equal(back, n))
}

func TestUnmarshalNodeErrors(t *testing.T) {

	cases := map[string]string{
		"not json":           `{`,
		"unknown type":       `{"type":"leaf"}`,
		"unknown connective": `{"type":"operator","connective":"XOR","left":{},"right":{}}`,
		"missing child":      `{"type":"operator","connective":"AND","left":{"type":"comparand","attribute":"a","operator":"=","value":1}}`,
		"missing attribute":  `{"type":"comparand","operator":"=","value":1}`,
		"bad operator":       `{"type":"comparand","attribute":"a","operator":"==","value":1}`,
		"object literal":     `{"type":"comparand","attribute":"a","operator":"=","value":{}}`,
		"null literal":       `{"type":"comparand","attribute":"a","operator":"=","value":null}`,
		"connective name":    `{"type":"comparand","attribute":"or","operator":"=","value":1}`,
		"upper connective":   `{"type":"comparand","attribute":"AND","operator":"=","value":1}`,
		"space in name":      `{"type":"comparand","attribute":"a b","operator":"=","value":1}`,
		"digit first":        `{"type":"comparand","attribute":"1x","operator":"=","value":1}`,
		"cel syntax in name": `{"type":"comparand","attribute":"a == 1.0 || a","operator":"=","value":1}`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			_, err := rulekit.UnmarshalNode([]byte(data))
			is.True(err != nil)
		})
	}
}

func TestUnmarshalNodeRoundTrip(t *testing.T) {

	cases := []string{
		`{"type":"comparand","attribute":"_private","operator":"!=","value":"x"}`,
		`{"type":"comparand","attribute":"order","operator":"=","value":1}`,
		`{"type":"comparand","attribute":"andy","operator":">=","value":2.5}`,
		`{"type":"operator","connective":"OR",` +
			`"left":{"type":"comparand","attribute":"a1","operator":"<","value":-3},` +
			`"right":{"type":"operator","connective":"AND",` +
			`"left":{"type":"comparand","attribute":"B_2","operator":"=","value":true},` +
			`"right":{"type":"comparand","attribute":"c","operator":"<=","value":0}}}`,
	}

	for _, data := range cases {
		t.Run(data, func(t *testing.T) {
			is := is.New(t)
			n, err := rulekit.UnmarshalNode([]byte(data))
			is.NoErr(err)
			back, err := rulekit.Compile(n.String())
			is.NoErr(err)
			is.True(rulekit.Equal(back, n))
		})
	}
}

func TestValidAttribute(t *testing.T) {
	is := is.New(t)
	for _, name := range []string{"a", "_", "age", "A_1", "order", "android", "Or_"} {
		is.True(rulekit.ValidAttribute(name))
	}
	for _, name := range []string{"", "or", "Or", "AND", "1x", "a b", "a-b", "é", "a.b"} {
		is.True(!rulekit.ValidAttribute(name))
	}
}
