package rulekit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Delta456/box-cli-maker/v2"
	"github.com/alexeyco/simpletable"
)

// Diagnostics records the outcome of evaluating one node of a tree.
type Diagnostics struct {
	// The node evaluated
	Node Node
	// Whether the node was reached. Nodes skipped by short-circuiting, or
	// after an earlier failure, are not.
	Evaluated bool
	Pass      bool
	Err       error
	// The record value of the attribute, for comparands
	Input    any
	Children []*Diagnostics
}

// child appends a diagnostics entry for n to d and returns it. A nil d
// yields nil, so evaluation without diagnostics allocates nothing.
func (d *Diagnostics) child(n Node) *Diagnostics {
	if d == nil {
		return nil
	}
	c := &Diagnostics{Node: n}
	d.Children = append(d.Children, c)
	return c
}

// Explain evaluates the tree like Evaluate and additionally returns the
// outcome of every node.
func Explain(n Node, data map[string]any, opts ...EvalOption) (*Diagnostics, bool, error) {
	o := EvalOptions{}
	applyEvalOptions(&o, opts...)
	e := evaluator{data: data, opts: o}
	d := &Diagnostics{Node: n}
	pass, err := e.eval(n, 1, d)
	return d, pass, err
}

// AsString renders a boxed report of the evaluation state and, if data is
// given, the input record.
func (d *Diagnostics) AsString(source string, data map[string]any) string {
	Box := box.New(box.Config{Px: 2, Py: 1, Type: "Double", Color: "Cyan", TitlePos: "Top", ContentAlign: "Left"})

	s := strings.Builder{}
	if source != "" {
		s.WriteString("Rule:\n")
		s.WriteString("-----\n")
		s.WriteString(wordWrap(source, 100))
		s.WriteString("\n\n")
	}

	e := d.diagnosticTable()
	s.WriteString("Evaluation State:\n")
	s.WriteString("-----------------\n")
	s.WriteString(e.String())

	if data != nil {
		dt := dataTable(data)
		s.WriteString("\n\n")
		s.WriteString("Input Data:\n")
		s.WriteString("-----------\n")
		s.WriteString(dt.String())
	}
	return Box.String("RULE EVALUATION DIAGNOSTIC REPORT", s.String())
}

func dataTable(data map[string]any) *simpletable.Table {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Name"},
			{Align: simpletable.AlignCenter, Text: "Value"},
		},
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		r := []*simpletable.Cell{
			{Text: k},
			{Text: fmt.Sprintf("%v", data[k])},
		}
		table.Body.Cells = append(table.Body.Cells, r)
	}

	table.SetStyle(simpletable.StyleUnicode)
	return table
}

func (d *Diagnostics) diagnosticTable() *simpletable.Table {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Expression"},
			{Align: simpletable.AlignCenter, Text: "Input"},
			{Align: simpletable.AlignCenter, Text: "Result"},
		},
	}

	d.appendRows(table, 0)
	table.SetStyle(simpletable.StyleUnicode)
	return table
}

// Flatten lists d and all its descendants in pre-order.
func (d *Diagnostics) Flatten() []*Diagnostics {
	l := []*Diagnostics{d}
	for _, c := range d.Children {
		l = append(l, c.Flatten()...)
	}
	return l
}

func (d *Diagnostics) appendRows(table *simpletable.Table, n int) {
	r := []*simpletable.Cell{
		{Text: strings.Repeat("  ", n) + label(d.Node)},
		{Text: d.inputText()},
		{Text: d.resultText()},
	}
	table.Body.Cells = append(table.Body.Cells, r)
	for _, c := range d.Children {
		c.appendRows(table, n+1)
	}
}

func (d *Diagnostics) inputText() string {
	if _, ok := d.Node.(*Comparand); !ok || !d.Evaluated {
		return ""
	}
	if d.Input == nil {
		return "<missing>"
	}
	return fmt.Sprintf("%v", d.Input)
}

func (d *Diagnostics) resultText() string {
	switch {
	case !d.Evaluated:
		return "skipped"
	case d.Err != nil:
		return "ERROR: " + d.Err.Error()
	case d.Pass:
		return "PASS"
	default:
		return "FAIL"
	}
}

func wordWrap(text string, lineWidth int) string {
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) == 0 {
		return text
	}
	wrapped := words[0]
	spaceLeft := lineWidth - len(wrapped)
	for _, word := range words[1:] {
		if len(word)+1 > spaceLeft {
			wrapped += "\n" + word
			spaceLeft = lineWidth - len(word)
		} else {
			wrapped += " " + word
			spaceLeft -= 1 + len(word)
		}
	}
	return wrapped
}
