package rulekit

import (
	"fmt"
	"slices"
	"strings"
)

// Schema defines the attributes (variable names) a rule may refer to, their
// data types and, optionally, which comparison operators each one permits.
// The same attributes and types are expected in the records rules are
// evaluated against.
//
// An empty schema permits any attribute.
type Schema struct {
	// Identifier for the schema. Useful for the hosting application; not used by rulekit internally.
	ID string `json:"id,omitempty"`
	// User-friendly name for the schema
	Name string `json:"name,omitempty"`
	// List of attributes supported by this schema
	Elements []DataElement `json:"elements,omitempty"`
}

func (s *Schema) String() string {
	x := strings.Builder{}
	x.WriteString(s.ID)
	if s.Name != "" {
		x.WriteString("  '" + s.Name + "'")
	}
	x.WriteString("\n")
	for _, e := range s.Elements {
		x.WriteString(e.String())
		x.WriteString("\n")
	}
	return x.String()
}

// DataElement defines a named attribute in a schema
type DataElement struct {
	// Attribute name as written in rules. Case-sensitive.
	Name string `json:"name"`

	// One of the Type values defined below.
	Type Type `json:"type"`

	// Comparison operators allowed with this attribute. Empty means all
	// operators that make sense for the type.
	Operators []Op `json:"operators,omitempty"`

	// Optional description of the attribute.
	Description string `json:"description,omitempty"`
}

func (e *DataElement) String() string {
	if len(e.Operators) == 0 {
		return fmt.Sprintf("  %s (%s)", e.Name, e.Type)
	}
	ops := make([]string, len(e.Operators))
	for i, o := range e.Operators {
		ops[i] = o.String()
	}
	return fmt.Sprintf("  %s (%s) %s", e.Name, e.Type, strings.Join(ops, " "))
}

// Element returns the element with the name.
func (s *Schema) Element(name string) (DataElement, bool) {
	for _, e := range s.Elements {
		if e.Name == name {
			return e, true
		}
	}
	return DataElement{}, false
}

// Check verifies that every comparand in the tree names a known attribute,
// uses an operator the attribute permits, and compares against a literal of
// a compatible type. It returns the first violation as a *SchemaError.
func (s *Schema) Check(n Node) error {
	if len(s.Elements) == 0 {
		return nil
	}
	for _, c := range Leaves(n) {
		if err := s.checkComparand(c); err != nil {
			return &SchemaError{Attribute: c.Attribute(), Op: c.Op(), Literal: c.Literal(), Err: err}
		}
	}
	return nil
}

func (s *Schema) checkComparand(c *Comparand) error {
	e, ok := s.Element(c.Attribute())
	if !ok {
		return ErrUnknownAttribute
	}
	if len(e.Operators) > 0 && !slices.Contains(e.Operators, c.Op()) {
		return ErrOperatorNotAllowed
	}

	lit := c.Literal()
	switch e.Type.(type) {
	case Any, nil:
		return nil
	case Int, Float:
		if _, ok := lit.AsNumber(); !ok {
			return fmt.Errorf("%w: %s attribute compared with %s literal", ErrTypeMismatch, e.Type, lit.Type())
		}
	case String:
		if _, ok := lit.AsString(); !ok {
			return fmt.Errorf("%w: %s attribute compared with %s literal", ErrTypeMismatch, e.Type, lit.Type())
		}
		if c.Op().Ordering() {
			return ErrUnsupportedOperator
		}
	case Bool:
		if _, ok := lit.AsBool(); !ok {
			return fmt.Errorf("%w: %s attribute compared with %s literal", ErrTypeMismatch, e.Type, lit.Type())
		}
		if c.Op().Ordering() {
			return ErrUnsupportedOperator
		}
	default:
		return fmt.Errorf("unsupported attribute type %s", e.Type)
	}
	return nil
}

// Type defines a type in the rulekit type system.
// These types are used to define schemas and to describe literals.
type Type interface {
	// Implements the stringer interface
	String() string
}

// String defines a string type.
type String struct{}

// Int defines an integer type. Records may carry any Go integer type.
type Int struct{}

// Float defines a floating point type. Records may carry any Go numeric type.
type Float struct{}

// Bool defines a type for true/false.
type Bool struct{}

// Any defines a type for an unspecified type; no type checking is done.
type Any struct{}

func (Int) String() string    { return "int" }
func (Bool) String() string   { return "bool" }
func (String) String() string { return "string" }
func (Any) String() string    { return "any" }
func (Float) String() string  { return "float" }

// ParseType parses the lower-case name of a type and returns the type.
// "number" is accepted as an alias for float.
func ParseType(t string) (Type, error) {
	switch strings.TrimSpace(t) {
	case "string":
		return String{}, nil
	case "int":
		return Int{}, nil
	case "float", "number":
		return Float{}, nil
	case "bool":
		return Bool{}, nil
	case "any", "":
		return Any{}, nil
	default:
		return Any{}, fmt.Errorf("unrecognized type: %s", t)
	}
}
