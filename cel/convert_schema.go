package cel

// This file contains functions that convert
//   FROM a rulekit.Schema and rule tree
//   TO CEL variable declarations
//
// The resulting declarations are passed to the CEL compiler to type check
// the translated expression.

import (
	"fmt"

	"github.com/ezachrisen/rulekit"
	celgo "github.com/google/cel-go/cel"
)

// reserved identifiers that CEL does not accept as variable names.
var reserved = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "else": true,
	"false": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "let": true, "loop": true, "namespace": true, "null": true,
	"package": true, "return": true, "true": true, "var": true, "void": true,
	"while": true,
}

// attributeTypes collects, per attribute, the types of the literals it is
// compared against, in order of first appearance.
func attributeTypes(n rulekit.Node) (names []string, types map[string][]rulekit.Type) {
	types = map[string][]rulekit.Type{}
	for _, c := range rulekit.Leaves(n) {
		name := c.Attribute()
		seen, ok := types[name]
		if !ok {
			names = append(names, name)
		}
		t := c.Literal().Type()
		if !containsType(seen, t) {
			types[name] = append(seen, t)
		}
	}
	return names, types
}

func containsType(ts []rulekit.Type, t rulekit.Type) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// declarations converts the attributes of the rule to CEL variables. The
// schema type is used when the schema declares the attribute; otherwise the
// literal type, or dyn when literals of several types are used.
func declarations(s rulekit.Schema, names []string, types map[string][]rulekit.Type) ([]celgo.EnvOption, error) {
	opts := make([]celgo.EnvOption, 0, len(names))
	for _, name := range names {
		if reserved[name] {
			return nil, fmt.Errorf("attribute %s is a reserved word in CEL", name)
		}

		var typ *celgo.Type
		if e, ok := s.Element(name); ok && e.Type != nil {
			t, err := convertRulekitToCELType(e.Type)
			if err != nil {
				return nil, fmt.Errorf("converting element %s in schema %s: %w", name, s.ID, err)
			}
			typ = t
		} else if ts := types[name]; len(ts) == 1 {
			t, err := convertRulekitToCELType(ts[0])
			if err != nil {
				return nil, fmt.Errorf("converting attribute %s: %w", name, err)
			}
			typ = t
		} else {
			typ = celgo.DynType
		}
		opts = append(opts, celgo.Variable(name, typ))
	}
	return opts, nil
}

// convertRulekitToCELType converts a rulekit type to the CEL type used to
// declare a variable.
func convertRulekitToCELType(t rulekit.Type) (*celgo.Type, error) {
	switch t.(type) {
	case rulekit.String:
		return celgo.StringType, nil
	case rulekit.Int, rulekit.Float:
		return celgo.DoubleType, nil
	case rulekit.Bool:
		return celgo.BoolType, nil
	case rulekit.Any:
		return celgo.DynType, nil
	default:
		return nil, fmt.Errorf("unknown rulekit type %s", t)
	}
}
