package rulekit

import (
	"encoding/json"
	"fmt"
)

// jsonNode is the serialized form of a Node.
//
//	{"type":"operator","connective":"AND","left":{...},"right":{...}}
//	{"type":"comparand","attribute":"age","operator":">","value":30}
type jsonNode struct {
	Type       string          `json:"type"`
	Connective string          `json:"connective,omitempty"`
	Left       json.RawMessage `json:"left,omitempty"`
	Right      json.RawMessage `json:"right,omitempty"`
	Attribute  string          `json:"attribute,omitempty"`
	Operator   string          `json:"operator,omitempty"`
	Value      any             `json:"value,omitempty"`
}

const (
	jsonOperator  = "operator"
	jsonComparand = "comparand"
)

func (o *Operator) MarshalJSON() ([]byte, error) {
	left, err := json.Marshal(o.left)
	if err != nil {
		return nil, err
	}
	right, err := json.Marshal(o.right)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonNode{
		Type:       jsonOperator,
		Connective: o.conn.String(),
		Left:       left,
		Right:      right,
	})
}

func (c *Comparand) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		Attribute string `json:"attribute"`
		Operator  string `json:"operator"`
		Value     any    `json:"value"`
	}{jsonComparand, c.attr, c.op.String(), c.lit.Value()})
}

// UnmarshalNode decodes a tree serialized with json.Marshal.
func UnmarshalNode(data []byte) (Node, error) {
	var j jsonNode
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}

	switch j.Type {
	case jsonOperator:
		var conn Connective
		switch j.Connective {
		case "AND":
			conn = And
		case "OR":
			conn = Or
		default:
			return nil, fmt.Errorf("unknown connective %q", j.Connective)
		}
		if len(j.Left) == 0 || len(j.Right) == 0 {
			return nil, fmt.Errorf("%s operator must have two children", j.Connective)
		}
		left, err := UnmarshalNode(j.Left)
		if err != nil {
			return nil, fmt.Errorf("left of %s: %w", j.Connective, err)
		}
		right, err := UnmarshalNode(j.Right)
		if err != nil {
			return nil, fmt.Errorf("right of %s: %w", j.Connective, err)
		}
		return NewOperator(conn, left, right), nil

	case jsonComparand:
		if j.Attribute == "" {
			return nil, fmt.Errorf("comparand without attribute")
		}
		if !ValidAttribute(j.Attribute) {
			return nil, fmt.Errorf("invalid attribute name %q", j.Attribute)
		}
		op, err := ParseOp(j.Operator)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", j.Attribute, err)
		}
		var lit Literal
		switch v := j.Value.(type) {
		case float64:
			lit = NumberLit(v)
		case string:
			lit = StringLit(v)
		case bool:
			lit = BoolLit(v)
		default:
			return nil, fmt.Errorf("attribute %s: unsupported literal %v (%T)", j.Attribute, j.Value, j.Value)
		}
		return NewComparand(j.Attribute, op, lit), nil

	default:
		return nil, fmt.Errorf("unknown node type %q", j.Type)
	}
}
