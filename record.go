package rulekit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"google.golang.org/protobuf/types/known/structpb"
)

// RecordFromStruct converts a protocol buffer Struct into an attribute
// record. Number values become float64; nested lists and structs are carried
// over but never satisfy a comparison.
func RecordFromStruct(s *structpb.Struct) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return s.AsMap()
}

// RecordToStruct converts an attribute record into a protocol buffer Struct.
func RecordToStruct(data map[string]any) (*structpb.Struct, error) {
	norm := make(map[string]any, len(data))
	for k, v := range data {
		if f, ok := ToFloat(v); ok {
			v = f
		}
		norm[k] = v
	}
	s, err := structpb.NewStruct(norm)
	if err != nil {
		return nil, fmt.Errorf("converting record: %w", err)
	}
	return s, nil
}

// DecodeRecord decodes a JSON object into an attribute record. Numbers are
// kept as json.Number so integers keep their precision.
func DecodeRecord(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("decoding record: not a JSON object")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("decoding record: unexpected data after JSON object")
	}
	return m, nil
}

// CheckRecord verifies that every attribute of the record that the schema
// declares carries a value of the declared type.
func (s *Schema) CheckRecord(data map[string]any) error {
	for _, e := range s.Elements {
		v, ok := data[e.Name]
		if !ok {
			continue
		}
		var good bool
		switch e.Type.(type) {
		case Int, Float:
			_, good = ToFloat(v)
		case String:
			_, good = v.(string)
		case Bool:
			_, good = v.(bool)
		default:
			good = true
		}
		if !good {
			return fmt.Errorf("%w: attribute %s is declared %s, record has %v (%T)", ErrTypeMismatch, e.Name, e.Type, v, v)
		}
	}
	return nil
}
