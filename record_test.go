package rulekit_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ezachrisen/rulekit"
	"github.com/matryer/is"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestDecodeRecord(t *testing.T) {
	is := is.New(t)
	rec, err := rulekit.DecodeRecord([]byte(`{"age": 9007199254740993, "department": "Sales", "active": true}`))
	is.NoErr(err)
	is.Equal(rec["age"], json.Number("9007199254740993"))

	pass, err := rulekit.Evaluate(rulekit.MustCompile("age > 30 AND department = 'Sales' AND active = true"), rec)
	is.NoErr(err)
	is.True(pass)

	_, err = rulekit.DecodeRecord([]byte(`[1, 2]`))
	is.True(err != nil)
	_, err = rulekit.DecodeRecord([]byte(`null`))
	is.True(err != nil)
	_, err = rulekit.DecodeRecord([]byte(`{"a":1} junk`))
	is.True(err != nil)
	_, err = rulekit.DecodeRecord([]byte(`{"a":1} {"a":2}`))
	is.True(err != nil)

	rec, err = rulekit.DecodeRecord([]byte("{\"a\":1}\n"))
	is.NoErr(err)
	is.Equal(rec["a"], json.Number("1"))
}

func TestRecordStruct(t *testing.T) {
	is := is.New(t)
	s, err := structpb.NewStruct(map[string]any{"age": 35, "department": "Sales"})
	is.NoErr(err)

	rec := rulekit.RecordFromStruct(s)
	is.Equal(rec["age"], 35.0)
	pass, err := rulekit.Evaluate(rulekit.MustCompile("age > 30 AND department = 'Sales'"), rec)
	is.NoErr(err)
	is.True(pass)

	back, err := rulekit.RecordToStruct(map[string]any{"age": int64(35), "n": json.Number("2.5"), "ok": true})
	is.NoErr(err)
	is.Equal(back.Fields["age"].GetNumberValue(), 35.0)
	is.Equal(back.Fields["n"].GetNumberValue(), 2.5)
	is.Equal(back.Fields["ok"].GetBoolValue(), true)

	is.Equal(len(rulekit.RecordFromStruct(nil)), 0)
}

func TestCheckRecord(t *testing.T) {
	is := is.New(t)
	is.NoErr(employees.CheckRecord(map[string]any{"age": 30, "department": "Sales", "extra": []int{1}}))

	err := employees.CheckRecord(map[string]any{"age": "thirty"})
	is.True(errors.Is(err, rulekit.ErrTypeMismatch))
}
