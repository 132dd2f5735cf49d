package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/ezachrisen/rulekit/internal/logging"
	"github.com/matryer/is"
)

func TestParseLevel(t *testing.T) {

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}

	for in, want := range cases {
		is := is.New(t)
		got, err := logging.ParseLevel(in)
		is.NoErr(err)
		is.Equal(got, want)
	}

	_, err := logging.ParseLevel("loud")
	if err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewJSON(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	log, err := logging.New(logging.Config{Level: "warn", Format: "json"}, &buf)
	is.NoErr(err)

	log.Info("hidden")
	log.Warn("rule compiled", "weight", 3)

	var entry map[string]any
	is.NoErr(json.Unmarshal(buf.Bytes(), &entry))
	is.Equal(entry["msg"], "rule compiled")
	is.Equal(entry["weight"], 3.0)
}

func TestNewText(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	log, err := logging.New(logging.Config{}, &buf)
	is.NoErr(err)
	log.Info("evaluation finished", "records", 2)
	is.True(strings.Contains(buf.String(), "msg=\"evaluation finished\" records=2"))
}

func TestNewInvalid(t *testing.T) {
	is := is.New(t)
	_, err := logging.New(logging.Config{Format: "xml"}, nil)
	is.True(err != nil)
	_, err = logging.New(logging.Config{Level: "loud"}, nil)
	is.True(err != nil)
}
