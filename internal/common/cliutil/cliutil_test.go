package cliutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWriteJSONPrettyPrints(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, map[string]int{"n": 1})
	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("missing trailing newline: %q", out)
	}
	if !strings.Contains(out, "  \"n\": 1") {
		t.Fatalf("not indented: %q", out)
	}
	var v map[string]int
	if err := json.Unmarshal(buf.Bytes(), &v); err != nil {
		t.Fatalf("round trip: %v", err)
	}
}

func TestWriteJSONMarshalFailureStillJSON(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, map[string]any{"bad": func() {}})
	var v map[string]string
	if err := json.Unmarshal(buf.Bytes(), &v); err != nil {
		t.Fatalf("fallback payload not JSON: %v\n%s", err, buf.String())
	}
	if v["error"] == "" {
		t.Fatalf("expected error field: %s", buf.String())
	}
}

func TestNewLoggerLevelFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnv, "error")
	log := NewLogger(&bytes.Buffer{})
	if log.GetLevel() != zerolog.ErrorLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}

	t.Setenv(LogLevelEnv, "not-a-level")
	log = NewLogger(&bytes.Buffer{})
	if log.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("bad value must fall back to info, got %v", log.GetLevel())
	}
}
