package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferLogger(level LogLevel, jsonOut bool) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	cfg.Level = level
	cfg.Colorize = false
	cfg.JSON = jsonOut
	return New(cfg), &buf
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(WARN, false)

	log.Debugf("debug %d", 1)
	log.Infof("info %d", 2)
	if buf.Len() != 0 {
		t.Fatalf("Expected no output below WARN, got %q", buf.String())
	}

	log.Warnf("warn %d", 3)
	if !strings.Contains(buf.String(), "warn 3") {
		t.Errorf("Expected warn message, got %q", buf.String())
	}
}

func TestJSONOutputWithFields(t *testing.T) {
	log, buf := newBufferLogger(DEBUG, true)

	log.With("conn_id", "abc").Debugf("opened %s", "conn")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "opened conn" {
		t.Errorf("Unexpected message %v", entry["message"])
	}
	if entry["conn_id"] != "abc" {
		t.Errorf("Expected conn_id field, got %v", entry["conn_id"])
	}
	if entry["level"] != "debug" {
		t.Errorf("Expected debug level, got %v", entry["level"])
	}
}

func TestSetLevelKeepsFields(t *testing.T) {
	log, buf := newBufferLogger(WARN, true)
	child := log.With("component", "pool")

	child.Infof("hidden")
	if buf.Len() != 0 {
		t.Fatalf("Expected INFO to be filtered, got %q", buf.String())
	}

	child.SetLevel(INFO)
	child.Infof("visible")
	if !strings.Contains(buf.String(), `"component":"pool"`) {
		t.Errorf("Expected field to survive SetLevel, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"fatal":   FATAL,
		"bogus":   INFO,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Infof("nothing %d", 1)
	log.With("k", "v").Warnf("still nothing")
}
