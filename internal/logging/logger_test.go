package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"trace", LevelTrace},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("info", &buf)

	log.Debug("hidden")
	log.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info message missing: %q", out)
	}
}

func TestNewRunTrace_NilAtInfo(t *testing.T) {
	rt := NewRunTrace(t.TempDir(), "info")
	if rt != nil {
		t.Errorf("NewRunTrace(info) = %v, want nil", rt)
	}
	// nil receiver is safe
	rt.Event("setup", map[string]any{"x": 1})
	rt.Close()
}

func TestRunTrace_WritesEvents(t *testing.T) {
	dir := t.TempDir()
	rt := NewRunTrace(dir, "debug")
	if rt == nil {
		t.Fatal("NewRunTrace(debug) = nil, want trace")
	}
	rt.Event("substitution", map[string]any{"varname": "Income", "count": 2})
	rt.Event("blend", map[string]any{"file": "shares.csv"})
	rt.Close()

	f, err := os.Open(filepath.Join(dir, "trace.jsonl"))
	if err != nil {
		t.Fatalf("trace file missing: %v", err)
	}
	defer f.Close()

	var events []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e map[string]any
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad JSONL line %q: %v", sc.Text(), err)
		}
		events = append(events, e)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0]["event"] != "substitution" || events[0]["count"] != float64(2) {
		t.Errorf("first event = %v", events[0])
	}
	if events[1]["file"] != "shares.csv" {
		t.Errorf("second event = %v", events[1])
	}
	for _, e := range events {
		if _, ok := e["time"]; !ok {
			t.Errorf("event missing time field: %v", e)
		}
	}
}
