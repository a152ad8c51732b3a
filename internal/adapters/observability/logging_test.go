package observability_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"castro_guide/internal/adapters/observability"
)

func TestNewLoggerTo_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	l := observability.NewLoggerTo(&buf, "prod", "warn")

	l.Info().Msg("dropped")
	l.Warn().Str("place_id", "p1").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["service"] != "castro-guide" || entry["place_id"] != "p1" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("missing timestamp: %v", entry)
	}
}

func TestNewLoggerTo_UnknownLevelIsInfo(t *testing.T) {
	for _, lvl := range []string{"", "loud", " DEBUG "} {
		var buf bytes.Buffer
		l := observability.NewLoggerTo(&buf, "prod", lvl)
		l.Debug().Msg("debug")
		l.Info().Msg("info")

		got := strings.Count(buf.String(), "\n")
		want := 1
		if lvl == " DEBUG " {
			want = 2
		}
		if got != want {
			t.Fatalf("level %q: %d lines, want %d", lvl, got, want)
		}
	}
}

func TestNewLoggerTo_ConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	l := observability.NewLoggerTo(&buf, "Development", "info")
	l.Info().Msg("hello")

	out := buf.String()
	if strings.HasPrefix(out, "{") || !strings.Contains(out, "hello") {
		t.Fatalf("expected console output, got %q", out)
	}
}
