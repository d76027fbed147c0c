package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONLoggerToTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "console", "warn")
	logger.Info("hidden")
	logger.Warn("backend_call", "operation", "backend.chat")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info must be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"service":"console"`) || !strings.Contains(out, `"msg":"backend_call"`) {
		t.Fatalf("unexpected log line: %s", out)
	}
}
