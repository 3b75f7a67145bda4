package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/AlibekovAA/session-auth/internal/common/constants"
)

func TestEntry_IncludesTraceIDAndSortedFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "auth", "debug")

	ctx := context.WithValue(context.Background(), constants.TraceIDKey, "trace-123")
	log.WithFields(ctx, Fields{"user_id": "u1", "action": "signin"}).Info("signed in")

	out := buf.String()
	if !strings.Contains(out, "[INFO] [auth]") {
		t.Fatalf("missing level/service prefix: %q", out)
	}
	if !strings.Contains(out, "[trace_id=trace-123 action=signin user_id=u1]") {
		t.Fatalf("unexpected field rendering: %q", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "signed in") {
		t.Fatalf("message missing: %q", out)
	}
}

func TestLogger_DropsBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "", "warn")

	log.Info("hidden")
	log.Debugf("hidden %d", 1)
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info/debug to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARNING] ") || !strings.Contains(out, "shown") {
		t.Fatalf("expected warning line, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":    DEBUG,
		" INFO ":   INFO,
		"warn":     WARNING,
		"WARNING":  WARNING,
		"error":    ERROR,
		"critical": CRITICAL,
		"bogus":    INFO,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitialize_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	l := &Logger{}
	if err := l.Initialize(dir, "auth", "info"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer l.Close()

	l.Info("hello file")
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
