package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "chemquest", "production", "warn")

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "app=chemquest") {
		t.Fatalf("expected tagged warn line, got %q", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "chemquest", "production", "")
	ctx := IntoContext(context.Background(), logger)

	stored := FromContext(ctx)
	stored.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected context logger to write, got %q", buf.String())
	}

	// no logger stored: discard
	missing := FromContext(context.Background())
	missing.Info().Msg("dropped")
	if strings.Contains(buf.String(), "dropped") {
		t.Fatalf("nop logger should not write")
	}
}
