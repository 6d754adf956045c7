package framesync

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	logger.Debugf("hidden %d", 1)
	logger.Infof("loaded %q", "intro.vqa")
	logger.Errorf("decode failed at %d", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Debug message should be filtered at info level")
	}
	if !strings.Contains(out, `loaded \"intro.vqa\"`) || !strings.Contains(out, "level=INFO") {
		t.Errorf("Missing info line in %q", out)
	}
	if !strings.Contains(out, "decode failed at 7") || !strings.Contains(out, "level=ERROR") {
		t.Errorf("Missing error line in %q", out)
	}

	if NewSlogLogger(nil) == nil {
		t.Error("Expected a logger backed by slog.Default")
	}
}
