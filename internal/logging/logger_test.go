package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zapcore.WarnLevel)
	logger.Debug("inspecting record", zap.String("story", "1-1-foo"))
	logger.Warn("record unreadable", zap.String("story", "1-2-bar"))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "inspecting record") {
		t.Fatalf("debug line leaked at warn level: %q", out)
	}
	want := "WARN\tstorydod\trecord unreadable\t{\"story\": \"1-2-bar\"}\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}
