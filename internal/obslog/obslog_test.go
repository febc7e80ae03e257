package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v want %v", in, got, want)
		}
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "board.log")
	l, err := New(Options{Level: "info", ToFile: true, File: path, Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("move_committed", zap.String("uci", "e2e4"))
	l.Debug("dropped")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, `"msg":"move_committed"`) || !strings.Contains(out, `"uci":"e2e4"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "dropped") {
		t.Fatalf("debug line written at info level")
	}
}

func TestReplaceRestores(t *testing.T) {
	prev := L()
	l := zap.NewExample()
	restore := Replace(l)
	if L() != l {
		t.Fatalf("Replace did not install logger")
	}
	restore()
	if L() != prev {
		t.Fatalf("restore did not reinstall previous logger")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_FILE", "")
	o := OptionsFromEnv()
	if o.ToFile || o.Format != "json" || o.File != filepath.Join("logs", "boardview.log") || !o.Console {
		t.Fatalf("options %+v", o)
	}
}
