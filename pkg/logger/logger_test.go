package logger_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"ultradl/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logger.ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	if _, err := logger.New(nil); err == nil {
		t.Fatal("expected error for nil options")
	}

	var buf bytes.Buffer

	log, err := logger.New(&logger.Options{Level: "debug", Format: logger.FormatText, Output: &buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	log.Debug("hello", slog.String("k", "v"))

	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected text output: %q", buf.String())
	}

	buf.Reset()

	log, err = logger.New(&logger.Options{Level: "nope", Output: &buf})
	if err == nil {
		t.Error("expected error for unknown level")
	}

	log.Debug("hidden")
	log.Info("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug line should be filtered at info level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("expected json output, got %q", buf.String())
	}
}
