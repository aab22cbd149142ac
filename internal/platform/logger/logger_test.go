package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jinford/schedtask/internal/platform/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.input))
		})
	}
}

func TestNew_TextFormatFiltersLevel(t *testing.T) {
	// Setup
	defer slog.SetDefault(slog.Default())
	var buf bytes.Buffer
	cfg := logger.FromStrings("warn", "text")
	cfg.Output = &buf

	// Execute
	log := logger.New(cfg)
	log.Info("hidden")
	log.Warn("visible", "database", "default")

	// Assert
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=visible")
	assert.Contains(t, out, "database=default")
}

func TestNew_JSONFormat(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	var buf bytes.Buffer
	cfg := logger.FromStrings("info", "")
	cfg.Output = &buf

	logger.New(cfg).Info("armed", "at", "2024-06-02T02:00:00Z")

	assert.Contains(t, buf.String(), `"msg":"armed"`)
}
