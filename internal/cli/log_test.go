package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("loaded map") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("generating", "style", "tree") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("generating", "style", "tree") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("autosave failed") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			assert.Equal(t, tt.wantLog, buf.Len() > 0)
		})
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("Generated 7 nodes")

	assert.Contains(t, buf.String(), "Generated 7 nodes (")
	assert.Contains(t, buf.String(), "ms)")
}

func TestLoggerContext(t *testing.T) {
	assert.Same(t, log.Default(), loggerFromContext(context.Background()))

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), custom)
	got := loggerFromContext(ctx)
	require.Same(t, custom, got)

	got.Info("serving", "addr", ":8080")
	assert.Contains(t, buf.String(), "addr=:8080")
}
