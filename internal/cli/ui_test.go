package cli

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/cooketh/flow/pkg/canvas"
)

func TestStatsLine(t *testing.T) {
	tests := []struct {
		nodes, edges int
		src          statSource
		want         string
	}{
		{5, 4, sourceFresh, "5 nodes · 4 edges · fresh"},
		{1, 0, cacheSource(true), "1 node · 0 edges · cached"},
		{7, 1, sourceFallback, "7 nodes · 1 edge · starter graph"},
		{0, 0, sourceSaved, "0 nodes · 0 edges · saved"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ansi.Strip(statsLine(tt.nodes, tt.edges, tt.src)))
		})
	}
}

func TestSaveStatusLabel(t *testing.T) {
	tests := map[canvas.SaveStatus]string{
		canvas.StatusSaved:   "✓ saved",
		canvas.StatusUnsaved: "● unsaved",
		canvas.StatusSaving:  "↻ saving",
		canvas.StatusError:   "✗ error",
		"":                   "",
	}
	for status, want := range tests {
		assert.Equal(t, want, ansi.Strip(saveStatusLabel(status)), "status %q", status)
	}
}
