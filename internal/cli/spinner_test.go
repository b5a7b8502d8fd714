package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Computing tree layout...")
	s.start()
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Computing tree layout...")
	}, time.Second, 10*time.Millisecond)

	s.stop()
	assert.True(t, strings.HasSuffix(out.String(), "\r"), "line is cleared on stop")
	assert.False(t, s.interrupted())
}

func TestSpinnerInterrupted(t *testing.T) {
	tests := []struct {
		name   string
		parent func() (context.Context, context.CancelFunc)
	}{
		{"cancel", func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 20*time.Millisecond)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.parent()
			s := newSpinner(ctx, &syncBuffer{}, "Rendering...")
			s.start()
			cancel()
			s.stop()
			assert.True(t, s.interrupted())
		})
	}
}

func TestSpinnerStopTwiceAndUnstarted(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, "Generating map...")
	s.start()
	s.stop()
	s.stop()

	idle := newSpinner(context.Background(), &syncBuffer{}, "never shown")
	idle.stop()
	assert.False(t, idle.interrupted())
}
