package collab

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/cooketh/flow/pkg/observability"
)

// DefaultOutboxSize bounds the number of queued outgoing messages.
const DefaultOutboxSize = 64

// Drop reasons reported to [observability.CollabHooks].
const (
	DropQueueFull  = "queue_full"
	DropSendFailed = "send_failed"
	DropClosed     = "closed"
)

// SendFunc delivers one message to the transport.
type SendFunc func(ctx context.Context, m Message) error

// Outbox queues outgoing messages so callers on the interaction path never
// wait on the network. Offer drops instead of blocking; failed sends are
// logged and dropped, never retried.
type Outbox struct {
	queue  chan Message
	send   SendFunc
	logger *log.Logger
	done   chan struct{}
}

// OutboxOption configures an [Outbox].
type OutboxOption func(*Outbox)

// WithOutboxLogger sets the logger for dropped messages.
func WithOutboxLogger(l *log.Logger) OutboxOption {
	return func(o *Outbox) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOutbox returns an outbox holding at most size messages.
func NewOutbox(size int, send SendFunc, opts ...OutboxOption) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	o := &Outbox{
		queue:  make(chan Message, size),
		send:   send,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Offer enqueues m and reports whether it was accepted.
func (o *Outbox) Offer(m Message) bool {
	select {
	case <-o.done:
		observability.Collab().OnDrop(context.Background(), m.DocID, DropClosed)
		return false
	default:
	}
	select {
	case o.queue <- m:
		return true
	default:
		observability.Collab().OnDrop(context.Background(), m.DocID, DropQueueFull)
		return false
	}
}

// Run sends queued messages until ctx is done.
func (o *Outbox) Run(ctx context.Context) error {
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-o.queue:
			if err := o.send(ctx, m); err != nil {
				o.logger.Debug("collab message dropped", "doc", m.DocID, "kind", m.Kind, "err", err)
				observability.Collab().OnDrop(ctx, m.DocID, DropSendFailed)
				continue
			}
			observability.Collab().OnPublish(ctx, m.DocID, string(m.Kind))
		}
	}
}
