package collab

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/observability"
)

// subscriberBuffer is the per-subscriber delivery queue length.
const subscriberBuffer = 256

// Hub is an in-process [Channel]. Each subscriber has its own bounded
// queue and delivery goroutine, so a slow callback only loses its own
// messages.
type Hub struct {
	mu     sync.RWMutex
	docs   map[string]map[string]*subscriber
	logger *log.Logger
}

type subscriber struct {
	sub      *Subscription
	onGraph  GraphFunc
	onCursor CursorFunc
	queue    chan Message
	done     chan struct{}
}

// HubOption configures a [Hub].
type HubOption func(*Hub)

// WithHubLogger sets the hub's logger.
func WithHubLogger(l *log.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub returns an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		docs:   make(map[string]map[string]*subscriber),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Subscribe(ctx context.Context, docID string, onGraph GraphFunc, onCursor CursorFunc) (*Subscription, error) {
	s := &subscriber{
		onGraph:  onGraph,
		onCursor: onCursor,
		queue:    make(chan Message, subscriberBuffer),
		done:     make(chan struct{}),
	}
	s.sub = newSubscription(docID, func() error {
		h.remove(docID, s)
		return nil
	})

	h.mu.Lock()
	subs := h.docs[docID]
	if subs == nil {
		subs = make(map[string]*subscriber)
		h.docs[docID] = subs
	}
	subs[s.sub.id] = s
	h.mu.Unlock()

	go s.deliver()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.sub.Close()
		case <-s.done:
		}
	}()

	h.logger.Debug("subscribed", "doc", docID, "sub", s.sub.id)
	return s.sub, nil
}

func (h *Hub) SendCursor(ctx context.Context, sub *Subscription, c Cursor) error {
	h.Publish(ctx, cursorMessage(sub, c))
	return nil
}

func (h *Hub) SendGraph(ctx context.Context, sub *Subscription, g diagram.Graph) error {
	h.Publish(ctx, graphMessage(sub, g))
	return nil
}

// Publish fans m out to every subscriber of m.DocID except the sender.
// Subscribers whose queue is full miss the message.
func (h *Hub) Publish(ctx context.Context, m Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, s := range h.docs[m.DocID] {
		if id == m.From {
			continue
		}
		select {
		case s.queue <- m:
		default:
			observability.Collab().OnDrop(ctx, m.DocID, DropQueueFull)
		}
	}
	observability.Collab().OnPublish(ctx, m.DocID, string(m.Kind))
}

// Subscribers returns the number of live subscriptions for docID.
func (h *Hub) Subscribers(docID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.docs[docID])
}

func (h *Hub) remove(docID string, s *subscriber) {
	h.mu.Lock()
	if subs, ok := h.docs[docID]; ok {
		if _, ok := subs[s.sub.id]; ok {
			delete(subs, s.sub.id)
			close(s.done)
		}
		if len(subs) == 0 {
			delete(h.docs, docID)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("unsubscribed", "doc", docID, "sub", s.sub.id)
}

func (s *subscriber) deliver() {
	for {
		select {
		case <-s.done:
			return
		case m := <-s.queue:
			dispatch(m, s.onGraph, s.onCursor)
		}
	}
}

var _ Channel = (*Hub)(nil)
