package collab

import (
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/errors"
	"github.com/cooketh/flow/pkg/observability"
)

// RedisChannel is a [Channel] backed by Redis pub/sub. Messages are JSON
// encoded [Message] values published on [ChannelName](docID).
type RedisChannel struct {
	client redis.UniversalClient
	prefix string
	logger *log.Logger
}

// RedisOption configures a [RedisChannel].
type RedisOption func(*RedisChannel)

// WithRedisLogger sets the channel's logger.
func WithRedisLogger(l *log.Logger) RedisOption {
	return func(c *RedisChannel) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRedisPrefix namespaces channel names, matching the storage key
// prefix when both share one Redis.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisChannel) { c.prefix = prefix }
}

// NewRedisChannel returns a channel using client. The caller owns client.
func NewRedisChannel(client redis.UniversalClient, opts ...RedisOption) *RedisChannel {
	c := &RedisChannel{
		client: client,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisChannel) topic(docID string) string { return c.prefix + ChannelName(docID) }

func (c *RedisChannel) Subscribe(ctx context.Context, docID string, onGraph GraphFunc, onCursor CursorFunc) (*Subscription, error) {
	ps := c.client.Subscribe(ctx, c.topic(docID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "subscribe %s", docID)
	}

	done := make(chan struct{})
	sub := newSubscription(docID, func() error {
		close(done)
		return ps.Close()
	})

	go func() {
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case <-done:
				return
			case raw, ok := <-msgs:
				if !ok {
					return
				}
				var m Message
				if err := json.Unmarshal([]byte(raw.Payload), &m); err != nil {
					c.logger.Debug("ignoring malformed message", "doc", docID, "err", err)
					continue
				}
				if m.From == sub.id || m.DocID != docID {
					continue
				}
				dispatch(m, onGraph, onCursor)
			}
		}
	}()
	return sub, nil
}

func (c *RedisChannel) SendCursor(ctx context.Context, sub *Subscription, cur Cursor) error {
	return c.publish(ctx, cursorMessage(sub, cur))
}

func (c *RedisChannel) SendGraph(ctx context.Context, sub *Subscription, g diagram.Graph) error {
	return c.publish(ctx, graphMessage(sub, g))
}

func (c *RedisChannel) publish(ctx context.Context, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode message")
	}
	if err := c.client.Publish(ctx, c.topic(m.DocID), payload).Err(); err != nil {
		observability.Collab().OnDrop(ctx, m.DocID, DropSendFailed)
		return errors.Wrap(errors.ErrCodeNetwork, err, "publish %s", m.DocID)
	}
	observability.Collab().OnPublish(ctx, m.DocID, string(m.Kind))
	return nil
}

var _ Channel = (*RedisChannel)(nil)
