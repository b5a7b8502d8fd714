// Package collab shares live cursor presence between people editing the
// same document.
//
// # Overview
//
// A [Channel] carries [Message] values scoped to a document. Editors
// [Channel.Subscribe] to a document with callbacks for graph change
// notifications and remote cursors, then push their own pointer position
// with [Channel.SendCursor]. Delivery is best-effort and at-most-once:
// nothing is acknowledged, retried or ordered beyond arrival order, and a
// subscriber never receives its own messages.
//
// Two transports are provided: [Hub] fans out within one process (the
// HTTP server's websocket clients), and [RedisChannel] uses Redis pub/sub
// on the channel "map:<id>" so several server instances share presence.
//
// [Outbox] decouples senders from the transport: Offer never blocks and
// drops the message when the queue is full. [Presence] merges incoming
// cursors last-write-wins per user and hides entries that have gone quiet.
//
// Concurrent graph editing is not supported; graph messages only tell
// subscribers that a newer version was saved.
package collab

import (
	"context"
	"sync"
	"time"

	"github.com/cooketh/flow/pkg/diagram"
)

// Kind distinguishes message payloads.
type Kind string

const (
	KindCursor Kind = "cursor"
	KindGraph  Kind = "graph"
)

// Cursor is a collaborator's pointer position in world coordinates.
type Cursor struct {
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	Color      string    `json:"color"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	LastActive time.Time `json:"lastActive"`
}

// Message is the envelope exchanged on a document's channel.
type Message struct {
	Kind   Kind           `json:"kind"`
	DocID  string         `json:"docId"`
	From   string         `json:"from"` // sending subscription id
	Cursor *Cursor        `json:"cursor,omitempty"`
	Graph  *diagram.Graph `json:"graph,omitempty"`
}

// GraphFunc receives graph change notifications.
type GraphFunc func(g diagram.Graph)

// CursorFunc receives remote cursor updates.
type CursorFunc func(c Cursor)

// Channel is the collaboration transport.
type Channel interface {
	// Subscribe registers callbacks for docID. Either callback may be nil.
	// Callbacks run on a transport goroutine and must not block for long.
	Subscribe(ctx context.Context, docID string, onGraph GraphFunc, onCursor CursorFunc) (*Subscription, error)

	// SendCursor broadcasts c to the other subscribers of sub's document.
	SendCursor(ctx context.Context, sub *Subscription, c Cursor) error

	// SendGraph broadcasts a graph change to the other subscribers.
	SendGraph(ctx context.Context, sub *Subscription, g diagram.Graph) error
}

// Subscription is the handle returned by [Channel.Subscribe].
type Subscription struct {
	id    string
	docID string

	once    sync.Once
	closeFn func() error
	err     error
}

func newSubscription(docID string, closeFn func() error) *Subscription {
	return &Subscription{id: diagram.NewID("sub"), docID: docID, closeFn: closeFn}
}

// ID identifies the subscription in [Message.From].
func (s *Subscription) ID() string { return s.id }

// DocID returns the subscribed document.
func (s *Subscription) DocID() string { return s.docID }

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		if s.closeFn != nil {
			s.err = s.closeFn()
		}
	})
	return s.err
}

func cursorMessage(sub *Subscription, c Cursor) Message {
	if c.LastActive.IsZero() {
		c.LastActive = time.Now()
	}
	return Message{Kind: KindCursor, DocID: sub.docID, From: sub.id, Cursor: &c}
}

func graphMessage(sub *Subscription, g diagram.Graph) Message {
	g = g.Clone()
	return Message{Kind: KindGraph, DocID: sub.docID, From: sub.id, Graph: &g}
}

// dispatch invokes the callback matching m's kind.
func dispatch(m Message, onGraph GraphFunc, onCursor CursorFunc) {
	switch m.Kind {
	case KindCursor:
		if onCursor != nil && m.Cursor != nil {
			onCursor(*m.Cursor)
		}
	case KindGraph:
		if onGraph != nil && m.Graph != nil {
			onGraph(*m.Graph)
		}
	}
}

// ChannelName returns the pub/sub channel for a document.
func ChannelName(docID string) string { return "map:" + docID }
