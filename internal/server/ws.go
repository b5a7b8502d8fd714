package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/cooketh/flow/pkg/collab"
	"github.com/cooketh/flow/pkg/diagram"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 << 10
	sendBufferSize = 256
)

// room tracks the cursors of one document while it has websocket clients.
type room struct {
	presence *collab.Presence
	sub      *collab.Subscription
	clients  int
}

// join returns the room for docID, subscribing it to the channel on first
// use.
func (s *Server) join(docID string) (*room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rm, ok := s.rooms[docID]; ok {
		rm.clients++
		return rm, nil
	}
	p := collab.NewPresence("", collab.WithStaleAfter(s.staleAfter))
	sub, err := s.channel.Subscribe(context.Background(), docID, nil, func(c collab.Cursor) { p.Update(c) })
	if err != nil {
		return nil, err
	}
	rm := &room{presence: p, sub: sub, clients: 1}
	s.rooms[docID] = rm
	return rm, nil
}

func (s *Server) leave(docID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[docID]
	if !ok {
		return
	}
	rm.presence.Remove(userID)
	rm.clients--
	if rm.clients <= 0 {
		_ = rm.sub.Close()
		delete(s.rooms, docID)
	}
}

// presence lists the active cursors of a document. Documents without
// connected clients have none.
func (s *Server) presence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.workspace.Load(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	rm, ok := s.rooms[id]
	s.mu.Unlock()
	cursors := []collab.Cursor{}
	if ok {
		cursors = rm.presence.Active()
	}
	writeJSON(w, http.StatusOK, cursors)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.origins) == 0 || slices.Contains(s.origins, "*") {
		return true
	}
	return slices.Contains(s.origins, origin)
}

// clientMessage is what browsers send over the socket.
type clientMessage struct {
	Kind collab.Kind `json:"kind"`
	X    float64     `json:"x"`
	Y    float64     `json:"y"`
}

// wsClient is one websocket connection bridged to the collaboration
// channel.
type wsClient struct {
	docID  string
	user   collab.Cursor
	conn   *websocket.Conn
	send   chan []byte
	logger *log.Logger
}

// serveWS upgrades to a websocket carrying cursor presence for one
// document. The query parameters user and name identify the collaborator;
// a missing user gets a generated id.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	if _, err := s.workspace.Load(r.Context(), docID); err != nil {
		s.writeError(w, r, err)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "doc", docID, "err", err)
		return
	}
	defer conn.Close()

	q := r.URL.Query()
	userID := q.Get("user")
	if userID == "" {
		userID = diagram.NewID("user")
	}
	name := q.Get("name")
	if name == "" {
		name = "Guest"
	}
	c := &wsClient{
		docID:  docID,
		user:   collab.Cursor{UserID: userID, UserName: name, Color: collab.ColorFor(userID)},
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: s.logger.With("doc", docID, "user", userID),
	}

	rm, err := s.join(docID)
	if err != nil {
		c.logger.Warn("join failed", "err", err)
		return
	}
	defer s.leave(docID, userID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := s.channel.Subscribe(ctx, docID,
		func(g diagram.Graph) { c.enqueue(collab.Message{Kind: collab.KindGraph, DocID: docID, Graph: &g}) },
		func(cur collab.Cursor) { c.enqueue(collab.Message{Kind: collab.KindCursor, DocID: docID, Cursor: &cur}) },
	)
	if err != nil {
		c.logger.Warn("subscribe failed", "err", err)
		return
	}
	defer sub.Close()

	outbox := collab.NewOutbox(collab.DefaultOutboxSize, func(ctx context.Context, m collab.Message) error {
		return s.channel.SendCursor(ctx, sub, *m.Cursor)
	}, collab.WithOutboxLogger(c.logger))
	go func() { _ = outbox.Run(ctx) }()
	go c.writePump(ctx)

	for _, cur := range rm.presence.Active() {
		c.enqueue(collab.Message{Kind: collab.KindCursor, DocID: docID, Cursor: &cur})
	}

	c.logger.Debug("websocket connected")
	c.readPump(func(cur collab.Cursor) {
		rm.presence.Update(cur)
		outbox.Offer(collab.Message{Kind: collab.KindCursor, DocID: docID, From: sub.ID(), Cursor: &cur})
	})
	c.logger.Debug("websocket closed")
}

// enqueue queues m for the write pump, dropping it when the client is
// too slow.
func (c *wsClient) enqueue(m collab.Message) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Debug("client queue full, message dropped", "kind", m.Kind)
	}
}

// readPump decodes cursor moves until the connection fails.
func (c *wsClient) readPump(onCursor func(collab.Cursor)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", "err", err)
			}
			return
		}
		if msg.Kind != collab.KindCursor {
			continue
		}
		cur := c.user
		cur.X, cur.Y = msg.X, msg.Y
		cur.LastActive = time.Now()
		onCursor(cur)
	}
}

// writePump writes queued messages and keeps the connection alive with
// pings until ctx is done.
func (c *wsClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
