package collab

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"
)

// DefaultStaleAfter hides cursors that have not moved for this long.
const DefaultStaleAfter = 30 * time.Second

// Colors is the palette cursors are drawn from.
var Colors = []string{
	"#EF4444", "#F97316", "#F59E0B", "#10B981",
	"#3B82F6", "#6366F1", "#8B5CF6", "#EC4899",
}

// ColorFor picks a stable palette color for userID.
func ColorFor(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return Colors[h.Sum32()%uint32(len(Colors))]
}

// Presence is the transient map of remote cursors for one document,
// keyed by user ID. The most recent update for a user wins; updates from
// the local user are ignored.
type Presence struct {
	mu         sync.RWMutex
	self       string
	staleAfter time.Duration
	now        func() time.Time
	cursors    map[string]Cursor
}

// PresenceOption configures a [Presence].
type PresenceOption func(*Presence)

// WithStaleAfter sets the staleness cutoff. Zero disables it.
func WithStaleAfter(d time.Duration) PresenceOption {
	return func(p *Presence) { p.staleAfter = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PresenceOption {
	return func(p *Presence) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPresence returns an empty presence map for the local user self.
func NewPresence(self string, opts ...PresenceOption) *Presence {
	p := &Presence{
		self:       self,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
		cursors:    make(map[string]Cursor),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Update merges c, stamping LastActive with the local clock so peers
// with skewed clocks age out on arrival time. It reports whether the map
// changed.
func (p *Presence) Update(c Cursor) bool {
	if c.UserID == "" || c.UserID == p.self {
		return false
	}
	c.LastActive = p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors[c.UserID] = c
	return true
}

// Remove forgets a user.
func (p *Presence) Remove(userID string) {
	p.mu.Lock()
	delete(p.cursors, userID)
	p.mu.Unlock()
}

// Active returns the non-stale cursors ordered by user ID.
func (p *Presence) Active() []Cursor {
	now := p.now()
	p.mu.RLock()
	out := make([]Cursor, 0, len(p.cursors))
	for _, c := range p.cursors {
		if p.fresh(c, now) {
			out = append(out, c)
		}
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Prune deletes stale cursors and returns how many were removed.
func (p *Presence) Prune() int {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for id, c := range p.cursors {
		if !p.fresh(c, now) {
			delete(p.cursors, id)
			n++
		}
	}
	return n
}

func (p *Presence) fresh(c Cursor, now time.Time) bool {
	return p.staleAfter <= 0 || now.Sub(c.LastActive) <= p.staleAfter
}
