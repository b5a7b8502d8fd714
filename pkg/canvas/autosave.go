package canvas

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cooketh/flow/pkg/diagram"
)

// DefaultQuietWindow is how long the document must stay unchanged before
// an autosave is issued.
const DefaultQuietWindow = 2 * time.Second

// SaveStatus is the persistence state shown to the user.
type SaveStatus string

const (
	StatusSaved   SaveStatus = "saved"
	StatusUnsaved SaveStatus = "unsaved"
	StatusSaving  SaveStatus = "saving"
	StatusError   SaveStatus = "error"
)

// SaveFunc persists a document snapshot.
type SaveFunc func(ctx context.Context, doc diagram.Document) error

// Autosaver debounces saves: every [Autosaver.Touch] marks the document
// unsaved and restarts the quiet window; when the window elapses without
// further changes the latest snapshot is saved. A failed save leaves the
// status at [StatusError] until the next change or flush and is never
// retried on its own.
//
// Autosaver is safe for concurrent use. Saves run on a timer goroutine and
// never block the caller of Touch.
type Autosaver struct {
	save    SaveFunc
	quiet   time.Duration
	timeout time.Duration
	logger  *log.Logger
	notify  func(SaveStatus)

	mu      sync.Mutex
	status  SaveStatus
	pending diagram.Document
	gen     uint64 // bumped on every Touch
	timer   *time.Timer
	stopped bool

	// inflight is closed when the running save returns.
	inflight chan struct{}
}

// AutosaveOption configures an [Autosaver].
type AutosaveOption func(*Autosaver)

// WithQuietWindow overrides [DefaultQuietWindow].
func WithQuietWindow(d time.Duration) AutosaveOption {
	return func(a *Autosaver) {
		if d > 0 {
			a.quiet = d
		}
	}
}

// WithSaveTimeout bounds each save call.
func WithSaveTimeout(d time.Duration) AutosaveOption {
	return func(a *Autosaver) { a.timeout = d }
}

// WithAutosaveLogger sets the logger for save failures.
func WithAutosaveLogger(l *log.Logger) AutosaveOption {
	return func(a *Autosaver) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithStatusNotify registers fn to receive every status change. It is
// called without the autosaver's lock held, possibly from the timer
// goroutine.
func WithStatusNotify(fn func(SaveStatus)) AutosaveOption {
	return func(a *Autosaver) { a.notify = fn }
}

// NewAutosaver returns an autosaver in the saved state.
func NewAutosaver(save SaveFunc, opts ...AutosaveOption) *Autosaver {
	a := &Autosaver{
		save:    save,
		quiet:   DefaultQuietWindow,
		timeout: 30 * time.Second,
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		status:  StatusSaved,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Status returns the current save status.
func (a *Autosaver) Status() SaveStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Touch records doc as the latest unsaved state and restarts the quiet
// window.
func (a *Autosaver) Touch(doc diagram.Document) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.pending = doc
	a.gen++
	changed := a.setStatus(StatusUnsaved)
	if a.timer != nil {
		a.timer.Stop()
	}
	gen := a.gen
	a.timer = time.AfterFunc(a.quiet, func() { a.fire(gen) })
	a.mu.Unlock()
	a.emit(changed)
}

// Flush waits for a save already in progress, then saves immediately if
// there are still unsaved changes. It returns the error of the last save
// it waited for or issued.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	for a.inflight != nil {
		done := a.inflight
		a.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		a.mu.Lock()
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	if a.status != StatusUnsaved && a.status != StatusError {
		a.mu.Unlock()
		return nil
	}
	return a.run(ctx, a.gen)
}

// Stop cancels any pending save. Later calls to Touch are ignored.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
}

func (a *Autosaver) fire(gen uint64) {
	a.mu.Lock()
	if a.stopped || gen != a.gen || a.status != StatusUnsaved {
		a.mu.Unlock()
		return
	}
	if a.inflight != nil {
		a.timer = time.AfterFunc(a.quiet, func() { a.fire(gen) })
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	_ = a.run(ctx, gen)
}

// run saves the pending document. It must be called with a.mu held, no
// save in flight, and releases the lock.
func (a *Autosaver) run(ctx context.Context, gen uint64) error {
	doc := a.pending
	changed := a.setStatus(StatusSaving)
	done := make(chan struct{})
	a.inflight = done
	a.mu.Unlock()
	a.emit(changed)

	err := a.save(ctx, doc)

	a.mu.Lock()
	switch {
	case gen != a.gen:
		// Edited while saving; the newer Touch already armed a timer.
		changed = a.setStatus(StatusUnsaved)
	case err != nil:
		a.logger.Warn("autosave failed", "title", doc.Title, "err", err)
		changed = a.setStatus(StatusError)
	default:
		changed = a.setStatus(StatusSaved)
	}
	a.inflight = nil
	close(done)
	a.mu.Unlock()
	a.emit(changed)
	return err
}

// setStatus must be called with a.mu held. It returns the new status when
// it differs from the old one.
func (a *Autosaver) setStatus(s SaveStatus) *SaveStatus {
	if a.status == s {
		return nil
	}
	a.status = s
	return &s
}

func (a *Autosaver) emit(s *SaveStatus) {
	if s != nil && a.notify != nil {
		a.notify(*s)
	}
}
