package storage

import (
	"context"
	"fmt"

	"github.com/cooketh/flow/pkg/diagram"
)

// DefaultLimit is the number of documents a workspace may hold.
const DefaultLimit = 10

// Workspace applies the document-list rules of the editor on top of a
// [Store]: creation and duplication are refused once the workspace holds
// its limit, duplicates are titled "Copy of <title>".
type Workspace struct {
	store Store
	limit int
}

// NewWorkspace returns a workspace over store. A limit <= 0 disables the
// limit.
func NewWorkspace(store Store, limit int) *Workspace {
	return &Workspace{store: store, limit: limit}
}

// Store returns the underlying store.
func (w *Workspace) Store() Store { return w.store }

// List returns every document's metadata, newest first.
func (w *Workspace) List(ctx context.Context) ([]Meta, error) {
	return w.store.List(ctx)
}

// Load returns a stored document.
func (w *Workspace) Load(ctx context.Context, id string) (Document, error) {
	return w.store.Load(ctx, id)
}

// Delete removes a document.
func (w *Workspace) Delete(ctx context.Context, id string) error {
	return w.store.Delete(ctx, id)
}

// Create stores doc as a new document. An empty title falls back to
// [DefaultTitle].
func (w *Workspace) Create(ctx context.Context, doc diagram.Document) (Document, error) {
	if err := w.checkLimit(ctx); err != nil {
		return Document{}, err
	}
	return w.store.Save(ctx, FromDiagram("", doc.Sanitize()))
}

// Update replaces the content of an existing document, keeping its
// creation time. It is the target of autosave.
func (w *Workspace) Update(ctx context.Context, id string, doc diagram.Document) (Document, error) {
	cur, err := w.store.Load(ctx, id)
	if err != nil {
		return Document{}, err
	}
	next := FromDiagram(id, doc.Sanitize())
	next.CreatedAt = cur.CreatedAt
	return w.store.Save(ctx, next)
}

// Duplicate copies the graph of document id into a new document titled
// "Copy of <title>". Comments are not copied.
func (w *Workspace) Duplicate(ctx context.Context, id string) (Document, error) {
	if err := w.checkLimit(ctx); err != nil {
		return Document{}, err
	}
	src, err := w.store.Load(ctx, id)
	if err != nil {
		return Document{}, err
	}
	return w.store.Save(ctx, Document{
		Title: "Copy of " + src.Title,
		Data:  src.Data,
	})
}

func (w *Workspace) checkLimit(ctx context.Context) error {
	if w.limit <= 0 {
		return nil
	}
	list, err := w.store.List(ctx)
	if err != nil {
		return err
	}
	if len(list) >= w.limit {
		return fmt.Errorf("%d of %d maps: %w", len(list), w.limit, ErrLimitReached)
	}
	return nil
}
