// Package storage persists diagram documents.
//
// This package defines the [Store] interface with implementations for
// different backends:
//   - memory: In-memory storage for development/testing
//   - file: One JSON file per document plus an index, for the CLI
//   - redis: Redis hashes with a sorted-set index, for multi-instance servers
//   - mongo: A MongoDB collection
//
// # Architecture
//
// A [Document] is a titled graph with comments and timestamps. Stores
// assign ids and timestamps on [Store.Save] and list documents newest
// first. [Workspace] layers the user-facing rules on top of a store: a
// bounded number of documents, duplication and import.
//
// # Usage
//
//	store, err := storage.Open(ctx, storage.Config{Backend: "file", Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	ws := storage.NewWorkspace(store, storage.DefaultLimit)
//	doc, err := ws.Create(ctx, "Launch Plan", diagram.Document{})
package storage

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/errors"
)

// DefaultTitle is used for documents saved without a title.
const DefaultTitle = "Untitled Map"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New(errors.ErrCodeNotFound, "document not found")

	// ErrLimitReached is returned when the workspace is full.
	ErrLimitReached = errors.New(errors.ErrCodeLimitReached, "workspace limit reached, delete a map first")
)

// Meta is the listing entry for a document.
type Meta struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// Document is a persisted diagram.
type Document struct {
	ID        string            `json:"id" bson:"_id"`
	Title     string            `json:"title" bson:"title"`
	CreatedAt time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time         `json:"updatedAt" bson:"updated_at"`
	Data      diagram.Graph     `json:"data" bson:"data"`
	Comments  []diagram.Comment `json:"comments,omitempty" bson:"comments,omitempty"`
}

// Meta returns the listing entry for d.
func (d Document) Meta() Meta {
	return Meta{ID: d.ID, Title: d.Title, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

// Diagram returns the editable view of d.
func (d Document) Diagram() diagram.Document {
	return diagram.Document{
		Title:    d.Title,
		Graph:    d.Data.Clone(),
		Comments: slices.Clone(d.Comments),
	}
}

// FromDiagram wraps doc for storage under id. An empty id makes the next
// Save create a new document.
func FromDiagram(id string, doc diagram.Document) Document {
	return Document{
		ID:       id,
		Title:    doc.Title,
		Data:     doc.Graph.Clone(),
		Comments: slices.Clone(doc.Comments),
	}
}

func (d Document) clone() Document {
	d.Data = d.Data.Clone()
	d.Comments = slices.Clone(d.Comments)
	return d
}

// Store is the interface for document storage backends.
type Store interface {
	// Save creates or replaces a document and returns it as stored. An
	// empty ID is assigned a new one; an empty title becomes
	// [DefaultTitle]; UpdatedAt is always set to the current time and
	// CreatedAt defaults to it.
	Save(ctx context.Context, doc Document) (Document, error)

	// Load returns the document with the given ID or [ErrNotFound].
	Load(ctx context.Context, id string) (Document, error)

	// List returns every document's metadata, most recently updated first.
	List(ctx context.Context) ([]Meta, error)

	// Delete removes a document. Deleting a missing document is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// now is the clock used to stamp documents.
var now = time.Now

// prepare fills in the fields Save is responsible for.
func prepare(doc Document) (Document, error) {
	if doc.ID == "" {
		doc.ID = diagram.NewID("map")
	}
	if err := errors.ValidateDocumentID(doc.ID); err != nil {
		return Document{}, err
	}
	if doc.Title == "" {
		doc.Title = DefaultTitle
	}
	if err := errors.ValidateTitle(doc.Title); err != nil {
		return Document{}, err
	}
	t := now().UTC().Truncate(time.Millisecond)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = t
	}
	doc.UpdatedAt = t
	return doc.clone(), nil
}

// sortMetas orders entries newest first, breaking ties by ID.
func sortMetas(m []Meta) {
	slices.SortFunc(m, func(a, b Meta) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}

func notFound(id string) error {
	return fmt.Errorf("%s: %w", id, ErrNotFound)
}
