package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cooketh/flow/pkg/diagram"
)

// WriteJSON encodes doc to w in the interchange format described in the
// package documentation. Only edges between existing nodes are written.
// The output is indented for readability and re-imports to the same
// document via [ReadJSON].
func WriteJSON(doc diagram.Document, w io.Writer) error {
	return writeJSON(doc, w, time.Now())
}

func writeJSON(doc diagram.Document, w io.Writer, now time.Time) error {
	doc = doc.Sanitize()
	nodes := make([]node, 0, len(doc.Graph.Nodes))
	for _, n := range doc.Graph.Nodes {
		nodes = append(nodes, fromNode(n))
	}
	edges := make([]edge, 0, len(doc.Graph.Edges))
	for _, e := range doc.Graph.Edges {
		edges = append(edges, edge{ID: e.ID, From: e.From, To: e.To, Label: e.Label})
	}
	var comments []comment
	for _, c := range doc.Comments {
		comments = append(comments, fromComment(c))
	}

	out := document{
		Title:    doc.Title,
		Meta:     &meta{Title: doc.Title, Created: now.UnixMilli()},
		Nodes:    &nodes,
		Edges:    &edges,
		Comments: comments,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a document to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(doc diagram.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(doc, f)
}

var nonSlug = regexp.MustCompile(`\s+`)

// FileName returns the download name for doc with the given extension,
// e.g. "launch-plan.json" for title "Launch Plan".
func FileName(title, ext string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled"
	}
	return strings.ToLower(nonSlug.ReplaceAllString(title, "-")) + "." + strings.TrimPrefix(ext, ".")
}
