// Package io provides JSON import and export for diagram documents.
//
// # Overview
//
// This package serializes a [diagram.Document] to and from the interchange
// format used by the map editor's "Export JSON" action. The format is
// designed for:
//
//   - Moving maps between workspaces and installations
//   - Integration with external tools that produce or consume diagrams
//   - Round-trip preservation: import, edit, export, and re-import identically
//
// # JSON Format
//
// The format has two required top-level arrays and optional metadata:
//
//	{
//	  "meta":  {"title": "Launch Plan", "created": 1767225600000},
//	  "nodes": [
//	    {"id": "n1", "x": 0, "y": 0, "label": "Start", "type": "root"},
//	    {"id": "n2", "x": 300, "y": 0, "label": "Ship", "type": "step"}
//	  ],
//	  "edges": [
//	    {"id": "e1", "from": "n1", "to": "n2", "label": "then"}
//	  ]
//	}
//
// A document missing either array is rejected. Empty arrays are fine.
//
// # Node Fields
//
// Required:
//   - id: Unique string identifier
//
// Optional:
//   - x, y: Top-left corner in world coordinates
//   - width, height: Size (kind defaults apply when omitted, minimum 50)
//   - label: Display text
//   - type (or kind): Node kind; "decision" is read as "process"
//   - shape: rectangle, rounded, circle, diamond or cylinder
//   - color, borderColor, borderStyle: Presentation tokens
//   - textStyle: {bold, italic, underline, align, fontSize}
//   - icon, src: Icon key and image reference
//
// # Title
//
// The document title is read from "title", then "meta.title", and
// defaults to "Imported Map".
//
// # Referential Cleanup
//
// Structural violations (missing arrays, wrong types, missing ids, invalid
// enum values) reject the whole document and leave the caller's state
// untouched. Referential problems are repaired silently: edges pointing at
// unknown nodes, self loops, duplicate connections and comments on missing
// nodes are dropped, see [diagram.Graph.Sanitize].
package io
