// Package pkg provides the libraries behind flow, a canvas engine for mind
// maps, trees, flowcharts and concept maps.
//
// # Overview
//
// The pkg directory is organized around one editing session:
//
//  1. [diagram] - Nodes, edges, documents and the immutable graph operations
//  2. [layout] - Automatic layout: mindmap, tree, flowchart and concept styles
//  3. [route] - Connector geometry between node boxes
//  4. [history] - Bounded undo/redo of graph snapshots
//  5. [canvas] - The interaction state machine, viewport and autosave
//  6. [collab] - Live cursor presence over an in-process hub or Redis
//  7. [storage] - Document persistence in memory, files, Redis or MongoDB
//  8. [io], [render], [pipeline] - Interchange JSON and SVG/PNG/JPEG/PDF/DOT export
//  9. [generate] - Prompt-to-map generation with a built-in fallback
//
// # Architecture
//
// A typical editing flow:
//
//	pointer and keyboard input (terminal editor, HTTP clients)
//	         ↓
//	    [canvas] Controller (hit-tested events → commits)
//	         ↓
//	    [history] Log          [canvas] Autosaver → [storage] Workspace
//	         ↓
//	    [render] Scene ([route] connectors) → [pipeline] artifacts
//
// # Quick Start
//
// Lay out a document and export it:
//
//	doc, _ := io.ImportJSON("plan.json")
//	doc.Graph = layout.Apply(doc.Graph, layout.StyleTree)
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	artifacts, _ := runner.Render(ctx, doc, pipeline.Options{Formats: []string{"svg"}})
//
// # Supporting Packages
//
// [cache] keys layouts and artifacts by content hash. [config] loads the
// TOML configuration. [errors] carries typed error codes through every
// layer. [observability] exposes hooks for metrics and tracing.
// [buildinfo] holds version information injected at build time.
package pkg
