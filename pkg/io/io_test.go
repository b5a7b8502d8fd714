package io

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/errors"
)

func TestReadJSONRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"nodes": [`},
		{"not an object", `[1,2,3]`},
		{"missing nodes", `{"edges": []}`},
		{"missing edges", `{"nodes": []}`},
		{"null nodes", `{"nodes": null, "edges": []}`},
		{"nodes wrong type", `{"nodes": {}, "edges": []}`},
		{"node without id", `{"nodes": [{"label": "a"}], "edges": []}`},
		{"negative width", `{"nodes": [{"id": "a", "width": -5}], "edges": []}`},
		{"unknown shape", `{"nodes": [{"id": "a", "shape": "hexagon"}], "edges": []}`},
		{"bad align", `{"nodes": [{"id": "a", "textStyle": {"align": "justify"}}], "edges": []}`},
		{"edge without endpoint", `{"nodes": [{"id": "a"}], "edges": [{"from": "a"}]}`},
		{"title with control char", `{"title": "a\u0007b", "nodes": [], "edges": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.name == "title with control char" {
				assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
				return
			}
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidDocument), "got %v", err)
		})
	}
}

func TestReadJSONTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"top level", `{"title": "Plan", "meta": {"title": "Other"}, "nodes": [], "edges": []}`, "Plan"},
		{"meta", `{"meta": {"title": "From Meta"}, "nodes": [], "edges": []}`, "From Meta"},
		{"default", `{"nodes": [], "edges": []}`, DefaultTitle},
		{"blank", `{"title": "   ", "nodes": [], "edges": []}`, DefaultTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ReadJSON(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Title)
		})
	}
}

func TestReadJSONDropsDanglingReferences(t *testing.T) {
	input := `{
	  "nodes": [{"id": "a"}, {"id": "b"}],
	  "edges": [
	    {"id": "e1", "from": "a", "to": "b"},
	    {"id": "e2", "from": "a", "to": "ghost"},
	    {"id": "e3", "from": "b", "to": "b"},
	    {"id": "e4", "from": "a", "to": "b"}
	  ],
	  "comments": [
	    {"id": "c1", "nodeId": "a", "content": "keep"},
	    {"id": "c2", "nodeId": "ghost", "content": "drop"}
	  ]
	}`
	doc, err := ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Graph.Edges, 1)
	assert.Equal(t, "e1", doc.Graph.Edges[0].ID)
	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "c1", doc.Comments[0].ID)
}

func TestReadJSONNodeFields(t *testing.T) {
	input := `{
	  "nodes": [
	    {"id": "d", "type": "decision", "label": "Ok?", "width": 140, "height": 140,
	     "shape": "diamond", "color": "bg-yellow-100", "borderStyle": "dashed",
	     "textStyle": {"bold": true, "align": "left", "fontSize": "lg"}, "icon": "process"},
	    {"id": "k", "kind": "database"},
	    {"id": "u", "type": "mystery"}
	  ],
	  "edges": []
	}`
	doc, err := ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Graph.Nodes, 3)

	d := doc.Graph.Nodes[0]
	assert.Equal(t, diagram.KindProcess, d.Kind)
	assert.Equal(t, diagram.ShapeDiamond, d.Shape)
	assert.Equal(t, "bg-yellow-100", d.Style.ColorToken)
	assert.Equal(t, diagram.BorderDashed, d.Style.BorderStyle)
	assert.True(t, d.Style.Bold)
	assert.Equal(t, diagram.AlignLeft, d.Style.Align)
	assert.Equal(t, "lg", d.Style.FontSize)
	assert.Equal(t, "process", d.IconKey)

	k := doc.Graph.Nodes[1]
	assert.Equal(t, diagram.KindDatabase, k.Kind)
	assert.Equal(t, diagram.ShapeCylinder, k.Shape, "shape defaults from kind")

	assert.Equal(t, diagram.KindStep, doc.Graph.Nodes[2].Kind)
}

func TestRoundTrip(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := diagram.Document{
		Title: "Launch Plan",
		Graph: diagram.Graph{
			Nodes: []diagram.Node{
				{ID: "a", X: 10, Y: 20, Width: 200, Height: 80, Label: "Start", Kind: diagram.KindRoot, Shape: diagram.ShapeRounded,
					Style: diagram.Style{Italic: true, Align: diagram.AlignCenter, ColorToken: "bg-brand-100"}},
				{ID: "b", X: 300, Y: 20, Width: 120, Height: 80, Label: "DB", Kind: diagram.KindDatabase, Shape: diagram.ShapeCylinder},
			},
			Edges: []diagram.Edge{{ID: "e", From: "a", To: "b", Label: "writes"}},
		},
		Comments: []diagram.Comment{{ID: "c", NodeID: "b", UserName: "Ana", Content: "index it", CreatedAt: created}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeJSON(doc, &buf, created))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "Launch Plan", raw["meta"].(map[string]any)["title"])
	assert.EqualValues(t, created.UnixMilli(), raw["meta"].(map[string]any)["created"])

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestWriteJSONEmptyArrays(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(diagram.Document{Title: "Empty"}, &buf))
	assert.Contains(t, buf.String(), `"nodes": []`)
	assert.Contains(t, buf.String(), `"edges": []`)

	doc, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.True(t, doc.Graph.IsEmpty())
}

func TestImportExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	doc := diagram.Document{Title: "File", Graph: diagram.Graph{Nodes: []diagram.Node{{ID: "a", Width: 200, Height: 100, Kind: diagram.KindIdea, Shape: diagram.ShapeRounded}}}}
	require.NoError(t, ExportJSON(doc, path))

	got, err := ImportJSON(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Graph.Nodes, got.Graph.Nodes)

	_, err = ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "launch-plan.json", FileName("Launch  Plan", "json"))
	assert.Equal(t, "untitled.svg", FileName("", ".svg"))
}
