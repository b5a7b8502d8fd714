package generate

import (
	"strings"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/layout"
)

// Fallback returns the built-in graph used when no generator result is
// available. The flow variant is chosen for [layout.StyleFlowchart] or a
// prompt mentioning "process"; otherwise a mind map is returned.
func Fallback(prompt string, style layout.Style) Raw {
	short := truncate(prompt, 20)
	if style == layout.StyleFlowchart || strings.Contains(strings.ToLower(prompt), "process") {
		return Raw{
			Title: "Flow: " + short,
			Nodes: []RawNode{
				{ID: "root", Label: "Start", Type: "root"},
				{ID: "1", Label: "Initial Step", Type: "step"},
				{ID: "2", Label: "Check Condition", Type: "decision"},
				{ID: "3", Label: "Proceed", Type: "step"},
				{ID: "4", Label: "Finish", Type: "step"},
			},
			Edges: []RawEdge{
				{From: "root", To: "1"},
				{From: "1", To: "2"},
				{From: "2", To: "3", Label: "Yes"},
				{From: "2", To: "4", Label: "No"},
				{From: "3", To: "4"},
			},
		}
	}
	return Raw{
		Title: "Map: " + short,
		Nodes: []RawNode{
			{ID: "root", Label: short, Type: "root"},
			{ID: "1", Label: "Main Concept A", Type: "topic"},
			{ID: "2", Label: "Main Concept B", Type: "topic"},
			{ID: "3", Label: "Detail A.1", Type: "subtopic"},
			{ID: "4", Label: "Detail B.1", Type: "subtopic"},
			{ID: "5", Label: "Detail B.2", Type: "subtopic"},
		},
		Edges: []RawEdge{
			{From: "root", To: "1"},
			{From: "root", To: "2"},
			{From: "1", To: "3"},
			{From: "2", To: "4"},
			{From: "2", To: "5"},
		},
	}
}

// DemoTitle is the title of [Demo].
const DemoTitle = "Demo Workflow"

// Demo returns the hand-placed sample workflow shown to first-time users.
func Demo() diagram.Document {
	center := diagram.Style{Align: diagram.AlignCenter}
	boldCenter := diagram.Style{Bold: true, Align: diagram.AlignCenter}

	nodes := []diagram.Node{
		{ID: "start", X: 50, Y: 250, Width: 80, Height: 80, Label: "Start", Kind: diagram.KindStep, Shape: diagram.ShapeCircle,
			Style: withColors(boldCenter, "bg-green-50", "border-green-500")},
		{ID: "process1", X: 200, Y: 240, Width: 160, Height: 100, Label: "Analyze Input", Kind: diagram.KindProcess, Shape: diagram.ShapeRectangle,
			Style: withColors(center, "bg-white", ""), IconKey: "code"},
		{ID: "decision", X: 450, Y: 240, Width: 140, Height: 140, Label: "Is Valid?", Kind: diagram.KindProcess, Shape: diagram.ShapeDiamond,
			Style: withColors(diagram.Style{Bold: true, Align: diagram.AlignCenter, FontSize: "sm"}, "bg-yellow-50", "border-yellow-500")},
		{ID: "db", X: 450, Y: 450, Width: 120, Height: 120, Label: "Save to DB", Kind: diagram.KindDatabase, Shape: diagram.ShapeCylinder,
			Style: withColors(center, "bg-blue-50", "border-blue-500"), IconKey: "database"},
		{ID: "end_success", X: 700, Y: 470, Width: 100, Height: 60, Label: "Success", Kind: diagram.KindStep, Shape: diagram.ShapeRounded,
			Style: withColors(diagram.Style{Bold: true}, "bg-green-100", "")},
		{ID: "review", X: 700, Y: 260, Width: 140, Height: 80, Label: "Manual Review", Kind: diagram.KindProcess, Shape: diagram.ShapeRectangle,
			Style: withColors(diagram.Style{}, "bg-red-50", ""), IconKey: "step"},
		{ID: "note", X: 200, Y: 100, Width: 150, Height: 60, Label: "Check API \nRate Limits", Kind: diagram.KindText, Shape: diagram.ShapeRectangle,
			Style: withColors(diagram.Style{Italic: true, FontSize: "sm", Align: diagram.AlignLeft}, "bg-transparent", "")},
	}
	edges := []diagram.Edge{
		{ID: "e1", From: "start", To: "process1"},
		{ID: "e2", From: "process1", To: "decision"},
		{ID: "e3", From: "decision", To: "db", Label: "Yes"},
		{ID: "e4", From: "decision", To: "review", Label: "No"},
		{ID: "e5", From: "db", To: "end_success"},
		{ID: "e6", From: "note", To: "process1"},
	}
	return diagram.Document{Title: DemoTitle, Graph: diagram.Graph{Nodes: nodes, Edges: edges}}
}

func withColors(s diagram.Style, color, border string) diagram.Style {
	s.ColorToken = color
	s.BorderColor = border
	return s
}
