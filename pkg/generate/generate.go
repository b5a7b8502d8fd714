package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cooketh/flow/pkg/layout"
)

// Generator produces a raw graph for a prompt. Implementations make a
// single attempt; retries are the caller's business.
type Generator interface {
	Generate(ctx context.Context, prompt string, style layout.Style) (Raw, error)
}

// GeneratorFunc adapts a function to [Generator].
type GeneratorFunc func(ctx context.Context, prompt string, style layout.Style) (Raw, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, style layout.Style) (Raw, error) {
	return f(ctx, prompt, style)
}

// Raw is the unpositioned graph a generator returns.
type Raw struct {
	Title string    `json:"title" validate:"required"`
	Nodes []RawNode `json:"nodes" validate:"required,min=1,dive"`
	Edges []RawEdge `json:"edges" validate:"dive"`
}

// RawNode is a generated node. Type is one of root, topic, subtopic, step
// or decision; anything else is treated as a step.
type RawNode struct {
	ID    string `json:"id" validate:"required"`
	Label string `json:"label" validate:"required"`
	Type  string `json:"type"`
}

// RawEdge is a generated connection.
type RawEdge struct {
	From  string `json:"from" validate:"required"`
	To    string `json:"to" validate:"required"`
	Label string `json:"label,omitempty"`
}

// Instruction returns the system instruction sent to generators for a
// style.
func Instruction(style layout.Style) string {
	var s string
	switch style {
	case layout.StyleFlowchart:
		s = "Create a sequential Process Flowchart. Use types 'step' and 'decision'. Focus on order of operations."
	case layout.StyleConcept:
		s = "Create a Concept Map. Focus on relationships between entities. Use labeled edges heavily."
	case layout.StyleTree:
		s = "Create a Hierarchical Tree Diagram. Strict parent-child relationships. Deep structure."
	default:
		s = "Create a Mind Map. Central root concept, radiating branches."
	}
	return fmt.Sprintf("You are an expert systems architect. %s Expand ideas logically, avoid shallow lists. Return only valid JSON matching the schema.", s)
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
