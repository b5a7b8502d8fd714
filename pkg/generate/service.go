package generate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/errors"
	"github.com/cooketh/flow/pkg/layout"
)

// MaxPromptLength bounds prompts accepted by [Service.Generate].
const MaxPromptLength = 2000

var validate = validator.New(validator.WithRequiredStructEnabled())

// Result is a generated, laid-out document.
type Result struct {
	Document diagram.Document
	// Fallback reports whether the built-in graph was used.
	Fallback bool
}

// Service validates generator output, converts it into positioned nodes
// and falls back to the built-in graph on any failure.
type Service struct {
	gen    Generator
	logger *log.Logger
}

// Option configures a [Service].
type Option func(*Service)

// WithLogger sets the logger used to report generator failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns a service backed by gen. A nil gen always uses the
// fallback graph.
func NewService(gen Generator, opts ...Option) *Service {
	s := &Service{gen: gen, logger: log.NewWithOptions(io.Discard, log.Options{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces a document for prompt laid out in style. It fails
// only for an empty or oversized prompt or a cancelled context; generator
// failures are absorbed by the fallback.
func (s *Service) Generate(ctx context.Context, prompt string, style layout.Style) (Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "prompt cannot be empty")
	}
	if len(prompt) > MaxPromptLength {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "prompt too long (max %d characters)", MaxPromptLength)
	}

	raw, err := s.attempt(ctx, prompt, style)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		s.logger.Warn("generation failed, using fallback", "style", style, "err", err)
		return Result{Document: Build(Fallback(prompt, style), style), Fallback: true}, nil
	}
	return Result{Document: Build(raw, style)}, nil
}

func (s *Service) attempt(ctx context.Context, prompt string, style layout.Style) (Raw, error) {
	if s.gen == nil {
		return Raw{}, errors.New(errors.ErrCodeUnsupported, "no generator configured")
	}
	raw, err := s.gen.Generate(ctx, prompt, style)
	if err != nil {
		return Raw{}, err
	}
	if err := Validate(raw); err != nil {
		return Raw{}, err
	}
	return raw, nil
}

// Validate checks that raw has a title, at least one node, ids and labels
// on every node, and endpoints on every edge.
func Validate(raw Raw) error {
	if err := validate.Struct(raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "invalid generator result")
	}
	return nil
}

// Build converts raw into a document: node types become kinds with their
// shape, colors, icon and size, edges get sequential ids, and the graph is
// laid out in style. Edges to unknown nodes are dropped.
func Build(raw Raw, style layout.Style) diagram.Document {
	g := diagram.Graph{Nodes: make([]diagram.Node, 0, len(raw.Nodes))}
	for _, n := range raw.Nodes {
		g.Nodes = append(g.Nodes, fromRaw(n))
	}
	for i, e := range raw.Edges {
		g.Edges = append(g.Edges, diagram.Edge{ID: fmt.Sprintf("edge-%d", i), From: e.From, To: e.To, Label: e.Label})
	}
	g = layout.Apply(g.Sanitize(), style)
	return diagram.Document{Title: raw.Title, Graph: g}
}

// preset is the presentation a coarse generated type maps to.
type preset struct {
	kind          diagram.Kind
	shape         diagram.Shape
	color, border string
	icon          string
	width, height float64
}

var (
	decisionPreset = preset{diagram.KindProcess, diagram.ShapeDiamond, "bg-yellow-50", "border-yellow-500", "process", 140, 140}
	rootPreset     = preset{diagram.KindRoot, diagram.ShapeRounded, "bg-brand-100", "border-brand-500", "idea", 200, 80}
	topicPreset    = preset{diagram.KindIdea, diagram.ShapeRectangle, "bg-white", "border-slate-200", "step", 200, 80}
	stepPreset     = preset{diagram.KindStep, diagram.ShapeRectangle, "bg-white", "border-slate-200", "step", 200, 80}
)

func presetFor(typ string) preset {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "decision":
		return decisionPreset
	case "root":
		return rootPreset
	case "topic":
		return topicPreset
	default:
		return stepPreset
	}
}

func fromRaw(n RawNode) diagram.Node {
	p := presetFor(n.Type)
	return diagram.Node{
		ID:     n.ID,
		Width:  p.width,
		Height: p.height,
		Label:  n.Label,
		Kind:   p.kind,
		Shape:  p.shape,
		Style: diagram.Style{
			Align:       diagram.AlignCenter,
			ColorToken:  p.color,
			BorderColor: p.border,
			BorderStyle: diagram.BorderSolid,
		},
		IconKey: p.icon,
	}
}
