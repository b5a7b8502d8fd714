package io

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/errors"
)

// DefaultTitle names documents whose JSON carries no title.
const DefaultTitle = "Imported Map"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ReadJSON decodes a JSON document from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": "a"}, {"id": "b"}],
//	  "edges": [{"from": "a", "to": "b"}]
//	}
//
// ReadJSON returns an error coded [errors.ErrCodeInvalidDocument] if:
//   - The JSON is malformed
//   - Either array is missing
//   - A node has no id, a negative size or an unknown shape, alignment or
//     border style
//   - An edge has no endpoints
//
// Edges and comments that reference unknown nodes are dropped rather than
// rejected. ReadJSON does not close r.
func ReadJSON(r io.Reader) (diagram.Document, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return diagram.Document{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode")
	}
	if data.Nodes == nil {
		return diagram.Document{}, errors.New(errors.ErrCodeInvalidDocument, "missing %q array", "nodes")
	}
	if data.Edges == nil {
		return diagram.Document{}, errors.New(errors.ErrCodeInvalidDocument, "missing %q array", "edges")
	}

	p := payload{Nodes: *data.Nodes, Edges: *data.Edges, Comments: data.Comments}
	if err := validate.Struct(p); err != nil {
		return diagram.Document{}, validationError(err)
	}

	title := strings.TrimSpace(data.Title)
	if title == "" && data.Meta != nil {
		title = strings.TrimSpace(data.Meta.Title)
	}
	if title == "" {
		title = DefaultTitle
	}
	if err := errors.ValidateTitle(title); err != nil {
		return diagram.Document{}, err
	}

	doc := diagram.Document{Title: title}
	for _, n := range p.Nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, n.toNode())
	}
	for _, e := range p.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, diagram.Edge{ID: e.ID, From: e.From, To: e.To, Label: e.Label})
	}
	for _, c := range p.Comments {
		doc.Comments = append(doc.Comments, c.toComment())
	}
	return doc.Sanitize(), nil
}

// ImportJSON reads a JSON file at path and returns the decoded document.
//
// ImportJSON opens the file, decodes it using [ReadJSON], and closes the
// file. It returns the same validation errors as [ReadJSON].
func ImportJSON(path string) (diagram.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return diagram.Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ParseJSON is [ReadJSON] for an in-memory payload.
func ParseJSON(b []byte) (diagram.Document, error) {
	return ReadJSON(bytes.NewReader(b))
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "%s failed %q", fe.Namespace(), fe.Tag())
	}
	return errors.Wrap(errors.ErrCodeInvalidDocument, err, "validate")
}

// =============================================================================
// Wire types
// =============================================================================

type document struct {
	Title    string    `json:"title,omitempty"`
	Meta     *meta     `json:"meta,omitempty"`
	Nodes    *[]node   `json:"nodes"`
	Edges    *[]edge   `json:"edges"`
	Comments []comment `json:"comments,omitempty"`
}

// payload is the validated view of a document once both arrays are known
// to be present.
type payload struct {
	Nodes    []node    `validate:"dive"`
	Edges    []edge    `validate:"dive"`
	Comments []comment `validate:"dive"`
}

type meta struct {
	Title   string `json:"title,omitempty"`
	Created int64  `json:"created,omitempty"` // unix millis
}

type node struct {
	ID          string     `json:"id" validate:"required,max=128"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Width       float64    `json:"width,omitempty" validate:"gte=0"`
	Height      float64    `json:"height,omitempty" validate:"gte=0"`
	Label       string     `json:"label"`
	Type        string     `json:"type,omitempty"`
	Kind        string     `json:"kind,omitempty"`
	Shape       string     `json:"shape,omitempty" validate:"omitempty,oneof=rectangle rounded circle diamond cylinder"`
	Color       string     `json:"color,omitempty"`
	BorderColor string     `json:"borderColor,omitempty"`
	BorderStyle string     `json:"borderStyle,omitempty" validate:"omitempty,oneof=solid dashed dotted"`
	TextStyle   *textStyle `json:"textStyle,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Src         string     `json:"src,omitempty"`
}

type textStyle struct {
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Align     string `json:"align,omitempty" validate:"omitempty,oneof=left center right"`
	FontSize  string `json:"fontSize,omitempty" validate:"omitempty,oneof=sm md lg xl"`
}

type edge struct {
	ID    string `json:"id,omitempty"`
	From  string `json:"from" validate:"required"`
	To    string `json:"to" validate:"required"`
	Label string `json:"label,omitempty"`
}

type comment struct {
	ID        string `json:"id"`
	NodeID    string `json:"nodeId" validate:"required"`
	UserID    string `json:"userId,omitempty"`
	UserName  string `json:"userName,omitempty"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt,omitempty"` // unix millis
}

func (n node) toNode() diagram.Node {
	raw := n.Kind
	if raw == "" {
		raw = n.Type
	}
	out := diagram.Node{
		ID:     n.ID,
		X:      n.X,
		Y:      n.Y,
		Width:  n.Width,
		Height: n.Height,
		Label:  n.Label,
		Kind:   diagram.ParseKind(raw),
		Shape:  diagram.Shape(n.Shape),
		Style: diagram.Style{
			ColorToken:  n.Color,
			BorderColor: n.BorderColor,
			BorderStyle: n.BorderStyle,
		},
		IconKey:  n.Icon,
		ImageRef: n.Src,
	}
	if n.TextStyle != nil {
		out.Style.Bold = n.TextStyle.Bold
		out.Style.Italic = n.TextStyle.Italic
		out.Style.Underline = n.TextStyle.Underline
		out.Style.Align = diagram.Align(n.TextStyle.Align)
		out.Style.FontSize = n.TextStyle.FontSize
	}
	if out.Shape == "" {
		out.Shape = diagram.SpecFor(out.Kind).Shape
	}
	return out
}

func fromNode(n diagram.Node) node {
	out := node{
		ID:          n.ID,
		X:           n.X,
		Y:           n.Y,
		Width:       n.Width,
		Height:      n.Height,
		Label:       n.Label,
		Type:        string(n.Kind),
		Shape:       string(n.Shape),
		Color:       n.Style.ColorToken,
		BorderColor: n.Style.BorderColor,
		BorderStyle: n.Style.BorderStyle,
		Icon:        n.IconKey,
		Src:         n.ImageRef,
	}
	s := n.Style
	if s.Bold || s.Italic || s.Underline || s.Align != "" || s.FontSize != "" {
		out.TextStyle = &textStyle{
			Bold:      s.Bold,
			Italic:    s.Italic,
			Underline: s.Underline,
			Align:     string(s.Align),
			FontSize:  s.FontSize,
		}
	}
	return out
}

func (c comment) toComment() diagram.Comment {
	out := diagram.Comment{
		ID:       c.ID,
		NodeID:   c.NodeID,
		UserID:   c.UserID,
		UserName: c.UserName,
		Content:  c.Content,
	}
	if c.CreatedAt > 0 {
		out.CreatedAt = time.UnixMilli(c.CreatedAt).UTC()
	}
	if out.ID == "" {
		out.ID = diagram.NewID("comment")
	}
	return out
}

func fromComment(c diagram.Comment) comment {
	out := comment{
		ID:       c.ID,
		NodeID:   c.NodeID,
		UserID:   c.UserID,
		UserName: c.UserName,
		Content:  c.Content,
	}
	if !c.CreatedAt.IsZero() {
		out.CreatedAt = c.CreatedAt.UnixMilli()
	}
	return out
}
