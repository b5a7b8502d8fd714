package diagram

import (
	"strings"

	"github.com/google/uuid"
)

// Kind tags the role a node plays in a diagram. It drives default sizing,
// shape and icon selection and how renderers draw the node.
type Kind string

const (
	KindRoot     Kind = "root"
	KindTopic    Kind = "topic"
	KindSubtopic Kind = "subtopic"
	KindIdea     Kind = "idea"
	KindStep     Kind = "step"
	KindProcess  Kind = "process" // decision/process boxes
	KindSticky   Kind = "sticky"
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindDatabase Kind = "database"
)

// Shape is the outline used to draw a node.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeRounded   Shape = "rounded"
	ShapeCircle    Shape = "circle"
	ShapeDiamond   Shape = "diamond"
	ShapeCylinder  Shape = "cylinder"
)

// Shapes lists every supported shape in display order.
var Shapes = []Shape{ShapeRectangle, ShapeRounded, ShapeCircle, ShapeDiamond, ShapeCylinder}

// Kinds lists every supported kind in display order.
var Kinds = []Kind{
	KindRoot, KindTopic, KindSubtopic, KindIdea, KindStep,
	KindProcess, KindSticky, KindText, KindImage, KindDatabase,
}

// KindSpec holds the defaults applied to freshly created nodes of a kind.
type KindSpec struct {
	Label       string
	Width       float64
	Height      float64
	Shape       Shape
	ColorToken  string
	BorderColor string
	IconKey     string
}

var kindSpecs = map[Kind]KindSpec{
	KindRoot:     {Label: "Central Idea", Width: 200, Height: 80, Shape: ShapeRounded, ColorToken: "bg-brand-100", BorderColor: "border-brand-500", IconKey: "idea"},
	KindTopic:    {Label: "Topic", Width: 200, Height: 80, Shape: ShapeRounded, ColorToken: "bg-white", BorderColor: "border-slate-200", IconKey: "idea"},
	KindSubtopic: {Label: "Subtopic", Width: 200, Height: 80, Shape: ShapeRectangle, ColorToken: "bg-white", BorderColor: "border-slate-200", IconKey: "step"},
	KindIdea:     {Label: "New Node", Width: 200, Height: 80, Shape: ShapeRounded, ColorToken: "bg-white", BorderColor: "border-slate-200", IconKey: "idea"},
	KindStep:     {Label: "New Node", Width: 200, Height: 80, Shape: ShapeRectangle, ColorToken: "bg-white", BorderColor: "border-slate-200", IconKey: "step"},
	KindProcess:  {Label: "New Node", Width: 200, Height: 80, Shape: ShapeRectangle, ColorToken: "bg-white", BorderColor: "border-slate-200", IconKey: "process"},
	KindSticky:   {Label: "Note...", Width: 200, Height: 200, Shape: ShapeRectangle, ColorToken: "bg-yellow-200", BorderColor: "border-slate-200", IconKey: "sticky"},
	KindText:     {Label: "Type here", Width: 200, Height: 100, Shape: ShapeRectangle, ColorToken: "bg-transparent", BorderColor: "border-slate-200", IconKey: "text"},
	KindImage:    {Label: "Image", Width: 300, Height: 200, Shape: ShapeRectangle, ColorToken: "bg-white", BorderColor: "border-slate-200", IconKey: "image"},
	KindDatabase: {Label: "New Node", Width: 120, Height: 80, Shape: ShapeCylinder, ColorToken: "bg-white", BorderColor: "border-slate-200", IconKey: "database"},
}

// SpecFor returns the defaults for k. Unknown kinds get the idea defaults.
func SpecFor(k Kind) KindSpec {
	if s, ok := kindSpecs[k]; ok {
		return s
	}
	return kindSpecs[KindIdea]
}

// ParseKind maps free-form kind names (as produced by generators and older
// documents) onto a known Kind. "decision" becomes [KindProcess]; anything
// unrecognized becomes [KindStep].
func ParseKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "decision":
		return KindProcess
	case "":
		return KindStep
	default:
		if _, ok := kindSpecs[k]; ok {
			return k
		}
		return KindStep
	}
}

// ValidShape reports whether s is one of the supported shapes.
func ValidShape(s Shape) bool {
	for _, v := range Shapes {
		if v == s {
			return true
		}
	}
	return false
}

// NewNode builds a node of kind k centered on center, using the kind's
// default label, size, shape, color and icon. The ID is freshly generated.
func NewNode(k Kind, center Point) Node {
	spec := SpecFor(k)
	return Node{
		ID:     NewID("node"),
		X:      center.X - spec.Width/2,
		Y:      center.Y - spec.Height/2,
		Width:  spec.Width,
		Height: spec.Height,
		Label:  spec.Label,
		Kind:   k,
		Shape:  spec.Shape,
		Style: Style{
			Align:       AlignCenter,
			ColorToken:  spec.ColorToken,
			BorderColor: spec.BorderColor,
			BorderStyle: BorderSolid,
		},
		IconKey: spec.IconKey,
	}
}

// NewID returns a random identifier with the given prefix, e.g. "edge-3f2a…".
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
