package canvas

import (
	"slices"
	"time"

	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/history"
	"github.com/cooketh/flow/pkg/layout"
	"github.com/cooketh/flow/pkg/observability"
	"github.com/cooketh/flow/pkg/render"
	"github.com/cooketh/flow/pkg/route"
)

// Action labels for commands that only exist on the controller.
const (
	actionUndo    = "Undo"
	actionRedo    = "Redo"
	actionTitle   = "Rename Map"
	actionComment = "Comment"
)

// =============================================================================
// Document lifecycle
// =============================================================================

// Load replaces the session with doc. The graph is sanitized, history is
// reset to a single "Load Map" entry and the view is fitted to the content.
// Loading is not a change: autosave is not triggered.
func (c *Controller) Load(doc diagram.Document) Effect {
	return c.reset(doc, history.ActionLoad)
}

// NewDocument starts an empty, untitled session.
func (c *Controller) NewDocument() Effect {
	eff := c.reset(diagram.Document{Title: "Untitled Map"}, history.ActionNew)
	c.state.Viewport = Identity
	return eff
}

func (c *Controller) reset(doc diagram.Document, action string) Effect {
	doc = doc.Sanitize()
	c.end()
	c.state.Edit = EditState{}
	c.state.Selection = Selection{}
	c.state.Graph = doc.Graph
	c.state.Title = doc.Title
	c.state.Comments = doc.Comments
	c.state.Viewport = Fit(doc.Graph, c.state.ViewWidth, c.state.ViewHeight)
	c.hist.Reset(doc.Graph.Nodes, doc.Graph.Edges, action)
	return Effect{Graph: true, View: true, Selection: true}
}

// Document returns a deep copy of the current document.
func (c *Controller) Document() diagram.Document {
	return diagram.Document{
		Title:    c.state.Title,
		Graph:    c.state.Graph.Clone(),
		Comments: slices.Clone(c.state.Comments),
	}.Sanitize()
}

// SetTitle renames the document.
func (c *Controller) SetTitle(title string) Effect {
	if title == c.state.Title {
		return Effect{}
	}
	c.state.Title = title
	c.changed(actionTitle)
	return Effect{Graph: true}
}

// ApplyGenerated replaces the graph with a generated one and commits it as
// a single undoable step.
func (c *Controller) ApplyGenerated(doc diagram.Document) Effect {
	c.Cancel()
	c.state.Title = doc.Title
	eff := c.apply(doc.Graph.Sanitize(), history.ActionGenerate)
	return eff.merge(c.FitToContent(c.state.ViewWidth, c.state.ViewHeight))
}

// =============================================================================
// Graph commands
// =============================================================================

// AddNode creates a node of kind k at the center of the view, selects it
// and returns its ID.
func (c *Controller) AddNode(k diagram.Kind) (string, Effect) {
	return c.addNode(diagram.NewNode(k, c.state.viewCenter()))
}

// AddImage creates an image node referencing ref.
func (c *Controller) AddImage(ref string) (string, Effect) {
	n := diagram.NewNode(diagram.KindImage, c.state.viewCenter())
	n.ImageRef = ref
	return c.addNode(n)
}

func (c *Controller) addNode(n diagram.Node) (string, Effect) {
	g, err := c.state.Graph.AddNode(n)
	if err != nil {
		c.logger.Warn("add node rejected", "id", n.ID, "err", err)
		return "", Effect{}
	}
	eff := c.apply(g, history.ActionAdd)
	return n.ID, eff.merge(c.selectNode(n.ID))
}

// Connect adds an edge from → to. Reconnecting an already connected pair,
// connecting a node to itself or naming a missing node changes nothing and
// is not an error.
func (c *Controller) Connect(from, to string) Effect {
	g, _, err := c.state.Graph.AddEdge(from, to, "")
	if err != nil {
		if !isNoop(err) {
			c.logger.Debug("connect ignored", "from", from, "to", to, "err", err)
		}
		return Effect{}
	}
	return c.apply(g, history.ActionConnect)
}

// RenameEdge sets an edge's label.
func (c *Controller) RenameEdge(id, label string) Effect {
	e, ok := c.state.Graph.Edge(id)
	if !ok || e.Label == label {
		return Effect{}
	}
	g, err := c.state.Graph.UpdateEdge(id, diagram.EdgePatch{Label: &label})
	if err != nil {
		return Effect{}
	}
	return c.apply(g, history.ActionRename)
}

// DeleteSelection removes the selected node (with its edges) or edge.
func (c *Controller) DeleteSelection() Effect {
	s := c.state.Selection
	switch {
	case s.NodeID != "":
		g, err := c.state.Graph.RemoveNode(s.NodeID)
		if err != nil {
			return Effect{}
		}
		c.state.Comments = slices.DeleteFunc(slices.Clone(c.state.Comments), func(cm diagram.Comment) bool {
			return cm.NodeID == s.NodeID
		})
		eff := c.apply(g, history.ActionDelete)
		return eff.merge(c.selectNone())
	case s.EdgeID != "":
		g, err := c.state.Graph.RemoveEdge(s.EdgeID)
		if err != nil {
			return Effect{}
		}
		eff := c.apply(g, history.ActionDeleteEdge)
		return eff.merge(c.selectNone())
	}
	return Effect{}
}

// UpdateSelectedNode applies p to the selected node and commits it as
// "Update Node <field>".
func (c *Controller) UpdateSelectedNode(p diagram.NodePatch) Effect {
	id := c.state.Selection.NodeID
	if id == "" {
		return Effect{}
	}
	g, err := c.state.Graph.UpdateNode(id, p)
	if err != nil {
		return Effect{}
	}
	return c.apply(g, "Update Node "+patchField(p))
}

// UpdateSelectedStyle edits the selected node's text style in place.
func (c *Controller) UpdateSelectedStyle(edit func(*diagram.Style)) Effect {
	n, ok := c.state.Graph.Node(c.state.Selection.NodeID)
	if !ok {
		return Effect{}
	}
	style := n.Style
	edit(&style)
	if style == n.Style {
		return Effect{}
	}
	g, err := c.state.Graph.UpdateNode(n.ID, diagram.NodePatch{Style: &style})
	if err != nil {
		return Effect{}
	}
	return c.apply(g, history.ActionStyle)
}

// AutoLayout repositions every node with the given style and fits the view.
// An empty graph is left alone.
func (c *Controller) AutoLayout(style layout.Style) Effect {
	if c.state.Graph.IsEmpty() {
		return Effect{}
	}
	start := time.Now()
	g := layout.Apply(c.state.Graph, style)
	c.logger.Debug("auto layout", "style", style, "nodes", len(g.Nodes), "duration", time.Since(start))
	eff := c.apply(g, history.ActionLayout)
	return eff.merge(c.FitToContent(c.state.ViewWidth, c.state.ViewHeight))
}

// ClearCanvas removes every node and edge and resets the view.
func (c *Controller) ClearCanvas() Effect {
	if c.state.Graph.IsEmpty() {
		return Effect{}
	}
	c.state.Comments = nil
	c.state.Viewport = Identity
	eff := c.apply(diagram.Graph{}, history.ActionClear)
	eff.View = true
	return eff.merge(c.selectNone())
}

// Undo restores the previous history entry.
func (c *Controller) Undo() Effect {
	s, ok := c.hist.Undo()
	if !ok {
		return Effect{}
	}
	return c.restore(s, actionUndo)
}

// Redo restores the next history entry.
func (c *Controller) Redo() Effect {
	s, ok := c.hist.Redo()
	if !ok {
		return Effect{}
	}
	return c.restore(s, actionRedo)
}

func (c *Controller) restore(s history.Snapshot, action string) Effect {
	c.end()
	c.state.Graph = s.Graph()
	c.pruneSelection()
	observability.Canvas().OnUndo(action, s.Action)
	c.changed(action)
	return Effect{Graph: true, Selection: true}
}

// =============================================================================
// Comments
// =============================================================================

// AddComment attaches a comment to a node. Comments are saved with the
// document but are not part of undo history.
func (c *Controller) AddComment(nodeID, userID, userName, text string) (diagram.Comment, bool) {
	if _, ok := c.state.Graph.Node(nodeID); !ok || text == "" {
		return diagram.Comment{}, false
	}
	cm := diagram.Comment{
		ID:        diagram.NewID("comment"),
		NodeID:    nodeID,
		UserID:    userID,
		UserName:  userName,
		Content:   text,
		CreatedAt: time.Now(),
	}
	c.state.Comments = append(slices.Clone(c.state.Comments), cm)
	c.changed(actionComment)
	return cm, true
}

// DeleteComment removes a comment by ID.
func (c *Controller) DeleteComment(id string) bool {
	i := slices.IndexFunc(c.state.Comments, func(cm diagram.Comment) bool { return cm.ID == id })
	if i < 0 {
		return false
	}
	c.state.Comments = slices.Delete(slices.Clone(c.state.Comments), i, i+1)
	c.changed(actionComment)
	return true
}

// CommentsFor returns the comments attached to a node, oldest first.
func (c *Controller) CommentsFor(nodeID string) []diagram.Comment {
	var out []diagram.Comment
	for _, cm := range c.state.Comments {
		if cm.NodeID == nodeID {
			out = append(out, cm)
		}
	}
	return out
}

// =============================================================================
// View
// =============================================================================

// SetTool switches between the pointer and pan tools.
func (c *Controller) SetTool(t Tool) Effect {
	if t != ToolPointer && t != ToolPan {
		return Effect{}
	}
	c.state.Tool = t
	return Effect{Selection: true}
}

// Zoom changes the zoom by delta, clamped to [MinZoom, MaxZoom].
func (c *Controller) Zoom(delta float64) Effect {
	c.state.Viewport = c.state.Viewport.ZoomBy(delta)
	return Effect{View: true}
}

// Pan moves the view by (dx, dy) screen pixels.
func (c *Controller) Pan(dx, dy float64) Effect {
	c.state.Viewport.PanX += dx
	c.state.Viewport.PanY += dy
	return Effect{View: true}
}

// FitToContent recomputes the viewport so every node fits a w×h view. It
// also records the view size.
func (c *Controller) FitToContent(w, h float64) Effect {
	if w > 0 && h > 0 {
		c.state.ViewWidth, c.state.ViewHeight = w, h
	}
	c.state.Viewport = Fit(c.state.Graph, c.state.ViewWidth, c.state.ViewHeight)
	return Effect{View: true}
}

// Select selects a node by ID, or clears the selection for "".
func (c *Controller) Select(nodeID string) Effect {
	if nodeID == "" {
		return c.selectNone()
	}
	if _, ok := c.state.Graph.Node(nodeID); !ok {
		return Effect{}
	}
	return c.selectNode(nodeID)
}

// SelectEdge selects an edge by ID.
func (c *Controller) SelectEdge(edgeID string) Effect {
	if _, ok := c.state.Graph.Edge(edgeID); !ok {
		return Effect{}
	}
	return c.selectEdge(edgeID)
}

// =============================================================================
// Derived geometry
// =============================================================================

// Routes computes connector geometry for every valid edge from the current
// node positions. Nothing is cached.
func (c *Controller) Routes() []render.EdgeGeometry {
	return render.NewScene(c.state.Title, c.state.Graph).Edges
}

// Preview returns the rubber-band path while a connection is being made.
func (c *Controller) Preview() (route.Path, bool) {
	if c.state.Mode != ModeConnecting {
		return route.Path{}, false
	}
	src, ok := c.state.Graph.Node(c.state.Connect.SourceID)
	if !ok {
		return route.Path{}, false
	}
	return route.Preview(src.Bounds(), c.state.Connect.Cursor), true
}

// Scene returns the current geometry for renderers and exporters.
func (c *Controller) Scene() render.Scene {
	s := render.NewScene(c.state.Title, c.state.Graph)
	if p, ok := c.Preview(); ok {
		s.Preview = &p
	}
	return s
}

func patchField(p diagram.NodePatch) string {
	switch {
	case p.Label != nil:
		return "label"
	case p.Kind != nil:
		return "kind"
	case p.Shape != nil:
		return "shape"
	case p.Style != nil:
		return "style"
	case p.IconKey != nil:
		return "icon"
	case p.ImageRef != nil:
		return "src"
	case p.Width != nil || p.Height != nil:
		return "size"
	case p.X != nil || p.Y != nil:
		return "position"
	}
	return "node"
}
