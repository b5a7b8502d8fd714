package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cooketh/flow/pkg/canvas"
	"github.com/cooketh/flow/pkg/collab"
	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/layout"
)

// A terminal cell stands for a fixed block of screen pixels, so the
// controller sees the same geometry it would in a browser.
const (
	cellWidth  = 8.0
	cellHeight = 16.0

	panStep           = 40.0
	zoomStep          = 0.1
	doubleClickWindow = 400 * time.Millisecond
	presenceTick      = time.Second
)

// Messages delivered to the editor from other goroutines.
type (
	saveStatusMsg   canvas.SaveStatus
	remoteCursorMsg struct{}
	remoteGraphMsg  struct{}
	presenceTickMsg struct{}
)

// programRef lets callbacks created before the program starts send to it.
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) set(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *programRef) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// editorModel is the bubbletea front end of a [canvas.Controller]. It maps
// terminal cells to screen pixels, hit-tests its own drawing and feeds the
// results to the controller as events.
type editorModel struct {
	ctx   context.Context
	ctrl  *canvas.Controller
	saver *canvas.Autosaver

	// Collaboration; both nil when editing alone.
	presence *collab.Presence
	pointer  func(world diagram.Point)

	status canvas.SaveStatus
	notice string

	// label holds the node label being typed; nil when no prompt is open.
	label *string

	width, height int
	fitted        bool

	lastPress time.Time
	lastCol   int
	lastRow   int
}

func newEditorModel(ctx context.Context, ctrl *canvas.Controller, saver *canvas.Autosaver) editorModel {
	return editorModel{ctx: ctx, ctrl: ctrl, saver: saver, status: canvas.StatusSaved}
}

func (m editorModel) Init() tea.Cmd {
	if m.presence != nil {
		return tickPresence()
	}
	return nil
}

func tickPresence() tea.Cmd {
	return tea.Tick(presenceTick, func(time.Time) tea.Msg { return presenceTickMsg{} })
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w, h := m.viewSize()
		if !m.fitted {
			m.ctrl.FitToContent(w, h)
			m.fitted = true
		} else {
			m.ctrl.Handle(canvas.Resize{Width: w, Height: h})
		}
	case saveStatusMsg:
		m.status = canvas.SaveStatus(msg)
	case remoteGraphMsg:
		m.notice = "map saved by another editor"
	case remoteCursorMsg:
	case presenceTickMsg:
		if m.presence != nil {
			m.presence.Prune()
		}
		return m, tickPresence()
	case tea.BlurMsg:
		m.apply(m.ctrl.Handle(canvas.Blur{}))
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

// viewSize returns the drawing area in screen pixels. The last row holds
// the status bar.
func (m editorModel) viewSize() (float64, float64) {
	return float64(m.width) * cellWidth, float64(max(m.height-1, 1)) * cellHeight
}

func (m *editorModel) apply(eff canvas.Effect) {
	if eff.Commit != "" {
		m.notice = eff.Commit
	}
	if eff.Pointer != nil && m.pointer != nil {
		m.pointer(*eff.Pointer)
	}
}

// =============================================================================
// Keyboard
// =============================================================================

// keyEvent converts the keys the controller understands. Terminals cannot
// report ctrl+shift+z, so ctrl+y also redoes.
func keyEvent(msg tea.KeyMsg) (canvas.Key, bool) {
	switch msg.String() {
	case "delete":
		return canvas.Key{Key: canvas.KeyDelete}, true
	case "backspace":
		return canvas.Key{Key: canvas.KeyBackspace}, true
	case "esc":
		return canvas.Key{Key: canvas.KeyEscape}, true
	case "enter":
		return canvas.Key{Key: canvas.KeyEnter}, true
	case "ctrl+z":
		return canvas.Key{Key: "z", Ctrl: true}, true
	case "ctrl+y", "ctrl+shift+z":
		return canvas.Key{Key: "z", Ctrl: true, Shift: true}, true
	case "ctrl+p", "ctrl+a", "ctrl+s", "ctrl+r":
		return canvas.Key{Key: msg.String()[len("ctrl+"):], Ctrl: true}, true
	case "alt+t":
		return canvas.Key{Key: "t", Alt: true}, true
	}
	return canvas.Key{}, false
}

func (m editorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}
	if m.label != nil {
		m.labelKey(msg)
		return m, nil
	}

	st := m.ctrl.State()
	if st.Mode == canvas.ModeEditingEdgeLabel {
		switch msg.Type {
		case tea.KeyRunes:
			m.apply(m.ctrl.Handle(canvas.TextInput{Text: string(msg.Runes)}))
			return m, nil
		case tea.KeySpace:
			m.apply(m.ctrl.Handle(canvas.TextInput{Text: " "}))
			return m, nil
		}
	}
	if ev, ok := keyEvent(msg); ok {
		m.apply(m.ctrl.Handle(ev))
		return m, nil
	}
	if st.Mode != canvas.ModeIdle {
		return m, nil
	}

	w, h := m.viewSize()
	switch msg.String() {
	case "q":
		return m, m.quit()
	case "n":
		_, eff := m.ctrl.AddNode(diagram.KindIdea)
		m.apply(eff)
	case "e":
		if n, ok := m.ctrl.Graph().Node(st.Selection.NodeID); ok {
			buf := n.Label
			m.label = &buf
		}
	case "1", "2", "3", "4":
		style := layout.Styles[msg.String()[0]-'1']
		m.apply(m.ctrl.AutoLayout(style))
	case "+", "=":
		m.ctrl.Zoom(zoomStep)
	case "-":
		m.ctrl.Zoom(-zoomStep)
	case "f":
		m.ctrl.FitToContent(w, h)
	case "up":
		m.ctrl.Pan(0, panStep)
	case "down":
		m.ctrl.Pan(0, -panStep)
	case "left":
		m.ctrl.Pan(panStep, 0)
	case "right":
		m.ctrl.Pan(-panStep, 0)
	}
	return m, nil
}

// labelKey edits the node label prompt. The prompt owns the keyboard, so
// the controller only ever sees these keys flagged as text focus.
func (m *editorModel) labelKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		label := *m.label
		m.label = nil
		m.apply(m.ctrl.UpdateSelectedNode(diagram.NodePatch{Label: &label}))
	case tea.KeyEsc:
		m.label = nil
	case tea.KeyBackspace:
		r := []rune(*m.label)
		if len(r) > 0 {
			*m.label = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		*m.label += " "
	case tea.KeyRunes:
		*m.label += string(msg.Runes)
	default:
		if ev, ok := keyEvent(msg); ok {
			ev.TextFocus = true
			m.ctrl.Handle(ev)
		}
	}
}

// quit flushes pending changes before leaving the program.
func (m editorModel) quit() tea.Cmd {
	ctx, saver := m.ctx, m.saver
	return func() tea.Msg {
		if saver != nil {
			_ = saver.Flush(ctx)
		}
		return tea.Quit()
	}
}

// =============================================================================
// Mouse
// =============================================================================

func cellCenter(col, row int) diagram.Point {
	return diagram.Point{X: (float64(col) + 0.5) * cellWidth, Y: (float64(row) + 0.5) * cellHeight}
}

func toCell(p diagram.Point) (int, int) {
	return int(math.Floor(p.X / cellWidth)), int(math.Floor(p.Y / cellHeight))
}

func mouseButton(b tea.MouseButton) canvas.Button {
	switch b {
	case tea.MouseButtonMiddle:
		return canvas.ButtonMiddle
	case tea.MouseButtonRight:
		return canvas.ButtonRight
	}
	return canvas.ButtonLeft
}

func (m *editorModel) handleMouse(msg tea.MouseMsg) {
	if m.label != nil || msg.Y >= m.height-1 {
		return
	}
	screen := cellCenter(msg.X, msg.Y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.ctrl.Zoom(zoomStep)
	case msg.Button == tea.MouseButtonWheelDown:
		m.ctrl.Zoom(-zoomStep)
	case msg.Action == tea.MouseActionPress:
		target := m.hitTest(msg.X, msg.Y, msg.Ctrl)
		now := time.Now()
		double := now.Sub(m.lastPress) < doubleClickWindow && msg.X == m.lastCol && msg.Y == m.lastRow
		m.lastPress, m.lastCol, m.lastRow = now, msg.X, msg.Y
		if double && target.Kind == canvas.TargetEdgeLabel {
			m.apply(m.ctrl.Handle(canvas.DoubleClick{Screen: screen, Target: target}))
			return
		}
		m.apply(m.ctrl.Handle(canvas.PointerDown{Screen: screen, Button: mouseButton(msg.Button), Target: target}))
	case msg.Action == tea.MouseActionMotion:
		m.apply(m.ctrl.Handle(canvas.PointerMove{Screen: screen}))
	case msg.Action == tea.MouseActionRelease:
		var target canvas.Target
		if hit := m.hitTest(msg.X, msg.Y, false); hit.Kind == canvas.TargetNode || hit.Kind == canvas.TargetHandle {
			target = canvas.OnNode(hit.NodeID)
		}
		m.apply(m.ctrl.Handle(canvas.PointerUp{Screen: screen, Target: target}))
	}
}

// nodeCells returns the inclusive cell rectangle a node is drawn in.
func nodeCells(v canvas.Viewport, n diagram.Node) (c1, r1, c2, r2 int) {
	b := n.Bounds()
	tl := v.ToScreen(diagram.Point{X: b.X, Y: b.Y})
	br := v.ToScreen(diagram.Point{X: b.Right(), Y: b.Bottom()})
	c1, r1 = toCell(tl)
	c2 = max(int(math.Ceil(br.X/cellWidth))-1, c1)
	r2 = max(int(math.Ceil(br.Y/cellHeight))-1, r1)
	return c1, r1, c2, r2
}

// hitTest finds what is drawn at a cell. Edge labels sit above nodes; the
// bottom-right corner of a node is its resize handle and holding ctrl
// turns any node cell into a connector.
func (m editorModel) hitTest(col, row int, connect bool) canvas.Target {
	st := m.ctrl.State()
	for _, r := range m.ctrl.Routes() {
		lc, lr := toCell(st.Viewport.ToScreen(r.Path.Label))
		half := max(len([]rune(r.Edge.Label))/2, 1)
		if row == lr && col >= lc-half && col <= lc+half {
			return canvas.OnEdgeLabel(r.Edge.ID)
		}
	}
	nodes := st.Graph.Nodes
	for i := len(nodes) - 1; i >= 0; i-- {
		c1, r1, c2, r2 := nodeCells(st.Viewport, nodes[i])
		if col < c1 || col > c2 || row < r1 || row > r2 {
			continue
		}
		id := nodes[i].ID
		switch {
		case connect:
			return canvas.OnConnector(id)
		case col == c2 && row == r2 && (c2 > c1 || r2 > r1):
			return canvas.OnHandle(id, "se")
		}
		return canvas.OnNode(id)
	}
	return canvas.Canvas()
}

// =============================================================================
// View
// =============================================================================

func (m editorModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	g := newGrid(m.width, m.height-1)
	st := m.ctrl.State()
	v := st.Viewport

	routes := m.ctrl.Routes()
	for _, r := range routes {
		g.polyline(v, r.Path.Points, '·')
	}
	if p, ok := m.ctrl.Preview(); ok {
		g.polyline(v, p.Points, ':')
	}
	for _, n := range st.Graph.Nodes {
		c1, r1, c2, r2 := nodeCells(v, n)
		g.box(c1, r1, c2, r2, n.ID == st.Selection.NodeID)
		g.centered(c1+1, c2-1, (r1+r2)/2, n.Label)
	}
	for _, r := range routes {
		g.arrow(v, r.Path.Points)
	}
	for _, r := range routes {
		label := r.Edge.Label
		if st.Mode == canvas.ModeEditingEdgeLabel && st.Edit.EdgeID == r.Edge.ID {
			label = st.Edit.Buffer + "▏"
		} else if r.Edge.ID == st.Selection.EdgeID {
			label = "[" + label + "]"
		}
		if label == "" {
			continue
		}
		lc, lr := toCell(v.ToScreen(r.Path.Label))
		w := len([]rune(label))
		g.centered(lc-w/2, lc+w-w/2, lr, label)
	}
	if m.presence != nil {
		for _, cur := range m.presence.Active() {
			c, r := toCell(v.ToScreen(diagram.Point{X: cur.X, Y: cur.Y}))
			g.set(c, r, cursorGlyph(cur.UserName))
		}
	}

	return g.String() + "\n" + m.statusBar()
}

func cursorGlyph(name string) rune {
	for _, r := range strings.ToUpper(name) {
		return r
	}
	return '@'
}

func (m editorModel) statusBar() string {
	st := m.ctrl.State()
	if m.label != nil {
		return editorPromptStyle.Render("label: " + *m.label + "▏") +
			editorBarStyle.Render("  ⏎ save  esc cancel")
	}

	parts := []string{
		editorModeStyle.Render(st.Mode.String()),
		string(st.Tool),
		fmt.Sprintf("%d%%", int(math.Round(st.Viewport.Zoom*100))),
		saveStatusLabel(m.status),
	}
	if m.presence != nil {
		parts = append(parts, fmt.Sprintf("%d online", len(m.presence.Active())+1))
	}
	if m.notice != "" {
		parts = append(parts, editorNoticeStyle.Render(m.notice))
	}
	bar := " " + strings.Join(parts, editorBarStyle.Render(" · "))
	help := editorBarStyle.Render("n add  e label  1-4 layout  ^z undo  q quit ")
	if gap := m.width - lipgloss.Width(bar) - lipgloss.Width(help); gap > 0 {
		bar += strings.Repeat(" ", gap) + help
	}
	return bar
}

// grid is a rune canvas the editor draws into.
type grid struct {
	w, h  int
	cells [][]rune
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([][]rune, h)}
	for i := range g.cells {
		g.cells[i] = []rune(strings.Repeat(" ", w))
	}
	return g
}

func (g *grid) set(c, r int, ch rune) {
	if c >= 0 && c < g.w && r >= 0 && r < g.h {
		g.cells[r][c] = ch
	}
}

// line draws from (c1, r1) to (c2, r2) with Bresenham's algorithm.
func (g *grid) line(c1, r1, c2, r2 int, ch rune) {
	dc, dr := abs(c2-c1), -abs(r2-r1)
	sc, sr := sign(c2-c1), sign(r2-r1)
	err := dc + dr
	for steps := 0; steps <= dc-dr; steps++ {
		g.set(c1, r1, ch)
		if c1 == c2 && r1 == r2 {
			return
		}
		if e2 := 2 * err; e2 >= dr {
			err += dr
			c1 += sc
		} else {
			err += dc
			r1 += sr
		}
	}
}

func (g *grid) polyline(v canvas.Viewport, pts []diagram.Point, ch rune) {
	for i := 1; i < len(pts); i++ {
		c1, r1 := toCell(v.ToScreen(pts[i-1]))
		c2, r2 := toCell(v.ToScreen(pts[i]))
		g.line(c1, r1, c2, r2, ch)
	}
}

// arrow marks the end of a connector with a head pointing along its last
// segment.
func (g *grid) arrow(v canvas.Viewport, pts []diagram.Point) {
	if n := len(pts); n >= 2 {
		c1, r1 := toCell(v.ToScreen(pts[n-2]))
		c2, r2 := toCell(v.ToScreen(pts[n-1]))
		g.set(c2, r2, arrowHead(c2-c1, r2-r1))
	}
}

func arrowHead(dc, dr int) rune {
	if abs(dc) >= abs(dr) {
		if dc < 0 {
			return '◂'
		}
		return '▸'
	}
	if dr < 0 {
		return '▴'
	}
	return '▾'
}

func (g *grid) box(c1, r1, c2, r2 int, selected bool) {
	h, v, tl, tr, bl, br := '─', '│', '╭', '╮', '╰', '╯'
	if selected {
		h, v, tl, tr, bl, br = '═', '║', '╔', '╗', '╚', '╝'
	}
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			g.set(c, r, ' ')
		}
	}
	for c := c1; c <= c2; c++ {
		g.set(c, r1, h)
		g.set(c, r2, h)
	}
	for r := r1; r <= r2; r++ {
		g.set(c1, r, v)
		g.set(c2, r, v)
	}
	g.set(c1, r1, tl)
	g.set(c2, r1, tr)
	g.set(c1, r2, bl)
	g.set(c2, r2, br)
}

// centered writes s centered between columns c1 and c2, truncating with
// an ellipsis when it does not fit.
func (g *grid) centered(c1, c2, r int, s string) {
	width := c2 - c1 + 1
	if width <= 0 || s == "" {
		return
	}
	runes := []rune(s)
	if len(runes) > width {
		runes = append(runes[:max(width-1, 0)], '…')[:width]
	}
	start := c1 + (width-len(runes))/2
	for i, ch := range runes {
		g.set(start+i, r, ch)
	}
}

func (g *grid) String() string {
	rows := make([]string, g.h)
	for i, row := range g.cells {
		rows[i] = string(row)
	}
	return strings.Join(rows, "\n")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}
