package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cooketh/flow/pkg/storage"
)

// =============================================================================
// DocListModel - Interactive map selection
// =============================================================================

// DocListModel is the bubbletea model for picking a stored map to edit.
// Pressing n asks for a new map instead.
type DocListModel struct {
	Docs     []storage.Meta
	Cursor   int
	Selected *storage.Meta
	New      bool
	Height   int
	Offset   int
}

// NewDocListModel creates a new map list model.
func NewDocListModel(docs []storage.Meta) DocListModel {
	return DocListModel{Docs: docs, Height: 15}
}

func (m DocListModel) Init() tea.Cmd {
	return nil
}

func (m DocListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Docs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "n":
			m.New = true
			return m, tea.Quit
		case "enter":
			if len(m.Docs) == 0 {
				return m, nil
			}
			d := m.Docs[m.Cursor]
			m.Selected = &d
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m DocListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Map"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  n new  q quit"))
	b.WriteString("\n\n")

	if len(m.Docs) == 0 {
		b.WriteString(listDimStyle.Render("  no maps yet"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Docs))
	b.WriteString(docsTable(m.Docs[m.Offset:end], m.Cursor-m.Offset))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Docs))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
