package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cooketh/flow/pkg/canvas"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // saved, success
	colorYellow = lipgloss.Color("220") // unsaved, warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // commands
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle is used for screen headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight is used for map titles and addresses.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim is used for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// Map list and table styles, shared by the picker and `docs list`.
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	tableHeaderStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// Editor status bar styles.
var (
	editorBarStyle    = lipgloss.NewStyle().Foreground(colorGray)
	editorModeStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editorNoticeStyle = lipgloss.NewStyle().Foreground(colorWhite)
	editorPromptStyle = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Save Status
// =============================================================================

var saveStatusStyles = map[canvas.SaveStatus]lipgloss.Style{
	canvas.StatusSaved:   lipgloss.NewStyle().Foreground(colorGreen),
	canvas.StatusUnsaved: lipgloss.NewStyle().Foreground(colorYellow),
	canvas.StatusSaving:  lipgloss.NewStyle().Foreground(colorCyan),
	canvas.StatusError:   lipgloss.NewStyle().Foreground(colorRed),
}

var saveStatusIcons = map[canvas.SaveStatus]string{
	canvas.StatusSaved:   iconSuccess,
	canvas.StatusUnsaved: "●",
	canvas.StatusSaving:  "↻",
	canvas.StatusError:   iconError,
}

// saveStatusLabel renders an autosave status with its icon, e.g. "✓ saved".
func saveStatusLabel(s canvas.SaveStatus) string {
	icon, ok := saveStatusIcons[s]
	if !ok {
		return StyleDim.Render(string(s))
	}
	return saveStatusStyles[s].Render(icon + " " + string(s))
}

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(saveStatusStyles[canvas.StatusSaved].Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(saveStatusStyles[canvas.StatusError].Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleWarning.Render(iconWarning) + " " + styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(StyleDim.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + styleValue.Render(value))
}

// =============================================================================
// Map Stats
// =============================================================================

// statSource says where the map printed by printStats came from.
type statSource string

const (
	sourceFresh    statSource = "fresh"
	sourceCached   statSource = "cached"
	sourceSaved    statSource = "saved"
	sourceFallback statSource = "starter graph"
)

func cacheSource(hit bool) statSource {
	if hit {
		return sourceCached
	}
	return sourceFresh
}

// printStats prints node and edge counts on one line, e.g.
// "  5 nodes · 1 edge · cached".
func printStats(nodes, edges int, src statSource) {
	fmt.Println("  " + statsLine(nodes, edges, src))
}

func statsLine(nodes, edges int, src statSource) string {
	parts := []string{plural(nodes, "node"), plural(edges, "edge")}
	style := StyleDim
	switch src {
	case sourceCached, sourceSaved:
		style = saveStatusStyles[canvas.StatusSaved]
	case sourceFallback:
		style = styleWarning
	}
	rendered := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		rendered = append(rendered, StyleDim.Render(p))
	}
	rendered = append(rendered, style.Render(string(src)))
	return strings.Join(rendered, StyleDim.Render(" · "))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// printNextStep prints a suggested follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
