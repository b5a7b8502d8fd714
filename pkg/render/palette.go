package render

import "strings"

// Theme selects the export background.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Background colors per theme.
const (
	backgroundLight = "#f1f5f9"
	backgroundDark  = "#0f172a"
	textLight       = "#1e293b"
	textDark        = "#e2e8f0"
	edgeColor       = "#94a3b8"
)

// tailwind holds the shades of the utility palette that color tokens
// reference. Tokens look like "bg-<hue>-<shade>" or "border-<hue>-<shade>".
var tailwind = map[string]string{
	"white":       "#ffffff",
	"black":       "#000000",
	"transparent": "none",

	"slate-50": "#f8fafc", "slate-100": "#f1f5f9", "slate-200": "#e2e8f0", "slate-300": "#cbd5e1",
	"slate-400": "#94a3b8", "slate-500": "#64748b", "slate-700": "#334155", "slate-800": "#1e293b",

	"brand-50": "#eef2ff", "brand-100": "#e0e7ff", "brand-200": "#c7d2fe", "brand-500": "#6366f1",
	"brand-600": "#4f46e5", "brand-700": "#4338ca",

	"red-50": "#fef2f2", "red-100": "#fee2e2", "red-500": "#ef4444",
	"orange-50": "#fff7ed", "orange-500": "#f97316",
	"amber-50": "#fffbeb", "amber-100": "#fef3c7", "amber-500": "#f59e0b",
	"yellow-50": "#fefce8", "yellow-200": "#fef08a", "yellow-400": "#facc15", "yellow-500": "#eab308",
	"green-50": "#f0fdf4", "green-100": "#dcfce7", "green-300": "#86efac", "green-500": "#22c55e",
	"emerald-200": "#a7f3d0", "emerald-500": "#10b981",
	"blue-50": "#eff6ff", "blue-100": "#dbeafe", "blue-500": "#3b82f6", "blue-600": "#2563eb",
	"indigo-50": "#eef2ff", "indigo-500": "#6366f1",
	"purple-50": "#faf5ff", "purple-300": "#d8b4fe", "purple-500": "#a855f7",
	"pink-50": "#fdf2f8", "pink-500": "#ec4899",
}

// Fill resolves a background color token to a CSS color. Hex values pass
// through; unknown tokens become white.
func Fill(token string) string {
	return resolve(token, "bg-", "#ffffff")
}

// Stroke resolves a border color token. Unknown tokens become slate-200.
func Stroke(token string) string {
	return resolve(token, "border-", "#e2e8f0")
}

func resolve(token, prefix, fallback string) string {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "#") {
		return token
	}
	if c, ok := tailwind[strings.TrimPrefix(token, prefix)]; ok {
		return c
	}
	return fallback
}

// Background returns the canvas color for t.
func (t Theme) Background() string {
	if t == ThemeDark {
		return backgroundDark
	}
	return backgroundLight
}

func (t Theme) text() string {
	if t == ThemeDark {
		return textDark
	}
	return textLight
}

// fontSize maps the node text size tokens to pixels.
func fontSize(token string) float64 {
	switch token {
	case "sm":
		return 12
	case "lg":
		return 18
	case "xl":
		return 22
	default:
		return 14
	}
}
