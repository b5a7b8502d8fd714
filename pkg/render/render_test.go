package render

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooketh/flow/pkg/diagram"
)

func sampleScene() Scene {
	g := diagram.Graph{
		Nodes: []diagram.Node{
			{ID: "a", X: 0, Y: 0, Width: 200, Height: 80, Label: "Start & go", Shape: diagram.ShapeRounded,
				Style: diagram.Style{ColorToken: "bg-brand-100", BorderColor: "border-brand-500", Bold: true}},
			{ID: "b", X: 400, Y: 0, Width: 140, Height: 140, Label: "Is valid?", Shape: diagram.ShapeDiamond,
				Style: diagram.Style{BorderStyle: diagram.BorderDashed, Align: diagram.AlignLeft}},
			{ID: "c", X: 400, Y: 300, Width: 120, Height: 120, Label: "DB", Shape: diagram.ShapeCylinder},
			{ID: "d", X: 0, Y: 300, Width: 80, Height: 80, Label: "End", Shape: diagram.ShapeCircle,
				Style: diagram.Style{ColorToken: "#ff0000", Underline: true}},
		},
		Edges: []diagram.Edge{
			{ID: "e1", From: "a", To: "b", Label: "next"},
			{ID: "e2", From: "b", To: "c"},
			{ID: "e3", From: "c", To: "missing"},
		},
	}
	return NewScene("Demo <map>", g)
}

func TestNewScene(t *testing.T) {
	s := sampleScene()
	assert.Len(t, s.Nodes, 4)
	require.Len(t, s.Edges, 2, "dangling edge dropped")
	assert.Equal(t, "e1", s.Edges[0].Edge.ID)
	assert.Equal(t, diagram.Rect{X: 0, Y: 0, W: 540, H: 420}, s.Bounds)
}

func TestExportFrame(t *testing.T) {
	tests := []struct {
		name  string
		scene Scene
		want  diagram.Rect
	}{
		{"empty", Scene{}, diagram.Rect{W: MinExportWidth, H: MinExportHeight}},
		{"small content grows", sampleScene(), diagram.Rect{X: -50, Y: -50, W: 800, H: 600}},
		{
			"large content",
			NewScene("", diagram.Graph{Nodes: []diagram.Node{
				{ID: "a", X: 0, Y: 0, Width: 100, Height: 100},
				{ID: "b", X: 1900, Y: 900, Width: 100, Height: 100},
			}}),
			diagram.Rect{X: -50, Y: -50, W: 2100, H: 1100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scene.ExportFrame(DefaultPadding))
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(sampleScene()))

	assert.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="-50 -50 800 600" width="800" height="600">`))
	assert.Contains(t, svg, "<title>Demo &lt;map&gt;</title>")
	assert.Contains(t, svg, `fill="`+backgroundLight+`"`)
	assert.Contains(t, svg, `id="node-a"`)
	assert.Contains(t, svg, `rx="12" fill="#e0e7ff" stroke="#6366f1"`)
	assert.Contains(t, svg, "<polygon")
	assert.Contains(t, svg, `stroke-dasharray="8 4"`)
	assert.Contains(t, svg, "<ellipse")
	assert.Contains(t, svg, `fill="#ff0000"`)
	assert.Contains(t, svg, "Start &amp; go")
	assert.Contains(t, svg, `font-weight="bold"`)
	assert.Contains(t, svg, `text-decoration="underline"`)
	assert.Contains(t, svg, `text-anchor="start"`)
	assert.Contains(t, svg, `id="edge-e1"`)
	assert.Contains(t, svg, ">next</text>")
	assert.NotContains(t, svg, "edge-e3")

	// Edges are painted before nodes.
	assert.Less(t, strings.Index(svg, `id="edge-e1"`), strings.Index(svg, `id="node-a"`))
}

func TestRenderSVGOptions(t *testing.T) {
	dark := string(RenderSVG(sampleScene(), WithTheme(ThemeDark)))
	assert.Contains(t, dark, `fill="`+backgroundDark+`"`)

	clear := string(RenderSVG(sampleScene(), WithTransparent(), WithPadding(0)))
	assert.NotContains(t, clear, backgroundLight+`"/>`)
	assert.Contains(t, clear, `viewBox="0 0 800 600"`)
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(sampleScene(), WithScale(1))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 600), img.Bounds())

	// The top-left corner is padding, so it carries the background color.
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0xf1, 0xf5, 0xf9}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestRenderPNGCapsSize(t *testing.T) {
	s := NewScene("", diagram.Graph{Nodes: []diagram.Node{
		{ID: "a", X: 0, Y: 0, Width: 100, Height: 100},
		{ID: "b", X: 20000, Y: 0, Width: 100, Height: 100},
	}})
	data, err := RenderPNG(s)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, MaxRasterSide)
}

func TestRenderJPEG(t *testing.T) {
	data, err := RenderJPEG(sampleScene(), WithScale(0.5), WithQuality(70), WithRasterTheme(ThemeDark))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestColorTokens(t *testing.T) {
	tests := []struct {
		token        string
		fill, stroke string
	}{
		{"bg-yellow-50", "#fefce8", "#e2e8f0"},
		{"border-yellow-500", "#ffffff", "#eab308"},
		{"#123456", "#123456", "#123456"},
		{"bg-transparent", "none", "#e2e8f0"},
		{"", "#ffffff", "#e2e8f0"},
		{"bg-mystery-900", "#ffffff", "#e2e8f0"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.fill, Fill(tt.token))
			assert.Equal(t, tt.stroke, Stroke(tt.token))
		})
	}
}

func TestWrapLabel(t *testing.T) {
	tests := []struct {
		name          string
		label         string
		width, height float64
		want          []string
	}{
		{"fits", "Hello", 200, 80, []string{"Hello"}},
		{"wraps words", "alpha beta gamma delta", 110, 200, []string{"alpha beta", "gamma delta"}},
		{"keeps newlines", "a\nb", 200, 80, []string{"a", "b"}},
		{"splits long word", "abcdefghijklmnop", 110, 200, []string{"abcdefghijk", "lmnop"}},
		{"truncates lines", "one two three four five six", 60, 40, []string{"one…"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapLabel(tt.label, tt.width, tt.height, 14))
		})
	}
}

func TestToPDFRequiresConverter(t *testing.T) {
	if HasConverter() {
		pdf, err := ToPDF(RenderSVG(sampleScene()))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
		return
	}
	_, err := ToPDF(RenderSVG(sampleScene()))
	assert.Error(t, err)
}
