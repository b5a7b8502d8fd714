package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooketh/flow/pkg/diagram"
)

type pt = diagram.Point

func TestRoute(t *testing.T) {
	src := diagram.Rect{X: 0, Y: 0, W: 200, H: 80}

	tests := []struct {
		name      string
		tgt       diagram.Rect
		wantKind  Kind
		wantPts   []pt
		wantLabel pt
	}{
		{
			name:      "HorizontalAligned",
			tgt:       diagram.Rect{X: 300, Y: 0, W: 200, H: 80},
			wantKind:  KindHorizontal,
			wantPts:   []pt{{X: 200, Y: 40}, {X: 300, Y: 40}},
			wantLabel: pt{X: 250, Y: 40 - LabelLift},
		},
		{
			name:      "HorizontalWithinTolerance",
			tgt:       diagram.Rect{X: 300, Y: 10, W: 200, H: 80},
			wantKind:  KindHorizontal,
			wantPts:   []pt{{X: 200, Y: 40}, {X: 300, Y: 50}},
			wantLabel: pt{X: 250, Y: 45},
		},
		{
			name:      "TouchingRightEdge",
			tgt:       diagram.Rect{X: 200, Y: 0, W: 100, H: 80},
			wantKind:  KindHorizontal,
			wantPts:   []pt{{X: 200, Y: 40}, {X: 200, Y: 40}},
			wantLabel: pt{X: 200, Y: 40},
		},
		{
			name:      "Vertical",
			tgt:       diagram.Rect{X: 0, Y: 200, W: 200, H: 80},
			wantKind:  KindVertical,
			wantPts:   []pt{{X: 100, Y: 80}, {X: 100, Y: 200}},
			wantLabel: pt{X: 100 + LabelNudge, Y: 140},
		},
		{
			name:      "StepRight",
			tgt:       diagram.Rect{X: 300, Y: 300, W: 200, H: 80},
			wantKind:  KindStepRight,
			wantPts:   []pt{{X: 200, Y: 40}, {X: 250, Y: 40}, {X: 250, Y: 340}, {X: 300, Y: 340}},
			wantLabel: pt{X: 250 + LabelNudge, Y: 190},
		},
		{
			name:      "StepDown",
			tgt:       diagram.Rect{X: -300, Y: 300, W: 200, H: 80},
			wantKind:  KindStepDown,
			wantPts:   []pt{{X: 100, Y: 80}, {X: 100, Y: 190}, {X: -200, Y: 190}, {X: -200, Y: 300}},
			wantLabel: pt{X: -50, Y: 190 - LabelLift},
		},
		{
			name:      "FallbackLeftAbove",
			tgt:       diagram.Rect{X: -300, Y: -300, W: 200, H: 80},
			wantKind:  KindFallback,
			wantPts:   []pt{{X: 200, Y: 40}, {X: -300, Y: -260}},
			wantLabel: pt{X: -50, Y: -110},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Route(src, tt.tgt)
			assert.Equal(t, tt.wantKind, p.Kind)
			assert.Equal(t, tt.wantPts, p.Points)
			assert.InDelta(t, tt.wantLabel.X, p.Label.X, 1e-9)
			assert.InDelta(t, tt.wantLabel.Y, p.Label.Y, 1e-9)
		})
	}
}

func TestRouteIsPure(t *testing.T) {
	a := diagram.Node{ID: "a", Width: 200, Height: 80}
	b := diagram.Node{ID: "b", X: 400, Y: 250, Width: 200, Height: 80}
	assert.Equal(t, Between(a, b), Between(a, b))

	b.Y = 0
	assert.Equal(t, KindHorizontal, Between(a, b).Kind, "moving a node must change its route")
}

func TestPathSVG(t *testing.T) {
	p := Route(diagram.Rect{W: 200, H: 80}, diagram.Rect{X: 300.5, W: 200, H: 80})
	assert.Equal(t, "M 200 40 L 300.5 40", p.SVG())
	assert.Equal(t, "", Path{}.SVG())
}

func TestPreview(t *testing.T) {
	p := Preview(diagram.Rect{W: 200, H: 100}, pt{X: 300, Y: 250})
	require.Len(t, p.Points, 2)
	assert.Equal(t, KindPreview, p.Kind)
	assert.Equal(t, pt{X: 100, Y: 50}, p.Start())
	assert.Equal(t, pt{X: 300, Y: 250}, p.End())
	assert.Equal(t, pt{X: 200, Y: 150}, p.Label)
}

func TestLength(t *testing.T) {
	p := Route(diagram.Rect{W: 200, H: 80}, diagram.Rect{X: 300, Y: 300, W: 200, H: 80})
	assert.InDelta(t, 400, p.Length(), 1e-9)
	assert.Zero(t, Path{}.Length())
	assert.Equal(t, pt{}, Path{}.End())
}
