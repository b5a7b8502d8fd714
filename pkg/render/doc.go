// Package render turns diagrams into exportable images.
//
// # Overview
//
// A [Scene] is the renderer-facing view of a graph: nodes in world space,
// connectors routed by [route.Between], and the content bounds. Scenes are
// derived on demand from the graph and never stored.
//
// Sinks draw a scene into a byte format:
//
//   - [RenderSVG]: standalone SVG with shapes, wrapped labels and arrows
//   - [RenderPNG], [RenderJPEG]: native raster output via fogleman/gg
//   - [ToPDF]: SVG to PDF through the external rsvg-convert tool
//
// The [nodelink] subpackage renders the same graph through Graphviz, which
// ignores stored positions and lays the graph out itself.
//
// # Export Frame
//
// Exports cover the content bounds plus [DefaultPadding] on every side and
// are never smaller than [MinExportWidth] by [MinExportHeight].
//
//	scene := render.NewScene(doc.Title, doc.Graph)
//	svg := render.RenderSVG(scene, render.WithTheme(render.ThemeDark))
//	png, err := render.RenderPNG(scene, render.WithScale(2))
//	pdf, err := render.ToPDF(svg)
//
// Color tokens stored on nodes ("bg-yellow-50", "border-brand-500" or a
// hex value) are resolved by [Fill] and [Stroke].
//
// [nodelink]: github.com/cooketh/flow/pkg/render/nodelink
// [route.Between]: github.com/cooketh/flow/pkg/route.Between
package render
