// Package generate turns a free-text prompt into a laid-out diagram.
//
// # Overview
//
// Generation is split in two. A [Generator] is the external service
// boundary: it receives the prompt and a layout style and returns a
// [Raw] graph of ids, labels and coarse node types. [Service] owns
// everything after that: it validates the raw result, maps coarse types to
// node kinds, shapes and colors, runs the layout engine and returns a
// ready-to-load [diagram.Document].
//
// # Fallback
//
// Generation never fails for a valid prompt. When no generator is
// configured, or the generator errors or returns something unusable,
// [Service] substitutes a deterministic built-in graph: a five-step flow
// with one Yes/No decision for the flowchart style (or any prompt
// mentioning "process"), and a two-level mind map otherwise. Failed calls
// are not retried.
//
//	svc := generate.NewService(generate.NewHTTPGenerator(url, key), generate.WithLogger(logger))
//	res, err := svc.Generate(ctx, "launch a podcast", layout.StyleMindmap)
//	if res.Fallback {
//	    // the service was unreachable; a placeholder map was produced
//	}
package generate
