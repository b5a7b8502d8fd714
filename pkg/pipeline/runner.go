package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cooketh/flow/pkg/cache"
	"github.com/cooketh/flow/pkg/diagram"
	flowio "github.com/cooketh/flow/pkg/io"
	"github.com/cooketh/flow/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger, so multiple
// goroutines can safely share one.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, an unprefixed DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer("")
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Import reads an interchange document from path.
func (r *Runner) Import(ctx context.Context, path string) (diagram.Document, error) {
	hooks := observability.Pipeline()
	hooks.OnImportStart(ctx, path)
	start := time.Now()
	doc, err := flowio.ImportJSON(path)
	hooks.OnImportComplete(ctx, path, len(doc.Graph.Nodes), time.Since(start), err)
	if err != nil {
		return diagram.Document{}, err
	}
	r.Logger.Debug("imported document", "path", path, "nodes", len(doc.Graph.Nodes), "edges", len(doc.Graph.Edges))
	return doc, nil
}

// Execute runs layout and render on doc with caching.
func (r *Runner) Execute(ctx context.Context, doc diagram.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}

	layoutStart := time.Now()
	g, layoutHit, err := r.LayoutWithCacheInfo(ctx, doc.Graph, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	doc.Graph = g
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	result.CacheInfo.LayoutHit = layoutHit

	if opts.Style != "" {
		opts.Logger.Info("computed layout",
			"style", opts.Style,
			"nodes", len(g.Nodes),
			"cached", layoutHit,
			"duration", result.Stats.LayoutTime)
	}

	renderStart := time.Now()
	artifacts, hash, renderHit, err := r.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.GraphHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo applies the requested layout with caching and reports
// whether the result came from cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g diagram.Graph, opts Options) (diagram.Graph, bool, error) {
	st, ok := opts.LayoutStyle()
	if !ok {
		return Layout(g, opts), false, nil
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, string(st), len(g.Nodes))
	start := time.Now()

	graphHash, err := cache.HashJSON(g.Sanitize())
	if err != nil {
		hooks.OnLayoutComplete(ctx, string(st), time.Since(start), err)
		return diagram.Graph{}, false, err
	}
	key := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached diagram.Graph
			if err := json.Unmarshal(data, &cached); err == nil {
				hooks.OnLayoutComplete(ctx, string(st), time.Since(start), nil)
				return cached, true, nil
			}
		}
	}

	out := Layout(g, opts)
	if data, err := json.Marshal(out); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLLayout)
	}
	hooks.OnLayoutComplete(ctx, string(st), time.Since(start), nil)
	return out, false, nil
}

// RenderWithCacheInfo renders every requested format, serving cached
// artifacts where possible. It returns the graph hash the artifacts are
// keyed by and whether all of them came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc diagram.Document, opts Options) (map[string][]byte, string, bool, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, "", false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	hash, err := cache.HashJSON(struct {
		Title string        `json:"title"`
		Graph diagram.Graph `json:"graph"`
	}{doc.Title, doc.Graph})
	if err != nil {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
		return nil, "", false, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				continue
			}
		}
		allCached = false

		data, err := RenderFormat(doc, format, opts)
		if err != nil {
			err = fmt.Errorf("render %s: %w", format, err)
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, "", false, err
		}
		artifacts[format] = data
		// JSON carries an export timestamp and is always fresh.
		if format != FormatJSON {
			_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
		}
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, hash, allCached, nil
}

// Render is a convenience wrapper that discards the cache info.
func (r *Runner) Render(ctx context.Context, doc diagram.Document, opts Options) (map[string][]byte, error) {
	artifacts, _, _, err := r.RenderWithCacheInfo(ctx, doc, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
