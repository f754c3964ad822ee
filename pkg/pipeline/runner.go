package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taintview/pkg/cache"
	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/observability"
	"github.com/matzehuels/taintview/pkg/source"
	"github.com/matzehuels/taintview/pkg/taint"
)

// Cache key kinds reported to the cache hooks.
const (
	kindGraph    = "graph"
	kindLayout   = "layout"
	kindArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache, loader and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Loader *source.Loader
	Logger *log.Logger

	// TTL overrides the per-stage cache lifetimes when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Loader: source.New(source.WithLogger(logger)),
		Logger: logger,
	}
}

// Execute runs the complete build → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	buildStart := time.Now()
	g, stats, buildHit, err := r.BuildWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.BuildStats = stats
	result.GraphHash = Fingerprint(g)
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.BuildHit = buildHit

	r.Logger.Info("built taint graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"skipped", stats.Skipped,
		"duration", result.Stats.BuildTime)

	layoutStart := time.Now()
	lay, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = lay
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"strategy", lay.Strategy,
		"positions", len(lay.Positions),
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, lay, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// BuildWithCacheInfo builds the graph for opts.Trace and reports whether it
// came from the cache. The trace is keyed by its content fingerprint, so an
// edited trace at the same path is rebuilt.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, opts Options) (*taint.Graph, taint.Stats, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForBuild(); err != nil {
		return nil, taint.Stats{}, false, err
	}

	data, err := r.Loader.ReadAll(ctx, opts.Trace)
	if err != nil {
		return nil, taint.Stats{}, false, err
	}
	cacheKey := r.Keyer.GraphKey(cache.Fingerprint(data), opts.GraphKeyOpts())

	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, stats, err := unmarshalBuilt(cached); err == nil {
				observability.Cache().OnCacheHit(ctx, kindGraph)
				return g, stats, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, kindGraph)
	}

	g, stats, err := BuildGraph(ctx, opts.Trace, data, opts)
	if err != nil {
		return nil, stats, false, err
	}

	if encoded, err := marshalBuilt(g, stats); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, encoded, r.ttl(cache.TTLGraph)); err == nil {
			observability.Cache().OnCacheSet(ctx, kindGraph, len(encoded))
		}
	}
	return g, stats, false, nil
}

// Build is BuildWithCacheInfo without the cache hit info.
func (r *Runner) Build(ctx context.Context, opts Options) (*taint.Graph, taint.Stats, error) {
	g, stats, _, err := r.BuildWithCacheInfo(ctx, opts)
	return g, stats, err
}

// LayoutWithCacheInfo lays out g with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *taint.Graph, opts Options) (graph.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(Fingerprint(g), opts.LayoutKeyOpts())

	if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		if lay, err := graph.UnmarshalLayout(cached); err == nil {
			observability.Cache().OnCacheHit(ctx, kindLayout)
			return lay, true, nil
		}
		// Corrupt entry: recompute.
	}
	observability.Cache().OnCacheMiss(ctx, kindLayout)

	lay, err := ComputeLayout(ctx, g, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}

	if data, err := graph.MarshalLayout(lay); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLLayout)); err == nil {
			observability.Cache().OnCacheSet(ctx, kindLayout, len(data))
		}
	}
	return lay, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit info.
func (r *Runner) Layout(ctx context.Context, g *taint.Graph, opts Options) (graph.Layout, error) {
	lay, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return lay, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, lay graph.Layout, g *taint.Graph, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := graph.MarshalLayout(lay)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Fingerprint(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, kindArtifact)
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, kindArtifact)

	rendered, err := RenderFromLayout(ctx, lay, g, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err == nil {
			observability.Cache().OnCacheSet(ctx, kindArtifact, len(data))
		}
	}
	return rendered, false, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, lay graph.Layout, g *taint.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, lay, g, opts)
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
func (r *Runner) ttl(stage time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return stage
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// Fingerprint identifies g by content. Graphs built from different traces
// that fold to the same nodes and edges share a fingerprint.
func Fingerprint(g *taint.Graph) string {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return ""
	}
	return cache.Fingerprint(data)
}
