package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/httputil"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// Fetcher loads http and https inputs. Its responses share Cache.
	Fetcher *httputil.Fetcher
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
	fetcher := httputil.NewFetcher(c)
	fetcher.Logger = logger
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		Fetcher: fetcher,
	}
}

// Load reads opts.Input from disk, or through the fetcher when it is a URL.
func (r *Runner) Load(ctx context.Context, opts Options) (*Scene, error) {
	if httputil.IsURL(opts.Input) {
		return LoadURL(ctx, r.Fetcher, opts.Input, opts.IO)
	}
	return Load(opts.Input, opts.IO)
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	scene, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Scene = scene
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = scene.Graph.NodeCount()
	result.Stats.EdgeCount = scene.Graph.EdgeCount()
	if result.GraphHash, err = scene.Hash(); err != nil {
		return nil, fmt.Errorf("hash graph: %w", err)
	}

	r.Logger.Info("loaded graph",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	layoutHit, err := r.layout(ctx, scene, result.GraphHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"algorithm", opts.Layout.Algorithm,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, scene, opts)
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

// LayoutWithCacheInfo lays scene out in place, reusing cached positions
// when the graph and layout options are unchanged, and reports whether the
// cache was hit.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, scene *Scene, opts Options) (bool, error) {
	hash, err := scene.Hash()
	if err != nil {
		return false, err
	}
	return r.layout(ctx, scene, hash, opts)
}

// Layout is LayoutWithCacheInfo without the cache information.
func (r *Runner) Layout(ctx context.Context, scene *Scene, opts Options) error {
	_, err := r.LayoutWithCacheInfo(ctx, scene, opts)
	return err
}

func (r *Runner) layout(ctx context.Context, scene *Scene, graphHash string, opts Options) (bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return false, err
	}
	cacheKey := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if err := scene.SetPositions(data); err == nil {
				return true, nil
			}
			r.Logger.Debug("discarding cached layout", "key", cacheKey)
		}
	}

	if err := GenerateLayout(ctx, scene.Graph, opts.Layout, opts.Logger); err != nil {
		return false, err
	}

	if data, err := scene.Positions(); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		}
	}
	return false, nil
}

// RenderWithCacheInfo renders scene with caching and reports whether every
// artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, scene *Scene, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// Artifacts are keyed by the laid-out graph, so any position change
	// misses.
	layoutHash, err := scene.Hash()
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, scene, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is RenderWithCacheInfo without the cache information.
func (r *Runner) Render(ctx context.Context, scene *Scene, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, scene, opts)
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
