package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/render/nodelink"
)

// Runner executes the pipeline with caching. It holds no per-run state and
// may be shared between goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// TTL overrides the default cache lifetimes when positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// selects [cache.DefaultKeyer].
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
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute lays out tree and renders every requested format.
func (r *Runner) Execute(ctx context.Context, tree graph.TreeData, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	res := &Result{Stats: Stats{Members: len(tree.Nodes)}}

	start := time.Now()
	l, hash, hit, err := r.layout(ctx, tree, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	res.TreeHash = hash
	res.Layout = l
	res.CacheInfo.LayoutHit = hit
	res.Stats.LayoutTime = time.Since(start)
	res.Stats.Units = len(l.Nodes)
	res.Stats.Edges = len(l.Edges)
	r.Logger.Info("computed layout",
		"units", res.Stats.Units, "edges", res.Stats.Edges,
		"placer", opts.Placer, "cached", hit, "duration", res.Stats.LayoutTime)

	start = time.Now()
	artifacts, hit, err := r.render(ctx, tree, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Artifacts = artifacts
	res.CacheInfo.RenderHit = hit
	res.Stats.RenderTime = time.Since(start)
	r.Logger.Debug("rendered outputs", "formats", opts.Formats, "cached", hit, "duration", res.Stats.RenderTime)
	return res, nil
}

// Layout runs only the layout stage.
func (r *Runner) Layout(ctx context.Context, tree graph.TreeData, opts Options) (graph.Layout, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Layout{}, err
	}
	l, _, _, err := r.layout(ctx, tree, opts)
	return l, err
}

func (r *Runner) layout(ctx context.Context, tree graph.TreeData, opts Options) (graph.Layout, string, bool, error) {
	hash, err := treeHash(tree)
	if err != nil {
		return graph.Layout{}, "", false, err
	}
	key := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if l, err := graph.UnmarshalLayout(data); err == nil {
				hooks.OnCacheHit(ctx, "layout")
				return l, hash, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", key, "err", err)
		}
	}
	hooks.OnCacheMiss(ctx, "layout")

	engine := layout.NewEngine(placerFor(opts.Placer), r.Logger)
	observability.Pipeline().OnLayoutStart(ctx, opts.Placer, len(tree.Nodes))
	start := time.Now()
	l, err := engine.Layout(ctx, tree, opts.Layout)
	observability.Pipeline().OnLayoutComplete(ctx, opts.Placer, time.Since(start), err)
	if err != nil {
		return graph.Layout{}, "", false, err
	}

	if data, err := graph.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLLayout)); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, hash, false, nil
}

func (r *Runner) render(ctx context.Context, tree graph.TreeData, l graph.Layout, opts Options) (map[string][]byte, bool, error) {
	data, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout: %w", err)
	}
	layoutHash := cache.Hash(data)
	hooks := observability.Cache()

	out := make(map[string][]byte, len(opts.Formats))
	allHit := true
	for _, format := range opts.Formats {
		if format == FormatJSON {
			out[format] = data
			continue
		}
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				hooks.OnCacheHit(ctx, "artifact")
				out[format] = cached
				continue
			}
		}
		hooks.OnCacheMiss(ctx, "artifact")
		allHit = false

		observability.Pipeline().OnRenderStart(ctx, format)
		start := time.Now()
		rendered, err := renderFormat(ctx, tree, opts, format)
		observability.Pipeline().OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		out[format] = rendered
		if err := r.Cache.Set(ctx, key, rendered, r.ttl(cache.TTLArtifact)); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(rendered))
		}
	}
	return out, allHit, nil
}

func renderFormat(ctx context.Context, tree graph.TreeData, opts Options, format string) ([]byte, error) {
	h, err := layout.BuildHierarchy(tree, opts.Layout)
	if err != nil {
		return nil, err
	}
	dot := nodelink.ToDOT(h, nodelink.Options{
		Direction: opts.Layout.Direction,
		RankSep:   opts.Layout.RankSep,
		NodeSep:   opts.Layout.NodeSep,
		Detailed:  opts.Detailed,
	})
	if format == FormatDOT {
		return []byte(dot), nil
	}
	return nodelink.RenderSVG(ctx, dot)
}

func placerFor(name string) layout.Placer {
	if name == PlacerGraphviz {
		return nodelink.GraphvizPlacer{}
	}
	return layout.LayeredPlacer{}
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}
