package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/importer"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/render/nodelink"
)

// Runner executes pipeline stages with caching.
//
// The Runner holds no per-request state; one instance can serve many
// goroutines as long as each works on its own graph.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer means DefaultKeyer, a nil cache disables caching.
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
		Logger: logger,
	}
}

// =============================================================================
// Import
// =============================================================================

// Import builds a new graph from a decoded payload.
func (r *Runner) Import(ctx context.Context, payload any) (*family.Graph, *importer.Result, error) {
	g := family.New(family.WithLogger(r.Logger))
	res, err := r.ImportInto(ctx, g, payload)
	if err != nil {
		return nil, nil, err
	}
	return g, res, nil
}

// ImportInto adds a decoded payload to an existing graph. On error g is
// unchanged.
func (r *Runner) ImportInto(ctx context.Context, g *family.Graph, payload any) (*importer.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shape, _ := importer.Detect(payload)
	hooks := observability.Pipeline()
	hooks.OnImportStart(ctx, string(shape))

	start := time.Now()
	res, err := importer.Import(g, payload, importer.WithLogger(r.Logger))
	if err != nil {
		hooks.OnImportComplete(ctx, string(shape), 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnImportComplete(ctx, string(res.Shape), len(res.ImportedIDs), len(res.Warnings), time.Since(start), nil)

	r.Logger.Info("imported members",
		"shape", res.Shape,
		"members", len(res.ImportedIDs),
		"relationships", len(res.Relationships),
		"warnings", len(res.Warnings))
	return res, nil
}

// =============================================================================
// Layout
// =============================================================================

// Layout computes (or loads from cache) the layout of g and applies it onto
// g. The bool reports a cache hit.
func (r *Runner) Layout(ctx context.Context, g *family.Graph, kind layout.Kind, cfg layout.Config) (*layout.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !kind.Valid() {
		return nil, false, errors.New(errors.ErrCodeInvalidLayout, "unknown layout kind %q", kind)
	}
	cfg = cfg.WithDefaults()

	fp, err := graph.Fingerprint(g)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "fingerprint graph")
	}
	key := r.Keyer.LayoutKey(fp, layoutKeyOpts(kind, cfg))

	if res, ok := r.cachedLayout(ctx, key, g); ok {
		if err := res.Apply(g); err == nil {
			r.Logger.Debug("layout cache hit", "kind", kind, "members", len(res.Order))
			return res, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, string(kind), g.MemberCount())
	start := time.Now()
	res, err := layout.Compute(g, kind, layout.WithConfig(cfg))
	if err != nil {
		hooks.OnLayoutComplete(ctx, string(kind), time.Since(start), err)
		return nil, false, err
	}
	if err := res.Apply(g); err != nil {
		hooks.OnLayoutComplete(ctx, string(kind), time.Since(start), err)
		return nil, false, err
	}
	hooks.OnLayoutComplete(ctx, string(kind), time.Since(start), nil)

	if data, err := graph.MarshalLayout(graph.FromResult(res, g)); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err != nil {
			r.Logger.Warn("cache layout", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	r.Logger.Info("computed layout",
		"kind", kind,
		"members", len(res.Order),
		"roots", len(res.Roots),
		"duration", time.Since(start))
	return res, false, nil
}

// cachedLayout loads a layout and checks that it covers exactly the members
// of g. Stale or unreadable entries count as misses.
func (r *Runner) cachedLayout(ctx context.Context, key string, g *family.Graph) (*layout.Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("read layout cache", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, false
	}
	doc, err := graph.UnmarshalLayout(data)
	if err != nil || len(doc.Nodes) != g.MemberCount() {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return doc.Result(), true
}

func layoutKeyOpts(kind layout.Kind, cfg layout.Config) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Kind:              string(kind),
		HorizontalSpacing: cfg.HorizontalSpacing,
		VerticalSpacing:   cfg.VerticalSpacing,
		RadialStep:        cfg.RadialStep,
		InnerRadius:       cfg.InnerRadius,
		CenterX:           cfg.Center.X,
		CenterY:           cfg.Center.Y,
	}
}

// =============================================================================
// Render
// =============================================================================

// Render produces a preview of a laid-out graph in the given format.
// The bool reports a cache hit.
func (r *Runner) Render(ctx context.Context, g *family.Graph, res *layout.Result, format string, opts nodelink.Options) ([]byte, bool, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "render")
	}
	if res == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "render: no layout")
	}

	lay := graph.FromResult(res, g)
	layData, err := graph.MarshalLayout(lay)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout")
	}
	if format == FormatJSON {
		return layData, false, nil
	}

	doc := graph.Export(g)
	docData, err := graph.Marshal(g)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize graph")
	}
	key := r.Keyer.ArtifactKey(cache.Hash(append(append([]byte{}, layData...), docData...)), cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: opts.Detailed,
		Scale:    opts.Scale,
	})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()
	data, err := render(ctx, doc, lay, format, opts)
	hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
		r.Logger.Warn("cache artifact", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	r.Logger.Info("rendered preview", "format", format, "bytes", len(data), "duration", time.Since(start))
	return data, false, nil
}

func render(ctx context.Context, doc graph.Document, lay graph.LayoutDocument, format string, opts nodelink.Options) ([]byte, error) {
	dot := nodelink.ToDOT(doc, lay, opts)
	if format == FormatDOT {
		return []byte(dot), nil
	}
	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}
	return svg, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
