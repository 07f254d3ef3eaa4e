package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/callchain/pkg/cache"
	"github.com/matzehuels/callchain/pkg/cluster"
	"github.com/matzehuels/callchain/pkg/layout"
	"github.com/matzehuels/callchain/pkg/observability"
	"github.com/matzehuels/callchain/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the HTTP service use it.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default expiration of cache entries when positive.
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
		Logger: logger,
	}
}

// Execute runs the complete load → cluster → place pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{RunID: uuid.New()}
	logger := r.Logger.With("run", result.RunID.String()[:8])

	// Stage 1: Load
	loadStart := time.Now()
	in, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Inputs = in
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Sections = in.Table.SectionCount()
	result.Stats.Entries = in.Profile.Len()

	logger.Info("loaded inputs",
		"sections", result.Stats.Sections,
		"symbols", in.Table.SymbolCount(),
		"entries", result.Stats.Entries,
		"duration", result.Stats.LoadTime)

	// Stage 2: Cluster
	clusterStart := time.Now()
	res, hit, err := r.ClusterWithCacheInfo(ctx, in, opts)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	result.Cluster = res
	result.CacheHit = hit
	result.Stats.ClusterTime = time.Since(clusterStart)

	logger.Info("clustered sections",
		"clusters", len(res.Clusters),
		"ranked", len(res.Order),
		"contractions", res.Stats.Contractions,
		"cached", hit,
		"duration", result.Stats.ClusterTime)

	// Stage 3: Place
	placeStart := time.Now()
	placement, err := r.Place(ctx, in, res, opts)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	result.Placement = placement
	result.Stats.PlaceTime = time.Since(placeStart)

	logger.Info("placed sections",
		"segments", len(placement.Segments),
		"end", fmt.Sprintf("%#x", placement.End),
		"duration", result.Stats.PlaceTime)

	return result, nil
}

// Load reads the inputs named in opts.
func (r *Runner) Load(ctx context.Context, opts Options) (*Inputs, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.ObjectsPath, len(opts.ProfilePaths))

	start := time.Now()
	in, err := Load(ctx, opts)
	if err != nil {
		hooks.OnLoadComplete(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnLoadComplete(ctx, in.Table.SectionCount(), in.Profile.Len(), time.Since(start), nil)
	return in, nil
}

// ClusterWithCacheInfo ranks the sections of in, consulting the cache unless
// opts.Refresh is set, and reports whether the result came from cache.
func (r *Runner) ClusterWithCacheInfo(ctx context.Context, in *Inputs, opts Options) (cluster.Result, bool, error) {
	if err := opts.ValidateForCluster(); err != nil {
		return cluster.Result{}, false, err
	}
	cacheKey := r.Keyer.OrderKey(in.ProfileHash, in.ObjectsHash, opts.OrderKeyOpts())
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached cluster.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				cacheHooks.OnCacheHit(ctx, "order")
				return cached, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		cacheHooks.OnCacheMiss(ctx, "order")
	}

	hooks := observability.Pipeline()
	hooks.OnClusterStart(ctx, in.Profile.Len(), opts.PageSize)
	start := time.Now()
	res := cluster.Sort(in.Profile, in.Table, opts.PageSize)
	hooks.OnClusterComplete(ctx, len(res.Clusters), res.Stats.Contractions, time.Since(start), nil)

	r.Logger.Debug("cluster stats",
		"entries", res.Stats.Entries,
		"skipped", res.Stats.Skipped,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"rejected", res.Stats.Rejected)

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLOrder)); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			cacheHooks.OnCacheSet(ctx, "order", len(data))
		}
	}
	return res, false, nil
}

// Cluster is a convenience wrapper that calls ClusterWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Cluster(ctx context.Context, in *Inputs, opts Options) (cluster.Result, error) {
	res, _, err := r.ClusterWithCacheInfo(ctx, in, opts)
	return res, err
}

// Place assigns addresses to every section of in, ranked sections first.
func (r *Runner) Place(ctx context.Context, in *Inputs, res cluster.Result, opts Options) (layout.Placement, error) {
	opts.SetPlaceDefaults()
	start := time.Now()
	p, err := layout.Place(in.Table.Sections(), res.Order, opts.LayoutOptions())
	observability.Pipeline().OnPlaceComplete(ctx, len(p.Sections), time.Since(start), err)
	return p, err
}

// RenderWithCacheInfo draws the clustered graph in opts.Format, consulting
// the cache unless opts.Refresh is set.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, in *Inputs, res cluster.Result, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	resData, err := json.Marshal(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize result for cache key: %w", err)
	}
	cacheKey := r.Keyer.ArtifactKey(cache.Hash([]byte(in.ObjectsHash+string(resData))), opts.ArtifactKeyOpts())
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cacheHooks.OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		cacheHooks.OnCacheMiss(ctx, "artifact")
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()
	data, err := Render(ctx, in, res, opts)
	hooks.OnRenderComplete(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLArtifact)); err == nil {
		cacheHooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, in *Inputs, res cluster.Result, opts Options) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, in, res, opts)
	return data, err
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// Render draws the clustered graph without caching.
func Render(ctx context.Context, in *Inputs, res cluster.Result, opts Options) ([]byte, error) {
	dot := render.ToDOT(res, in.Table, render.Options{Detailed: opts.Detailed, MinWeight: opts.MinWeight})
	switch opts.Format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return render.RenderSVG(ctx, dot)
	case FormatPNG:
		return render.RenderPNG(ctx, dot)
	default:
		return nil, ValidateFormat(opts.Format)
	}
}
