// Package observability provides hooks for metrics and tracing.
//
// Instrumentation is optional: libraries call the registered hooks, and the
// defaults do nothing. The serve command registers Prometheus-backed hooks at
// startup; the CLI leaves the defaults in place.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, so library packages never import a metrics
// backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetPipelineHooks(&myPipelineHooks{})
//	observability.SetCacheHooks(&myCacheHooks{})
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnClusterStart(ctx, entries, pageSize)
//	// ... run the engine ...
//	observability.Pipeline().OnClusterComplete(ctx, clusters, contractions, duration, err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the ordering pipeline.
type PipelineHooks interface {
	// Load events: object description and profile shards.
	OnLoadStart(ctx context.Context, objectsPath string, shards int)
	OnLoadComplete(ctx context.Context, sections, entries int, duration time.Duration, err error)

	// Cluster events
	OnClusterStart(ctx context.Context, entries int, pageSize uint64)
	OnClusterComplete(ctx context.Context, clusters, contractions int, duration time.Duration, err error)

	// Place events
	OnPlaceComplete(ctx context.Context, sections int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP service.
type HTTPHooks interface {
	// OnRequest records an incoming request before routing.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed request. Route is the matched pattern,
	// not the raw path.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string, int)                          {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, int, int, time.Duration, error)    {}
func (NoopPipelineHooks) OnClusterStart(context.Context, int, uint64)                       {}
func (NoopPipelineHooks) OnClusterComplete(context.Context, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnPlaceComplete(context.Context, int, time.Duration, error)        {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string)                             {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, time.Duration, error)    {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// slot holds one registered hook set. Reads are lock-free so the hot request
// path never contends with registration.
type slot[T any] struct {
	p   atomic.Pointer[T]
	def T
}

func (s *slot[T]) get() T {
	if h := s.p.Load(); h != nil {
		return *h
	}
	return s.def
}

func (s *slot[T]) set(h T) { s.p.Store(&h) }

func (s *slot[T]) reset() { s.p.Store(nil) }

var (
	pipelineSlot = &slot[PipelineHooks]{def: NoopPipelineHooks{}}
	cacheSlot    = &slot[CacheHooks]{def: NoopCacheHooks{}}
	httpSlot     = &slot[HTTPHooks]{def: NoopHTTPHooks{}}
)

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineSlot.set(h)
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.set(h)
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return httpSlot.get() }

// Reset restores the no-op defaults.
func Reset() {
	pipelineSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
