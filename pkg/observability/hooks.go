// Package observability provides hooks for metrics, tracing, and logging.
//
// Library packages emit events through the registered hooks; the binary
// decides what to do with them. Nothing here depends on a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnIngestStart(ctx, location)
//	// ... build the graph ...
//	observability.Pipeline().OnIngestComplete(ctx, location, nodes, edges, skipped, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from trace ingestion, layout and rendering.
type PipelineHooks interface {
	// Ingest events
	OnIngestStart(ctx context.Context, location string)
	OnLineSkipped(ctx context.Context, location string, lineNo int, err error)
	OnIngestComplete(ctx context.Context, location string, nodes, edges, skipped int, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, strategy string, nodeCount int)
	OnLayoutComplete(ctx context.Context, strategy string, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// ServerHooks receives events from the HTTP API.
type ServerHooks interface {
	// OnRequest records a served request. route is the chi route pattern,
	// not the raw path, so node ids do not explode cardinality.
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)

	// OnReload records a graph swap after the watched trace changed.
	OnReload(ctx context.Context, nodes, edges int, err error)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnIngestStart(context.Context, string)                                         {}
func (NoopPipelineHooks) OnLineSkipped(context.Context, string, int, error)                             {}
func (NoopPipelineHooks) OnIngestComplete(context.Context, string, int, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                                    {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)                {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                                       {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)              {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string, int, time.Duration) {}
func (NoopServerHooks) OnReload(context.Context, int, int, error)                     {}

type registry struct {
	mu       sync.RWMutex
	pipeline PipelineHooks
	cache    CacheHooks
	server   ServerHooks
}

var hooks = newRegistry()

func newRegistry() *registry {
	return &registry{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		server:   NoopServerHooks{},
	}
}

func (r *registry) set(fn func(*registry)) {
	r.mu.Lock()
	fn(r)
	r.mu.Unlock()
}

// SetPipelineHooks installs h. Call it once at startup; nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		hooks.set(func(r *registry) { r.pipeline = h })
	}
}

// SetCacheHooks installs h; nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		hooks.set(func(r *registry) { r.cache = h })
	}
}

// SetServerHooks installs h; nil is ignored.
func SetServerHooks(h ServerHooks) {
	if h != nil {
		hooks.set(func(r *registry) { r.server = h })
	}
}

func Pipeline() PipelineHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.pipeline
}

func Cache() CacheHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.cache
}

func Server() ServerHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.server
}

// Reset puts the no-op hooks back. Tests use it in t.Cleanup.
func Reset() {
	fresh := newRegistry()
	hooks.set(func(r *registry) {
		r.pipeline, r.cache, r.server = fresh.pipeline, fresh.cache, fresh.server
	})
}
