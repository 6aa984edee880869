// Package observability carries optional instrumentation hooks.
//
// Four hook interfaces cover the event sources of stagegraph: renderer
// refreshes and frames, layout runs, cache traffic and preview-server
// requests. Each has a no-op implementation and a process-wide registry
// slot. [LogHooks] implements all four on a charmbracelet logger.
//
// Components never reach into the registry at call time. The renderer, the
// layout supervisor, the cache wrapper and the server take their hooks
// through their options and fall back to the registry value once, when
// constructed:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    observability.SetCacheHooks(observability.NewLogHooks(logger))
//	    // ... build renderers and caches
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// RenderHooks receives events from a renderer. They are called on the
// renderer's execution context and must not block.
type RenderHooks interface {
	// OnRefresh records a full refresh of the draw batches.
	OnRefresh(nodes, edges int, duration time.Duration, err error)
	// OnFrame records one drawn frame.
	OnFrame(duration time.Duration, moving bool)
}

// LayoutHooks receives events from layout runs. Batch events come from the
// supervisor goroutine.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, algorithm string, nodeCount int)
	OnLayoutBatch(ctx context.Context, algorithm string, iterations int, duration time.Duration)
	OnLayoutComplete(ctx context.Context, algorithm string, duration time.Duration, err error)
}

// CacheHooks receives events from an instrumented cache. keyType is the key
// namespace: layout, render or fetch.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// ServerHooks receives events from the preview server. route is the chi
// route pattern, not the request path.
type ServerHooks interface {
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// NoopRenderHooks ignores every event.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRefresh(int, int, time.Duration, error) {}
func (NoopRenderHooks) OnFrame(time.Duration, bool)              {}

// NoopLayoutHooks ignores every event.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, string, int)                     {}
func (NoopLayoutHooks) OnLayoutBatch(context.Context, string, int, time.Duration)      {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks ignores every event.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Registry
// =============================================================================

// slot is one registry entry. A nil set is ignored.
type slot[T comparable] struct {
	mu   sync.RWMutex
	v    T
	noop T
}

func newSlot[T comparable](noop T) *slot[T] {
	return &slot[T]{v: noop, noop: noop}
}

func (s *slot[T]) set(v T) {
	var zero T
	if v == zero {
		return
	}
	s.mu.Lock()
	s.v = v
	s.mu.Unlock()
}

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.v = s.noop
	s.mu.Unlock()
}

var (
	renderSlot = newSlot[RenderHooks](NoopRenderHooks{})
	layoutSlot = newSlot[LayoutHooks](NoopLayoutHooks{})
	cacheSlot  = newSlot[CacheHooks](NoopCacheHooks{})
	serverSlot = newSlot[ServerHooks](NoopServerHooks{})
)

// SetRenderHooks registers render hooks for renderers built afterwards.
func SetRenderHooks(h RenderHooks) { renderSlot.set(h) }

// SetLayoutHooks registers layout hooks for supervisors built afterwards.
func SetLayoutHooks(h LayoutHooks) { layoutSlot.set(h) }

// SetCacheHooks registers cache hooks for caches wrapped afterwards.
func SetCacheHooks(h CacheHooks) { cacheSlot.set(h) }

// SetServerHooks registers hooks for servers built afterwards.
func SetServerHooks(h ServerHooks) { serverSlot.set(h) }

func Render() RenderHooks { return renderSlot.get() }
func Layout() LayoutHooks { return layoutSlot.get() }
func Cache() CacheHooks   { return cacheSlot.get() }
func Server() ServerHooks { return serverSlot.get() }

// Reset restores the no-op hooks.
func Reset() {
	renderSlot.reset()
	layoutSlot.reset()
	cacheSlot.reset()
	serverSlot.reset()
}
