// Package observability provides hooks for metrics, tracing, and logging.
//
// Library packages report what they do through small hook interfaces instead
// of depending on a metrics or tracing backend. The defaults do nothing;
// main (or a test) registers real implementations at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPatchHooks(&myPatchHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Patch().OnManifestStart(ctx, path)
//	// ... patch the manifest ...
//	observability.Patch().OnManifestComplete(ctx, path, changes, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Patch Hooks
// =============================================================================

// PatchHooks receives events from the manifest patch engine.
type PatchHooks interface {
	// OnManifestStart is called before a manifest is read.
	OnManifestStart(ctx context.Context, path string)

	// OnManifestComplete is called after a manifest was processed, whether
	// or not it was written.
	OnManifestComplete(ctx context.Context, path string, changes int, duration time.Duration, err error)

	// OnDecision is called for every declaration handed to the decision
	// function.
	OnDecision(ctx context.Context, name, pkg string, changed bool)
}

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from the graph resolver.
type ResolveHooks interface {
	// OnResolveStart is called once the graph is loaded.
	OnResolveStart(ctx context.Context, packages int)

	// OnResolveComplete reports the visited package count and the number of
	// overrides produced.
	OnResolveComplete(ctx context.Context, visited, overrides int, duration time.Duration, err error)

	// OnMetadata records one run of the metadata command.
	OnMetadata(ctx context.Context, args []string, cached bool, duration time.Duration, err error)
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
// No-op Implementations
// =============================================================================

// NoopPatchHooks is a no-op implementation of PatchHooks.
type NoopPatchHooks struct{}

func (NoopPatchHooks) OnManifestStart(context.Context, string)                                  {}
func (NoopPatchHooks) OnManifestComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPatchHooks) OnDecision(context.Context, string, string, bool)                         {}

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolveStart(context.Context, int)                              {}
func (NoopResolveHooks) OnResolveComplete(context.Context, int, int, time.Duration, error) {}
func (NoopResolveHooks) OnMetadata(context.Context, []string, bool, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	patchHooks   PatchHooks   = NoopPatchHooks{}
	resolveHooks ResolveHooks = NoopResolveHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetPatchHooks registers custom patch hooks.
// This should be called once at application startup before any patching.
func SetPatchHooks(h PatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		patchHooks = h
	}
}

// SetResolveHooks registers custom resolve hooks.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Patch returns the registered patch hooks.
func Patch() PatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return patchHooks
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	patchHooks = NoopPatchHooks{}
	resolveHooks = NoopResolveHooks{}
	cacheHooks = NoopCacheHooks{}
}
