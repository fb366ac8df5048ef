// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about resolution runs, version cache
// operations, and git invocations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This keeps the core library free of observability frameworks while
// allowing different backends (OpenTelemetry, Prometheus, plain logs).
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolverHooks(&myResolverHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolver().OnResolveStart(ctx, rootDeps)
//	// ... solve ...
//	observability.Resolver().OnResolveComplete(ctx, settled, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// ResolverHooks receives events from the constraint solver.
type ResolverHooks interface {
	// OnResolveStart records the beginning of a resolution run.
	OnResolveStart(ctx context.Context, rootDependencies int)

	// OnProjectSettled records a project committing to a version.
	OnProjectSettled(ctx context.Context, project, version string)

	// OnBacktrack records a discarded candidate after a downstream conflict.
	OnBacktrack(ctx context.Context, project, version string)

	// OnResolveComplete records the end of a resolution run.
	OnResolveComplete(ctx context.Context, settled int, duration time.Duration, err error)
}

// CacheHooks receives events from the version cache.
type CacheHooks interface {
	// OnCacheHit records a lookup served from the cache.
	OnCacheHit(ctx context.Context, project string)

	// OnCacheMiss records a lookup that fell through to the repository.
	OnCacheMiss(ctx context.Context, project string)

	// OnCacheSet records versions written to the cache.
	OnCacheSet(ctx context.Context, project string, versions int)
}

// VCSHooks receives events from git invocations.
type VCSHooks interface {
	// OnCommandStart records an invoked git subcommand.
	OnCommandStart(ctx context.Context, subcommand, target string)

	// OnCommandComplete records a finished git subcommand.
	OnCommandComplete(ctx context.Context, subcommand, target string, duration time.Duration, err error)
}

// NoopResolverHooks is a no-op implementation of ResolverHooks.
type NoopResolverHooks struct{}

func (NoopResolverHooks) OnResolveStart(context.Context, int) {}
func (NoopResolverHooks) OnProjectSettled(context.Context, string, string) {}
func (NoopResolverHooks) OnBacktrack(context.Context, string, string) {}
func (NoopResolverHooks) OnResolveComplete(context.Context, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string) {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string) {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopVCSHooks is a no-op implementation of VCSHooks.
type NoopVCSHooks struct{}

func (NoopVCSHooks) OnCommandStart(context.Context, string, string) {}
func (NoopVCSHooks) OnCommandComplete(context.Context, string, string, time.Duration, error) {}

var (
	resolverHooks ResolverHooks = NoopResolverHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	vcsHooks      VCSHooks      = NoopVCSHooks{}
	hooksMu       sync.RWMutex
)

// SetResolverHooks registers custom resolver hooks.
// This should be called once at application startup before any resolution.
func SetResolverHooks(h ResolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolverHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache use.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetVCSHooks registers custom VCS hooks.
// This should be called once at application startup before any git use.
func SetVCSHooks(h VCSHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		vcsHooks = h
	}
}

// Resolver returns the registered resolver hooks.
func Resolver() ResolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolverHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// VCS returns the registered VCS hooks.
func VCS() VCSHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return vcsHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolverHooks = NoopResolverHooks{}
	cacheHooks = NoopCacheHooks{}
	vcsHooks = NoopVCSHooks{}
}
