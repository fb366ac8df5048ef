// Package source supplies candidate versions and dependency manifests to
// the resolver, backed by local git mirrors.
//
// The package guarantees two things the resolver relies on:
//
//   - Single-flight: concurrent version lookups for the same project
//     trigger at most one underlying clone or fetch.
//   - Memoization: once a project's full version list has been discovered,
//     later lookups are served from the version cache and never touch the
//     repository again for the lifetime of the cache.
package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ballast-sh/ballast/pkg/cache"
	"github.com/ballast-sh/ballast/pkg/observability"
	"github.com/ballast-sh/ballast/pkg/project"
	"github.com/ballast-sh/ballast/pkg/semver"
	"github.com/ballast-sh/ballast/pkg/stream"
)

// VersionCache remembers the versions discovered for each project. All
// access is serialized on a dedicated scheduler, so concurrent lookups for
// unrelated projects never race on the shared map.
//
// Entries are append-only and become authoritative once the full tag
// listing has been scanned; partially populated entries (for example from a
// cancelled run) are kept but not served.
//
// An optional persistent layer carries completed listings across
// invocations with a TTL.
type VersionCache struct {
	sched *stream.Scheduler

	// Guarded by sched: only tasks running on the scheduler may touch these.
	entries map[project.Identifier]*cacheEntry

	persist    cache.Cache
	persistTTL time.Duration
}

type cacheEntry struct {
	versions []semver.Version
	complete bool
}

// NewVersionCache creates a version cache. persist may be nil to keep the
// cache purely in-memory. The caller owns the cache and must Close it.
func NewVersionCache(persist cache.Cache, persistTTL time.Duration) *VersionCache {
	if persist == nil {
		persist = cache.NewNullCache()
	}
	return &VersionCache{
		sched:      stream.NewScheduler("version-cache"),
		entries:    make(map[project.Identifier]*cacheEntry),
		persist:    persist,
		persistTTL: persistTTL,
	}
}

// Close stops the cache's scheduler. The cache must not be used afterwards.
func (c *VersionCache) Close() {
	c.sched.Close()
}

// Scheduler returns the serial execution context that owns the cache.
// Streams reading the cache subscribe on it.
func (c *VersionCache) Scheduler() *stream.Scheduler {
	return c.sched
}

// lookup returns the cached versions for id, if the listing is complete.
// It falls back to the persistent layer on an in-memory miss.
// Must run on the cache scheduler.
func (c *VersionCache) lookup(ctx context.Context, id project.Identifier) ([]semver.Version, bool) {
	if entry, ok := c.entries[id]; ok && entry.complete {
		return append([]semver.Version(nil), entry.versions...), true
	}
	if versions, ok := c.loadPersisted(ctx, id); ok {
		c.entries[id] = &cacheEntry{versions: versions, complete: true}
		return append([]semver.Version(nil), versions...), true
	}
	return nil, false
}

// append records a discovered version for id. Versions accumulate in
// discovery order and are never removed. Appends are idempotent so that
// overlapping scans of the same project cannot duplicate entries.
func (c *VersionCache) append(ctx context.Context, id project.Identifier, v semver.Version) error {
	return c.sched.Do(ctx, func() {
		entry, ok := c.entries[id]
		if !ok {
			entry = &cacheEntry{}
			c.entries[id] = entry
		}
		for _, have := range entry.versions {
			if have.Tag() == v.Tag() {
				return
			}
		}
		entry.versions = append(entry.versions, v)
	})
}

// markComplete marks id's listing as fully scanned, making the entry
// authoritative for the rest of the session, and spills it to the
// persistent layer.
func (c *VersionCache) markComplete(ctx context.Context, id project.Identifier) error {
	return c.sched.Do(ctx, func() {
		entry, ok := c.entries[id]
		if !ok {
			entry = &cacheEntry{}
			c.entries[id] = entry
		}
		entry.complete = true
		observability.Cache().OnCacheSet(ctx, id.String(), len(entry.versions))
		c.storePersisted(ctx, id, entry.versions)
	})
}

// loadPersisted reads a completed listing from the persistent layer.
// Must run on the cache scheduler.
func (c *VersionCache) loadPersisted(ctx context.Context, id project.Identifier) ([]semver.Version, bool) {
	data, hit, err := c.persist.Get(ctx, cache.VersionsKey(id.String()))
	if err != nil || !hit {
		return nil, false
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, false
	}
	versions := make([]semver.Version, 0, len(tags))
	for _, tag := range tags {
		v, err := semver.Parse(tag)
		if err != nil {
			// A tag that no longer parses means the entry was written by
			// an incompatible build; treat the whole entry as a miss.
			return nil, false
		}
		versions = append(versions, v)
	}
	return versions, true
}

// storePersisted writes a completed listing to the persistent layer.
// Failures are ignored: the persistent cache is best-effort.
// Must run on the cache scheduler.
func (c *VersionCache) storePersisted(ctx context.Context, id project.Identifier, versions []semver.Version) {
	tags := make([]string, len(versions))
	for i, v := range versions {
		tags[i] = v.Tag()
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return
	}
	_ = c.persist.Set(ctx, cache.VersionsKey(id.String()), data, c.persistTTL)
}
