package source

import (
	"context"
	"os"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/ballast-sh/ballast/pkg/errors"
	"github.com/ballast-sh/ballast/pkg/observability"
	"github.com/ballast-sh/ballast/pkg/project"
	"github.com/ballast-sh/ballast/pkg/semver"
	"github.com/ballast-sh/ballast/pkg/stream"
)

// Transport is the subset of the version-control client the sources need.
// *vcs.Git satisfies it.
type Transport interface {
	Clone(ctx context.Context, remoteURL, dest string) error
	Fetch(ctx context.Context, dir, remoteURL string) error
	ListTags(ctx context.Context, dir string) (string, error)
	ReadFileAtRevision(ctx context.Context, dir, revision, path string) (string, error)
}

// errNotCached flows between the cache-lookup stream and its fallback; it
// never escapes VersionsFor.
var errNotCached = errors.New(errors.ErrCodeInternal, "not cached")

// VersionSource produces the available semantic versions of a project.
type VersionSource struct {
	git     Transport
	cache   *VersionCache
	mirrors string // directory holding bare mirrors

	group singleflight.Group
}

// NewVersionSource creates a version source. mirrors is the directory bare
// repository mirrors are kept under; it is created on first use.
func NewVersionSource(git Transport, cache *VersionCache, mirrors string) *VersionSource {
	return &VersionSource{git: git, cache: cache, mirrors: mirrors}
}

// VersionsFor returns the stream of id's available semantic versions.
//
// The stream is cold: each subscription first consults the version cache on
// the cache's scheduler and, if the project is unknown, clones or fetches
// the project's mirror (single-flight across concurrent subscriptions),
// scans its tag listing in reverse line order, and emits every tag that
// parses as a semantic version. Tags that do not parse are skipped. Each
// parsed version is appended to the cache before it is emitted downstream.
//
// Emission order follows the scan, not version order; callers wanting
// sorted candidates sort explicitly.
func (s *VersionSource) VersionsFor(id project.Identifier) stream.Stream[semver.Version] {
	cached := stream.SubscribeOn(stream.New(func(ctx context.Context, emit func(semver.Version) error) error {
		// Runs on the cache scheduler via SubscribeOn.
		versions, ok := s.cache.lookup(ctx, id)
		if !ok {
			return errNotCached
		}
		observability.Cache().OnCacheHit(ctx, id.String())
		for _, v := range versions {
			if err := emit(v); err != nil {
				return err
			}
		}
		return nil
	}), s.cache.Scheduler())

	return stream.CatchError(cached, func(err error) stream.Stream[semver.Version] {
		if err != errNotCached {
			return stream.Fail[semver.Version](err)
		}
		return s.discover(id)
	})
}

// discover produces versions from the project's repository: ensure the
// mirror, list tags, parse, record, emit.
func (s *VersionSource) discover(id project.Identifier) stream.Stream[semver.Version] {
	return stream.New(func(ctx context.Context, emit func(semver.Version) error) error {
		observability.Cache().OnCacheMiss(ctx, id.String())
		if err := s.ensureMirror(ctx, id); err != nil {
			return err
		}

		listing, err := s.git.ListTags(ctx, s.MirrorPath(id))
		if err != nil {
			return err
		}

		lines := strings.Split(listing, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			tag := strings.TrimSpace(lines[i])
			if tag == "" {
				continue
			}
			v, err := semver.Parse(tag)
			if err != nil {
				// Not a release tag; skip it without failing the stream.
				continue
			}
			if err := s.cache.append(ctx, id, v); err != nil {
				return err
			}
			if err := emit(v); err != nil {
				return err
			}
		}
		return s.cache.markComplete(ctx, id)
	})
}

// ensureMirror makes sure a bare mirror of id exists and is up to date.
// Concurrent callers for the same project are collapsed into one clone or
// fetch; the directory-existence check only decides which of the two to
// run, it is not the synchronization mechanism.
func (s *VersionSource) ensureMirror(ctx context.Context, id project.Identifier) error {
	_, err, _ := s.group.Do(id.CloneURL(), func() (any, error) {
		dest := s.MirrorPath(id)
		if err := os.MkdirAll(s.mirrors, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRepository, err, "create mirror directory")
		}
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return nil, s.git.Clone(ctx, id.CloneURL(), dest)
		} else if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRepository, err, "stat mirror for %s", id)
		}
		return nil, s.git.Fetch(ctx, dest, id.CloneURL())
	})
	return err
}

// MirrorPath returns the mirror directory for id. The short name keeps
// paths readable; the URL hash keeps same-named projects apart.
func (s *VersionSource) MirrorPath(id project.Identifier) string {
	return MirrorPath(s.mirrors, id)
}
