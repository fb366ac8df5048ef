package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ballast-sh/ballast/pkg/cache"
	"github.com/ballast-sh/ballast/pkg/errors"
	"github.com/ballast-sh/ballast/pkg/project"
	"github.com/ballast-sh/ballast/pkg/semver"
	"github.com/ballast-sh/ballast/pkg/stream"
)

// MirrorPath returns the bare mirror directory for id under the mirrors
// root. The short name keeps paths readable; the clone-URL hash keeps
// same-named projects apart.
func MirrorPath(mirrors string, id project.Identifier) string {
	short := cache.Hash([]byte(id.CloneURL()))[:12]
	return filepath.Join(mirrors, fmt.Sprintf("%s-%s.git", id.Name(), short))
}

// ManifestSource produces the dependency manifest a project declares at a
// pinned candidate version.
type ManifestSource struct {
	git     Transport
	mirrors string
}

// NewManifestSource creates a manifest source reading from the same mirror
// directory the version source populates.
func NewManifestSource(git Transport, mirrors string) *ManifestSource {
	return &ManifestSource{git: git, mirrors: mirrors}
}

// ManifestFor returns a stream carrying the manifest dep's project declares
// at dep's version.
//
// A project with no manifest file at that revision is not an error: the
// read failure is classified MISSING_MANIFEST and downgraded, so the stream
// completes with zero emissions, meaning "no further dependencies". A
// manifest that exists but does not parse is a failure.
func (s *ManifestSource) ManifestFor(dep project.Dependency[semver.Version]) stream.Stream[*project.Manifest] {
	read := stream.New(func(ctx context.Context, emit func(*project.Manifest) error) error {
		dir := MirrorPath(s.mirrors, dep.Project)
		text, err := s.git.ReadFileAtRevision(ctx, dir, dep.Version.Tag(), project.ManifestFileName)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(errors.ErrCodeMissingManifest, err, "no %s in %s at %s",
				project.ManifestFileName, dep.Project, dep.Version.Tag())
		}
		m, err := project.ParseManifest([]byte(text))
		if err != nil {
			return err
		}
		return emit(m)
	})

	return stream.CatchError(read, func(err error) stream.Stream[*project.Manifest] {
		if errors.Is(err, errors.ErrCodeMissingManifest) {
			return stream.Empty[*project.Manifest]()
		}
		return stream.Fail[*project.Manifest](err)
	})
}
