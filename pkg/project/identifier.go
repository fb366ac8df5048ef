// Package project models project identity, dependency declarations, and the
// manifest and lock file formats.
//
// A project's manifest (Ballast.toml) declares the projects it depends on and
// the version constraint for each. The resolver turns a manifest into a lock
// set (Ballast.lock) pinning every transitively reachable project to one tag.
package project

import (
	"fmt"
	"path"
	"strings"

	"github.com/ballast-sh/ballast/pkg/errors"
)

// Kind discriminates the upstream location variants of an Identifier.
type Kind int

const (
	// KindGitHub identifies a repository hosted on github.com by owner/name.
	KindGitHub Kind = iota
	// KindGit identifies a repository by a raw git clone URL.
	KindGit
)

// Identifier names a dependency's upstream repository. It is an immutable
// value type, comparable with ==, and usable as a map key.
type Identifier struct {
	kind  Kind
	owner string // KindGitHub
	name  string // KindGitHub
	url   string // KindGit
}

// GitHub creates an identifier for a github.com repository.
func GitHub(owner, name string) Identifier {
	return Identifier{kind: KindGitHub, owner: owner, name: name}
}

// Git creates an identifier for a repository at a raw clone URL.
func Git(url string) Identifier {
	return Identifier{kind: KindGit, url: url}
}

// ParseGitHub parses an "owner/name" reference.
func ParseGitHub(ref string) (Identifier, error) {
	owner, name, ok := strings.Cut(ref, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Identifier{}, errors.New(errors.ErrCodeInvalidProject, "invalid github reference %q (want owner/name)", ref)
	}
	return GitHub(owner, name), nil
}

// Kind returns the location variant.
func (id Identifier) Kind() Kind { return id.kind }

// CloneURL returns the URL git should clone from.
func (id Identifier) CloneURL() string {
	if id.kind == KindGitHub {
		return fmt.Sprintf("https://github.com/%s/%s.git", id.owner, id.name)
	}
	return id.url
}

// String returns the display name used in progress messages:
// "owner/name" for github projects, the clone URL otherwise.
func (id Identifier) String() string {
	if id.kind == KindGitHub {
		return id.owner + "/" + id.name
	}
	return id.url
}

// Name returns the short repository name, used for mirror and checkout
// directory names.
func (id Identifier) Name() string {
	if id.kind == KindGitHub {
		return id.name
	}
	return strings.TrimSuffix(path.Base(id.url), ".git")
}

// Dependency pairs a project with a version value. V is a semver.Specifier
// while the dependency is unresolved, a semver.Version during resolution, and
// a PinnedVersion in the lock set. The structural shape is identical across
// all three stages; only the version field's meaning changes.
type Dependency[V any] struct {
	Project Identifier
	Version V
}

// PinnedVersion is an opaque repository tag selected as a dependency's exact
// version: the unit the git transport returns and the lock file records.
type PinnedVersion string
