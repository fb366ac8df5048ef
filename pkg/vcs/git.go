// Package vcs implements the version-control transport: cloning and
// updating bare repository mirrors, listing their tags, reading files at
// tagged revisions, and materializing working copies.
//
// All operations shell out to the git binary. Network operations (clone,
// fetch) are retried with exponential backoff when git's diagnostics point
// at a transient condition; permanent failures surface immediately.
package vcs

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/ballast-sh/ballast/pkg/errors"
	"github.com/ballast-sh/ballast/pkg/observability"
)

// Git invokes the git binary. The zero value is not usable; use NewGit.
type Git struct {
	binary string
}

// NewGit returns a Git transport using the "git" binary from PATH.
func NewGit() *Git {
	return &Git{binary: "git"}
}

// Clone creates a bare mirror of remoteURL at dest. The destination
// directory must not already contain a repository. Transient network
// failures are retried; a missing repository or refused credentials fail
// immediately.
func (g *Git) Clone(ctx context.Context, remoteURL, dest string) error {
	return RetryWithBackoff(ctx, func() error {
		_, err := g.run(ctx, remoteURL, "clone", "--bare", "--quiet", remoteURL, dest)
		return classify(err)
	})
}

// Fetch updates the mirror at dir from remoteURL, pruning tags that no
// longer exist upstream. Retried like Clone.
func (g *Git) Fetch(ctx context.Context, dir, remoteURL string) error {
	return RetryWithBackoff(ctx, func() error {
		_, err := g.run(ctx, dir, "-C", dir, "fetch", "--quiet", "--prune", remoteURL,
			"refs/tags/*:refs/tags/*")
		return classify(err)
	})
}

// ListTags lists all tags of the mirror at dir, one per line.
func (g *Git) ListTags(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "-C", dir, "tag", "--list")
}

// ReadFileAtRevision reads path's contents as of the tagged revision in the
// mirror at dir. A path that does not exist at that revision is an error;
// callers decide whether that is fatal.
func (g *Git) ReadFileAtRevision(ctx context.Context, dir, revision, path string) (string, error) {
	return g.run(ctx, dir, "-C", dir, "show", revision+":"+path)
}

// Checkout materializes a working copy of the mirror at the given revision.
// The mirror is cloned locally (cheap, object store is shared via hardlinks)
// and the revision checked out with a detached HEAD.
func (g *Git) Checkout(ctx context.Context, mirror, revision, dest string) error {
	if _, err := g.run(ctx, mirror, "clone", "--local", "--quiet", mirror, dest); err != nil {
		return err
	}
	_, err := g.run(ctx, dest, "-C", dest, "checkout", "--quiet", "--detach", revision)
	return err
}

// transientMarkers are stderr fragments git emits for failures worth
// retrying: name resolution, connectivity, and flaky-remote conditions.
// Anything else (missing repository, refused credentials, bad revision)
// is permanent and surfaces immediately.
var transientMarkers = []string{
	"could not resolve host",
	"connection refused",
	"connection reset",
	"connection timed out",
	"operation timed out",
	"timed out",
	"early eof",
	"the remote end hung up unexpectedly",
	"could not read from remote repository",
	"rpc failed",
	"temporarily unavailable",
	"service unavailable",
	"http 429",
	"http 502",
	"http 503",
	"http 504",
}

// classify marks err retryable when git's diagnostics point at a transient
// network condition. Nil and permanent errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return Retryable(err)
		}
	}
	return err
}

// run executes git with the given arguments, returning stdout. Failures are
// wrapped as REPOSITORY_ERROR with git's stderr included, since git writes
// the useful diagnostics there.
func (g *Git) run(ctx context.Context, target string, args ...string) (string, error) {
	sub := subcommand(args)
	start := time.Now()
	observability.VCS().OnCommandStart(ctx, sub, target)

	cmd := exec.CommandContext(ctx, g.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			err = errors.Wrap(errors.ErrCodeRepository, err, "git %s: %s",
				sub, strings.TrimSpace(stderr.String()))
		}
	}
	observability.VCS().OnCommandComplete(ctx, sub, target, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return stdout.String(), nil
}

// subcommand extracts the git subcommand from an argument list, skipping
// the -C <dir> prefix when present.
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-C" {
			i++
			continue
		}
		return args[i]
	}
	return "git"
}
