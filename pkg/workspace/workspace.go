// Package workspace defines the on-disk layout ballast works against: the
// project directory holding Ballast.toml and Ballast.lock, the Checkouts
// directory for working copies, and the per-user cache directory holding
// bare repository mirrors.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/ballast-sh/ballast/pkg/errors"
	"github.com/ballast-sh/ballast/pkg/project"
)

// CheckoutsDirName is the directory working copies are placed under,
// relative to the project directory.
const CheckoutsDirName = "Checkouts"

// appName names the per-user cache directory.
const appName = "ballast"

// Workspace is a project directory ballast operates in.
type Workspace struct {
	root string
}

// Open returns the workspace rooted at dir. An empty dir means the current
// directory. The directory is not required to contain a manifest yet.
func Open(dir string) (*Workspace, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProject, err, "resolve project directory %q", dir)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute project directory.
func (w *Workspace) Root() string { return w.root }

// ManifestPath returns the path of the project's Ballast.toml.
func (w *Workspace) ManifestPath() string {
	return filepath.Join(w.root, project.ManifestFileName)
}

// LockPath returns the path of the project's Ballast.lock.
func (w *Workspace) LockPath() string {
	return filepath.Join(w.root, project.LockFileName)
}

// CheckoutsDir returns the directory working copies belong under.
func (w *Workspace) CheckoutsDir() string {
	return filepath.Join(w.root, CheckoutsDirName)
}

// CheckoutPath returns the working-copy directory for a resolved project.
func (w *Workspace) CheckoutPath(id project.Identifier) string {
	return filepath.Join(w.CheckoutsDir(), id.Name())
}

// CacheDir returns the per-user cache directory (~/.cache/ballast),
// honoring XDG_CACHE_HOME.
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// MirrorsDir returns the directory bare repository mirrors live under.
func MirrorsDir() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mirrors"), nil
}

// VersionsCacheDir returns the directory the persistent version-listing
// cache stores its entries under.
func VersionsCacheDir() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "versions"), nil
}
