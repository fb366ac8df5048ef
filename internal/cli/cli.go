// Package cli implements the ballast command-line interface.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ballast-sh/ballast/pkg/buildinfo"
	"github.com/ballast-sh/ballast/pkg/cache"
	"github.com/ballast-sh/ballast/pkg/resolver"
	"github.com/ballast-sh/ballast/pkg/source"
	"github.com/ballast-sh/ballast/pkg/vcs"
	"github.com/ballast-sh/ballast/pkg/workspace"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "ballast"

	// versionsTTL bounds how long a persisted tag listing is trusted before
	// the repository is consulted again.
	versionsTTL = 6 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger and registers the
// logging observability hooks.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level)}
	c.installHooks()
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "ballast",
		Short:        "Ballast resolves and pins git-hosted project dependencies",
		Long:         `Ballast reads the dependency constraints declared in Ballast.toml, resolves a consistent set of pinned versions across the transitive dependency graph, and records it in Ballast.lock.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.outdatedCommand())
	root.AddCommand(c.checkoutCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Session Factory
// =============================================================================

// session wires the workspace, git transport, caches, and sources a command
// needs. The caller owns it and must Close it.
type session struct {
	ws        *workspace.Workspace
	git       *vcs.Git
	cache     *source.VersionCache
	versions  *source.VersionSource
	manifests *source.ManifestSource
}

// newSession builds a session for the project in dir. With noCache the
// persistent version-listing cache is bypassed; the in-memory cache and the
// repository mirrors are always used.
func (c *CLI) newSession(dir string, noCache bool) (*session, error) {
	ws, err := workspace.Open(dir)
	if err != nil {
		return nil, err
	}
	mirrors, err := workspace.MirrorsDir()
	if err != nil {
		return nil, err
	}

	git := vcs.NewGit()
	vcache := source.NewVersionCache(newPersistCache(noCache), versionsTTL)
	return &session{
		ws:        ws,
		git:       git,
		cache:     vcache,
		versions:  source.NewVersionSource(git, vcache, mirrors),
		manifests: source.NewManifestSource(git, mirrors),
	}, nil
}

func (s *session) Close() {
	s.cache.Close()
}

// resolver returns a resolver over the session's sources.
func (s *session) resolver() *resolver.Resolver {
	return resolver.New(s.versions, s.manifests)
}

func newPersistCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := workspace.VersionsCacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}
