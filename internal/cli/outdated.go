package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ballast-sh/ballast/pkg/project"
	"github.com/ballast-sh/ballast/pkg/semver"
	"github.com/ballast-sh/ballast/pkg/stream"
)

// outdatedOpts holds the command-line flags for the outdated command.
type outdatedOpts struct {
	dir     string
	noCache bool
}

// outdatedCommand creates the outdated command.
func (c *CLI) outdatedCommand() *cobra.Command {
	var opts outdatedOpts

	cmd := &cobra.Command{
		Use:   "outdated",
		Short: "List pinned projects with newer satisfying versions",
		Long: `Outdated compares each entry of Ballast.lock against the versions its
repository offers today. A project is reported when a version newer than the
pinned one exists that still satisfies the constraint Ballast.toml declares
for it; projects pinned only transitively are checked against any version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOutdated(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "project", "p", ".", "project directory")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the persistent version cache")
	return cmd
}

func (c *CLI) runOutdated(ctx context.Context, opts outdatedOpts) error {
	s, err := c.newSession(opts.dir, opts.noCache)
	if err != nil {
		return err
	}
	defer s.Close()

	lock, err := project.LoadLockSet(s.ws.LockPath())
	if err != nil {
		return err
	}

	// Constraints declared at the root narrow what counts as an upgrade.
	constraints := make(map[project.Identifier]semver.Specifier)
	if manifest, err := project.LoadManifest(s.ws.ManifestPath()); err == nil {
		for _, dep := range manifest.Dependencies {
			constraints[dep.Project] = dep.Version
		}
	}

	outdated := 0
	for _, dep := range lock {
		pinned, err := semver.Parse(string(dep.Version))
		if err != nil {
			printWarning("%s is pinned to %s, which is not a semantic version", dep.Project, dep.Version)
			continue
		}

		available, err := stream.Collect(ctx, s.versions.VersionsFor(dep.Project))
		if err != nil {
			return err
		}
		semver.SortDescending(available)

		spec, declared := constraints[dep.Project]
		if !declared {
			spec = semver.Any{}
		}
		latest, ok := newestSatisfying(available, spec)
		if !ok || latest.Compare(pinned) <= 0 {
			c.Logger.Debugf("%s is up to date at %s", dep.Project, dep.Version)
			continue
		}
		outdated++
		printUpgrade(dep.Project.String(), pinned.Tag(), latest.Tag())
	}

	if outdated == 0 {
		printSuccess("All %d pinned projects are up to date", len(lock))
		return nil
	}
	printInfo("%d of %d pinned projects can be upgraded", outdated, len(lock))
	printNextStep("Re-resolve to upgrade", "ballast resolve")
	return nil
}

// newestSatisfying returns the highest of versions (sorted descending) that
// satisfies spec.
func newestSatisfying(versions []semver.Version, spec semver.Specifier) (semver.Version, bool) {
	for _, v := range versions {
		if spec.SatisfiedBy(v) {
			return v, true
		}
	}
	return semver.Version{}, false
}
