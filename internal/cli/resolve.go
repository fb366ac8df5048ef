package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ballast-sh/ballast/pkg/errors"
	"github.com/ballast-sh/ballast/pkg/project"
	"github.com/ballast-sh/ballast/pkg/stream"
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	dir     string // project directory holding Ballast.toml
	noCache bool   // bypass the persistent version cache
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var opts resolveOpts

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve dependency constraints and write Ballast.lock",
		Long: `Resolve reads Ballast.toml, computes a consistent set of pinned versions
across the transitive dependency graph, and writes it to Ballast.lock.

Repositories are mirrored under the ballast cache directory; run
"ballast cache path" to see where.

Examples:
  ballast resolve                 # Resolve the current directory's manifest
  ballast resolve -p ./my-app     # Resolve another project
  ballast resolve --no-cache      # Ignore previously cached version listings`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "project", "p", ".", "project directory")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the persistent version cache")
	return cmd
}

func (c *CLI) runResolve(ctx context.Context, opts resolveOpts) error {
	s, err := c.newSession(opts.dir, opts.noCache)
	if err != nil {
		return err
	}
	defer s.Close()

	manifest, err := project.LoadManifest(s.ws.ManifestPath())
	if err != nil {
		return err
	}
	c.Logger.Debugf("Loaded %s with %d declared dependencies", s.ws.ManifestPath(), len(manifest.Dependencies))

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Resolving dependencies")
	spinner.Start()

	resolved, err := stream.Collect(ctx, s.resolver().Resolve(manifest))
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("Resolution failed")
		if conflict, ok := errors.Unsatisfiable(err); ok {
			printDetail("project: %s", conflict.Project)
			for _, spec := range conflict.Specifiers {
				printDetail("constraint: %s", spec)
			}
		}
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Resolved %d projects", len(resolved)))

	lock := project.LockSet(resolved)
	if err := lock.WriteFile(s.ws.LockPath()); err != nil {
		return err
	}

	printSuccess("Pinned %d projects", len(lock))
	for _, dep := range lock {
		printPin(dep.Project.String(), string(dep.Version))
	}
	printFile(s.ws.LockPath())
	printNextStep("Fetch working copies", "ballast checkout")
	return nil
}
