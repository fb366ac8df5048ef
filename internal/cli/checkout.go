package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ballast-sh/ballast/pkg/errors"
	"github.com/ballast-sh/ballast/pkg/project"
	"github.com/ballast-sh/ballast/pkg/source"
	"github.com/ballast-sh/ballast/pkg/workspace"
)

// checkoutOpts holds the command-line flags for the checkout command.
type checkoutOpts struct {
	dir   string
	force bool // replace existing working copies
}

// checkoutCommand creates the checkout command.
func (c *CLI) checkoutCommand() *cobra.Command {
	var opts checkoutOpts

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Materialize working copies of the locked dependencies",
		Long: `Checkout reads Ballast.lock and places a detached working copy of every
pinned project under Checkouts/, one directory per project. Working copies
are created sequentially from the local repository mirrors; existing
directories are left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheckout(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "project", "p", ".", "project directory")
	cmd.Flags().BoolVar(&opts.force, "force", false, "replace existing working copies")
	return cmd
}

func (c *CLI) runCheckout(ctx context.Context, opts checkoutOpts) error {
	s, err := c.newSession(opts.dir, false)
	if err != nil {
		return err
	}
	defer s.Close()

	lock, err := project.LoadLockSet(s.ws.LockPath())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.ws.CheckoutsDir(), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeRepository, err, "create %s", s.ws.CheckoutsDir())
	}

	prog := newProgress(c.Logger)
	placed := 0
	for _, dep := range lock {
		dest := s.ws.CheckoutPath(dep.Project)
		if _, err := os.Stat(dest); err == nil {
			if !opts.force {
				printDetail("%s exists, skipping (use --force to replace)", dest)
				continue
			}
			if err := os.RemoveAll(dest); err != nil {
				return errors.Wrap(errors.ErrCodeRepository, err, "remove %s", dest)
			}
		}

		if err := c.checkoutOne(ctx, s, dep, dest); err != nil {
			return err
		}
		placed++
		printFile(dest)
	}
	prog.done(fmt.Sprintf("Checked out %d of %d projects", placed, len(lock)))
	printSuccess("%d working copies under %s", placed, s.ws.CheckoutsDir())
	return nil
}

// checkoutOne clones dep's mirror into dest at the pinned revision, cloning
// the mirror itself first if this machine has never resolved the project.
func (c *CLI) checkoutOne(ctx context.Context, s *session, dep project.Dependency[project.PinnedVersion], dest string) error {
	mirrors, err := workspace.MirrorsDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(mirrors, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeRepository, err, "create mirror directory")
	}
	mirror := source.MirrorPath(mirrors, dep.Project)
	if _, err := os.Stat(mirror); os.IsNotExist(err) {
		c.Logger.Debugf("Mirror for %s missing, cloning", dep.Project)
		spinner := newSpinner(ctx, fmt.Sprintf("Cloning %s", dep.Project))
		spinner.Start()
		if err := s.git.Clone(ctx, dep.Project.CloneURL(), mirror); err != nil {
			spinner.StopWithError("Clone of %s failed", dep.Project)
			return err
		}
		spinner.Stop()
	}
	return s.git.Checkout(ctx, mirror, string(dep.Version), dest)
}
