package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ballast-sh/ballast/pkg/observability"
)

// logHooks surfaces resolver, cache, and git activity through the CLI
// logger at debug level, so --verbose shows the full resolution trace.
type logHooks struct {
	logger *log.Logger
}

// installHooks registers logging observability hooks backed by c.Logger.
func (c *CLI) installHooks() {
	h := logHooks{logger: c.Logger}
	observability.SetResolverHooks(h)
	observability.SetCacheHooks(h)
	observability.SetVCSHooks(h)
}

func (h logHooks) OnResolveStart(_ context.Context, rootDependencies int) {
	h.logger.Debugf("Resolving %d root dependencies", rootDependencies)
}

func (h logHooks) OnProjectSettled(_ context.Context, project, version string) {
	h.logger.Debugf("Settled %s at %s", project, version)
}

func (h logHooks) OnBacktrack(_ context.Context, project, version string) {
	h.logger.Debugf("Backtracking from %s %s", project, version)
}

func (h logHooks) OnResolveComplete(_ context.Context, settled int, elapsed time.Duration, err error) {
	if err != nil {
		h.logger.Debugf("Resolution failed after %s: %v", elapsed.Round(time.Millisecond), err)
		return
	}
	h.logger.Debugf("Resolution settled %d projects in %s", settled, elapsed.Round(time.Millisecond))
}

func (h logHooks) OnCacheHit(_ context.Context, project string) {
	h.logger.Debugf("Version cache hit for %s", project)
}

func (h logHooks) OnCacheMiss(_ context.Context, project string) {
	h.logger.Debugf("Version cache miss for %s", project)
}

func (h logHooks) OnCacheSet(_ context.Context, project string, versions int) {
	h.logger.Debugf("Cached %d versions for %s", versions, project)
}

func (h logHooks) OnCommandStart(_ context.Context, subcommand, target string) {
	h.logger.Debugf("git %s %s", subcommand, target)
}

func (h logHooks) OnCommandComplete(_ context.Context, subcommand, target string, elapsed time.Duration, err error) {
	if err != nil {
		h.logger.Debugf("git %s %s failed after %s: %v", subcommand, target, elapsed.Round(time.Millisecond), err)
		return
	}
	h.logger.Debugf("git %s %s finished in %s", subcommand, target, elapsed.Round(time.Millisecond))
}
