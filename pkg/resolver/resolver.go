// Package resolver selects one pinned version per project such that every
// constraint in the transitive manifest graph is satisfied.
//
// The search is a depth-first constraint propagation with explicit
// backtracking: each time a project is settled on a candidate version, a
// choice point records the remaining candidates and a snapshot of the
// search state. A downstream conflict rewinds to the most recent choice
// point with candidates left and tries the next-highest version.
package resolver

import (
	"context"
	"time"

	"github.com/ballast-sh/ballast/pkg/errors"
	"github.com/ballast-sh/ballast/pkg/observability"
	"github.com/ballast-sh/ballast/pkg/project"
	"github.com/ballast-sh/ballast/pkg/semver"
	"github.com/ballast-sh/ballast/pkg/stream"
)

// VersionSource supplies the available versions of a project.
type VersionSource interface {
	VersionsFor(id project.Identifier) stream.Stream[semver.Version]
}

// ManifestSource supplies the manifest a project declares at a version.
// An absent manifest completes the stream with zero emissions.
type ManifestSource interface {
	ManifestFor(dep project.Dependency[semver.Version]) stream.Stream[*project.Manifest]
}

// Resolver computes consistent dependency sets from a root manifest.
type Resolver struct {
	versions  VersionSource
	manifests ManifestSource
}

// New creates a resolver over the given sources.
func New(versions VersionSource, manifests ManifestSource) *Resolver {
	return &Resolver{versions: versions, manifests: manifests}
}

// Resolve returns a stream of the pinned dependency set satisfying root and
// every transitively reachable manifest. Each distinct project appears
// exactly once, pinned to the tag its selected version was parsed from.
//
// The stream is cold: each subscription runs an independent resolution with
// its own candidate and manifest memos, so a retry after a transient
// repository failure re-reads the world. The full assignment is computed
// before the first emission; a conflict that survives backtracking fails
// the stream with an UnsatisfiableConstraint error naming the project.
func (r *Resolver) Resolve(root *project.Manifest) stream.Stream[project.Dependency[project.PinnedVersion]] {
	return stream.New(func(ctx context.Context, emit func(project.Dependency[project.PinnedVersion]) error) error {
		if root == nil {
			return errors.New(errors.ErrCodeNoManifestFound, "no root manifest to resolve")
		}

		start := time.Now()
		observability.Resolver().OnResolveStart(ctx, len(root.Dependencies))

		search := &run{
			versions:     r.versions,
			manifests:    r.manifests,
			candidates:   make(map[project.Identifier][]semver.Version),
			manifestMemo: make(map[manifestKey]*project.Manifest),
		}
		pinned, err := search.solve(ctx, root)
		observability.Resolver().OnResolveComplete(ctx, len(pinned), time.Since(start), err)
		if err != nil {
			return err
		}

		for _, dep := range pinned {
			if err := emit(dep); err != nil {
				return err
			}
		}
		return nil
	})
}

type manifestKey struct {
	project project.Identifier
	tag     string
}

// run holds the per-resolution memos. Candidate lists and manifests are
// fetched at most once per run no matter how often backtracking revisits a
// project.
type run struct {
	versions  VersionSource
	manifests ManifestSource

	candidates   map[project.Identifier][]semver.Version // descending
	manifestMemo map[manifestKey]*project.Manifest
}

// state is the mutable search position: the pending work list, the
// accumulated constraint per project, and the committed selections in the
// order they settled. Choice points snapshot it wholesale.
type state struct {
	queue       []project.Dependency[semver.Specifier]
	constraints map[project.Identifier]semver.Specifier
	selected    map[project.Identifier]semver.Version
	order       []project.Identifier
}

func newState(root *project.Manifest) *state {
	return &state{
		queue:       append([]project.Dependency[semver.Specifier](nil), root.Dependencies...),
		constraints: make(map[project.Identifier]semver.Specifier),
		selected:    make(map[project.Identifier]semver.Version),
		order:       nil,
	}
}

func (s *state) clone() *state {
	constraints := make(map[project.Identifier]semver.Specifier, len(s.constraints))
	for k, v := range s.constraints {
		constraints[k] = v
	}
	selected := make(map[project.Identifier]semver.Version, len(s.selected))
	for k, v := range s.selected {
		selected[k] = v
	}
	return &state{
		queue:       append([]project.Dependency[semver.Specifier](nil), s.queue...),
		constraints: constraints,
		selected:    selected,
		order:       append([]project.Identifier(nil), s.order...),
	}
}

// choicePoint records an alternative left open when a project was settled:
// the candidates not yet tried and the search state as it was immediately
// before the selection, with the triggering constraint already merged.
type choicePoint struct {
	project   project.Identifier
	remaining []semver.Version
	saved     *state
}

// solve runs the search to completion and returns the pinned selections in
// settle order.
func (r *run) solve(ctx context.Context, root *project.Manifest) ([]project.Dependency[project.PinnedVersion], error) {
	st := newState(root)
	var stack []*choicePoint
	var lastConflict *errors.UnsatisfiableError

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(st.queue) == 0 {
			return pin(st), nil
		}

		dep := st.queue[0]
		st.queue = st.queue[1:]

		existing, constrained := st.constraints[dep.Project]
		if !constrained {
			existing = semver.Any{}
		}
		merged, ok := semver.Intersect(existing, dep.Version)
		if !ok {
			lastConflict = conflict(dep.Project, existing, dep.Version)
			next, err := r.backtrack(ctx, &st, &stack)
			if err != nil {
				return nil, err
			}
			if !next {
				return nil, unsatisfiable(lastConflict)
			}
			continue
		}
		st.constraints[dep.Project] = merged

		if chosen, settled := st.selected[dep.Project]; settled {
			// Already committed on this path; the new constraint either
			// tolerates the committed version or the commitment was wrong.
			if merged.SatisfiedBy(chosen) {
				continue
			}
			lastConflict = conflict(dep.Project, merged)
			next, err := r.backtrack(ctx, &st, &stack)
			if err != nil {
				return nil, err
			}
			if !next {
				return nil, unsatisfiable(lastConflict)
			}
			continue
		}

		candidates, err := r.candidatesFor(ctx, dep.Project)
		if err != nil {
			return nil, err
		}
		viable := filter(candidates, merged)
		if len(viable) == 0 {
			lastConflict = conflict(dep.Project, merged)
			next, err := r.backtrack(ctx, &st, &stack)
			if err != nil {
				return nil, err
			}
			if !next {
				return nil, unsatisfiable(lastConflict)
			}
			continue
		}

		stack = append(stack, &choicePoint{
			project:   dep.Project,
			remaining: viable[1:],
			saved:     st.clone(),
		})
		if err := r.commit(ctx, st, dep.Project, viable[0]); err != nil {
			return nil, err
		}
	}
}

// commit settles id on v: record the selection, fetch v's manifest, and
// push its dependencies onto the front of the queue so the subtree is
// explored before the remaining siblings.
//
// Committing before recursing is what makes cycles terminate: a project
// reached again through its own transitive manifests is already selected
// and only gets a satisfiability check.
func (r *run) commit(ctx context.Context, st *state, id project.Identifier, v semver.Version) error {
	st.selected[id] = v
	st.order = append(st.order, id)
	observability.Resolver().OnProjectSettled(ctx, id.String(), v.Tag())

	m, err := r.manifestFor(ctx, id, v)
	if err != nil {
		return err
	}
	if m != nil && len(m.Dependencies) > 0 {
		queue := make([]project.Dependency[semver.Specifier], 0, len(m.Dependencies)+len(st.queue))
		queue = append(queue, m.Dependencies...)
		st.queue = append(queue, st.queue...)
	}
	return nil
}

// backtrack rewinds to the most recent choice point with candidates left,
// restores its snapshot, and commits the next-highest candidate. It returns
// false when every alternative is exhausted.
func (r *run) backtrack(ctx context.Context, st **state, stack *[]*choicePoint) (bool, error) {
	for len(*stack) > 0 {
		cp := (*stack)[len(*stack)-1]
		if len(cp.remaining) == 0 {
			*stack = (*stack)[:len(*stack)-1]
			continue
		}
		if abandoned, ok := (*st).selected[cp.project]; ok {
			observability.Resolver().OnBacktrack(ctx, cp.project.String(), abandoned.Tag())
		}

		next := cp.remaining[0]
		cp.remaining = cp.remaining[1:]
		*st = cp.saved.clone()
		if err := r.commit(ctx, *st, cp.project, next); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// candidatesFor fetches and memoizes id's versions, highest first.
func (r *run) candidatesFor(ctx context.Context, id project.Identifier) ([]semver.Version, error) {
	if versions, ok := r.candidates[id]; ok {
		return versions, nil
	}
	versions, err := stream.Collect(ctx, r.versions.VersionsFor(id))
	if err != nil {
		return nil, err
	}
	semver.SortDescending(versions)
	r.candidates[id] = versions
	return versions, nil
}

// manifestFor fetches and memoizes the manifest id declares at v. A nil
// manifest means the revision declares no dependencies.
func (r *run) manifestFor(ctx context.Context, id project.Identifier, v semver.Version) (*project.Manifest, error) {
	key := manifestKey{project: id, tag: v.Tag()}
	if m, ok := r.manifestMemo[key]; ok {
		return m, nil
	}
	emitted, err := stream.Collect(ctx, r.manifests.ManifestFor(project.Dependency[semver.Version]{
		Project: id,
		Version: v,
	}))
	if err != nil {
		return nil, err
	}
	var m *project.Manifest
	if len(emitted) > 0 {
		m = emitted[0]
	}
	r.manifestMemo[key] = m
	return m, nil
}

func filter(versions []semver.Version, spec semver.Specifier) []semver.Version {
	out := make([]semver.Version, 0, len(versions))
	for _, v := range versions {
		if spec.SatisfiedBy(v) {
			out = append(out, v)
		}
	}
	return out
}

func pin(st *state) []project.Dependency[project.PinnedVersion] {
	out := make([]project.Dependency[project.PinnedVersion], 0, len(st.order))
	for _, id := range st.order {
		out = append(out, project.Dependency[project.PinnedVersion]{
			Project: id,
			Version: project.PinnedVersion(st.selected[id].Tag()),
		})
	}
	return out
}

func conflict(id project.Identifier, specs ...semver.Specifier) *errors.UnsatisfiableError {
	return &errors.UnsatisfiableError{
		Project:    id.String(),
		Specifiers: semver.Describe(specs...),
	}
}

func unsatisfiable(last *errors.UnsatisfiableError) error {
	if last == nil {
		last = &errors.UnsatisfiableError{Project: "unknown"}
	}
	return errors.Wrap(errors.ErrCodeUnsatisfiable, last, "dependency resolution failed")
}
