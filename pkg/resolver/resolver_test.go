package resolver

import (
	"context"
	"sync"
	"testing"

	"github.com/ballast-sh/ballast/pkg/errors"
	"github.com/ballast-sh/ballast/pkg/project"
	"github.com/ballast-sh/ballast/pkg/semver"
	"github.com/ballast-sh/ballast/pkg/stream"
)

// world is an in-memory pair of sources describing a fixed dependency
// graph. Version listings count how often they are enumerated so tests can
// assert memoization.
type world struct {
	mu        sync.Mutex
	versions  map[project.Identifier][]string // tags in emission order
	manifests map[string]*project.Manifest    // "owner/name@tag"
	listings  map[project.Identifier]int
}

func newWorld() *world {
	return &world{
		versions:  make(map[project.Identifier][]string),
		manifests: make(map[string]*project.Manifest),
		listings:  make(map[project.Identifier]int),
	}
}

func (w *world) addVersions(ref string, tags ...string) {
	w.versions[gh(ref)] = tags
}

func (w *world) addManifest(ref, tag string, deps ...project.Dependency[semver.Specifier]) {
	w.manifests[ref+"@"+tag] = &project.Manifest{Dependencies: deps}
}

func (w *world) VersionsFor(id project.Identifier) stream.Stream[semver.Version] {
	return stream.New(func(ctx context.Context, emit func(semver.Version) error) error {
		w.mu.Lock()
		w.listings[id]++
		tags := w.versions[id]
		w.mu.Unlock()
		for _, tag := range tags {
			v, err := semver.Parse(tag)
			if err != nil {
				continue
			}
			if err := emit(v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *world) ManifestFor(dep project.Dependency[semver.Version]) stream.Stream[*project.Manifest] {
	return stream.New(func(ctx context.Context, emit func(*project.Manifest) error) error {
		w.mu.Lock()
		m := w.manifests[dep.Project.String()+"@"+dep.Version.Tag()]
		w.mu.Unlock()
		if m == nil {
			return nil
		}
		return emit(m)
	})
}

func gh(ref string) project.Identifier {
	id, err := project.ParseGitHub(ref)
	if err != nil {
		panic(err)
	}
	return id
}

func dep(ref, spec string) project.Dependency[semver.Specifier] {
	s, err := semver.ParseSpecifier(spec)
	if err != nil {
		panic(err)
	}
	return project.Dependency[semver.Specifier]{Project: gh(ref), Version: s}
}

func manifest(deps ...project.Dependency[semver.Specifier]) *project.Manifest {
	return &project.Manifest{Dependencies: deps}
}

func resolve(t *testing.T, w *world, root *project.Manifest) map[string]string {
	t.Helper()
	got, err := stream.Collect(context.Background(), New(w, w).Resolve(root))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	pins := make(map[string]string, len(got))
	for _, d := range got {
		if _, dup := pins[d.Project.String()]; dup {
			t.Errorf("project %s emitted more than once", d.Project)
		}
		pins[d.Project.String()] = string(d.Version)
	}
	return pins
}

func TestResolveEndToEnd(t *testing.T) {
	w := newWorld()
	w.addVersions("octo/a", "v1.0.0", "v1.1.0")
	w.addVersions("octo/b", "v1.0.0")
	w.addManifest("octo/a", "v1.1.0", dep("octo/b", ">= 1.0.0"))

	pins := resolve(t, w, manifest(dep("octo/a", "any")))

	want := map[string]string{"octo/a": "v1.1.0", "octo/b": "v1.0.0"}
	if len(pins) != len(want) {
		t.Fatalf("pins = %v, want %v", pins, want)
	}
	for ref, tag := range want {
		if pins[ref] != tag {
			t.Errorf("%s pinned to %s, want %s", ref, pins[ref], tag)
		}
	}
}

func TestResolvePrefersHighestVersion(t *testing.T) {
	w := newWorld()
	w.addVersions("octo/a", "v1.0.0", "v3.0.0", "v2.0.0")

	pins := resolve(t, w, manifest(dep("octo/a", "any")))
	if pins["octo/a"] != "v3.0.0" {
		t.Errorf("pinned %s, want v3.0.0", pins["octo/a"])
	}
}

func TestResolveUnsatisfiableNamesProject(t *testing.T) {
	w := newWorld()
	w.addVersions("octo/a", "v1.0.0")
	w.addVersions("octo/b", "v1.0.0")
	w.addVersions("octo/x", "v1.0.0", "v2.0.0")
	w.addManifest("octo/a", "v1.0.0", dep("octo/x", "== 1.0.0"))
	w.addManifest("octo/b", "v1.0.0", dep("octo/x", "== 2.0.0"))

	root := manifest(dep("octo/a", "any"), dep("octo/b", "any"))
	_, err := stream.Collect(context.Background(), New(w, w).Resolve(root))
	if !errors.Is(err, errors.ErrCodeUnsatisfiable) {
		t.Fatalf("err = %v, want UNSATISFIABLE_CONSTRAINT", err)
	}
	conflict, ok := errors.Unsatisfiable(err)
	if !ok {
		t.Fatal("error should carry the conflict details")
	}
	if conflict.Project != "octo/x" {
		t.Errorf("conflict names %s, want octo/x", conflict.Project)
	}
}

func TestResolveBacktracks(t *testing.T) {
	// Only x@2.0.0 is compatible with the sibling pin on y, so the search
	// must abandon 3.0.0 and settle on 2.0.0.
	w := newWorld()
	w.addVersions("octo/x", "v1.0.0", "v2.0.0", "v3.0.0")
	w.addVersions("octo/y", "v1.0.0", "v2.0.0")
	w.addManifest("octo/x", "v3.0.0", dep("octo/y", "== 2.0.0"))
	w.addManifest("octo/x", "v2.0.0", dep("octo/y", "== 1.0.0"))
	w.addManifest("octo/x", "v1.0.0", dep("octo/y", "== 1.0.0"))

	pins := resolve(t, w, manifest(dep("octo/x", "any"), dep("octo/y", "== 1.0.0")))
	if pins["octo/x"] != "v2.0.0" {
		t.Errorf("x pinned to %s, want v2.0.0", pins["octo/x"])
	}
	if pins["octo/y"] != "v1.0.0" {
		t.Errorf("y pinned to %s, want v1.0.0", pins["octo/y"])
	}
}

func TestResolveBacktracksMultipleLevels(t *testing.T) {
	// No version of b works with a@2.0.0; the search has to unwind past
	// b's own choice point back to a.
	w := newWorld()
	w.addVersions("octo/a", "v1.0.0", "v2.0.0")
	w.addVersions("octo/b", "v1.0.0", "v2.0.0")
	w.addVersions("octo/c", "v1.0.0", "v2.0.0")
	w.addManifest("octo/a", "v2.0.0", dep("octo/c", "== 2.0.0"))
	w.addManifest("octo/a", "v1.0.0", dep("octo/c", "== 1.0.0"))
	w.addManifest("octo/b", "v2.0.0", dep("octo/c", "== 1.0.0"))
	w.addManifest("octo/b", "v1.0.0", dep("octo/c", "== 1.0.0"))

	pins := resolve(t, w, manifest(dep("octo/a", "any"), dep("octo/b", "any")))
	if pins["octo/a"] != "v1.0.0" {
		t.Errorf("a pinned to %s, want v1.0.0", pins["octo/a"])
	}
	if pins["octo/c"] != "v1.0.0" {
		t.Errorf("c pinned to %s, want v1.0.0", pins["octo/c"])
	}
}

func TestResolveCycle(t *testing.T) {
	w := newWorld()
	w.addVersions("octo/a", "v1.0.0")
	w.addVersions("octo/b", "v1.0.0")
	w.addManifest("octo/a", "v1.0.0", dep("octo/b", "any"))
	w.addManifest("octo/b", "v1.0.0", dep("octo/a", "any"))

	pins := resolve(t, w, manifest(dep("octo/a", "any")))
	if len(pins) != 2 {
		t.Fatalf("pins = %v, want a and b exactly once each", pins)
	}
}

func TestResolveMissingManifestIsLeaf(t *testing.T) {
	w := newWorld()
	w.addVersions("octo/a", "v1.0.0")
	// No manifest registered for a@v1.0.0.

	pins := resolve(t, w, manifest(dep("octo/a", "any")))
	if pins["octo/a"] != "v1.0.0" {
		t.Errorf("pins = %v", pins)
	}
}

func TestResolveDeterministic(t *testing.T) {
	w := newWorld()
	w.addVersions("octo/a", "v1.0.0", "v1.2.0", "v1.1.0")
	w.addVersions("octo/b", "v2.0.0", "v2.1.0")
	w.addManifest("octo/a", "v1.2.0", dep("octo/b", "~> 2.0.0"))

	root := manifest(dep("octo/a", ">= 1.0.0"))
	first := resolve(t, w, root)
	second := resolve(t, w, root)
	if len(first) != len(second) {
		t.Fatalf("runs differ: %v vs %v", first, second)
	}
	for ref, tag := range first {
		if second[ref] != tag {
			t.Errorf("%s pinned to %s then %s", ref, tag, second[ref])
		}
	}
}

func TestResolveListsEachProjectOnce(t *testing.T) {
	// Backtracking revisits x repeatedly; the candidate memo must keep
	// that from re-enumerating versions.
	w := newWorld()
	w.addVersions("octo/x", "v1.0.0", "v2.0.0", "v3.0.0")
	w.addVersions("octo/y", "v1.0.0")
	w.addManifest("octo/x", "v3.0.0", dep("octo/y", "== 9.0.0"))
	w.addManifest("octo/x", "v2.0.0", dep("octo/y", "== 9.0.0"))
	w.addManifest("octo/x", "v1.0.0", dep("octo/y", "== 1.0.0"))

	pins := resolve(t, w, manifest(dep("octo/x", "any")))
	if pins["octo/x"] != "v1.0.0" {
		t.Errorf("x pinned to %s, want v1.0.0", pins["octo/x"])
	}
	for id, n := range w.listings {
		if n != 1 {
			t.Errorf("%s listed %d times, want 1", id, n)
		}
	}
}

func TestResolveSharedDependencyIntersects(t *testing.T) {
	// a and b both constrain c; the chosen version must satisfy both.
	w := newWorld()
	w.addVersions("octo/a", "v1.0.0")
	w.addVersions("octo/b", "v1.0.0")
	w.addVersions("octo/c", "v1.0.0", "v1.5.0", "v2.0.0")
	w.addManifest("octo/a", "v1.0.0", dep("octo/c", "~> 1.0.0"))
	w.addManifest("octo/b", "v1.0.0", dep("octo/c", ">= 1.2.0"))

	pins := resolve(t, w, manifest(dep("octo/a", "any"), dep("octo/b", "any")))
	if pins["octo/c"] != "v1.5.0" {
		t.Errorf("c pinned to %s, want v1.5.0", pins["octo/c"])
	}
}

func TestResolveNilRoot(t *testing.T) {
	w := newWorld()
	_, err := stream.Collect(context.Background(), New(w, w).Resolve(nil))
	if !errors.Is(err, errors.ErrCodeNoManifestFound) {
		t.Errorf("err = %v, want NO_MANIFEST_FOUND", err)
	}
}

func TestResolveEmptyRoot(t *testing.T) {
	w := newWorld()
	pins := resolve(t, w, manifest())
	if len(pins) != 0 {
		t.Errorf("pins = %v, want empty", pins)
	}
}

func TestResolveCancellation(t *testing.T) {
	w := newWorld()
	w.addVersions("octo/a", "v1.0.0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := stream.Collect(ctx, New(w, w).Resolve(manifest(dep("octo/a", "any"))))
	if err == nil {
		t.Error("cancelled resolution should fail")
	}
}
