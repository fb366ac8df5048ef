package project

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ballast-sh/ballast/pkg/errors"
)

func TestIdentifierGitHub(t *testing.T) {
	id, err := ParseGitHub("octo/widgets")
	if err != nil {
		t.Fatalf("ParseGitHub: %v", err)
	}
	if id.String() != "octo/widgets" {
		t.Errorf("String() = %q", id.String())
	}
	if id.CloneURL() != "https://github.com/octo/widgets.git" {
		t.Errorf("CloneURL() = %q", id.CloneURL())
	}
	if id.Name() != "widgets" {
		t.Errorf("Name() = %q", id.Name())
	}

	// Identifiers are comparable map keys.
	m := map[Identifier]int{id: 1}
	if m[GitHub("octo", "widgets")] != 1 {
		t.Error("equal identifiers should hash to the same key")
	}
}

func TestParseGitHubInvalid(t *testing.T) {
	for _, ref := range []string{"", "octo", "octo/", "/widgets", "a/b/c"} {
		if _, err := ParseGitHub(ref); err == nil {
			t.Errorf("ParseGitHub(%q) should fail", ref)
		}
	}
}

func TestIdentifierGit(t *testing.T) {
	id := Git("https://example.com/deep/lib.git")
	if id.CloneURL() != "https://example.com/deep/lib.git" {
		t.Errorf("CloneURL() = %q", id.CloneURL())
	}
	if id.Name() != "lib" {
		t.Errorf("Name() = %q", id.Name())
	}
}

const sampleManifest = `
[github]
"octo/widgets" = "~> 1.2.0"
"octo/gears" = "any"

[git]
"https://example.com/lib.git" = ">= 1.0.0"
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(m.Dependencies) != 3 {
		t.Fatalf("got %d dependencies, want 3", len(m.Dependencies))
	}

	// File order is preserved.
	wantOrder := []string{"octo/widgets", "octo/gears", "https://example.com/lib.git"}
	for i, want := range wantOrder {
		if got := m.Dependencies[i].Project.String(); got != want {
			t.Errorf("Dependencies[%d] = %s, want %s", i, got, want)
		}
	}
	if got := m.Dependencies[0].Version.String(); got != "~> 1.2.0" {
		t.Errorf("widgets specifier = %q", got)
	}
	if got := m.Dependencies[1].Version.String(); got != "any" {
		t.Errorf("gears specifier = %q", got)
	}
}

func TestParseManifestDuplicate(t *testing.T) {
	data := `
[github]
"octo/widgets" = "any"

[git]
"https://github.com/octo/widgets.git" = "any"
`
	// Same repo through different sources is fine; literal duplicates are not.
	if _, err := ParseManifest([]byte(data)); err != nil {
		t.Errorf("distinct identifiers should parse: %v", err)
	}

	dup := `
[github]
"octo/widgets" = "any"
"octo/widgets" = ">= 1.0.0"
`
	if _, err := ParseManifest([]byte(dup)); err == nil {
		t.Error("duplicate dependency should fail")
	}
}

func TestParseManifestMalformed(t *testing.T) {
	cases := []string{
		"[github]\n\"octo/widgets\" = \"not a specifier\"",
		"[teeth]\n\"octo/widgets\" = \"any\"",
		"not toml at all [",
	}
	for _, data := range cases {
		if _, err := ParseManifest([]byte(data)); err == nil {
			t.Errorf("ParseManifest(%q) should fail", data)
		}
	}
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), ManifestFileName))
	if !errors.Is(err, errors.ErrCodeNoManifestFound) {
		t.Errorf("missing manifest error code = %q, want NO_MANIFEST_FOUND", errors.GetCode(err))
	}
}

func TestLockSetRoundTrip(t *testing.T) {
	ls := LockSet{
		{Project: GitHub("octo", "widgets"), Version: "v1.2.3"},
		{Project: Git("https://example.com/lib.git"), Version: "release-2.0.0"},
	}

	var buf bytes.Buffer
	if err := ls.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), `github = "octo/widgets"`) {
		t.Errorf("encoded lock missing github entry:\n%s", buf.String())
	}

	decoded, err := ParseLockSet(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseLockSet: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("got %d entries, want 2", len(decoded))
	}
	if decoded[0].Project != GitHub("octo", "widgets") || decoded[0].Version != "v1.2.3" {
		t.Errorf("entry 0 = %+v", decoded[0])
	}
	if decoded[1].Project.Kind() != KindGit || decoded[1].Version != "release-2.0.0" {
		t.Errorf("entry 1 = %+v", decoded[1])
	}
}

func TestLockSetWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)
	ls := LockSet{{Project: GitHub("octo", "widgets"), Version: "v1.0.0"}}
	if err := ls.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := LoadLockSet(path)
	if err != nil {
		t.Fatalf("LoadLockSet: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Version != "v1.0.0" {
		t.Errorf("loaded = %+v", loaded)
	}
}
