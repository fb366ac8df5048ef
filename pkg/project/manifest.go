package project

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ballast-sh/ballast/pkg/errors"
	"github.com/ballast-sh/ballast/pkg/semver"
)

// ManifestFileName is the manifest file looked up at a project's root and at
// each tagged revision of its dependencies.
const ManifestFileName = "Ballast.toml"

// Manifest is an ordered list of a project's declared dependency specifiers.
// A project appears at most once. Insertion order follows the manifest file
// and is preserved for deterministic fetch ordering; it does not affect
// resolution correctness.
type Manifest struct {
	Dependencies []Dependency[semver.Specifier]
}

// manifestFile is the TOML shape of Ballast.toml:
//
//	[github]
//	"octo/widgets" = "~> 1.2.0"
//
//	[git]
//	"https://example.com/lib.git" = ">= 1.0.0"
type manifestFile struct {
	GitHub map[string]string `toml:"github"`
	Git    map[string]string `toml:"git"`
}

// ParseManifest decodes manifest text. Dependency order follows the order
// entries appear in the file. A project listed twice is an error.
func ParseManifest(data []byte) (*Manifest, error) {
	var mf manifestFile
	md, err := toml.Decode(string(data), &mf)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "malformed manifest")
	}

	m := &Manifest{}
	seen := make(map[Identifier]bool)

	// md.Keys returns keys in file order, giving the manifest its
	// deterministic dependency ordering.
	for _, key := range md.Keys() {
		if len(key) != 2 {
			continue
		}
		table, ref := key[0], key[1]

		var id Identifier
		var raw string
		switch table {
		case "github":
			id, err = ParseGitHub(ref)
			if err != nil {
				return nil, err
			}
			raw = mf.GitHub[ref]
		case "git":
			id = Git(ref)
			raw = mf.Git[ref]
		default:
			return nil, errors.New(errors.ErrCodeInvalidManifest, "unknown dependency source %q", table)
		}

		if seen[id] {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "duplicate dependency %s", id)
		}
		seen[id] = true

		spec, err := semver.ParseSpecifier(raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "dependency %s", id)
		}
		m.Dependencies = append(m.Dependencies, Dependency[semver.Specifier]{Project: id, Version: spec})
	}
	return m, nil
}

// LoadManifest reads and parses the manifest at path. A missing file is a
// NO_MANIFEST_FOUND error: resolution cannot start without a root manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNoManifestFound, "no %s at %s", ManifestFileName, path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRepository, err, "read %s", path)
	}
	return ParseManifest(data)
}
