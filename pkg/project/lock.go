package project

import (
	"bytes"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ballast-sh/ballast/pkg/errors"
)

// LockFileName is the persisted lock file written next to the manifest.
const LockFileName = "Ballast.lock"

// LockSet is the resolver's final output: one pinned entry per distinct
// transitively reachable project, in the order the resolver settled them.
type LockSet []Dependency[PinnedVersion]

// lockEntry is the TOML shape of one [[project]] block in Ballast.lock.
type lockEntry struct {
	GitHub  string `toml:"github,omitempty"`
	Git     string `toml:"git,omitempty"`
	Version string `toml:"version"`
}

type lockFile struct {
	Projects []lockEntry `toml:"project"`
}

// Encode writes the lock set as TOML.
func (ls LockSet) Encode(w io.Writer) error {
	lf := lockFile{Projects: make([]lockEntry, 0, len(ls))}
	for _, dep := range ls {
		entry := lockEntry{Version: string(dep.Version)}
		switch dep.Project.Kind() {
		case KindGitHub:
			entry.GitHub = dep.Project.String()
		case KindGit:
			entry.Git = dep.Project.CloneURL()
		}
		lf.Projects = append(lf.Projects, entry)
	}
	return toml.NewEncoder(w).Encode(lf)
}

// WriteFile writes the lock set to path, replacing any existing file.
func (ls LockSet) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := ls.Encode(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ParseLockSet decodes lock file text, preserving entry order.
func ParseLockSet(data []byte) (LockSet, error) {
	var lf lockFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "malformed lock file")
	}

	ls := make(LockSet, 0, len(lf.Projects))
	for _, entry := range lf.Projects {
		var id Identifier
		switch {
		case entry.GitHub != "":
			parsed, err := ParseGitHub(entry.GitHub)
			if err != nil {
				return nil, err
			}
			id = parsed
		case entry.Git != "":
			id = Git(entry.Git)
		default:
			return nil, errors.New(errors.ErrCodeInvalidManifest, "lock entry missing project source")
		}
		if entry.Version == "" {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "lock entry for %s missing version", id)
		}
		ls = append(ls, Dependency[PinnedVersion]{Project: id, Version: PinnedVersion(entry.Version)})
	}
	return ls, nil
}

// LoadLockSet reads and parses the lock file at path.
func LoadLockSet(path string) (LockSet, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNoManifestFound, "no %s at %s (run resolve first)", LockFileName, path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRepository, err, "read %s", path)
	}
	return ParseLockSet(data)
}
