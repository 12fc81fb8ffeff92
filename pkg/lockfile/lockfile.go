// Package lockfile reads Cargo.lock files.
package lockfile

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/deppatcher/pkg/errors"
)

// FileName is the name cargo gives the lock file.
const FileName = "Cargo.lock"

// Lockfile is the decoded content of a Cargo.lock.
type Lockfile struct {
	Version  int       `toml:"version"`
	Packages []Package `toml:"package"`
}

// Package is one locked package. Source is empty for packages of the
// workspace itself.
type Package struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"`
	Checksum     string   `toml:"checksum"`
	Dependencies []string `toml:"dependencies"`
}

// Load reads a lock file. When path is a directory, its Cargo.lock is read.
func Load(path string) (*Lockfile, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}
	lf, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	return lf, nil
}

// Parse decodes lock file content.
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, err
	}
	return &lf, nil
}

// Local returns name -> version for every package without a source, i.e.
// the members of the workspace that wrote the lock file.
func (l *Lockfile) Local() map[string]string {
	out := make(map[string]string)
	for _, p := range l.Packages {
		if p.Source == "" {
			out[p.Name] = p.Version
		}
	}
	return out
}
