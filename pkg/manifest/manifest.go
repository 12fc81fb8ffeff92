// Package manifest finds and summarizes Cargo manifests.
package manifest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/deppatcher/pkg/errors"
)

// FileName is the manifest file name.
const FileName = "Cargo.toml"

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{"target", ".git"}

// Discover returns every Cargo.toml below root, sorted. Directories whose
// name is in DefaultExcludes or excludes are skipped.
func Discover(ctx context.Context, root string, excludes ...string) ([]string, error) {
	skip := append(slices.Clone(DefaultExcludes), excludes...)
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && slices.Contains(skip, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && d.Name() == FileName {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "walk %s", root)
	}
	slices.Sort(out)
	return out, nil
}

// Info is the identity of a manifest.
type Info struct {
	Path    string
	Name    string // package name, empty for a virtual workspace
	Version string
	Members []string // workspace members, if the manifest declares a workspace
}

// IsWorkspace reports whether the manifest declares a workspace.
func (i *Info) IsWorkspace() bool { return i.Members != nil }

type cargoFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"` // may be {workspace = true}
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// ReadInfo decodes the package and workspace identity of a manifest.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}
	var cargo cargoFile
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	info := &Info{Path: path, Name: cargo.Package.Name}
	if v, ok := cargo.Package.Version.(string); ok {
		info.Version = v
	}
	if cargo.Workspace != nil {
		info.Members = cargo.Workspace.Members
		if info.Members == nil {
			info.Members = []string{}
		}
	}
	return info, nil
}
