package graph

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// Default registry index locations. Both the git index and the sparse index
// name crates.io.
const (
	CratesIOIndex  = "https://github.com/rust-lang/crates.io-index"
	CratesIOSparse = "sparse+https://index.crates.io/"
)

// Source string prefixes used by cargo.
const (
	prefixRegistry = "registry+"
	prefixSparse   = "sparse+"
	prefixGit      = "git+"
	prefixPath     = "path+"
)

// =============================================================================
// Source Classification
// =============================================================================

// Kind classifies a package source.
type Kind int

const (
	KindRegistry       Kind = iota // the default registry
	KindCustomRegistry             // any other registry
	KindGit
	KindPath
)

var kindNames = []string{"registry", "custom-registry", "git", "path"}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown source kind %q", b)
}

// Source is the resolved location of a package.
type Source struct {
	Kind Kind `json:"kind"`

	// Registry is the index URL; sparse indexes keep their sparse+ prefix.
	Registry string `json:"registry,omitempty"`

	Git      string `json:"git,omitempty"`
	Rev      string `json:"rev,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Resolved string `json:"resolved,omitempty"` // locked commit

	Path string `json:"path,omitempty"` // package directory
}

// IsDefaultRegistry reports whether url names crates.io.
func IsDefaultRegistry(url string) bool {
	return url == CratesIOIndex || url == CratesIOSparse
}

// ParseSource classifies a cargo source string. An empty string is a local
// package, located at manifestDir.
func ParseSource(repr, manifestDir string) (Source, error) {
	switch {
	case repr == "":
		return Source{Kind: KindPath, Path: manifestDir}, nil
	case strings.HasPrefix(repr, prefixRegistry):
		return registrySource(strings.TrimPrefix(repr, prefixRegistry)), nil
	case strings.HasPrefix(repr, prefixSparse):
		return registrySource(repr), nil
	case strings.HasPrefix(repr, prefixGit):
		return parseGit(strings.TrimPrefix(repr, prefixGit))
	case strings.HasPrefix(repr, prefixPath):
		u, err := url.Parse(strings.TrimPrefix(repr, prefixPath))
		if err != nil || u.Scheme != "file" {
			return Source{}, errors.New(errors.ErrCodeInvalidGraph, "invalid path source %q", repr)
		}
		return Source{Kind: KindPath, Path: u.Path}, nil
	}
	return Source{}, errors.New(errors.ErrCodeInvalidGraph, "unknown source %q", repr)
}

func registrySource(index string) Source {
	if IsDefaultRegistry(index) {
		return Source{Kind: KindRegistry, Registry: index}
	}
	return Source{Kind: KindCustomRegistry, Registry: index}
}

// parseGit splits <url>[?branch=|tag=|rev=<ref>][#<commit>].
func parseGit(s string) (Source, error) {
	src := Source{Kind: KindGit}
	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		s, src.Resolved = s[:i], s[i+1:]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		q, err := url.ParseQuery(s[i+1:])
		if err != nil {
			return Source{}, errors.Wrap(errors.ErrCodeInvalidGraph, err, "invalid git source %q", s)
		}
		s = s[:i]
		src.Rev, src.Tag, src.Branch = q.Get("rev"), q.Get("tag"), q.Get("branch")
	}
	if s == "" {
		return Source{}, errors.New(errors.ErrCodeInvalidGraph, "git source without a URL")
	}
	src.Git = s
	return src, nil
}

// =============================================================================
// Graph Model
// =============================================================================

// PackageID is cargo's opaque package identifier.
type PackageID string

// Graph is a resolved dependency graph.
type Graph struct {
	Roots    []PackageID
	Packages map[PackageID]*Package
}

// Package is one resolved package.
type Package struct {
	ID      PackageID `json:"id"`
	Name    string    `json:"name"`
	Version string    `json:"version"`
	Source  Source    `json:"source"`
	Deps    []Edge    `json:"deps,omitempty"`
}

// Edge is a dependency of a package, with the kinds that link it.
type Edge struct {
	To     PackageID `json:"to"`
	Normal bool      `json:"normal,omitempty"`
	Build  bool      `json:"build,omitempty"`
	Dev    bool      `json:"dev,omitempty"`
}

// Linked reports whether the edge ends up in a built artifact, i.e. it is a
// normal or build dependency.
func (e Edge) Linked() bool { return e.Normal || e.Build }

// New returns an empty graph.
func New() *Graph { return &Graph{Packages: make(map[PackageID]*Package)} }

// Add inserts or replaces a package.
func (g *Graph) Add(p *Package) { g.Packages[p.ID] = p }

// Package returns the package with the given ID.
func (g *Graph) Package(id PackageID) (*Package, bool) {
	p, ok := g.Packages[id]
	return p, ok
}

// Validate checks that every root and edge target is a known package.
func (g *Graph) Validate() error {
	for _, id := range g.Roots {
		if _, ok := g.Packages[id]; !ok {
			return errors.New(errors.ErrCodeInvalidGraph, "unknown root %s", id)
		}
	}
	for _, p := range g.Packages {
		for _, e := range p.Deps {
			if _, ok := g.Packages[e.To]; !ok {
				return errors.New(errors.ErrCodeInvalidGraph, "%s depends on unknown package %s", p.ID, e.To)
			}
		}
	}
	return nil
}

// Descriptor returns the source descriptor of p as a decision function sees
// it. The default registry is implied and not spelled out; the locked git
// commit is not part of the descriptor.
func (p *Package) Descriptor() source.Descriptor {
	d := source.Descriptor{Version: p.Version}
	switch p.Source.Kind {
	case KindCustomRegistry:
		d.Registry = p.Source.Registry
	case KindGit:
		d.Git, d.Rev, d.Tag, d.Branch = p.Source.Git, p.Source.Rev, p.Source.Tag, p.Source.Branch
	case KindPath:
		d.Path = p.Source.Path
	}
	return d
}
