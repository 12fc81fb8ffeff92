package metadata

import (
	"encoding/json"
	"path/filepath"
	"slices"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/graph"
)

// Metadata is the subset of `cargo metadata --format-version 1` output that
// deppatcher reads.
type Metadata struct {
	Packages         []Package `json:"packages"`
	WorkspaceMembers []string  `json:"workspace_members"`
	WorkspaceRoot    string    `json:"workspace_root"`
	Resolve          *Resolve  `json:"resolve"`
}

// Package is one entry of the packages list.
type Package struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Version      string  `json:"version"`
	Source       *string `json:"source"`
	ManifestPath string  `json:"manifest_path"`
}

// Dir returns the directory holding the package manifest.
func (p *Package) Dir() string { return filepath.Dir(p.ManifestPath) }

// Resolve is the resolved dependency graph. It is absent with --no-deps.
type Resolve struct {
	Nodes []Node  `json:"nodes"`
	Root  *string `json:"root"`
}

// Node lists the resolved dependencies of one package.
type Node struct {
	ID   string    `json:"id"`
	Deps []NodeDep `json:"deps"`
}

// NodeDep is one resolved dependency and the kinds it is declared with.
type NodeDep struct {
	Name     string    `json:"name"`
	Pkg      string    `json:"pkg"`
	DepKinds []DepKind `json:"dep_kinds"`
}

// DepKind is a declaration kind: nil for normal, "dev" or "build".
type DepKind struct {
	Kind   *string `json:"kind"`
	Target *string `json:"target"`
}

// Decode parses cargo metadata JSON.
func Decode(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMetadataFailed, err, "decode cargo metadata")
	}
	return &m, nil
}

// Paths maps every package name to its manifest directory.
func (m *Metadata) Paths() map[string]string {
	out := make(map[string]string, len(m.Packages))
	for _, p := range m.Packages {
		out[p.Name] = p.Dir()
	}
	return out
}

// Graph converts the resolved metadata into a graph rooted at the workspace
// members. Metadata fetched with --no-deps has no graph.
func (m *Metadata) Graph() (*graph.Graph, error) {
	if m.Resolve == nil {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "metadata has no resolve section")
	}
	g := graph.New()
	for _, p := range m.Packages {
		repr := ""
		if p.Source != nil {
			repr = *p.Source
		}
		src, err := graph.ParseSource(repr, p.Dir())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "package %s", p.ID)
		}
		g.Add(&graph.Package{ID: graph.PackageID(p.ID), Name: p.Name, Version: p.Version, Source: src})
	}
	for _, n := range m.Resolve.Nodes {
		pkg, ok := g.Package(graph.PackageID(n.ID))
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "resolve node %s is not a package", n.ID)
		}
		for _, d := range n.Deps {
			pkg.Deps = append(pkg.Deps, edge(d))
		}
	}
	for _, id := range m.WorkspaceMembers {
		g.Roots = append(g.Roots, graph.PackageID(id))
	}
	slices.Sort(g.Roots)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func edge(d NodeDep) graph.Edge {
	e := graph.Edge{To: graph.PackageID(d.Pkg)}
	for _, k := range d.DepKinds {
		switch {
		case k.Kind == nil:
			e.Normal = true
		case *k.Kind == "build":
			e.Build = true
		case *k.Kind == "dev":
			e.Dev = true
		}
	}
	// cargo before 1.41 reports no kinds
	if len(d.DepKinds) == 0 {
		e.Normal = true
	}
	return e
}
