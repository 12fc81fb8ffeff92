package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// WriteGraphFile writes a graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded graph.
// The graph is validated before it is returned.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader.
func ReadGraph(r io.Reader) (*Graph, error) {
	return readGraphFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

// wireGraph is the JSON form: packages as a list instead of a map.
type wireGraph struct {
	Roots    []PackageID `json:"roots"`
	Packages []*Package  `json:"packages"`
}

func writeGraphTo(g *Graph, w io.Writer) error {
	out := wireGraph{Roots: g.Roots, Packages: make([]*Package, 0, len(g.Packages))}
	for _, p := range g.Packages {
		out.Packages = append(out.Packages, p)
	}
	slices.SortFunc(out.Packages, func(a, b *Package) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (*Graph, error) {
	var data wireGraph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g := New()
	g.Roots = data.Roots
	for _, p := range data.Packages {
		g.Add(p)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
