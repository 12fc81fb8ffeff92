package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/deppatcher/pkg/graph"
	"github.com/matzehuels/deppatcher/pkg/softpatch"
)

// Options configures diagram generation.
type Options struct {
	// Overrides marks packages whose source a soft-patch replaces.
	Overrides *softpatch.Overrides

	// Detailed adds the source of every package to its label.
	Detailed bool

	// DevEdges includes dev-only edges.
	DevEdges bool
}

// ToDOT converts a graph to Graphviz DOT format.
func ToDOT(g *graph.Graph, opts Options) string {
	overridden := make(map[string]string)
	if opts.Overrides != nil {
		for _, ov := range opts.Overrides.Items {
			overridden[ov.Record.Name+"@"+ov.Record.Source.Version] = ov.To.String()
		}
	}
	roots := make(map[graph.PackageID]bool, len(g.Roots))
	for _, id := range g.Roots {
		roots[id] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	ids := make([]graph.PackageID, 0, len(g.Packages))
	for id := range g.Packages {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		p := g.Packages[id]
		to, isOverride := overridden[p.Name+"@"+p.Version]
		label := fmtLabel(p, to, opts.Detailed)
		attrs := fmtAttrs(p, label, roots[id], isOverride)
		fmt.Fprintf(&buf, "  %q [%s];\n", string(id), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, id := range ids {
		for _, e := range g.Packages[id].Deps {
			switch {
			case e.Linked():
				fmt.Fprintf(&buf, "  %q -> %q;\n", string(id), string(e.To))
			case opts.DevEdges:
				fmt.Fprintf(&buf, "  %q -> %q [style=dotted];\n", string(id), string(e.To))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p *graph.Package, override string, detailed bool) string {
	parts := []string{p.Name + " " + p.Version}
	if detailed {
		switch p.Source.Kind {
		case graph.KindGit:
			parts = append(parts, p.Source.Git)
		case graph.KindCustomRegistry:
			parts = append(parts, p.Source.Registry)
		case graph.KindPath:
			parts = append(parts, p.Source.Path)
		}
	}
	if override != "" {
		parts = append(parts, "→ "+override)
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(p *graph.Package, label string, root, override bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	style := []string{"rounded", "filled"}
	if p.Source.Kind == graph.KindGit {
		style = append(style, "dashed")
	}
	if root {
		style = append(style, "bold")
	}
	attrs = append(attrs, fmt.Sprintf("style=%q", strings.Join(style, ",")))
	if override {
		attrs = append(attrs, "fillcolor=lightgoldenrod1")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based size with a plain
// viewBox so the SVG scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
