// Package nodelink renders resolved dependency graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT, optionally marking the packages a soft-patch
// would override, then render it with Graphviz:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Overrides: ov})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Styling
//
// Workspace members are drawn bold, git packages with a dashed outline and
// overridden packages filled, with the replacement source in the label.
// Edges that exist only as dev-dependencies are dotted and, unless
// [Options.DevEdges] is set, left out.
//
// The DOT output is deterministic: nodes are sorted by package ID and edges
// follow the order cargo reports them in.
package nodelink
