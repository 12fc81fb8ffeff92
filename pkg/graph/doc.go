// Package graph models the resolved dependency graph of a Cargo workspace.
//
// A [Graph] is what `cargo metadata` reports after resolution: every package
// in the lock, with its version and resolved [Source], and the dependency
// edges between them. Edges carry the kinds that link them (normal, build,
// dev) because only normal and build edges end up in a built artifact.
//
// The graph may contain cycles (a dev-dependency that depends back on the
// crate under test is common), so consumers must keep a visited set.
//
// # Sources
//
// Cargo identifies where a package comes from with a source string, which
// [ParseSource] classifies:
//
//	registry+https://github.com/rust-lang/crates.io-index     default registry
//	sparse+https://index.crates.io/                           default registry
//	registry+https://my-registry.example/index                custom registry
//	git+https://github.com/org/repo?branch=main#a1b2c3d4      git, pinned and resolved
//	(none)                                                    local path
//
// [Package.Descriptor] turns a package into the [source.Descriptor] a
// decision function sees.
//
// # Serialization
//
// Graphs serialize to JSON so a resolved graph can be saved once and patched
// offline:
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	graph.WriteGraphFile(g, "graph.json")
//
// Packages are written sorted by ID for deterministic output.
package graph
