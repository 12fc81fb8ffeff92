// Package softpatch computes a consolidated `[patch.*]` section from a
// resolved dependency graph instead of editing manifests.
//
// [Resolver.Resolve] walks the graph breadth-first from its roots, following
// only normal and build edges, and asks the decision function about every
// package it reaches. Each (package, source) pair is decided once; pairs
// whose answer differs from their current source become overrides.
//
// [Overrides.Document] renders the overrides grouped by the source they
// replace:
//
//	[patch.crates-io]
//	serde = { path = "/work/serde" }
//
//	[patch."https://github.com/org/repo"]
//	foo = { version = "0.3.0", path = "/work/foo" }
//
// Overrides of path packages cannot be expressed and are skipped with a
// warning; overrides of custom registries are an error.
package softpatch
