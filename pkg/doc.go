// Package pkg provides the libraries behind deppatcher.
//
// # Overview
//
// deppatcher rewrites where the dependencies of Rust workspaces come from.
// A decision function (usually a compiled [rule]) looks at every dependency
// and either leaves it alone or returns a new source. The pkg directory is
// organized around the two ways of applying it:
//
//  1. In place: [patch] edits every Cargo.toml, remembering originals in a
//     [ledger] stored inside the manifest so they can be reverted.
//  2. Soft: [softpatch] walks the resolved graph from [metadata] and renders
//     a [patch] section for the workspace root, leaving manifests alone.
//
// # Data Flow
//
//	Cargo.toml files            cargo metadata
//	       ↓                          ↓
//	  [manifest] discover       [metadata] decode (cached by [cache])
//	       ↓                          ↓
//	  [tomledit] parse           [graph] resolved packages
//	       ↓                          ↓
//	  [patch] + [ledger]         [softpatch] BFS + dedup
//	       ↓                          ↓
//	  rewritten manifests        [patch.<registry>] tables
//
// Both paths call a [source.Decider] with a [source.Record] per dependency.
//
// # Quick Start
//
//	r, err := rule.Compile(rule.FromExpr(`package == "serde" ? {path: "/src/serde"} : nil`), rule.Options{})
//	if err != nil {
//	    return err
//	}
//	engine := &patch.Engine{Decider: r}
//	paths, _ := manifest.Discover(ctx, ".", manifest.DefaultExcludes...)
//	reports, err := engine.PatchFiles(ctx, paths, false)
//
// # Supporting Packages
//
//   - [source]: dependency source descriptors and the decision interface
//   - [lockfile]: Cargo.lock reading for version linking
//   - [config]: user configuration
//   - [errors]: coded errors shared by every package
//   - [observability]: hooks for progress and metrics
//   - [render/nodelink]: Graphviz rendering of the resolved graph
//   - [buildinfo]: version stamping
//
// [rule]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/rule
// [patch]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/patch
// [ledger]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/ledger
// [softpatch]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/softpatch
// [metadata]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/metadata
// [manifest]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/manifest
// [cache]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/cache
// [tomledit]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/tomledit
// [graph]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/graph
// [source]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/source
// [source.Decider]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/source#Decider
// [source.Record]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/source#Record
// [lockfile]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/lockfile
// [config]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/observability
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/render/nodelink
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/deppatcher/pkg/buildinfo
package pkg
