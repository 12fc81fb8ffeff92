// Package patch rewrites the dependency declarations of Cargo manifests.
//
// An [Engine] visits every declaration of a manifest:
//
//   - [dependencies], [dev-dependencies] and [build-dependencies]
//   - the same three tables under every [target.<platform>]
//   - all of the above again under [workspace]
//
// For each declaration it reads the current source, looks up the original
// recorded in the manifest's ledger (see package ledger), and asks a
// [source.Decider] what the source should be. Changes are applied in place:
// only descriptor fields are added or removed, so comments, features and
// ordering survive, and the first change of a declaration records its
// original so that [Engine.RevertFile] can restore it later.
//
// # Forms
//
// Declarations keep their form where possible:
//
//	foo = "1.0"                      # bare string; stays a string while version-only
//	foo = { version = "1.0" }        # inline table; collapses to a string when version-only
//	[dependencies.foo]               # header table; kept
//	foo.workspace = true             # dotted keys; kept
//
// With [Options.ForceInline] changed header and dotted declarations are
// turned into inline tables.
//
// # Files
//
// [Engine.PatchFile], [Engine.RevertFile] and [Engine.FreezeFile] read one
// manifest, process it completely in memory and write it back only when its
// bytes changed. The *Files variants process a list of manifests strictly in
// order and stop at the first error.
package patch
