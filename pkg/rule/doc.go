// Package rule provides decision functions for the patch engines.
//
// A rule is an expr-lang expression evaluated once per record. It sees the
// record through these variables:
//
//	name            key the dependency is declared under
//	package         real package name
//	source          current source, a map of the present fields
//	currentSource   alias of source
//	originalSource  source before the first patch
//	resolved        locked git commit (soft-patch only)
//	ext             values passed with --ext-str key=value
//
// and returns nil to leave the record alone or a map holding the new
// source:
//
//	package == "serde" ? {path: "/work/serde"} : nil
//
// Helpers available to expressions:
//
//	loadPaths(dir)    workspace member name -> directory, via cargo metadata
//	loadLocked(file)  Cargo.lock members (entries without a source) -> version
//	getenv(name)      environment variable
//
// Relative helper arguments are resolved against the directory of the rule
// file, or the working directory for inline expressions. Helper results are
// memoized per argument.
//
// [LinkPaths] and [LinkVersions] are the built-in rules behind the link
// command.
package rule
