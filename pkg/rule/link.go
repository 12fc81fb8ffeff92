package rule

import (
	"maps"

	"github.com/matzehuels/deppatcher/pkg/source"
)

// inherited reports whether the declaration defers to the workspace.
func inherited(d source.Descriptor) bool {
	return d.Workspace != nil && *d.Workspace
}

// LinkPaths points every package found in paths at its directory.
// Declarations inherited from the workspace are left alone.
func LinkPaths(paths map[string]string) source.Decider {
	return source.DeciderFunc(func(r source.Record) (source.Outcome, error) {
		dir, ok := paths[r.Package]
		if !ok || inherited(r.Source) {
			return source.Unchanged(), nil
		}
		return source.Replace(source.Descriptor{Path: dir}), nil
	})
}

// LinkVersions pins every package that the target workspace has locked as
// a member, and the current workspace does not, to the locked version.
// from and to are [lockfile.Lockfile.Local] maps.
func LinkVersions(from, to map[string]string) source.Decider {
	linked := maps.Clone(to)
	for name := range from {
		delete(linked, name)
	}
	return source.DeciderFunc(func(r source.Record) (source.Outcome, error) {
		version, ok := linked[r.Package]
		if !ok || inherited(r.Source) {
			return source.Unchanged(), nil
		}
		return source.Replace(source.Descriptor{Version: version}), nil
	})
}
