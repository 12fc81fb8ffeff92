package softpatch

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/graph"
	"github.com/matzehuels/deppatcher/pkg/tomledit"
)

// DefaultRegistryKey names crates.io in a `[patch]` table.
const DefaultRegistryKey = "crates-io"

// GroupKey returns the `[patch.<key>]` table an override belongs to. Path
// packages have no key and report ok=false.
func GroupKey(s graph.Source) (key string, ok bool, err error) {
	switch s.Kind {
	case graph.KindRegistry:
		return DefaultRegistryKey, true, nil
	case graph.KindGit:
		return s.Git, true, nil
	case graph.KindPath:
		return "", false, nil
	case graph.KindCustomRegistry:
		return "", false, errors.New(errors.ErrCodeUnsupportedSource, "custom registry %s cannot be patched", s.Registry)
	}
	return "", false, errors.New(errors.ErrCodeUnsupportedSource, "unsupported source kind %s", s.Kind)
}

// Document renders the overrides as a manifest fragment holding a single
// implicit `patch` table. Entries are sorted by group, then name, then the
// replaced source. When a group would hold the same name twice the later
// entries are keyed name-2, name-3, ... and carry a package field.
func (o *Overrides) Document() (*tomledit.Document, error) {
	type item struct {
		group string
		ov    Override
	}
	var items []item
	for _, ov := range o.Items {
		group, ok, err := GroupKey(ov.Source)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "override of %s", ov.Record.Name)
		}
		if !ok {
			o.logger.Warn("cannot patch a path package, skipping", "package", ov.Record.Name, "path", ov.Source.Path)
			continue
		}
		items = append(items, item{group: group, ov: ov})
	}
	slices.SortStableFunc(items, func(a, b item) int {
		return cmp.Or(
			cmp.Compare(a.group, b.group),
			cmp.Compare(a.ov.Record.Name, b.ov.Record.Name),
			cmp.Compare(a.ov.Record.Source.Key(), b.ov.Record.Source.Key()),
		)
	})

	doc := tomledit.New()
	seen := make(map[[2]string]int)
	for _, it := range items {
		t, err := tomledit.EnsureTable(doc.Root(), "patch", it.group)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "build patch table")
		}
		name := it.ov.Record.Name
		seen[[2]string{it.group, name}]++
		entry := it.ov.To.InlineTable()
		if n := seen[[2]string{it.group, name}]; n > 1 {
			entry.Set("package", tomledit.NewString(name))
			name += "-" + strconv.Itoa(n)
		}
		t.Set(name, entry)
	}
	return doc, nil
}
