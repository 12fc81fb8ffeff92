// Package ledger manages the backup of original dependency sources that is
// stored inside each manifest.
//
// The ledger lives at <root>.metadata.deppatcher.originals, where <root> is
// package for a package manifest and workspace for a virtual workspace
// manifest. Entries are addressed by the key path of the live declaration,
// with the last segment replaced by the package identity:
//
//	[dependencies]
//	foo = { path = "/local/foo" }
//
//	[package.metadata.deppatcher.originals.dependencies]
//	foo = { version = "1.0" }
package ledger

import (
	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/source"
	"github.com/matzehuels/deppatcher/pkg/tomledit"
)

const (
	// Namespace is the metadata table reserved for deppatcher.
	Namespace = "deppatcher"
	// Originals is the ledger table inside the namespace.
	Originals = "originals"
)

// Roots are the tables that can own a ledger, in order of preference.
var Roots = []string{"package", "workspace"}

// KeyPath addresses a declaration, and its ledger entry, by document keys.
type KeyPath []string

// String renders the path with TOML quoting, e.g. target."cfg(unix)".dependencies.foo.
func (k KeyPath) String() string { return tomledit.FormatKey(k...) }

// Append returns a copy of k with seg added.
func (k KeyPath) Append(seg ...string) KeyPath {
	out := make(KeyPath, 0, len(k)+len(seg))
	out = append(out, k...)
	return append(out, seg...)
}

// WithLeaf returns a copy of k whose last segment is leaf.
func (k KeyPath) WithLeaf(leaf string) KeyPath {
	out := k.Append()
	out[len(out)-1] = leaf
	return out
}

// Entry is one recorded original.
type Entry struct {
	Path   KeyPath
	Source source.Descriptor
}

// Ledger is the backup stored in one document.
type Ledger struct {
	doc  *tomledit.Document
	root string
}

// Open returns the ledger of doc. It fails with MALFORMED_LEDGER when the
// ledger location, or any table leading to it, holds something other than
// a table.
func Open(doc *tomledit.Document) (*Ledger, error) {
	l := &Ledger{doc: doc, root: Roots[1]}
	if n, ok := doc.Root().Get(Roots[0]); ok {
		if _, ok := tomledit.AsTableLike(n); ok {
			l.root = Roots[0]
		}
	}
	var t tomledit.TableLike = doc.Root()
	for i, key := range l.Location() {
		n, ok := t.Get(key)
		if !ok {
			break
		}
		sub, ok := tomledit.AsTableLike(n)
		if !ok {
			return nil, errors.New(errors.ErrCodeMalformedLedger,
				"%s holds %s, not a table", KeyPath(l.Location()[:i+1]), n.Kind())
		}
		t = sub
	}
	return l, nil
}

// Root returns the table that owns the ledger, package or workspace.
func (l *Ledger) Root() string { return l.root }

// Location returns the key path of the ledger table.
func (l *Ledger) Location() KeyPath {
	return KeyPath{l.root, "metadata", Namespace, Originals}
}

func (l *Ledger) originals() (tomledit.TableLike, bool) {
	n, ok := tomledit.Lookup(l.doc.Root(), l.Location()...)
	if !ok {
		return nil, false
	}
	return tomledit.AsTableLike(n)
}

// Lookup returns the original recorded at k. Entries that are not tables
// are ignored.
func (l *Ledger) Lookup(k KeyPath) (source.Descriptor, bool) {
	t, ok := l.originals()
	if !ok {
		return source.Descriptor{}, false
	}
	n, ok := tomledit.Lookup(t, k...)
	if !ok {
		return source.Descriptor{}, false
	}
	entry, ok := tomledit.AsTableLike(n)
	if !ok {
		return source.Descriptor{}, false
	}
	return source.Read(entry), true
}

// Record stores d as the original at k, creating the ledger on first use.
func (l *Ledger) Record(k KeyPath, d source.Descriptor) error {
	var t tomledit.TableLike = l.doc.Root()
	for _, key := range l.Location().Append(k[:len(k)-1]...) {
		var err error
		if t, err = child(t, key); err != nil {
			return err
		}
	}
	t.Set(k[len(k)-1], d.InlineTable())
	return nil
}

func child(t tomledit.TableLike, key string) (tomledit.TableLike, error) {
	n, ok := t.Get(key)
	if !ok {
		var sub tomledit.TableLike = tomledit.NewInlineTable()
		if _, ok := t.(*tomledit.Table); ok {
			sub = tomledit.NewImplicitTable()
		}
		t.Set(key, sub)
		return sub, nil
	}
	sub, ok := tomledit.AsTableLike(n)
	if !ok {
		return nil, errors.New(errors.ErrCodeMalformedLedger, "ledger key %s holds %s, not a table", key, n.Kind())
	}
	return sub, nil
}

// Remove deletes the entry at k and prunes the tables it leaves empty. It
// reports whether an entry was removed.
func (l *Ledger) Remove(k KeyPath) bool {
	full := l.Location().Append(k...)
	stack := []tomledit.TableLike{l.doc.Root()}
	for _, key := range full[:len(full)-1] {
		n, ok := stack[len(stack)-1].Get(key)
		if !ok {
			return false
		}
		t, ok := tomledit.AsTableLike(n)
		if !ok {
			return false
		}
		stack = append(stack, t)
	}
	if !stack[len(stack)-1].Remove(full[len(full)-1]) {
		return false
	}
	prune(stack, full)
	return true
}

// prune removes empty tables bottom-up along path. stack[i] is the table
// holding path[i]. Everything from the namespace down belongs to the
// ledger; metadata is only removed when it has no header of its own.
func prune(stack []tomledit.TableLike, path KeyPath) {
	for i := len(stack) - 1; i >= 2; i-- {
		t := stack[i]
		if t.Len() > 0 {
			return
		}
		if i == 2 {
			if tbl, ok := t.(*tomledit.Table); ok && !tbl.IsImplicit() {
				return
			}
		}
		stack[i-1].Remove(path[i-1])
	}
}

// Entries returns every recorded original in document order.
func (l *Ledger) Entries() []Entry {
	t, ok := l.originals()
	if !ok {
		return nil
	}
	var out []Entry
	collect(t, nil, &out)
	return out
}

// Len returns the number of recorded originals.
func (l *Ledger) Len() int { return len(l.Entries()) }

// collect treats inline tables and tables holding plain values as entries
// and descends into everything else.
func collect(t tomledit.TableLike, path KeyPath, out *[]Entry) {
	for _, key := range t.Keys() {
		n, _ := t.Get(key)
		sub, ok := tomledit.AsTableLike(n)
		if !ok {
			continue
		}
		p := path.Append(key)
		if isEntry(sub) {
			*out = append(*out, Entry{Path: p, Source: source.Read(sub)})
			continue
		}
		collect(sub, p, out)
	}
}

func isEntry(t tomledit.TableLike) bool {
	if _, ok := t.(*tomledit.InlineTable); ok {
		return true
	}
	for _, key := range t.Keys() {
		n, _ := t.Get(key)
		if _, ok := tomledit.AsTableLike(n); ok {
			continue
		}
		if _, ok := n.(tomledit.Value); ok {
			return true
		}
	}
	return false
}

// Freeze deletes the package and workspace ledgers of doc, leaving live
// declarations alone. It reports whether anything was removed.
func Freeze(doc *tomledit.Document) bool {
	removed := false
	for _, root := range Roots {
		path := KeyPath{root, "metadata", Namespace, Originals}
		stack := []tomledit.TableLike{doc.Root()}
		for _, key := range path[:len(path)-1] {
			n, ok := stack[len(stack)-1].Get(key)
			if !ok {
				break
			}
			t, ok := tomledit.AsTableLike(n)
			if !ok {
				break
			}
			stack = append(stack, t)
		}
		if len(stack) != len(path) {
			continue
		}
		if stack[len(stack)-1].Remove(Originals) {
			removed = true
			prune(stack, path)
		}
	}
	return removed
}
