package patch

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/ledger"
	"github.com/matzehuels/deppatcher/pkg/observability"
	"github.com/matzehuels/deppatcher/pkg/source"
	"github.com/matzehuels/deppatcher/pkg/tomledit"
)

// DependencyTables are the tables holding declarations, in visit order.
var DependencyTables = []string{"dependencies", "dev-dependencies", "build-dependencies"}

// Options configure an [Engine].
type Options struct {
	// ForceInline turns changed header and dotted declarations into inline
	// tables.
	ForceInline bool

	// Logger receives a line per rewrite. Nil discards output.
	Logger *log.Logger
}

// Engine applies a decision function to manifests.
type Engine struct {
	Decider source.Decider
	Options Options

	// Hooks overrides the globally registered patch hooks.
	Hooks observability.PatchHooks
}

// Change describes one rewritten declaration.
type Change struct {
	Path     ledger.KeyPath
	Name     string
	Package  string
	From     source.Descriptor
	To       source.Descriptor
	Restored bool // the declaration is back at its recorded original
}

func (e *Engine) hooks() observability.PatchHooks {
	if e.Hooks != nil {
		return e.Hooks
	}
	return observability.Patch()
}

func (e *Engine) logger() *log.Logger {
	if e.Options.Logger != nil {
		return e.Options.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}

// PatchDocument applies the decider to every declaration of doc. The ledger
// is validated before anything is touched; a decider error aborts the walk
// and leaves doc partially rewritten, so callers must discard it.
func (e *Engine) PatchDocument(ctx context.Context, doc *tomledit.Document) ([]Change, error) {
	return e.patchDocument(ctx, doc, e.logger())
}

func (e *Engine) patchDocument(ctx context.Context, doc *tomledit.Document, logger *log.Logger) ([]Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Decider == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no decider configured")
	}
	led, err := ledger.Open(doc)
	if err != nil {
		return nil, err
	}
	w := &walker{ctx: ctx, engine: e, ledger: led, logger: logger, hooks: e.hooks()}
	if err := w.root(doc.Root(), nil); err != nil {
		return nil, err
	}
	if n, ok := doc.Root().Get("workspace"); ok {
		if ws, ok := tomledit.AsTableLike(n); ok {
			if err := w.root(ws, ledger.KeyPath{"workspace"}); err != nil {
				return nil, err
			}
		}
	}
	return w.changes, nil
}

type walker struct {
	ctx     context.Context
	engine  *Engine
	ledger  *ledger.Ledger
	logger  *log.Logger
	hooks   observability.PatchHooks
	changes []Change
}

// root visits the dependency tables of a package or workspace table and of
// its platform targets.
func (w *walker) root(t tomledit.TableLike, key ledger.KeyPath) error {
	if err := w.target(t, key); err != nil {
		return err
	}
	n, ok := t.Get("target")
	if !ok {
		return nil
	}
	targets, ok := tomledit.AsTableLike(n)
	if !ok {
		return nil
	}
	for _, platform := range targets.Keys() {
		pn, _ := targets.Get(platform)
		pt, ok := tomledit.AsTableLike(pn)
		if !ok {
			continue
		}
		if err := w.target(pt, key.Append("target", platform)); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) target(t tomledit.TableLike, key ledger.KeyPath) error {
	for _, kind := range DependencyTables {
		n, ok := t.Get(kind)
		if !ok {
			continue
		}
		deps, ok := tomledit.AsTableLike(n)
		if !ok {
			w.logger.Debug("skipping dependency table", "key", key.Append(kind).String(), "kind", n.Kind())
			continue
		}
		slots, err := backupSlots(deps, key.Append(kind))
		if err != nil {
			return err
		}
		for _, name := range deps.Keys() {
			if err := w.declaration(deps, key.Append(kind, name), slots[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

// packageOf returns the package a declaration pulls in: its package key, or
// its name.
func packageOf(name string, n tomledit.Node) string {
	if t, ok := tomledit.AsTableLike(n); ok {
		if pn, ok := t.Get("package"); ok {
			if p, ok := tomledit.AsString(pn); ok && p != "" {
				return p
			}
		}
	}
	return name
}

// backupSlots assigns every declaration of deps the ledger key its original
// is kept under. The key ends in the package name; when several
// declarations of one table pull in the same package, the renamed ones use
// their own name. Two declarations never share a key.
func backupSlots(deps tomledit.TableLike, key ledger.KeyPath) (map[string]ledger.KeyPath, error) {
	var names []string
	pkgs := make(map[string]string)
	count := make(map[string]int)
	for _, name := range deps.Keys() {
		n, ok := deps.Get(name)
		if !ok {
			continue
		}
		if _, ok := source.ReadNode(n); !ok {
			continue
		}
		names = append(names, name)
		pkgs[name] = packageOf(name, n)
		count[pkgs[name]]++
	}

	slots := make(map[string]ledger.KeyPath, len(names))
	owner := make(map[string]string, len(names))
	for _, name := range names {
		leaf := pkgs[name]
		if count[leaf] > 1 && name != leaf {
			leaf = name
		}
		if prev, ok := owner[leaf]; ok {
			return nil, errors.New(errors.ErrCodeInvalidManifest,
				"declarations %s and %s would share the recorded original %s",
				key.Append(prev), key.Append(name), key.Append(leaf))
		}
		owner[leaf] = name
		slots[name] = key.Append(name).WithLeaf(leaf)
	}
	return slots, nil
}

func (w *walker) declaration(deps tomledit.TableLike, key, backup ledger.KeyPath) error {
	name := key[len(key)-1]
	n, ok := deps.Get(name)
	if !ok {
		return nil
	}
	current, ok := source.ReadNode(n)
	if !ok {
		w.logger.Debug("skipping declaration", "key", key.String(), "kind", n.Kind())
		return nil
	}
	pkg := packageOf(name, n)

	original, hadOriginal := w.ledger.Lookup(backup)
	if !hadOriginal {
		original = current
	}

	out, err := w.engine.Decider.Decide(source.Record{
		Name:     name,
		Package:  pkg,
		Source:   current,
		Original: original,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeDecisionFailed, err, "decide %s (package %s)", key, pkg)
	}
	next := out.Descriptor()
	changed := out.IsChange() && !next.Equal(current)
	w.hooks.OnDecision(w.ctx, name, pkg, changed)
	if !changed {
		return nil
	}

	restored := false
	switch {
	case !hadOriginal:
		if err := w.ledger.Record(backup, current); err != nil {
			return err
		}
	case next.Equal(original):
		w.ledger.Remove(backup)
		restored = true
	}
	w.rewrite(deps, name, n, next)

	w.logger.Info("rewrite", "key", key.String(), "from", current.String(), "to", next.String())
	w.changes = append(w.changes, Change{
		Path:     key,
		Name:     name,
		Package:  pkg,
		From:     current,
		To:       next,
		Restored: restored,
	})
	return nil
}

// rewrite writes next into the declaration n stored under name in deps.
func (w *walker) rewrite(deps tomledit.TableLike, name string, n tomledit.Node, next source.Descriptor) {
	t, ok := tomledit.AsTableLike(n)
	if !ok {
		// Bare string.
		if next.VersionOnly() {
			deps.Set(name, tomledit.NewString(next.Version))
		} else {
			deps.Set(name, next.InlineTable())
		}
		return
	}
	next.WriteTo(t)
	if tbl, ok := t.(*tomledit.Table); ok && w.engine.Options.ForceInline {
		it := tbl.ToInline()
		deps.Set(name, it)
		t = it
	}
	if it, ok := t.(*tomledit.InlineTable); ok && it.Len() == 1 && next.VersionOnly() {
		deps.Set(name, tomledit.NewString(next.Version))
	}
}
