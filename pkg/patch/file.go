package patch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/ledger"
	"github.com/matzehuels/deppatcher/pkg/source"
	"github.com/matzehuels/deppatcher/pkg/tomledit"
)

// Report is the result of processing one manifest file.
type Report struct {
	Path    string
	Changes []Change
	Frozen  bool // a ledger was removed

	Before []byte
	After  []byte
	// Written is false for dry runs and for manifests whose bytes did not
	// change.
	Written bool
}

// Modified reports whether the manifest bytes changed.
func (r *Report) Modified() bool { return !bytes.Equal(r.Before, r.After) }

// Reverter is the decider used by [Engine.RevertFile]: every declaration goes
// back to its recorded original. Declarations without a ledger entry have
// Original equal to Source and are left alone.
var Reverter = source.DeciderFunc(func(r source.Record) (source.Outcome, error) {
	return source.Replace(r.Original), nil
})

// PatchFile applies the engine's decider to the manifest at path.
func (e *Engine) PatchFile(ctx context.Context, path string, dryRun bool) (*Report, error) {
	return e.processFile(ctx, path, dryRun, func(doc *tomledit.Document, rep *Report) error {
		changes, err := e.patchDocument(ctx, doc, e.logger().With("manifest", path))
		rep.Changes = changes
		return err
	})
}

// RevertFile restores every declaration of the manifest at path that has a
// ledger entry. The engine's own decider is not used.
func (e *Engine) RevertFile(ctx context.Context, path string, dryRun bool) (*Report, error) {
	rev := &Engine{Decider: Reverter, Options: e.Options, Hooks: e.Hooks}
	rev.Options.ForceInline = false
	return rev.PatchFile(ctx, path, dryRun)
}

// FreezeFile deletes the ledger of the manifest at path. A manifest without
// a ledger is left untouched.
func (e *Engine) FreezeFile(ctx context.Context, path string, dryRun bool) (*Report, error) {
	return e.processFile(ctx, path, dryRun, func(doc *tomledit.Document, rep *Report) error {
		rep.Frozen = ledger.Freeze(doc)
		if rep.Frozen {
			e.logger().Info("ledger removed", "manifest", path)
		}
		return nil
	})
}

// PatchFiles runs [Engine.PatchFile] on every path in order.
func (e *Engine) PatchFiles(ctx context.Context, paths []string, dryRun bool) ([]*Report, error) {
	return eachFile(ctx, paths, dryRun, e.PatchFile)
}

// RevertFiles runs [Engine.RevertFile] on every path in order.
func (e *Engine) RevertFiles(ctx context.Context, paths []string, dryRun bool) ([]*Report, error) {
	return eachFile(ctx, paths, dryRun, e.RevertFile)
}

// FreezeFiles runs [Engine.FreezeFile] on every path in order.
func (e *Engine) FreezeFiles(ctx context.Context, paths []string, dryRun bool) ([]*Report, error) {
	return eachFile(ctx, paths, dryRun, e.FreezeFile)
}

type fileFunc func(ctx context.Context, path string, dryRun bool) (*Report, error)

func eachFile(ctx context.Context, paths []string, dryRun bool, fn fileFunc) ([]*Report, error) {
	reports := make([]*Report, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := fn(ctx, path, dryRun)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (e *Engine) processFile(ctx context.Context, path string, dryRun bool, edit func(*tomledit.Document, *Report) error) (rep *Report, err error) {
	hooks := e.hooks()
	start := time.Now()
	hooks.OnManifestStart(ctx, path)
	defer func() {
		n := 0
		if rep != nil {
			n = len(rep.Changes)
		}
		hooks.OnManifestComplete(ctx, path, n, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "stat %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}
	doc, err := tomledit.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	rep = &Report{Path: path, Before: data}
	if err := edit(doc, rep); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rep.After = doc.Bytes()

	if dryRun || !rep.Modified() {
		return rep, nil
	}
	if err := os.WriteFile(path, rep.After, info.Mode().Perm()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	rep.Written = true
	return rep, nil
}
