package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/lockfile"
	"github.com/matzehuels/deppatcher/pkg/manifest"
	"github.com/matzehuels/deppatcher/pkg/metadata"
	"github.com/matzehuels/deppatcher/pkg/patch"
	"github.com/matzehuels/deppatcher/pkg/rule"
	"github.com/matzehuels/deppatcher/pkg/source"
)

// =============================================================================
// Shared Options
// =============================================================================

// walkOpts selects the manifests a command rewrites.
type walkOpts struct {
	dir    string
	dryRun bool
}

func (o *walkOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dir, "dir", "C", ".", "directory to search for Cargo.toml files")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print the changes as a diff without writing")
}

// ruleOpts selects and parameterizes a rule.
type ruleOpts struct {
	exec bool
	ext  []string
}

func (o *ruleOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.exec, "exec", "e", false, "treat the argument as an inline expression")
	cmd.Flags().StringArrayVar(&o.ext, "ext-str", nil, "external variable available as ext.KEY (key=value, repeatable)")
}

// compileRule loads the rule named by arg: an inline expression with -e,
// standard input for "-", a file otherwise.
func (c *CLI) compileRule(ctx context.Context, arg string, opts ruleOpts, runner *metadata.Runner) (*rule.Rule, error) {
	var (
		in  rule.Input
		err error
	)
	switch {
	case opts.exec:
		in = rule.FromExpr(arg)
	case arg == "-":
		in, err = rule.FromReader(c.In)
	default:
		in, err = rule.FromFile(arg)
	}
	if err != nil {
		return nil, err
	}
	ext, err := rule.ParseExt(opts.ext)
	if err != nil {
		return nil, err
	}
	return rule.Compile(in, rule.Options{
		Ext: ext,
		Paths: func(dir string) (map[string]string, error) {
			return runner.Paths(ctx, dir)
		},
	})
}

// manifests lists the Cargo.toml files below dir.
func (c *CLI) manifests(ctx context.Context, dir string) ([]string, error) {
	excludes := append(append([]string{}, manifest.DefaultExcludes...), c.cfg.Exclude...)
	paths, err := manifest.Discover(ctx, dir, excludes...)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no %s found below %s", manifest.FileName, dir)
	}
	loggerFromContext(ctx).Debug("discovered manifests", "count", len(paths), "dir", dir)
	return paths, nil
}

// engineFunc runs one of the engine's batch operations.
type engineFunc func(e *patch.Engine, ctx context.Context, paths []string, dryRun bool) ([]*patch.Report, error)

// rewrite runs op over every manifest below opts.dir and prints a summary.
func (c *CLI) rewrite(ctx context.Context, d source.Decider, forceInline bool, opts walkOpts, verb string, op engineFunc) error {
	logger := loggerFromContext(ctx)
	paths, err := c.manifests(ctx, opts.dir)
	if err != nil {
		return err
	}

	st := &stats{logger: logger}
	engine := &patch.Engine{
		Decider: d,
		Options: patch.Options{ForceInline: forceInline, Logger: logger},
		Hooks:   st,
	}

	prog := newProgress(logger)
	reports, err := op(engine, ctx, paths, opts.dryRun)
	out := printer{w: c.Out}
	for _, r := range reports {
		out.report(r, opts.dryRun)
	}
	if err != nil {
		return err
	}

	modified := 0
	for _, r := range reports {
		if r.Modified() {
			modified++
		}
	}
	logger.Debug("decisions", "total", st.decisions, "changed", st.changed)
	prog.done(fmt.Sprintf("%s %d of %d %s", verb, modified, len(paths), plural(len(paths), "manifest", "manifests")))
	if opts.dryRun && modified > 0 {
		out.info("dry run, nothing written")
	}
	return nil
}

// =============================================================================
// patch
// =============================================================================

func (c *CLI) patchCommand() *cobra.Command {
	var (
		walk        walkOpts
		rules       ruleOpts
		forceInline bool
	)

	cmd := &cobra.Command{
		Use:   "patch [flags] <rule-file | - | -e expression>",
		Short: "Rewrite dependency sources using a rule",
		Long: `Rewrite the source of every dependency declaration in every Cargo.toml below
the current directory.

The rule is an expression evaluated once per declaration. It sees name,
package, source, originalSource and ext, and returns nil to leave the
declaration alone or a map with the new source fields. Original sources are
recorded inside each manifest so that "revert" can restore them.

With --force-inline, header and dotted declarations the rule changes are
rewritten as inline tables. Declarations it leaves alone keep their form.`,
		Example: `  # Point serde at a local checkout
  deppatcher patch -e 'package == "serde" ? {path: "/src/serde"} : nil'

  # Link every member of another workspace
  deppatcher patch -e 'package in loadPaths("../other") ? {path: loadPaths("../other")[package]} : nil'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("force-inline") {
				forceInline = c.cfg.ForceInline
			}
			r, err := c.compileRule(ctx, args[0], rules, c.newRunner())
			if err != nil {
				return err
			}
			return c.rewrite(ctx, r, forceInline, walk, "Patched", (*patch.Engine).PatchFiles)
		},
	}

	walk.register(cmd)
	rules.register(cmd)
	cmd.Flags().BoolVar(&forceInline, "force-inline", false, "write changed declarations as inline tables (unchanged ones keep their form)")
	return cmd
}

// =============================================================================
// revert / freeze
// =============================================================================

func (c *CLI) revertCommand() *cobra.Command {
	var walk walkOpts

	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Restore the original dependency sources",
		Long:  `Restore every declaration that has a recorded original and drop its record.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.rewrite(cmd.Context(), patch.Reverter, false, walk, "Reverted", (*patch.Engine).RevertFiles)
		},
	}

	walk.register(cmd)
	return cmd
}

func (c *CLI) freezeCommand() *cobra.Command {
	var walk walkOpts

	cmd := &cobra.Command{
		Use:   "freeze",
		Short: "Forget the recorded original sources",
		Long: `Remove the recorded originals from every manifest, keeping the current
declarations. After freezing, "revert" has nothing to restore.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.rewrite(cmd.Context(), nil, false, walk, "Froze", (*patch.Engine).FreezeFiles)
		},
	}

	walk.register(cmd)
	return cmd
}

// =============================================================================
// link
// =============================================================================

func (c *CLI) linkCommand() *cobra.Command {
	var (
		walk      walkOpts
		soft      bool
		byVersion bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "link <workspace>",
		Short: "Point dependencies at the members of another workspace",
		Long: `Rewrite every dependency on a member of <workspace> to use it.

By default dependencies get a path to the member directory. With --by-version
they are pinned to the version locked in <workspace>/Cargo.lock instead,
skipping packages that are also members of the current workspace. With --soft
the result is printed as a [patch] section instead of editing manifests.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner := c.newRunner()
			d, err := c.linkDecider(ctx, runner, walk.dir, args[0], byVersion)
			if err != nil {
				return err
			}
			if soft {
				return c.softPatch(ctx, runner, d, softOpts{dir: walk.dir, output: output})
			}
			return c.rewrite(ctx, d, c.cfg.ForceInline, walk, "Linked", (*patch.Engine).PatchFiles)
		},
	}

	walk.register(cmd)
	cmd.Flags().BoolVar(&soft, "soft", false, "print a [patch] section instead of editing manifests")
	cmd.Flags().BoolVar(&byVersion, "by-version", false, "pin to locked versions instead of paths")
	cmd.Flags().StringVarP(&output, "output", "o", "", "with --soft, write the section to a file")
	return cmd
}

// linkDecider builds the decider for linking dir to workspace.
func (c *CLI) linkDecider(ctx context.Context, runner *metadata.Runner, dir, workspace string, byVersion bool) (source.Decider, error) {
	if !byVersion {
		sp := newSpinner(ctx, c.Err, "Reading "+workspace+"...")
		sp.Start()
		paths, err := runner.Paths(ctx, workspace)
		sp.Stop()
		if err != nil {
			return nil, err
		}
		return rule.LinkPaths(paths), nil
	}

	from, err := lockfile.Load(filepath.Join(dir, lockfile.FileName))
	if err != nil {
		return nil, err
	}
	to, err := lockfile.Load(workspace)
	if err != nil {
		return nil, err
	}
	return rule.LinkVersions(from.Local(), to.Local()), nil
}
