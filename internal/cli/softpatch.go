package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/graph"
	"github.com/matzehuels/deppatcher/pkg/metadata"
	"github.com/matzehuels/deppatcher/pkg/softpatch"
	"github.com/matzehuels/deppatcher/pkg/source"
)

// softOpts configure a soft-patch run.
type softOpts struct {
	dir       string
	output    string
	graphFile string // read the graph from a JSON export instead of cargo
}

func (c *CLI) softPatchCommand() *cobra.Command {
	var (
		opts  softOpts
		rules ruleOpts
	)

	cmd := &cobra.Command{
		Use:   "soft-patch [flags] <rule-file | - | -e expression>",
		Short: "Print a [patch] section computed from the resolved graph",
		Long: `Apply a rule to every package of the resolved dependency graph, including
dependencies of dependencies, and print the replacements as [patch] tables
to paste into the workspace Cargo.toml. No manifest is modified.

Slower than "patch" because it runs cargo metadata, but it also reaches
packages that are not declared directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner := c.newRunner()
			r, err := c.compileRule(ctx, args[0], rules, runner)
			if err != nil {
				return err
			}
			return c.softPatch(ctx, runner, r, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "dir", "C", ".", "workspace directory")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the section to a file instead of stdout")
	cmd.Flags().StringVar(&opts.graphFile, "graph", "", "use a graph exported with \"graph --format json\"")
	rules.register(cmd)
	return cmd
}

// loadGraph reads the resolved graph from file, or from cargo metadata in
// dir when file is empty.
func (c *CLI) loadGraph(ctx context.Context, runner *metadata.Runner, dir, file string) (*graph.Graph, error) {
	if file != "" {
		return graph.ReadGraphFile(file)
	}
	sp := newSpinner(ctx, c.Err, "Running cargo metadata...")
	sp.Start()
	defer sp.Stop()
	return runner.Graph(ctx, dir)
}

// softPatch resolves d over the graph of opts.dir and prints the result.
func (c *CLI) softPatch(ctx context.Context, runner *metadata.Runner, d source.Decider, opts softOpts) error {
	logger := loggerFromContext(ctx)
	st := &stats{logger: logger}
	runner.Hooks = st

	g, err := c.loadGraph(ctx, runner, opts.dir, opts.graphFile)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	res := &softpatch.Resolver{Decider: d, Hooks: st, Logger: logger}
	overrides, err := res.Resolve(ctx, g)
	if err != nil {
		return err
	}
	doc, err := overrides.Document()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d %s, %d %s",
		st.visited, plural(st.visited, "package", "packages"),
		overrides.Len(), plural(overrides.Len(), "override", "overrides")))

	if opts.output == "" {
		_, err := c.Out.Write(doc.Bytes())
		return err
	}
	if err := os.WriteFile(opts.output, doc.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", opts.output)
	}
	out := printer{w: c.Out}
	out.success("Wrote %d %s", overrides.Len(), plural(overrides.Len(), "override", "overrides"))
	out.file(opts.output)
	return nil
}
