package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/graph"
	"github.com/matzehuels/deppatcher/pkg/metadata"
	"github.com/matzehuels/deppatcher/pkg/render/nodelink"
	"github.com/matzehuels/deppatcher/pkg/rule"
	"github.com/matzehuels/deppatcher/pkg/softpatch"
)

const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

type graphOpts struct {
	dir       string
	from      string
	format    string
	output    string
	highlight string
	detailed  bool
	dev       bool
	ext       []string
}

func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export or render the resolved dependency graph",
		Long: `Export the dependency graph that soft-patch walks.

The JSON export can be fed back to "soft-patch --graph" to skip cargo. DOT
and SVG render the graph with Graphviz; with --highlight, packages the
expression would override are filled.`,
		Example: `  deppatcher graph -o deps.json
  deppatcher graph --format svg --highlight 'package == "serde" ? {path: "/src/serde"} : nil' -o deps.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "dir", "C", ".", "workspace directory")
	cmd.Flags().StringVar(&opts.from, "from", "", "read a JSON export instead of running cargo")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatJSON, "output format: json, dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "rule expression whose overrides are highlighted")
	cmd.Flags().StringArrayVar(&opts.ext, "ext-str", nil, "external variable for --highlight (key=value, repeatable)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show package sources in node labels")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "include dev-dependency edges")
	return cmd
}

func (c *CLI) runGraph(ctx context.Context, opts graphOpts) error {
	switch opts.format {
	case formatJSON, formatDOT, formatSVG:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want json, dot or svg)", opts.format)
	}

	runner := c.newRunner()
	g, err := c.loadGraph(ctx, runner, opts.dir, opts.from)
	if err != nil {
		return err
	}

	out := printer{w: c.Out}
	if opts.format == formatJSON {
		if opts.output == "" {
			return graph.WriteGraph(g, c.Out)
		}
		if err := graph.WriteGraphFile(g, opts.output); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "write %s", opts.output)
		}
		out.success("Exported %d packages", len(g.Packages))
		out.file(opts.output)
		return nil
	}

	data, err := c.renderGraph(ctx, g, opts, runner)
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", opts.output)
	}
	out.success("Rendered %d packages", len(g.Packages))
	out.file(opts.output)
	return nil
}

func (c *CLI) renderGraph(ctx context.Context, g *graph.Graph, opts graphOpts, runner *metadata.Runner) ([]byte, error) {
	ropts := nodelink.Options{Detailed: opts.detailed, DevEdges: opts.dev}
	if opts.highlight != "" {
		ext, err := rule.ParseExt(opts.ext)
		if err != nil {
			return nil, err
		}
		r, err := rule.Compile(rule.FromExpr(opts.highlight), rule.Options{
			Ext: ext,
			Paths: func(dir string) (map[string]string, error) {
				return runner.Paths(ctx, dir)
			},
		})
		if err != nil {
			return nil, err
		}
		res := &softpatch.Resolver{Decider: r, Logger: loggerFromContext(ctx)}
		if ropts.Overrides, err = res.Resolve(ctx, g); err != nil {
			return nil, err
		}
	}

	dot := nodelink.ToDOT(g, ropts)
	if opts.format == formatDOT {
		return []byte(dot), nil
	}
	return nodelink.RenderSVG(ctx, dot)
}
