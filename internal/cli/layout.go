package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// layoutFlags are shared by the layout and render commands.
type layoutFlags struct {
	kind              string
	horizontalSpacing float64
	verticalSpacing   float64
	radialStep        float64
	innerRadius       float64
	noCache           bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "kind", "k", string(pipeline.DefaultKind), "layout kind: vertical, horizontal, radial")
	cmd.Flags().Float64Var(&f.horizontalSpacing, "horizontal-spacing", 0, "distance between siblings (default from config)")
	cmd.Flags().Float64Var(&f.verticalSpacing, "vertical-spacing", 0, "distance between generations (default from config)")
	cmd.Flags().Float64Var(&f.radialStep, "radial-step", 0, "ring distance for radial layouts (default from config)")
	cmd.Flags().Float64Var(&f.innerRadius, "inner-radius", 0, "first ring radius for radial layouts (default from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the layout cache")
}

// config merges the flag overrides onto base.
func (f *layoutFlags) config(base layout.Config) layout.Config {
	cfg := base
	if f.horizontalSpacing > 0 {
		cfg.HorizontalSpacing = f.horizontalSpacing
	}
	if f.verticalSpacing > 0 {
		cfg.VerticalSpacing = f.verticalSpacing
	}
	if f.radialStep > 0 {
		cfg.RadialStep = f.radialStep
	}
	if f.innerRadius > 0 {
		cfg.InnerRadius = f.innerRadius
	}
	return cfg.WithDefaults()
}

// layoutOpts holds options for the layout command.
type layoutOpts struct {
	layoutFlags
	output   string
	annotate string
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout <graph.json>",
		Short: "Compute node positions for a family graph",
		Long: `Layout computes a vertical, horizontal or radial tree layout and writes
the positions as a layout.json.

Results are cached by graph content and spacing, so repeated runs on an
unchanged graph are instant.`,
		Example: `  # Top-down layout
  kintree layout family.graph.json

  # Radial layout with wider rings, also writing the annotated graph
  kintree layout family.graph.json -k radial --radial-step 240 --annotate family.annotated.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&opts.annotate, "annotate", "", "also write the graph with generation and lineage annotations")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts layoutOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, res, cached, err := c.computeLayout(ctx, runner, input, opts.layoutFlags)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = derivedPath(input, ".layout.json")
	}
	if err := graph.WriteLayoutFile(graph.FromResult(res, g), output); err != nil {
		return err
	}

	printSuccess("Computed %s layout", res.Kind)
	printStats(g.MemberCount(), g.RelationshipCount(), cached)
	printKeyValue("Size", formatBounds(res))
	printFile(output)
	if opts.annotate != "" {
		if err := graph.WriteGraphFile(g, opts.annotate); err != nil {
			return err
		}
		printFile(opts.annotate)
	}
	return nil
}

// computeLayout reads a graph file and lays it out.
func (c *CLI) computeLayout(ctx context.Context, runner *pipeline.Runner, input string, flags layoutFlags) (*family.Graph, *layout.Result, bool, error) {
	kind, err := layout.ParseKind(flags.kind)
	if err != nil {
		return nil, nil, false, err
	}
	g, err := graph.ReadGraphFile(input, family.WithLogger(c.Logger))
	if err != nil {
		return nil, nil, false, err
	}

	prog := newProgress(c.Logger)
	res, cached, err := runner.Layout(ctx, g, kind, flags.config(c.Config.Layout))
	if err != nil {
		return nil, nil, false, err
	}
	prog.done("Layout complete")
	return g, res, cached, nil
}
