package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/render/nodelink"
)

// renderOpts holds options for the render command.
type renderOpts struct {
	layoutFlags
	format   string
	output   string
	detailed bool
	scale    float64
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Draw a family graph as SVG or DOT",
		Long: `Render lays out a graph and draws it with Graphviz.

Members of the direct lineage are highlighted. Use --detailed to add the
role, generation and story count to each label. Use -o - to write to stdout.`,
		Example: `  # SVG next to the input
  kintree render family.graph.json

  # Radial DOT on stdout
  kintree render family.graph.json -k radial -f dot -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", pipeline.FormatSVG, "output format: svg, dot, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default: <input>.<format>)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show role, generation and stories in labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", nodelink.DefaultScale, "layout units to inches")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	if err := pipeline.ValidateFormat(opts.format); err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, res, _, err := c.computeLayout(ctx, runner, input, opts.layoutFlags)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", opts.format))
	spinner.Start()
	data, cached, err := runner.Render(ctx, g, res, opts.format, nodelink.Options{
		Scale:    opts.scale,
		Detailed: opts.detailed,
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if opts.output == "-" {
		_, err := stdout.Write(data)
		return err
	}

	output := opts.output
	if output == "" {
		output = derivedPath(input, "."+opts.format)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}

	printSuccess("Rendered %s (%s)", opts.format, res.Kind)
	printStats(g.MemberCount(), g.RelationshipCount(), cached)
	printKeyValue("Size", formatBounds(res))
	printFile(output)
	return nil
}

// formatBounds renders the layout extent, e.g. "480 x 300".
func formatBounds(res *layout.Result) string {
	return fmt.Sprintf("%.0f x %.0f", res.Bounds.Width(), res.Bounds.Height())
}
