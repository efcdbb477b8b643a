package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/importer"
)

// maxPrintedWarnings caps the warnings printed after an import.
const maxPrintedWarnings = 10

// importOpts holds options for the import command.
type importOpts struct {
	format string
	output string
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a family export into a graph file",
		Long: `Import reads a CSV, JSON, YAML or TOML export and writes a graph.json.

The input shape (member list, nested tree, or node/edge graph) is detected
automatically. Rows that cannot be used are skipped and reported as warnings.`,
		Example: `  # Import a spreadsheet export
  kintree import family.csv

  # Force the decoder for a file without a telling extension
  kintree import export.txt --format json -o family.graph.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "input format: "+formatNames()+" (default: from extension)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.graph.json)")

	return cmd
}

func (c *CLI) runImport(cmd *cobra.Command, input string, opts importOpts) error {
	payload, err := decodeInput(input, opts.format)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(true)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	g, res, err := runner.Import(cmd.Context(), payload)
	if err != nil {
		return err
	}
	prog.done("Import complete")

	output := opts.output
	if output == "" {
		output = derivedPath(input, ".graph.json")
	}
	if err := graph.WriteGraphFile(g, output); err != nil {
		return err
	}

	printSuccess("Imported %s (%s)", filepath.Base(input), res.Shape)
	printStats(g.MemberCount(), g.RelationshipCount(), false)
	printWarnings(res.Warnings, maxPrintedWarnings)
	printFile(output)
	printNewline()
	printNextStep("Next", appName, "render", output)
	return nil
}

// decodeInput decodes path with the named format, or by extension when
// format is empty.
func decodeInput(path, format string) (any, error) {
	if format == "" {
		return importer.DecodeFile(path)
	}
	f, err := importer.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return importer.Decode(file, f)
}

// derivedPath replaces the extension of path with suffix. An existing
// ".graph.json" or ".layout.json" ending is stripped first.
func derivedPath(path, suffix string) string {
	for _, ext := range []string{".graph.json", ".layout.json"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext) + suffix
		}
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

func formatNames() string {
	names := make([]string, len(importer.Formats))
	for i, f := range importer.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
