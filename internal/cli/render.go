package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taintview/pkg/pipeline"
)

// renderCommand creates the render command: trace to diagram in one step.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		lf         layoutFlags
	)
	var render struct {
		detailed   bool
		edgeLabels bool
		pinned     bool
	}

	cmd := &cobra.Command{
		Use:   "render TRACE",
		Short: "Render a trace to SVG, PNG, DOT or layout JSON",
		Long: `Build, lay out and render a trace in one step.

Nodes are colored by class: sinks red, sources green, registers pink and
everything else white. Dashed edges are child_d edges.

By default Graphviz arranges the diagram. With --pinned the computed layout
positions are kept, so the picture matches 'layout' output exactly.

With one format, -o names the output file; with several, -o is a base path
and each format gets its own extension. Use -o - to write a single format to
stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			lf.apply(cmd, &opts)
			opts.Trace = args[0]
			opts.Formats = parseFormats(formatsStr)
			opts.Detailed = render.detailed
			opts.EdgeLabels = render.edgeLabels
			opts.Pinned = render.pinned
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if output == "-" && len(opts.Formats) != 1 {
				return fmt.Errorf("-o - needs exactly one format, got %d", len(opts.Formats))
			}
			return c.runRender(cmd.Context(), output, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&render.detailed, "detailed", false, "show uuid and trace positions in node labels")
	cmd.Flags().BoolVar(&render.edgeLabels, "edge-labels", false, "label edges with their type and annotation")
	cmd.Flags().BoolVar(&render.pinned, "pinned", false, "keep the computed layout positions")
	lf.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, output string, noCache bool, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spin := startProgress(ctx, "Rendering...")
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spin.Fail("Render failed")
		return err
	}
	spin.Done()

	paths := outputPaths(output, opts.Trace, opts.Formats)
	for _, format := range opts.Formats {
		if err := writeFile(paths[format], result.Artifacts[format]); err != nil {
			return err
		}
	}
	if output == "-" {
		return nil
	}

	printSuccess("Rendered %s layout", result.Layout.Strategy)
	for _, format := range slices.Sorted(slices.Values(opts.Formats)) {
		printFile(paths[format])
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.BuildStats.Skipped, result.CacheInfo.RenderHit)
	return nil
}

// outputPaths maps each format to its output file. A single format with an
// explicit output uses that path verbatim.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// writeFile writes data to path, or to stdout when path is "-".
func writeFile(path string, data []byte) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
