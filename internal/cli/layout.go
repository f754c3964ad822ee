package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/pipeline"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout TRACE|GRAPH",
		Short: "Compute node positions for a taint graph",
		Long: `Compute node positions for a taint graph.

The input is a trace or a graph exported with 'build -o'. The output is a
layout file (JSON, or YAML by extension) holding every node's position,
label and class, plus the edges.

Hierarchical strategies (standard, branch, layered) follow the propagation
order; standard fails on cyclic graphs unless --break-cycles is given.
Under the TAINT_BRANCH policy standard runs as branch.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			lf.apply(cmd, &opts)
			return c.runLayout(cmd.Context(), args[0], output, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	lf.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, noCache bool, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, stats, _, err := loadGraph(ctx, runner, input, opts)
	if err != nil {
		return err
	}

	spin := startProgress(ctx, "Computing layout...")
	lay, hit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spin.Fail("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spin.Done()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "" {
		output = basePath("", input) + ".layout.json"
	}
	if err := graph.WriteLayoutFile(lay, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete (%s)", lay.Strategy)
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), stats.Skipped, hit)
	printNewline()
	printNextStep("Render", fmt.Sprintf("taintview render %s -s %s", input, lay.Strategy))
	return nil
}
