package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/pipeline"
	"github.com/matzehuels/taintview/pkg/watch"
)

// watchCommand rebuilds the layout whenever the trace changes.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		output   string
		debounce time.Duration
		noCache  bool
		lf       layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "watch TRACE",
		Short: "Rebuild the layout whenever the trace changes",
		Long: `Follow a trace that a tracer is still appending to.

Every change to TRACE rebuilds the graph and rewrites the layout file. Bursts
of writes are folded into one rebuild. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			lf.apply(cmd, &opts)
			opts.Trace = args[0]
			if output == "" {
				output = basePath("", args[0]) + ".layout.json"
			}
			return c.runWatch(cmd.Context(), output, debounce, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "layout file to rewrite (default: <trace>.layout.json)")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a rebuild")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	lf.register(cmd)

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, output string, debounce time.Duration, noCache bool, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	rebuild := func(ctx context.Context, _ []string) error {
		g, stats, err := runner.Build(ctx, opts)
		if err != nil {
			return err
		}
		lay, err := runner.Layout(ctx, g, opts)
		if err != nil {
			return err
		}
		if err := graph.WriteLayoutFile(lay, output); err != nil {
			return err
		}
		printSuccess("%s: %d nodes, %d edges", time.Now().Format("15:04:05"), g.NodeCount(), g.EdgeCount())
		if stats.Skipped > 0 {
			printDetail("%d lines skipped", stats.Skipped)
		}
		return nil
	}

	if err := rebuild(ctx, nil); err != nil {
		return err
	}
	printFile(output)

	w, err := watch.New([]string{opts.Trace}, rebuild,
		watch.WithDebounce(debounce),
		watch.OnReload(func(changed []string, took time.Duration) {
			c.Logger.Debug("rebuilt", "files", changed, "took", took)
		}),
		watch.OnError(func(err error) {
			printError("rebuild failed: %v", err)
		}),
	)
	if err != nil {
		return err
	}
	printInfo("Watching %s (Ctrl-C to stop)", opts.Trace)
	return w.Run(ctx)
}
