package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/pipeline"
	"github.com/matzehuels/taintview/pkg/store"
	"github.com/matzehuels/taintview/pkg/taint"
)

type buildFlags struct {
	output  string
	save    string
	schema  string
	noCache bool
	refresh bool
}

// buildCommand creates the build command: ingest a trace into a graph.
func (c *CLI) buildCommand() *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "build TRACE",
		Short: "Fold a trace into a taint graph",
		Long: `Fold every record of a trace into a taint graph and print its size.

TRACE is a file path, a URL (s3://, gs://, http://, ...) or "-" for stdin.
Gzipped traces (.gz) are decompressed on the fly. Lines without a record id
are skipped and counted.

With -o the graph is written as JSON or YAML (by extension); with --save it
is stored as a named snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the graph to a .json or .yaml file")
	cmd.Flags().StringVar(&f.save, "save", "", "save the graph as a named snapshot")
	cmd.Flags().StringVar(&f.schema, "schema", "", "record layout: auto, full, short")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "rebuild even when the trace is cached")

	return cmd
}

func (c *CLI) runBuild(ctx context.Context, input string, f buildFlags) error {
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.baseOptions()
	opts.Trace = input
	opts.Refresh = f.refresh
	if f.schema != "" {
		opts.Schema = f.schema
	}

	sw := startStopwatch(c.Logger)
	g, stats, hit, err := runner.BuildWithCacheInfo(ctx, opts)
	if err != nil {
		return fmt.Errorf("build %s: %w", input, err)
	}
	sw.lap("Ingested %d records", stats.Records)

	printSuccess("Built taint graph")
	printStats(g.NodeCount(), g.EdgeCount(), stats.Skipped, hit)
	if stats.Placeholders > 0 {
		printDetail("%d nodes are referenced as children but never recorded", stats.Placeholders)
	}

	if f.output != "" {
		if err := graph.WriteGraphFile(g, f.output); err != nil {
			return fmt.Errorf("write %s: %w", f.output, err)
		}
		printFile(f.output)
	}

	if f.save != "" {
		snap, err := c.saveSnapshot(ctx, f.save, opts.PolicyValue(), g)
		if err != nil {
			return err
		}
		printSuccess("Saved snapshot %s", snap.Name)
		printDetail("id: %s", snap.ID)
	}

	printNewline()
	printNextStep("Lay out", "taintview layout "+input)
	return nil
}

func (c *CLI) saveSnapshot(ctx context.Context, name string, policy taint.Policy, g *taint.Graph) (store.Snapshot, error) {
	snap, err := store.NewSnapshot(name, policy, g)
	if err != nil {
		return store.Snapshot{}, err
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if err := st.Save(ctx, snap); err != nil {
		return store.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// isGraphFile reports whether input names an exported graph rather than a
// trace.
func isGraphFile(input string) bool {
	switch strings.ToLower(filepath.Ext(input)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// loadGraph reads an exported graph file or builds the graph of a trace.
// The returned flag reports a build cache hit.
func loadGraph(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options) (*taint.Graph, taint.Stats, bool, error) {
	if isGraphFile(input) {
		g, err := graph.ReadGraphFile(input)
		if err != nil {
			return nil, taint.Stats{}, false, fmt.Errorf("load graph %s: %w", input, err)
		}
		return g, taint.Stats{Nodes: g.NodeCount(), Edges: g.EdgeCount()}, false, nil
	}
	opts.Trace = input
	g, stats, hit, err := runner.BuildWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, stats, false, fmt.Errorf("build %s: %w", input, err)
	}
	return g, stats, hit, nil
}

// basePath derives an output base from the output flag or the input path.
// A known format extension on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		input = strings.TrimSuffix(input, ".gz")
		switch {
		case input == "-":
			return "trace"
		case strings.Contains(input, "://"):
			input = filepath.Base(input)
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
