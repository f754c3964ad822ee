package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taintview/pkg/pipeline"
	"github.com/matzehuels/taintview/pkg/server"
	"github.com/matzehuels/taintview/pkg/watch"
)

// serveCommand exposes a graph over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		indexLoc string
		binary   string
		follow   bool
		noCache  bool
		lf       layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "serve TRACE",
		Short: "Serve the graph, layouts and address lookups over HTTP",
		Long: `Serve a trace's taint graph as a JSON API.

  GET /healthz
  GET /graph
  GET /layout?strategy=&scale=&policy=
  GET /nodes/{uuid}
  GET /nodes/{uuid}/address
  GET /nodes/{uuid}/calls

With --watch the graph is rebuilt and swapped in whenever the trace changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			lf.apply(cmd, &opts)
			opts.Trace = args[0]
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			if indexLoc == "" {
				indexLoc = c.Config.Index
			}
			if binary == "" {
				binary = c.Config.Binary
			}
			return c.runServe(cmd.Context(), addr, indexLoc, binary, follow, noCache, opts)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config server.addr)")
	cmd.Flags().StringVar(&indexLoc, "index", "", "address index feed")
	cmd.Flags().StringVar(&binary, "binary", "", "ELF binary for call expansion")
	cmd.Flags().BoolVar(&follow, "watch", false, "reload the graph when the trace changes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	lf.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, indexLoc, binary string, follow, noCache bool, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if err := opts.ValidateForLayout(); err != nil {
		return err
	}
	g, stats, err := runner.Build(ctx, opts)
	if err != nil {
		return err
	}
	nav, err := c.newNavigator(ctx, runner, indexLoc, binary)
	if err != nil {
		return err
	}

	srv := server.New(g, runner,
		server.WithNavigator(nav),
		server.WithDefaults(opts),
		server.WithLogger(c.Logger),
		server.WithTimeouts(c.Config.Server.ReadTimeout, c.Config.Server.WriteTimeout),
	)

	printSuccess("Loaded %s", opts.Trace)
	printStats(g.NodeCount(), g.EdgeCount(), stats.Skipped, false)

	if follow {
		w, err := watch.New([]string{opts.Trace},
			func(ctx context.Context, _ []string) error { return srv.Reload(ctx) },
			watch.OnError(func(err error) { c.Logger.Error("reload failed", "err", err) }),
			watch.OnReload(func(_ []string, took time.Duration) {
				g := srv.Graph()
				c.Logger.Info("graph reloaded", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "took", took)
			}),
		)
		if err != nil {
			return err
		}
		go func() { _ = w.Run(ctx) }()
	}

	printInfo("Listening on %s", addr)
	return srv.ListenAndServe(ctx, addr)
}
