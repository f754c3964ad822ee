package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taintview/pkg/buildinfo"
	"github.com/matzehuels/taintview/pkg/cache"
	"github.com/matzehuels/taintview/pkg/config"
	"github.com/matzehuels/taintview/pkg/layout"
	"github.com/matzehuels/taintview/pkg/observability"
	"github.com/matzehuels/taintview/pkg/pipeline"
	"github.com/matzehuels/taintview/pkg/store"
	"github.com/matzehuels/taintview/pkg/taint"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "taintview",
		Short: "taintview explores taint-propagation traces",
		Long: `taintview folds the records of a taint-tracking trace into a graph of
registers and memory locations, lays it out, renders it, and maps nodes back
to instruction addresses.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/taintview/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.nodesCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup applies --verbose, loads the configuration and installs the logging
// hooks.
func (c *CLI) setup(cmd *cobra.Command) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.Config = cfg

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetPipelineHooks(hooks)
	observability.SetServerHooks(hooks)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(log.WithContext(ctx, c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, nil, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.Config.Cache.Redis)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "addr", c.Config.Cache.Redis.Addr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := c.Config.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openStore opens the configured snapshot store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	if c.Config.Store.Backend == config.StoreMongo {
		s, err := store.OpenMongo(ctx, c.Config.Store.Mongo)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	path, err := c.Config.StorePath()
	if err != nil {
		return nil, fmt.Errorf("store path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	s, err := store.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions returns pipeline options seeded from the configuration.
// Flags bound to the returned struct override these values.
func (c *CLI) baseOptions() pipeline.Options {
	cfg := c.Config
	return pipeline.Options{
		Schema:       cfg.Trace.Schema,
		CustomSchema: cfg.Trace.Custom,
		Strategy:     cfg.Strategy,
		Policy:       cfg.Policy,
		Width:        cfg.Canvas.Width,
		Height:       cfg.Canvas.Height,
		Scale:        cfg.Canvas.Scale,
		RowSlots:     cfg.Canvas.RowSlots,
		RowHeight:    cfg.Canvas.RowHeight,
		Seed:         cfg.Canvas.Seed,
		Iterations:   cfg.Canvas.Iterations,
		SingleBranch: cfg.Canvas.SingleBranch,
		Logger:       c.Logger,
	}
}

// layoutFlags holds layout flags. Unset flags keep the configured value.
type layoutFlags struct {
	strategy     string
	policy       string
	scale        float64
	width        float64
	height       float64
	seed         uint64
	singleBranch bool
	breakCycles  bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", "layout strategy: standard, branch, layered, spring, circular, shell, spectral")
	cmd.Flags().StringVar(&f.policy, "policy", "", "taint policy: default, TAINT_BRANCH")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "canvas side for geometric and branch layouts")
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "spring layout seed")
	cmd.Flags().BoolVar(&f.singleBranch, "single-branch", false, "branch layout follows only the first child")
	cmd.Flags().BoolVar(&f.breakCycles, "break-cycles", false, "drop back edges before hierarchical layout")

	_ = cmd.RegisterFlagCompletionFunc("strategy", cobra.FixedCompletions(layout.Strategies(), cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("policy", cobra.FixedCompletions([]string{"default", string(taint.PolicyTaintBranch)}, cobra.ShellCompDirectiveNoFileComp))
}

func (f *layoutFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	if f.strategy != "" {
		opts.Strategy = f.strategy
	}
	if f.policy != "" {
		opts.Policy = f.policy
	}
	if f.scale > 0 {
		opts.Scale = f.scale
	}
	if f.width > 0 {
		opts.Width = f.width
	}
	if f.height > 0 {
		opts.Height = f.height
	}
	if f.seed > 0 {
		opts.Seed = f.seed
	}
	if cmd.Flags().Changed("single-branch") {
		opts.SingleBranch = f.singleBranch
	}
	opts.BreakCycles = f.breakCycles
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
