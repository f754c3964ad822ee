package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/navigator"
	"github.com/matzehuels/taintview/pkg/pipeline"
	"github.com/matzehuels/taintview/pkg/taint"
)

// resolveCommand maps a node back to its instruction address.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		indexLoc string
		binary   string
		calls    bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve TRACE UUID",
		Short: "Show the instruction address of a node",
		Long: `Look up the instruction that produced a node.

The node's endind (or startind when endind is absent) is looked up in the
address index, a feed of E lines mapping trace positions to addresses and L
lines naming loaded libraries.

With --calls the function containing the address is decoded from --binary
(an x86 ELF) and its direct call targets are listed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if indexLoc == "" {
				indexLoc = c.Config.Index
			}
			if binary == "" {
				binary = c.Config.Binary
			}
			return c.runResolve(cmd.Context(), args[0], args[1], indexLoc, binary, calls, noCache)
		},
	}

	cmd.Flags().StringVar(&indexLoc, "index", "", "address index feed (default: config index)")
	cmd.Flags().StringVar(&binary, "binary", "", "ELF binary for call expansion (default: config binary)")
	cmd.Flags().BoolVar(&calls, "calls", false, "list the direct calls of the containing function")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, input, uuid, indexLoc, binary string, calls, noCache bool) error {
	if err := apperrors.ValidateNodeID(uuid); err != nil {
		return err
	}
	if indexLoc == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "an address index is required (--index or config index)")
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, _, _, err := loadGraph(ctx, runner, input, c.baseOptions())
	if err != nil {
		return err
	}
	n, ok := g.Node(uuid)
	if !ok {
		return apperrors.New(apperrors.ErrCodeNotFound, "node %s not found", uuid)
	}

	nav, err := c.newNavigator(ctx, runner, indexLoc, binary)
	if err != nil {
		return err
	}

	addr, ok := nav.Resolve(n)
	printKeyValue("node", classStyle(n.Class()).Render(n.Label()))
	printKeyValue("position", n.Index())
	if !ok {
		return apperrors.New(apperrors.ErrCodeUnresolved, "no address recorded for node %s", uuid)
	}
	printKeyValue("address", StyleAddress.Render(fmt.Sprintf("%#x", addr)))
	if lib, ok := nav.Index().LibraryFor(addr); ok {
		printKeyValue("library", lib.String())
	}

	if !calls {
		return nil
	}
	cg, err := nav.ExpandCallGraph(ctx, addr)
	if err != nil {
		return fmt.Errorf("expand calls: %w", err)
	}
	printNewline()
	printKeyValue("function", fmt.Sprintf("%s (%#x)", cg.Caller, cg.Address))
	if len(cg.Callees) == 0 {
		printDetail("no direct calls")
	}
	for _, name := range cg.Names() {
		printDetail("→ %s", name)
	}
	return nil
}

// newNavigator loads the address index and, when binary is set, its code.
func (c *CLI) newNavigator(ctx context.Context, runner *pipeline.Runner, indexLoc, binary string) (*navigator.Navigator, error) {
	opts := []navigator.Option{navigator.WithLogger(c.Logger)}
	if binary != "" {
		code, err := navigator.OpenELF(binary)
		if err != nil {
			return nil, fmt.Errorf("open binary %s: %w", binary, err)
		}
		opts = append(opts, navigator.WithCode(code))
	}
	if indexLoc == "" {
		return navigator.New(nil, opts...), nil
	}
	ix, err := runner.Loader.Index(ctx, indexLoc)
	if err != nil {
		return nil, err
	}
	return navigator.New(ix, opts...), nil
}

// addressOf formats the resolved address of n, or "" when unresolved.
func addressOf(nav *navigator.Navigator, n *taint.Node) string {
	if nav == nil {
		return ""
	}
	addr, ok := nav.Resolve(n)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%#x", addr)
}
