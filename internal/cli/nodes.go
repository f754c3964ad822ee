package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// nodesCommand opens the taint table.
func (c *CLI) nodesCommand() *cobra.Command {
	var (
		indexLoc string
		policy   string
		plain    bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "nodes TRACE|GRAPH",
		Short: "Browse the taint table",
		Long: `Show every node of the graph in trace order.

Columns are UUID, Type, Name, StartInd, EndInd, Edge Anno, Child C and
Child D. Under the TAINT_BRANCH policy only the first six are shown.

Interactively, enter resolves the selected node to its instruction address
(needs --index) and / filters rows. With --plain, or when stdout is not a
terminal, the table is printed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if indexLoc == "" {
				indexLoc = c.Config.Index
			}
			return c.runNodes(cmd.Context(), args[0], indexLoc, policy, plain || !isTerminal(os.Stdout), noCache)
		},
	}

	cmd.Flags().StringVar(&indexLoc, "index", "", "address index feed (default: config index)")
	cmd.Flags().StringVar(&policy, "policy", "", "taint policy: default, TAINT_BRANCH")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the table instead of opening the browser")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runNodes(ctx context.Context, input, indexLoc, policy string, plain, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.baseOptions()
	if policy != "" {
		opts.Policy = policy
	}
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}

	g, _, _, err := loadGraph(ctx, runner, input, opts)
	if err != nil {
		return err
	}
	nav, err := c.newNavigator(ctx, runner, indexLoc, "")
	if err != nil {
		return err
	}

	if plain {
		return writeNodeTable(os.Stdout, g, opts.PolicyValue(), nav)
	}
	p := tea.NewProgram(NewNodeTableModel(g, opts.PolicyValue(), nav), tea.WithContext(ctx), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
