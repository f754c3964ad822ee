package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/store"
	"github.com/matzehuels/taintview/pkg/taint"
)

// storeCommand manages named graph snapshots.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Save, list and export named graph snapshots",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeSaveCommand())
	cmd.AddCommand(c.storeExportCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			snaps, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				printInfo("No snapshots saved")
				return nil
			}
			return writeSnapshotTable(os.Stdout, snaps)
		},
	}
}

func (c *CLI) storeSaveCommand() *cobra.Command {
	var (
		schema  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "save NAME TRACE|GRAPH",
		Short: "Build a graph and save it under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := c.baseOptions()
			if schema != "" {
				opts.Schema = schema
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			g, _, _, err := loadGraph(ctx, runner, args[1], opts)
			if err != nil {
				return err
			}
			snap, err := c.saveSnapshot(ctx, args[0], opts.PolicyValue(), g)
			if err != nil {
				return err
			}
			printSuccess("Saved snapshot %s", snap.Name)
			printDetail("id: %s", snap.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "record schema: auto, full or short")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) storeExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export ID|NAME",
		Short: "Write a saved snapshot to a graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			snap, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			g, err := snap.Taint()
			if err != nil {
				return err
			}
			if output == "" {
				output = snap.Name + ".json"
			}
			if output == "-" {
				return graph.WriteGraph(g, os.Stdout, graph.FormatJSON)
			}
			if err := graph.WriteGraphFile(g, output); err != nil {
				return err
			}
			printSuccess("Exported %s", snap.Name)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .json or .yaml (default: <name>.json, - for stdout)")

	return cmd
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID|NAME",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			snap, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := st.Delete(cmd.Context(), snap.ID); err != nil {
				return err
			}
			printSuccess("Deleted %s", snap.Name)
			return nil
		},
	}
}

func writeSnapshotTable(w io.Writer, snaps []store.Snapshot) error {
	rows := make([][]string, len(snaps))
	for i, s := range snaps {
		policy := s.Policy
		if policy == "" {
			policy = string(taint.PolicyDefault)
		}
		rows[i] = []string{
			s.Name,
			s.ID,
			policy,
			strconv.Itoa(s.Nodes),
			strconv.Itoa(s.Edges),
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}

	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "ID", "Policy", "Nodes", "Edges", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return listHeaderStyle
			case col == 1:
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
