package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/taintview/pkg/navigator"
	"github.com/matzehuels/taintview/pkg/taint"
)

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// NodeTableModel - Interactive taint table
// =============================================================================

// NodeTableModel is the bubbletea model behind `taintview nodes`. Enter
// resolves the selected node to its instruction address; "/" filters rows.
type NodeTableModel struct {
	nodes   []*taint.Node
	columns []taint.Column
	nav     *navigator.Navigator

	visible   []*taint.Node
	table     table.Model
	filter    textinput.Model
	filtering bool
	status    string

	// Selected is the last node resolved with enter.
	Selected *taint.Node
}

// NewNodeTableModel creates a table over every node of g, in trace order,
// with the columns of policy.
func NewNodeTableModel(g *taint.Graph, policy taint.Policy, nav *navigator.Navigator) NodeTableModel {
	columns := policy.Columns()
	tcols := make([]table.Column, len(columns))
	for i, col := range columns {
		tcols[i] = table.Column{Title: col.Title, Width: col.Width}
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(colorGray).Bold(true)
	styles.Selected = styles.Selected.Foreground(colorCyan).Bold(true)

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter"

	m := NodeTableModel{
		nodes:   g.Nodes(),
		columns: columns,
		nav:     nav,
		table: table.New(
			table.WithColumns(tcols),
			table.WithFocused(true),
			table.WithHeight(15),
			table.WithStyles(styles),
		),
		filter: ti,
	}
	m.applyFilter()
	return m
}

func (m NodeTableModel) Init() tea.Cmd {
	return nil
}

func (m NodeTableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-8, 5))
		return m, nil
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "/":
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink
		case "enter":
			m.resolveSelected()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m NodeTableModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.filter.SetValue("")
		fallthrough
	case "enter":
		m.filtering = false
		m.filter.Blur()
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter keeps the nodes with any cell containing the filter text.
func (m *NodeTableModel) applyFilter() {
	needle := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = nil
	rows := make([]table.Row, 0, len(m.nodes))
	for _, n := range m.nodes {
		row := m.row(n)
		if needle != "" && !rowContains(row, needle) {
			continue
		}
		m.visible = append(m.visible, n)
		rows = append(rows, row)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m NodeTableModel) row(n *taint.Node) table.Row {
	row := make(table.Row, len(m.columns))
	for i, col := range m.columns {
		row[i] = col.Value(n)
	}
	return row
}

func rowContains(row table.Row, needle string) bool {
	for _, cell := range row {
		if strings.Contains(strings.ToLower(cell), needle) {
			return true
		}
	}
	return false
}

func (m *NodeTableModel) resolveSelected() {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return
	}
	n := m.visible[i]
	m.Selected = n
	if addr := addressOf(m.nav, n); addr != "" {
		m.status = fmt.Sprintf("[%s] %s → %s", n.UUID, n.Label(), addr)
		return
	}
	m.status = fmt.Sprintf("[%s] %s has no recorded address", n.UUID, n.Label())
}

func (m NodeTableModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Taint Nodes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ go to address  / filter  q quit"))
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", len(m.visible), len(m.nodes))))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StyleAddress.Render(m.status))
	}
	return b.String()
}

// =============================================================================
// Plain output
// =============================================================================

// writeNodeTable renders the taint table without interaction. An Address
// column is added when nav can resolve at least one node.
func writeNodeTable(w io.Writer, g *taint.Graph, policy taint.Policy, nav *navigator.Navigator) error {
	columns := policy.Columns()
	nodes := g.Nodes()

	addrs := make([]string, len(nodes))
	withAddr := false
	for i, n := range nodes {
		addrs[i] = addressOf(nav, n)
		withAddr = withAddr || addrs[i] != ""
	}

	headers := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		headers = append(headers, col.Title)
	}
	if withAddr {
		headers = append(headers, "Address")
	}

	rows := make([][]string, len(nodes))
	for i, n := range nodes {
		row := make([]string, 0, len(headers))
		for _, col := range columns {
			row = append(row, col.Value(n))
		}
		if withAddr {
			row = append(row, addrs[i])
		}
		rows[i] = row
	}

	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			if col == 0 && row >= 0 && row < len(nodes) {
				return classStyle(nodes[row].Class())
			}
			return lipgloss.NewStyle()
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
