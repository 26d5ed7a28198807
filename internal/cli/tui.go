package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/layout"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// InspectModel - Interactive layout result browser
// =============================================================================

// inspectTab selects which panel the inspector shows.
type inspectTab int

const (
	tabNodes inspectTab = iota
	tabEdges
	tabDiagnostics
)

// InspectModel is the bubbletea model for browsing a layout result.
type InspectModel struct {
	Result *layout.Result

	Tab    inspectTab
	Cursor int
	Height int
	Offset int
}

// NewInspectModel creates an inspector over a layout result.
func NewInspectModel(res *layout.Result) InspectModel {
	return InspectModel{
		Result: res,
		Height: 15,
	}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) rowCount() int {
	switch m.Tab {
	case tabEdges:
		return m.Result.Graph.EdgeCount()
	case tabDiagnostics:
		return len(m.Result.Diagnostics)
	default:
		return m.Result.Graph.NodeCount()
	}
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.Tab = (m.Tab + 1) % 3
			m.Cursor, m.Offset = 0, 0
		case "shift+tab", "left", "h":
			m.Tab = (m.Tab + 2) % 3
			m.Cursor, m.Offset = 0, 0
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < m.rowCount()-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m InspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Layout Inspector"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("score %.2f · %d iterations · converged %v",
		m.Result.Score.Total, m.Result.Iterations, m.Result.Converged)))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab switch panel  q quit"))
	b.WriteString("\n\n")

	switch m.Tab {
	case tabEdges:
		b.WriteString(m.renderEdges())
	case tabDiagnostics:
		b.WriteString(m.renderDiagnostics())
	default:
		b.WriteString(m.renderNodes())
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, max(m.rowCount(), 1))))
	return b.String()
}

func (m InspectModel) renderTabs() string {
	names := []string{"Nodes", "Edges", "Diagnostics"}
	parts := make([]string, len(names))
	for i, name := range names {
		if inspectTab(i) == m.Tab {
			parts[i] = listSelectedStyle.Render("[" + name + "]")
		} else {
			parts[i] = listDimStyle.Render(" " + name + " ")
		}
	}
	return strings.Join(parts, " ")
}

func (m InspectModel) window(n int) (int, int) {
	end := m.Offset + m.Height
	if end > n {
		end = n
	}
	return m.Offset, end
}

func (m InspectModel) renderNodes() string {
	nodes := m.Result.Graph.Nodes()
	lo, hi := m.window(len(nodes))

	rows := [][]string{}
	for i := lo; i < hi; i++ {
		n := nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		pinned := ""
		if n.Pinned {
			pinned = "pin"
		}
		rows = append(rows, []string{
			cursor,
			n.ID,
			string(n.Kind.Normalize()),
			fmt.Sprintf("%.0f,%.0f", n.Position.X, n.Position.Y),
			fmt.Sprintf("%.0f×%.0f", n.Width, n.Height),
			pinned,
		})
	}
	return m.renderTable([]string{"", "ID", "Kind", "Position", "Size", ""}, rows)
}

func (m InspectModel) renderEdges() string {
	edges := m.Result.Graph.Edges()
	lo, hi := m.window(len(edges))

	rows := [][]string{}
	for i := lo; i < hi; i++ {
		e := edges[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			e.ID,
			e.Source + " → " + e.Target,
			string(e.SourceHandle),
			string(e.TargetHandle),
		})
	}
	return m.renderTable([]string{"", "ID", "Connection", "Out", "In"}, rows)
}

func (m InspectModel) renderDiagnostics() string {
	diags := m.Result.Diagnostics
	if len(diags) == 0 {
		return listDimStyle.Render("  no diagnostics — clean run")
	}
	lo, hi := m.window(len(diags))

	rows := [][]string{}
	for i := lo; i < hi; i++ {
		d := diags[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, string(d.Kind), d.Subject, d.Detail})
	}
	return m.renderTable([]string{"", "Kind", "Subject", "Detail"}, rows)
}

func (m InspectModel) renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	return t.Render()
}

// severity returns a short status line for a result, used outside the TUI.
func severity(res *layout.Result) string {
	if res.Diagnostics.Has(flow.DiagResidualCollisions) {
		return "residual collisions"
	}
	if len(res.Diagnostics) > 0 {
		return fmt.Sprintf("%d diagnostics", len(res.Diagnostics))
	}
	return "clean"
}
