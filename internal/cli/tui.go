package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/graph"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// browser - interactive solution list
// =============================================================================

// browser lists solutions on the left and explains the selected one.
type browser struct {
	g         *graph.Graph
	solutions []arith.Weights
	cursor    int
	offset    int
	height    int
}

func newBrowser(g *graph.Graph, sols []arith.Weights) browser {
	return browser{g: g, solutions: sols, height: 15}
}

func (m browser) Init() tea.Cmd {
	return nil
}

func (m browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.height)
		case "pgdown":
			m.move(m.height)
		case "home", "g":
			m.move(-len(m.solutions))
		case "end", "G":
			m.move(len(m.solutions))
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
		m.clampOffset()
	}
	return m, nil
}

func (m *browser) move(delta int) {
	if len(m.solutions) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.solutions)-1)
	m.clampOffset()
}

func (m *browser) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m browser) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Arithmetic structures"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  pgup/pgdn page  q quit"))
	b.WriteString("\n\n")

	if len(m.solutions) == 0 {
		b.WriteString(listDimStyle.Render("  no arithmetic structures in range"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.offset+m.height, len(m.solutions))
	var list strings.Builder
	for i := m.offset; i < end; i++ {
		line := fmt.Sprintf("%4d  %s", i+1, m.solutions[i])
		if i == m.cursor {
			list.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			list.WriteString(listNormalStyle.Render("  " + line))
		}
		list.WriteString("\n")
	}

	detail := ""
	if r, err := arith.Explain(m.g, m.solutions[m.cursor]); err == nil {
		detail = reportTable(m.g, r)
		if !r.Smooth {
			detail += "\n" + StyleWarning.Render(plural(len(r.Removable), "removable vertex"))
		}
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().PaddingRight(4).Render(list.String()),
		detail))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.solutions))))

	return b.String()
}
