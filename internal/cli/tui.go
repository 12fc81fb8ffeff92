package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ledgerBrowser - Interactive view of recorded originals
// =============================================================================

// ledgerBrowser lists manifests on the left and the originals recorded in
// the selected one below.
type ledgerBrowser struct {
	rows   []manifestStatus
	cursor int
	offset int
	height int
}

func newLedgerBrowser(rows []manifestStatus) ledgerBrowser {
	return ledgerBrowser{rows: rows, height: 10}
}

func (m ledgerBrowser) Init() tea.Cmd {
	return nil
}

func (m ledgerBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height/2-4, 3)
		m.offset = min(m.offset, max(len(m.rows)-m.height, 0))
		if m.cursor >= m.offset+m.height {
			m.offset = m.cursor - m.height + 1
		}
	}
	return m, nil
}

func (m ledgerBrowser) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Recorded Originals"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		line := fmt.Sprintf("%-40s %-20s %3d", r.Path, r.Name, len(r.Entries))
		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		case len(r.Entries) == 0:
			b.WriteString(listDimStyle.Render("  " + line))
		default:
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(strings.Repeat("─", 66)))
	b.WriteString("\n")
	pos := 0
	if len(m.rows) > 0 {
		b.WriteString(entriesView(m.rows[m.cursor]))
		pos = m.cursor + 1
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", pos, len(m.rows))))
	return b.String()
}

// entriesView renders the recorded originals of one manifest.
func entriesView(r manifestStatus) string {
	if len(r.Entries) == 0 {
		return listDimStyle.Render("  nothing recorded") + "\n"
	}
	var b strings.Builder
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "  %s %s %s\n",
			StyleHighlight.Render(e.Path.String()), StyleDim.Render(iconArrow), StyleValue.Render(e.Source.String()))
	}
	return b.String()
}
