package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gregorycrane/tb2ud/pkg/tree"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// viewMode selects between the sentence list and the token detail view.
type viewMode int

const (
	modeList viewMode = iota
	modeDetail
)

// DocModel is the bubbletea model for browsing a converted document.
// The list view shows one row per sentence; selecting a sentence opens a
// token table with the converted relations and, where present, the original
// ones they replaced.
type DocModel struct {
	Trees  []*tree.Tree
	Cursor int
	Mode   viewMode
	Height int
	Offset int
}

// NewDocModel creates a document browser over the converted sentences.
func NewDocModel(trees []*tree.Tree) DocModel {
	return DocModel{
		Trees:  trees,
		Height: 15,
	}
}

func (m DocModel) Init() tea.Cmd {
	return nil
}

func (m DocModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.Mode {
		case modeList:
			return m.updateList(msg)
		case modeDetail:
			return m.updateDetail(msg)
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DocModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Offset {
				m.Offset = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < len(m.Trees)-1 {
			m.Cursor++
			if m.Cursor >= m.Offset+m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case "enter":
		m.Mode = modeDetail
	}
	return m, nil
}

func (m DocModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.Mode = modeList
	case "left", "h":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "right", "l":
		if m.Cursor < len(m.Trees)-1 {
			m.Cursor++
		}
	}
	return m, nil
}

func (m DocModel) View() string {
	if m.Mode == modeDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m DocModel) viewList() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Sentences"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Trees) {
		end = len(m.Trees)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		t := m.Trees[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		empties := "—"
		if n := len(t.Empties()); n > 0 {
			empties = fmt.Sprintf("%d", n)
		}

		rows = append(rows, []string{
			cursor,
			sentenceLabel(i, t),
			fmt.Sprintf("%d", t.Len()),
			empties,
			truncate(t.Text(), 48),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	tb := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Sentence", "Tokens", "Empty", "Text").
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

	b.WriteString(tb.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Trees))))

	return b.String()
}

func (m DocModel) viewDetail() string {
	t := m.Trees[m.Cursor]
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Sentence %s", sentenceLabel(m.Cursor, t))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ sentence  esc back  q quit"))
	b.WriteString("\n")
	if text := t.Text(); text != "" {
		b.WriteString(listDimStyle.Render(truncate(text, 72)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	rows := [][]string{}
	for _, n := range t.Descendants() {
		rows = append(rows, tokenRow(n))
	}
	for _, n := range t.Empties() {
		rows = append(rows, tokenRow(n))
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	tb := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Form", "Lemma", "UPOS", "Deprel", "Head", "Was", "Deps").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			// Empty node rows follow the token rows.
			if row >= t.Len() {
				return listDimStyle
			}
			if col == 4 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(tb.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Trees))))

	return b.String()
}

// tokenRow formats one node as a detail table row.
func tokenRow(n *tree.Node) []string {
	head := "—"
	if p := n.Parent(); p != nil {
		head = p.Ord().String()
	}

	was := ""
	if n.Misc.OriginalDep != "" && n.Misc.OriginalDep != n.Deprel {
		was = n.Misc.OriginalDep
	}

	deps := make([]string, 0, len(n.Deps))
	for _, d := range n.Deps {
		deps = append(deps, fmt.Sprintf("%s:%s", d.Head.Ord(), d.Rel))
	}

	return []string{
		n.Ord().String(),
		truncate(n.Form, 16),
		truncate(n.Lemma, 16),
		n.UPOS,
		n.Deprel,
		head,
		was,
		strings.Join(deps, " "),
	}
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max < 1 {
		return ""
	}
	return string(r[:max-1]) + "…"
}
