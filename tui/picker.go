// Package tui is the terminal bang picker behind `bangd pick`.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bangd/bang"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	keyStyle      = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#101F38")).Background(lipgloss.Color("#8BC34A"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
)

const defaultRows = 10

// ResolveFunc turns a query into a destination, normally Registry.Resolve.
type ResolveFunc func(query string) (bang.Resolution, error)

// Model ranks bangs as the user types. The first word of the input selects
// the bang, the rest is the search text: "gh golang/go" ranks by "gh" and
// Enter resolves "!<selected> golang/go". Input that starts with an
// explicit "!bang" is resolved as typed.
type Model struct {
	input   textinput.Model
	records []bang.Record
	results []bang.Scored
	cursor  int
	rows    int
	resolve ResolveFunc

	chosen *bang.Resolution
	err    error
}

func New(records []bang.Record, resolve ResolveFunc) Model {
	in := textinput.New()
	in.Placeholder = "bang query, e.g. gh golang/go or domain:github"
	in.Prompt = "› "
	in.Focus()

	m := Model{input: in, records: records, rows: defaultRows, resolve: resolve}
	m.rank()
	return m
}

// Chosen returns the resolution picked with Enter, if any.
func (m Model) Chosen() (bang.Resolution, bool) {
	if m.chosen == nil {
		return bang.Resolution{}, false
	}
	return *m.chosen, true
}

// Results returns the current ranking.
func (m Model) Results() []bang.Scored {
	return m.results
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.rows = max(3, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil
		case "tab":
			if sel, ok := m.selected(); ok {
				_, rest := splitHead(m.input.Value())
				m.input.SetValue("!" + sel.Key + " " + rest)
				m.input.CursorEnd()
				m.rank()
			}
			return m, nil
		case "enter":
			res, err := m.resolve(m.query())
			if err != nil {
				m.err = err
				return m, nil
			}
			m.chosen = &res
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	prev := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != prev {
		m.err = nil
		m.rank()
	}
	return m, cmd
}

// query is what Enter resolves.
func (m Model) query() string {
	raw := strings.TrimSpace(m.input.Value())
	head, rest := splitHead(raw)
	if strings.HasPrefix(head, "!") {
		return raw
	}
	sel, ok := m.selected()
	if !ok {
		return raw
	}
	return strings.TrimSpace("!" + sel.Key + " " + rest)
}

func (m *Model) rank() {
	head, _ := splitHead(m.input.Value())
	head = strings.TrimPrefix(head, "!")
	m.results = bang.Rank(m.records, bang.Tokenize(head))
	if m.cursor >= len(m.results) {
		m.cursor = max(0, len(m.results)-1)
	}
}

func (m Model) selected() (bang.Record, bool) {
	if m.cursor < len(m.results) {
		return m.results[m.cursor].Record, true
	}
	return bang.Record{}, false
}

func splitHead(s string) (head, rest string) {
	s = strings.TrimLeft(s, " ")
	head, rest, _ = strings.Cut(s, " ")
	return head, strings.TrimSpace(rest)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("bangd"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d bangs", len(m.records))))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	start := 0
	if m.cursor >= m.rows {
		start = m.cursor - m.rows + 1
	}
	for i := start; i < len(m.results) && i < start+m.rows; i++ {
		r := m.results[i]
		line := fmt.Sprintf("%-12s %-28s %s",
			keyStyle.Render("!"+r.Record.Key), r.Record.Name, dimStyle.Render(r.Record.Domain))
		if r.Score > 0 {
			line += dimStyle.Render(fmt.Sprintf("  %d", r.Score))
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.results) == 0 {
		b.WriteString(dimStyle.Render("no matching bangs"))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("↑/↓ select · tab complete · enter open · esc quit"))
	return b.String()
}
