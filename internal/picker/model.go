package picker

import (
	"fmt"
	"strings"

	"github.com/cesarferreira/robin/internal/command"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
)

// maxVisible caps the number of results drawn at once.
const maxVisible = 12

var (
	promptStyle   = color.New(color.FgCyan, color.Bold)
	selectedStyle = color.New(color.FgGreen, color.Bold)
	previewStyle  = color.New(color.Faint)
)

// Model is the bubbletea model of the picker.
type Model struct {
	index    *Index
	query    string
	matches  []Match
	cursor   int
	chosen   *command.Entry
	canceled bool
	width    int
}

// NewModel creates a picker over table with an initial query.
func NewModel(table command.Table, query string) Model {
	m := Model{index: NewIndex(table), query: query}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyEnter:
			if len(m.matches) == 0 {
				return m, nil
			}
			entry := m.matches[m.cursor].Entry
			m.chosen = &entry
			return m, tea.Quit
		case tea.KeyUp, tea.KeyCtrlP, tea.KeyShiftTab:
			if m.cursor > 0 {
				m.cursor--
			}
		case tea.KeyDown, tea.KeyCtrlN, tea.KeyTab:
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
		case tea.KeyBackspace:
			if r := []rune(m.query); len(r) > 0 {
				m.query = string(r[:len(r)-1])
				m.refresh()
			}
		case tea.KeyCtrlU:
			m.query = ""
			m.refresh()
		case tea.KeySpace:
			m.query += " "
			m.refresh()
		case tea.KeyRunes:
			m.query += string(msg.Runes)
			m.refresh()
		}
	}
	return m, nil
}

func (m *Model) refresh() {
	m.matches = m.index.Search(m.query)
	m.cursor = 0
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(promptStyle.Sprint("> "))
	b.WriteString(m.query)
	b.WriteString("\n")

	if len(m.matches) == 0 {
		b.WriteString(previewStyle.Sprint("  no matching commands"))
		b.WriteString("\n")
		return b.String()
	}

	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(m.matches))

	width := nameWidth(m.matches)
	for i := start; i < end; i++ {
		line := formatLine(m.matches[i].Entry, width, m.width)
		if i == m.cursor {
			b.WriteString(selectedStyle.Sprint("▸ "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(previewStyle.Sprintf("  %d/%d", len(m.matches), m.index.Len()))
	b.WriteString("\n")
	return b.String()
}

// Chosen returns the selected entry, if any.
func (m Model) Chosen() (command.Entry, bool) {
	if m.chosen == nil {
		return command.Entry{}, false
	}
	return *m.chosen, true
}

// Canceled reports whether the user left the picker without choosing.
func (m Model) Canceled() bool { return m.canceled }

// Query returns the current search text.
func (m Model) Query() string { return m.query }

// Matches returns the current results.
func (m Model) Matches() []Match { return m.matches }

// Cursor returns the index of the highlighted result.
func (m Model) Cursor() int { return m.cursor }

func nameWidth(matches []Match) int {
	width := 0
	for _, mt := range matches {
		width = max(width, len([]rune(mt.Entry.Name)))
	}
	return width
}

// formatLine pads the name to width and appends a dimmed preview of the
// command, truncated to the terminal width when it is known.
func formatLine(e command.Entry, width, termWidth int) string {
	name := fmt.Sprintf("%-*s", width, e.Name)
	preview := "# " + e.Command
	if termWidth > 0 {
		room := termWidth - width - 6
		if room <= 0 {
			return name
		}
		if r := []rune(preview); len(r) > room {
			preview = string(r[:max(room-1, 0)]) + "…"
		}
	}
	return name + "  " + previewStyle.Sprint(preview)
}
