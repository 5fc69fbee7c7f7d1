package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aitool/sleuth/internal/aggregate"
	"github.com/aitool/sleuth/internal/backend"
)

const (
	filterLevel = iota
	filterTag
	filterFrom
	filterTo
	filterFieldCount
)

var filterLabels = [filterFieldCount]string{"Level", "Tag", "From", "To"}

// filterAppliedMsg carries a validated filter out of the modal.
type filterAppliedMsg struct {
	filter aggregate.Filter
}

// filterModal edits the level/tag/range filter. Typing does not query the
// backend; only enter hands the filter back to the model.
type filterModal struct {
	inputs [filterFieldCount]textinput.Model
	focus  int
	err    string
}

func newFilterModal(current aggregate.Filter) *filterModal {
	m := &filterModal{}
	placeholders := [filterFieldCount]string{
		"Error, Warn, Info, Debug or E/W/I/D",
		"exact tag",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05",
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 64
		ti.Width = 36
		m.inputs[i] = ti
	}
	m.inputs[filterLevel].SetValue(string(current.Level))
	m.inputs[filterTag].SetValue(current.Tag)
	if !current.From.IsZero() {
		m.inputs[filterFrom].SetValue(current.From.Format(backend.LocalTimeLayout))
	}
	if !current.To.IsZero() {
		m.inputs[filterTo].SetValue(current.To.Format(backend.LocalTimeLayout))
	}
	m.inputs[filterLevel].Focus()
	return m
}

// Update implements Modal.
func (m *filterModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Escape):
		return m, nil, true
	case key.Matches(keyMsg, keys.Confirm):
		f, err := m.filter()
		if err != nil {
			m.err = err.Error()
			return m, nil, false
		}
		return m, func() tea.Msg { return filterAppliedMsg{filter: f} }, true
	case keyMsg.String() == "ctrl+x":
		for i := range m.inputs {
			m.inputs[i].SetValue("")
		}
		m.err = ""
		return m, nil, false
	case keyMsg.String() == "tab", keyMsg.String() == "down":
		m.setFocus((m.focus + 1) % filterFieldCount)
		return m, nil, false
	case keyMsg.String() == "shift+tab", keyMsg.String() == "up":
		m.setFocus((m.focus + filterFieldCount - 1) % filterFieldCount)
		return m, nil, false
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.err = ""
	return m, cmd, false
}

func (m *filterModal) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m *filterModal) filter() (aggregate.Filter, error) {
	return aggregate.ParseFilter(
		m.inputs[filterLevel].Value(),
		m.inputs[filterTag].Value(),
		m.inputs[filterFrom].Value(),
		m.inputs[filterTo].Value(),
	)
}

// View implements Modal.
func (m *filterModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Log Filters"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 46)))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Width(8)
	for i, input := range m.inputs {
		style := styles.MutedText
		if i == m.focus {
			style = styles.AccentText.Bold(true)
		}
		b.WriteString(labelStyle.Inherit(style).Render(filterLabels[i]))
		b.WriteString(input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(styles.DangerText.Render(m.err))
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("enter apply · tab next · ctrl+x clear · esc cancel"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(58)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
