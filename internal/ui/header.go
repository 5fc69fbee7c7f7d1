package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/aitool/sleuth/internal/backend"
)

// renderHeader renders the status bar: connection state, file counts and
// the backend address.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("sleuth", styles.Logo)}
	parts = append(parts, m.connectionStatus(styles, bg))

	if !m.snapshot.LastUpdated.IsZero() {
		counts := m.snapshot.StatusCounts()
		parts = append(parts,
			bg.Render("Files:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(m.snapshot.Files)), styles.Text))
		for _, st := range []backend.FileStatus{backend.StatusParsed, backend.StatusParsing, backend.StatusFailed} {
			if n := counts[st]; n > 0 {
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(st)))
				parts = append(parts, bg.Render(fmt.Sprintf("%s %d", strings.ToLower(string(st)), n), style))
			}
		}
	}
	if n := m.selection.Len(); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("Marked: %d", n), styles.AccentText))
	}
	if m.width >= LayoutSplitWidth && m.apiURL != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.apiURL, 40), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(truncateStyled(bg.Join(parts, "  ")+sep, m.width))
}

func (m Model) connectionStatus(styles Styles, bg BgStyle) string {
	switch {
	case m.snapshot.IsOffline():
		last := "never"
		if !m.snapshot.LastUpdated.IsZero() {
			last = m.snapshot.LastUpdated.Format("15:04:05")
		}
		return bg.Render("● OFFLINE", styles.DangerText.Bold(true)) + bg.Space() +
			bg.Render(truncate(backend.Describe(m.snapshot.LastError), 40), styles.DangerText) + bg.Space() +
			bg.Render("retrying, last ok "+last, styles.WarningText)
	case m.healthErr != nil:
		return bg.Render("● "+truncate(backend.Describe(m.healthErr), 40), styles.WarningText)
	case !m.healthy && m.snapshot.LastUpdated.IsZero():
		return bg.Render("Connecting...", styles.WarningText.Bold(true))
	default:
		return bg.Render("● ON", styles.SuccessText)
	}
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	var bindings []key.Binding
	switch {
	case m.currentView == ViewUpload:
		bindings = []key.Binding{m.keys.Confirm, m.keys.Escape}
	case m.currentView == ViewLogs || m.focusedPane == paneLogs:
		bindings = []key.Binding{m.keys.Filters, m.keys.Requery, m.keys.Search, m.keys.NextMatch, m.keys.Tab, m.keys.Escape}
	default:
		bindings = []key.Binding{m.keys.Toggle, m.keys.SelectAll, m.keys.Parse, m.keys.Delete, m.keys.Filters, m.keys.ViewLogs, m.keys.ViewUpload}
	}
	bindings = append(bindings, m.keys.Help, m.keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		k, desc := hint(b)
		parts = append(parts, bg.Render(k, styles.AccentText)+bg.Space()+bg.Render(desc, styles.MutedText))
	}
	return bg.FillLine(truncateStyled(bg.Join(parts, "  "), m.width), m.width)
}

// renderTitledBox draws content inside a border with the title set into
// the top edge. Focused boxes use the focus colours.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	if width < 4 || height < 2 {
		return ""
	}
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColor)
	border := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	inner := width - 2
	title = truncate(title, max(inner-4, 0))
	left := max((inner-lipgloss.Width(title)-2)/2, 0)
	right := max(inner-lipgloss.Width(title)-2-left, 0)

	var b strings.Builder
	b.WriteString(bg.Render("┌"+strings.Repeat("─", left), border))
	b.WriteString(bg.Render(" "+title+" ", titleStyle))
	b.WriteString(bg.Render(strings.Repeat("─", right)+"┐", border))

	body := lipgloss.NewStyle().Width(inner).MaxWidth(inner).Background(lipgloss.Color(bgColor))
	lines := strings.Split(content, "\n")
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		b.WriteString("\n")
		b.WriteString(bg.Render("│", border) + body.Render(line) + bg.Render("│", border))
	}
	b.WriteString("\n")
	b.WriteString(bg.Render("└"+strings.Repeat("─", inner)+"┘", border))
	return b.String()
}
