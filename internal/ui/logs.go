package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aitool/sleuth/internal/aggregate"
	"github.com/aitool/sleuth/internal/backend"
)

const (
	timestampWidth = 23
	levelWidth     = 5
	tagWidth       = 18
)

// logState holds the log pane's viewport and search state. The rows
// themselves live in the aggregate session.
type logState struct {
	viewport viewport.Model

	searchActive  bool
	searchInput   textinput.Model
	searchQuery   string
	searchRegex   *regexp.Regexp
	searchMatches []int
	searchIdx     int
}

func newLogState() logState {
	ti := textinput.New()
	ti.Placeholder = "Search rows..."
	ti.CharLimit = 100
	return logState{
		viewport:    viewport.New(0, 0),
		searchInput: ti,
	}
}

// logPaneSize returns the outer size of the log box for the current view.
func (m Model) logPaneSize() (int, int) {
	h := m.contentHeight()
	if m.currentView == ViewLogs || !m.splitLayout() {
		return m.width, h
	}
	return m.width - m.listWidth(), h
}

// resizeLogViewport fits the viewport inside the log box.
func (m *Model) resizeLogViewport() {
	w, h := m.logPaneSize()
	m.logs.viewport.Width = max(w-2, 0)
	m.logs.viewport.Height = max(h-2, 0)
	m.refreshLogViewport()
}

// refreshLogViewport re-renders the session rows into the viewport.
func (m *Model) refreshLogViewport() {
	rows := m.session.Rows()
	m.logs.searchMatches = matchRows(rows, m.logs.searchRegex)
	if m.logs.searchIdx >= len(m.logs.searchMatches) {
		m.logs.searchIdx = 0
	}
	m.logs.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.logPaneBg()))
	m.logs.viewport.SetContent(m.renderRows(rows, m.logs.viewport.Width))
}

func (m Model) logPaneBg() string {
	if m.logPaneFocused() {
		return m.theme.FocusBg
	}
	return m.theme.SurfaceAlt
}

func (m Model) logPaneFocused() bool {
	return m.currentView == ViewLogs || m.focusedPane == paneLogs
}

// renderRows formats one line per row: time, level, tag, content.
func (m Model) renderRows(rows []backend.LogRow, width int) string {
	if len(rows) == 0 {
		return m.emptyLogText()
	}
	bg := NewBgStyle(m.logPaneBg())
	styles := m.theme.Styles()
	matched := make(map[int]bool, len(m.logs.searchMatches))
	for _, i := range m.logs.searchMatches {
		matched[i] = true
	}
	current := -1
	if len(m.logs.searchMatches) > 0 {
		current = m.logs.searchMatches[m.logs.searchIdx]
	}

	contentWidth := width - timestampWidth - levelWidth - tagWidth - 3
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		lvl := row.Severity()
		label := string(lvl)
		if label == "" {
			label = row.Level
		}
		levelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.LevelColor(lvl)))
		if lvl == backend.LevelError {
			levelStyle = levelStyle.Bold(true)
		}
		contentStyle := styles.Text
		switch {
		case i == current:
			contentStyle = styles.Match.Underline(true)
		case matched[i]:
			contentStyle = styles.Match
		}

		b.WriteString(bg.Render(padRight(truncate(row.Timestamp, timestampWidth), timestampWidth), styles.FaintText))
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(padRight(truncate(label, levelWidth), levelWidth), levelStyle))
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(padRight(truncate(row.Tag, tagWidth), tagWidth), styles.AccentText))
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(truncate(singleLine(row.Content()), contentWidth), contentStyle))
	}
	return b.String()
}

func (m Model) emptyLogText() string {
	styles := m.theme.Styles().WithBackground(m.logPaneBg())
	switch {
	case m.session.Loading():
		return styles.MutedText.Render("Loading rows...")
	case len(m.session.IDs()) == 0:
		return styles.MutedText.Render("Select a file to view its logs.")
	case len(m.session.Skipped()) == len(m.session.IDs()):
		return styles.MutedText.Render("No parsed files selected.")
	default:
		return styles.MutedText.Render("No rows match the current filter.")
	}
}

// renderLogPane renders the titled log box of the given size.
func (m Model) renderLogPane(width, height int) string {
	return m.renderTitledBox(m.logTitle(), m.logs.viewport.View(), width, height, m.logPaneFocused())
}

func (m Model) logTitle() string {
	ids := m.session.IDs()
	switch len(ids) {
	case 0:
		return "Logs"
	case 1:
		if rec, ok := m.snapshot.Find(ids[0]); ok {
			return "Logs: " + truncateMiddle(rec.DisplayName(), 40)
		}
		return "Logs: " + truncateMiddle(ids[0], 40)
	default:
		return fmt.Sprintf("Logs: %d files", len(ids))
	}
}

// renderLogStatus renders the line under the log pane.
func (m Model) renderLogStatus() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	if m.logs.searchActive {
		return bg.FillLine(bg.Render("/", styles.AccentText)+m.logs.searchInput.View(), m.width)
	}
	if m.logs.searchRegex != nil {
		if len(m.logs.searchMatches) == 0 {
			return bg.FillLine(bg.Render("Pattern not found: "+m.logs.searchQuery, styles.DangerText), m.width)
		}
		return bg.FillLine(
			bg.Render("/"+m.logs.searchQuery, styles.AccentText)+
				bg.Render(" - ", styles.FaintText)+
				bg.Render(fmt.Sprintf("%d/%d", m.logs.searchIdx+1, len(m.logs.searchMatches)), styles.WarningText)+
				bg.Render(" - n next, N previous, esc clear", styles.FaintText),
			m.width)
	}

	parts := []string{bg.Render(fmt.Sprintf("%d rows", m.session.Len()), styles.Text)}
	switch {
	case m.session.Loading():
		parts = append(parts, bg.Render(m.spinner.View()+" loading", styles.WarningText))
	case m.session.HasMore():
		parts = append(parts, bg.Render("more below", styles.InfoText))
	case m.session.Generation() > 0 && len(m.session.IDs()) > 0:
		parts = append(parts, bg.Render("all pages loaded", styles.FaintText))
	}
	parts = append(parts,
		bg.Render("filter", styles.FaintText)+bg.Space()+bg.Render(m.filter.String(), styles.MutedText),
		bg.Render(string(m.fetcher.Strategy()), styles.FaintText),
	)
	if skipped := m.session.Skipped(); len(skipped) > 0 {
		parts = append(parts, bg.Render("skipped "+aggregate.DescribeSkipped(skipped), styles.WarningText))
	}
	return bg.FillLine(truncateStyled(bg.Join(parts, "  "), m.width), m.width)
}

// handleLogsKey processes keys while the log pane has focus.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.logs.searchActive {
		return m.handleSearchKey(msg)
	}

	vp := &m.logs.viewport
	switch {
	case key.Matches(msg, m.keys.Search):
		m.logs.searchActive = true
		m.logs.searchInput.SetValue("")
		m.logs.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.NextMatch):
		m.jumpMatch(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevMatch):
		m.jumpMatch(-1)
		return m, nil
	case key.Matches(msg, m.keys.Escape) && m.logs.searchRegex != nil:
		m.clearSearch()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		vp.SetYOffset(vp.YOffset + 1)
	case key.Matches(msg, m.keys.Up):
		vp.SetYOffset(vp.YOffset - 1)
	case key.Matches(msg, m.keys.PageDown):
		vp.SetYOffset(vp.YOffset + vp.Height)
	case key.Matches(msg, m.keys.PageUp):
		vp.SetYOffset(vp.YOffset - vp.Height)
	case key.Matches(msg, m.keys.HalfPageDown):
		vp.SetYOffset(vp.YOffset + vp.Height/2)
	case key.Matches(msg, m.keys.HalfPageUp):
		vp.SetYOffset(vp.YOffset - vp.Height/2)
	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
	default:
		return m, nil
	}

	for _, b := range m.keys.scrollKeys() {
		if key.Matches(msg, b) {
			return m, m.loadMoreIfNearEnd()
		}
	}
	return m, nil
}

// loadMoreIfNearEnd requests the next pages when the viewport is close to
// the last row. Session.More refuses while a fetch is in flight.
func (m *Model) loadMoreIfNearEnd() tea.Cmd {
	if !nearEnd(m.logs.viewport) {
		return nil
	}
	req, ok := m.session.More()
	if !ok {
		return nil
	}
	return tea.Batch(fetchBatchCmd(m.ctx, m.fetcher, req), m.spinner.Tick)
}

func nearEnd(vp viewport.Model) bool {
	if vp.AtBottom() || vp.ScrollPercent() >= NearEndPercent {
		return true
	}
	return vp.TotalLineCount()-(vp.YOffset+vp.Height) <= NearEndLines
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.logs.searchActive = false
		m.logs.searchInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.logs.searchActive = false
		m.logs.searchInput.Blur()
		m.applySearch(m.logs.searchInput.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.logs.searchInput, cmd = m.logs.searchInput.Update(msg)
	return m, cmd
}

// applySearch compiles query case-insensitively, falling back to a literal
// match when it is not a valid expression, and jumps to the first match at
// or below the current position.
func (m *Model) applySearch(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		m.clearSearch()
		return
	}
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	}
	m.logs.searchQuery = query
	m.logs.searchRegex = re
	m.logs.searchIdx = 0
	m.refreshLogViewport()
	for i, line := range m.logs.searchMatches {
		if line >= m.logs.viewport.YOffset {
			m.logs.searchIdx = i
			break
		}
	}
	m.showCurrentMatch()
}

func (m *Model) clearSearch() {
	m.logs.searchQuery = ""
	m.logs.searchRegex = nil
	m.logs.searchIdx = 0
	m.refreshLogViewport()
}

func (m *Model) jumpMatch(delta int) {
	n := len(m.logs.searchMatches)
	if n == 0 {
		return
	}
	m.logs.searchIdx = (m.logs.searchIdx + delta + n) % n
	m.refreshLogViewport()
	m.showCurrentMatch()
}

func (m *Model) showCurrentMatch() {
	if len(m.logs.searchMatches) == 0 {
		return
	}
	line := m.logs.searchMatches[m.logs.searchIdx]
	vp := &m.logs.viewport
	if line < vp.YOffset || line >= vp.YOffset+vp.Height {
		vp.SetYOffset(line - vp.Height/2)
	}
}

// matchRows returns the indices of rows whose tag or content matches re.
func matchRows(rows []backend.LogRow, re *regexp.Regexp) []int {
	if re == nil {
		return nil
	}
	var out []int
	for i, row := range rows {
		if re.MatchString(row.Content()) || re.MatchString(row.Tag) {
			out = append(out, i)
		}
	}
	return out
}

// truncateStyled cuts a styled line to width cells.
func truncateStyled(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
