package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aitool/sleuth/internal/aggregate"
	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/registry"
	"github.com/aitool/sleuth/internal/state"
)

const statusWidth = 9

// currentFile returns the file under the cursor.
func (m Model) currentFile() (backend.FileRecord, bool) {
	files := m.snapshot.Files
	if m.cursor < 0 || m.cursor >= len(files) {
		return backend.FileRecord{}, false
	}
	return files[m.cursor], true
}

// applySnapshot takes a fresh file list and keeps the cursor on the same
// file when it is still listed.
func (m *Model) applySnapshot(snap state.Snapshot) tea.Cmd {
	prev, hadPrev := m.currentFile()
	m.snapshot = snap
	// A successful poll proves the backend is back even if the start-up ping failed.
	if snap.LastError == nil && !snap.LastUpdated.IsZero() {
		m.healthy, m.healthErr = true, nil
	}
	m.selection.Sync(snap.Files)

	m.cursor = min(m.cursor, max(len(snap.Files)-1, 0))
	if hadPrev {
		for i, f := range snap.Files {
			if f.UUID == prev.UUID {
				m.cursor = i
				break
			}
		}
	}
	if f, ok := m.currentFile(); ok {
		m.selection.SetActive(f.UUID)
	}
	return m.syncViewer()
}

// syncViewer starts a fresh query when the files feeding the viewer changed.
func (m *Model) syncViewer() tea.Cmd {
	ids := m.selection.ViewerIDs()
	if m.session.Generation() > 0 && registry.SameIDs(ids, m.session.IDs()) {
		return nil
	}
	return m.beginQuery(ids)
}

// beginQuery resets the session for ids under the current filter and
// fetches page 0. Batches still in flight for older queries are dropped
// when they arrive.
func (m *Model) beginQuery(ids []string) tea.Cmd {
	req := m.session.Begin(ids, m.filter)
	m.logs.viewport.GotoTop()
	if len(ids) == 0 {
		m.session.Apply(aggregate.Batch{Generation: req.Generation, Kind: req.Kind})
		m.refreshLogViewport()
		return nil
	}
	m.refreshLogViewport()
	return tea.Batch(fetchBatchCmd(m.ctx, m.fetcher, req), m.spinner.Tick)
}

// actionIDs are the files a bulk action applies to.
func (m Model) actionIDs() []string {
	return m.selection.ViewerIDs()
}

// handleFilesKey processes keys while the file list has focus.
func (m Model) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Files)
	moved := false

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < count-1 {
			m.cursor++
			moved = true
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			moved = true
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor, moved = 0, true
	case key.Matches(msg, m.keys.Bottom):
		m.cursor, moved = max(count-1, 0), true
	case key.Matches(msg, m.keys.Toggle):
		if f, ok := m.currentFile(); ok {
			m.selection.Toggle(f.UUID)
			return m, m.syncViewer()
		}
		return m, nil
	case key.Matches(msg, m.keys.SelectAll):
		m.selection.SelectAll()
		return m, m.syncViewer()
	case key.Matches(msg, m.keys.Clear):
		m.selection.Clear()
		return m, m.syncViewer()
	case key.Matches(msg, m.keys.Parse):
		ids := m.actionIDs()
		if len(ids) == 0 {
			return m, m.notify(toastInfo, "no file selected")
		}
		return m, tea.Batch(
			m.notify(toastInfo, fmt.Sprintf("triggering parse for %d file(s)", len(ids))),
			parseCmd(m.ctx, m.files, ids),
		)
	case key.Matches(msg, m.keys.Delete):
		ids := m.actionIDs()
		if len(ids) == 0 {
			return m, m.notify(toastInfo, "no file selected")
		}
		m.confirmDelete = ids
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, refreshFilesCmd(m.ctx, m.files, m.store)
	}

	if !moved {
		return m, nil
	}
	if f, ok := m.currentFile(); ok {
		m.selection.SetActive(f.UUID)
	}
	return m, m.syncViewer()
}

// handleConfirmKey resolves the delete prompt. Anything but yes cancels.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ids := m.confirmDelete
	m.confirmDelete = nil
	if !key.Matches(msg, m.keys.Yes) {
		return m, m.notify(toastInfo, "delete cancelled")
	}
	return m, deleteCmd(m.ctx, m.files, ids)
}

func (m Model) renderConfirm() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	noun := ternary(len(m.confirmDelete) == 1, "file", "files")
	return bg.FillLine(
		bg.Render(fmt.Sprintf("Delete %d %s?", len(m.confirmDelete), noun), styles.DangerText.Bold(true))+
			bg.Space()+bg.Render("y to confirm, any other key to cancel", styles.MutedText),
		m.width)
}

// listWidth is the width of the file list in the split layout.
func (m Model) listWidth() int {
	if !m.splitLayout() {
		return m.width
	}
	return max(36, m.width*2/5)
}

// renderFiles renders the file list box.
func (m Model) renderFiles(width, height int) string {
	focused := m.focusedPane == paneFiles
	bgColor := ternary(focused, m.theme.FocusBg, m.theme.SurfaceAlt)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	inner := width - 2
	rows := height - 2
	files := m.snapshot.Files

	var lines []string
	if len(files) == 0 {
		msg := "No files uploaded. Press u to upload one."
		if m.snapshot.LastUpdated.IsZero() && m.snapshot.LastError == nil {
			msg = "Loading files..."
		}
		lines = append(lines, bg.Render(msg, styles.MutedText))
	}

	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	showCreated := inner >= LayoutCreatedWidth
	nameWidth := inner - 2 - statusWidth - 1
	if showCreated {
		nameWidth -= 12
	}

	for i := start; i < len(files) && i < start+rows; i++ {
		f := files[i]
		marked := m.selection.IsSelected(f.UUID)
		mark := ternary(marked, "●", "○")
		name := padRight(truncateMiddle(f.DisplayName(), nameWidth), nameWidth)
		status := padRight(string(f.Status.Normalize()), statusWidth)
		created := ""
		if showCreated {
			if t := f.ParsedCreatedAt(); !t.IsZero() {
				created = t.Local().Format("01-02 15:04")
			}
			created = " " + padRight(created, 11)
		}

		if i == m.cursor && focused {
			lines = append(lines, styles.Selected.Width(inner).Render(mark+" "+name+" "+status+created))
			continue
		}
		rowBg := bg
		if marked {
			rowBg = NewBgStyle(m.theme.MarkBg)
		}
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(f.Status)))
		line := rowBg.Render(mark, styles.AccentText) + rowBg.Space() +
			rowBg.Render(name, styles.Text) + rowBg.Space() +
			rowBg.Render(status, statusStyle)
		if showCreated {
			line += rowBg.Render(created, styles.FaintText)
		}
		lines = append(lines, rowBg.FillLine(line, inner))
	}

	title := fmt.Sprintf("Files %d", len(files))
	if n := m.selection.Len(); n > 0 {
		title = fmt.Sprintf("Files %d · %d marked", len(files), n)
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, focused)
}
