package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aitool/sleuth/internal/upload"
)

// uploadState backs the upload view: one path or URL, one request at a
// time, no retries.
type uploadState struct {
	input    textinput.Model
	bar      progress.Model
	running  bool
	remote   bool
	progress upload.Progress
	ch       chan tea.Msg
	last     string
	lastErr  bool
}

func newUploadState() uploadState {
	ti := textinput.New()
	ti.Placeholder = "/path/to/archive.zip or https://host/log.tar.gz"
	ti.CharLimit = 1024
	return uploadState{
		input: ti,
		bar:   progress.New(progress.WithDefaultGradient()),
	}
}

func (m *Model) enterUploadView() tea.Cmd {
	m.currentView = ViewUpload
	m.up.input.Focus()
	return textinput.Blink
}

// handleUploadKey processes keys in the upload view. The input keeps focus,
// so only esc and enter are intercepted.
func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.up.input.Blur()
		m.currentView = ViewFiles
		m.resizeLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		return m.startUpload()
	}
	if m.up.running {
		return m, nil
	}
	var cmd tea.Cmd
	m.up.input, cmd = m.up.input.Update(msg)
	return m, cmd
}

func (m Model) startUpload() (tea.Model, tea.Cmd) {
	if m.up.running {
		return m, m.notify(toastInfo, "an upload is already running")
	}
	input := strings.TrimSpace(m.up.input.Value())
	if input == "" {
		return m, m.notify(toastInfo, "enter a file path or URL")
	}
	m.up.running = true
	m.up.remote = upload.IsRemote(input)
	m.up.progress = upload.Progress{}
	m.up.last = ""
	m.up.ch = make(chan tea.Msg, 16)
	return m, tea.Batch(
		startUploadCmd(m.ctx, m.uploader, input, m.up.ch),
		waitForUpload(m.up.ch),
		m.spinner.Tick,
	)
}

func (m Model) handleUploadProgress(msg uploadProgressMsg) (tea.Model, tea.Cmd) {
	m.up.progress = upload.Progress(msg)
	return m, waitForUpload(m.up.ch)
}

func (m Model) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	m.up.running = false
	m.up.ch = nil
	if msg.err != nil {
		text := "upload failed: " + upload.Describe(msg.err)
		m.up.last, m.up.lastErr = text, true
		return m, m.notify(toastError, text)
	}
	m.up.input.SetValue("")
	m.up.progress.Percent = 1
	text := fmt.Sprintf("uploaded %s as %s", msg.name, msg.id)
	if msg.remote {
		text = fmt.Sprintf("fetched %s as %s", msg.name, msg.id)
	}
	m.up.last, m.up.lastErr = text, false
	return m, tea.Batch(
		m.notify(toastSuccess, text),
		refreshFilesCmd(m.ctx, m.files, m.store),
	)
}

func (m Model) renderUpload(width, height int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render("Upload a log archive"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf(
		"Local files up to %s, or an http(s) URL for the server to fetch.",
		upload.HumanBytes(m.uploader.MaxBytes()))))
	b.WriteString("\n\n")
	b.WriteString(m.up.input.View())
	b.WriteString("\n\n")

	switch {
	case m.up.running && m.up.remote:
		b.WriteString(m.spinner.View() + " " + styles.WarningText.Render("server is fetching the URL..."))
	case m.up.running:
		m.up.bar.Width = max(width-8, 10)
		b.WriteString(m.up.bar.ViewAs(m.up.progress.Percent))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("%s of %s",
			upload.HumanBytes(m.up.progress.Sent), upload.HumanBytes(m.up.progress.Total))))
	case m.up.last != "":
		style := ternaryStyle(m.up.lastErr, styles.DangerText, styles.SuccessText)
		b.WriteString(style.Render(m.up.last))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter upload · esc back"))

	box := lipgloss.NewStyle().Padding(1, 2).Width(max(width-2, 0)).Render(b.String())
	return m.renderTitledBox("Upload", box, width, height, true)
}

func ternaryStyle(cond bool, a, b lipgloss.Style) lipgloss.Style {
	if cond {
		return a
	}
	return b
}
