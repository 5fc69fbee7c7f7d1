package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/aitool/sleuth/internal/aggregate"
	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/prefs"
	"github.com/aitool/sleuth/internal/registry"
	"github.com/aitool/sleuth/internal/state"
	"github.com/aitool/sleuth/internal/upload"
)

// View represents the current active view.
type View int

const (
	ViewFiles View = iota
	ViewLogs
	ViewUpload
)

const (
	paneFiles = iota
	paneLogs
)

// Pinger checks that the backend answers.
type Pinger interface {
	Ping(ctx context.Context) (backend.Health, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Files     *registry.Service
	Fetcher   *aggregate.Fetcher
	Uploader  *upload.Uploader
	Pinger    Pinger
	APIURL    string
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea. Session and
// selection are pointers shared between copies of the model; they are only
// touched from Update.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	files     *registry.Service
	fetcher   *aggregate.Fetcher
	uploader  *upload.Uploader
	pinger    Pinger
	apiURL    string
	prefsPath string
	prefs     prefs.Prefs
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	focusedPane int
	spinner     spinner.Model
	showHelp    bool
	modal       Modal
	toasts      []toast
	toastSeq    int

	// Data state
	snapshot  state.Snapshot
	healthy   bool
	healthErr error

	// Files
	selection     *registry.Selection
	cursor        int
	confirmDelete []string

	// Logs
	session *aggregate.Session
	filter  aggregate.Filter
	logs    logState

	// Upload
	up uploadState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	// Saved filters that no longer parse are dropped rather than blocking start-up.
	filter, err := aggregate.ParseFilter(opts.Prefs.Filter.Level, opts.Prefs.Filter.Tag, "", "")
	if err != nil {
		log.WithError(err).Warn("ignoring saved filter")
		filter = aggregate.Filter{}
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		ctx:         ctx,
		store:       store,
		files:       opts.Files,
		fetcher:     opts.Fetcher,
		uploader:    opts.Uploader,
		pinger:      opts.Pinger,
		apiURL:      opts.APIURL,
		prefsPath:   opts.PrefsPath,
		prefs:       opts.Prefs,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.Prefs.Theme),
		currentView: ViewFiles,
		spinner:     sp,
		selection:   registry.NewSelection(),
		session:     aggregate.NewSession(),
		filter:      filter,
		logs:        newLogState(),
		up:          newUploadState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		fetchSnapshotCmd(m.store),
	}
	if m.pinger != nil {
		cmds = append(cmds, pingCmd(m.ctx, m.pinger))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.pollTick))

	case snapshotMsg:
		cmd := m.applySnapshot(state.Snapshot(msg))
		return m, cmd

	case batchMsg:
		return m.handleBatch(aggregate.Batch(msg))

	case filterAppliedMsg:
		return m.applyFilter(msg.filter)

	case actionMsg:
		return m, tea.Batch(
			m.notify(msg.level, msg.text),
			refreshFilesCmd(m.ctx, m.files, m.store),
		)

	case pingMsg:
		m.healthy = msg.err == nil
		m.healthErr = msg.err
		if msg.err != nil {
			log.WithError(msg.err).Warn("backend ping failed")
			return m, m.notify(toastError, "backend unreachable: "+backend.Describe(msg.err))
		}
		return m, nil

	case uploadProgressMsg:
		return m.handleUploadProgress(msg)

	case uploadDoneMsg:
		return m.handleUploadDone(msg)

	case toastExpiredMsg:
		m.expireToast(msg.id)
		return m, nil

	case spinner.TickMsg:
		if !m.session.Loading() && !m.up.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.currentView == ViewUpload {
		var cmd tea.Cmd
		m.up.input, cmd = m.up.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleBatch folds a finished fetch into the session and reports what
// happened. Batches for a superseded selection are dropped silently.
func (m Model) handleBatch(b aggregate.Batch) (tea.Model, tea.Cmd) {
	if !m.session.Apply(b) {
		log.WithField("generation", b.Generation).Debug("dropped stale log batch")
		return m, nil
	}
	m.refreshLogViewport()

	var cmds []tea.Cmd
	// Keep paging while the rows still end inside the visible area. A failed
	// page waits for the next scroll instead of retrying at once.
	if b.Kind == aggregate.KindMore && len(b.Failures) == 0 {
		cmds = append(cmds, m.loadMoreIfNearEnd())
	}
	if n := len(b.Failures); n > 0 {
		first := b.Failures[0]
		text := fmt.Sprintf("log fetch failed for %s: %s", m.fileName(first.FileID), backend.Describe(first.Err))
		if n > 1 {
			text = fmt.Sprintf("%s (+%d more)", text, n-1)
		}
		cmds = append(cmds, m.notify(toastError, text))
	}
	if b.Kind == aggregate.KindInitial {
		if skipped := b.Skipped; len(skipped) > 0 {
			cmds = append(cmds, m.notify(toastWarning, "skipped "+aggregate.DescribeSkipped(skipped)))
		}
		switch {
		case len(b.Cursors) == 0 && len(b.Failures) == 0:
			cmds = append(cmds, m.notify(toastInfo, "no parsed files among the selection"))
		case m.session.Len() > 0:
			cmds = append(cmds, m.notify(toastSuccess, fmt.Sprintf("loaded %d rows", m.session.Len())))
		}
	}
	return m, tea.Batch(cmds...)
}

// applyFilter stores a filter from the modal and re-runs the query. The
// filter is remembered in prefs.
func (m Model) applyFilter(f aggregate.Filter) (tea.Model, tea.Cmd) {
	m.filter = f
	m.prefs.Filter = prefs.FilterPrefs{Level: string(f.Level), Tag: f.Tag}
	m.savePrefs()
	return m, m.requery()
}

// requery restarts the current query under the current filter.
func (m *Model) requery() tea.Cmd {
	return m.beginQuery(m.selection.ViewerIDs())
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		log.WithError(err).Warn("save prefs failed")
	}
}

func (m Model) fileName(id string) string {
	if rec, ok := m.snapshot.Find(id); ok {
		return rec.DisplayName()
	}
	return id
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	modal, cmd, done := m.modal.Update(msg, m.keys)
	if done {
		m.modal = nil
	} else {
		m.modal = modal
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey routes key presses: overlays first, then global keys, then the
// focused view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.confirmDelete != nil {
		return m.handleConfirmKey(msg)
	}
	if m.currentView == ViewUpload {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleUploadKey(msg)
	}
	if m.logs.searchActive {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.refreshLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Filters):
		m.modal = newFilterModal(m.filter)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Requery):
		return m, m.requery()
	case key.Matches(msg, m.keys.ViewUpload):
		return m, m.enterUploadView()
	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		m.resizeLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.ViewFiles):
		m.currentView = ViewFiles
		m.focusedPane = paneFiles
		m.resizeLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		if m.currentView == ViewFiles && m.splitLayout() {
			m.focusedPane = 1 - m.focusedPane
			m.refreshLogViewport()
		}
		return m, nil
	case key.Matches(msg, m.keys.Escape) && m.logs.searchRegex == nil:
		m.currentView = ViewFiles
		m.focusedPane = paneFiles
		m.resizeLogViewport()
		return m, nil
	}

	if m.currentView == ViewLogs || m.focusedPane == paneLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleFilesKey(msg)
}

// splitLayout reports whether the files view shows the log pane alongside
// the list.
func (m Model) splitLayout() bool {
	return m.width >= LayoutSplitWidth
}

// contentHeight is the height left for the main area below the header and
// command bar and above the footer.
func (m Model) contentHeight() int {
	return max(m.height-3, 3)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderContent() string {
	h := m.contentHeight()
	switch m.currentView {
	case ViewLogs:
		return m.renderLogPane(m.width, h)
	case ViewUpload:
		return m.renderUpload(m.width, h)
	}
	if !m.splitLayout() {
		return m.renderFiles(m.width, h)
	}
	lw := m.listWidth()
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderFiles(lw, h), m.renderLogPane(m.width-lw, h))
}

// renderFooter shows, in order of precedence, the delete prompt, the newest
// notification, or the log status line.
func (m Model) renderFooter() string {
	if m.confirmDelete != nil {
		return m.renderConfirm()
	}
	if t := m.renderToast(m.width); t != "" {
		return t
	}
	return m.renderLogStatus()
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
