package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastSuccess
	toastWarning
	toastError
)

type toast struct {
	id    int
	text  string
	level toastLevel
}

type toastExpiredMsg struct {
	id int
}

// notify pushes a transient notification and schedules its removal.
func (m *Model) notify(level toastLevel, text string) tea.Cmd {
	if text == "" {
		return nil
	}
	m.toastSeq++
	id := m.toastSeq
	m.toasts = append(m.toasts, toast{id: id, text: text, level: level})
	if len(m.toasts) > MaxToasts {
		m.toasts = m.toasts[len(m.toasts)-MaxToasts:]
	}
	return tea.Tick(ToastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *Model) expireToast(id int) {
	for i, t := range m.toasts {
		if t.id == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// renderToast renders the newest notification, or "" when there is none.
func (m Model) renderToast(width int) string {
	if len(m.toasts) == 0 {
		return ""
	}
	t := m.toasts[len(m.toasts)-1]
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	style, icon := styles.InfoText, "i"
	switch t.level {
	case toastSuccess:
		style, icon = styles.SuccessText, "✓"
	case toastWarning:
		style, icon = styles.WarningText, "!"
	case toastError:
		style, icon = styles.DangerText, "✗"
	}
	text := truncate(t.text, width-4)
	return bg.FillLine(bg.Render(icon, style.Bold(true))+bg.Space()+bg.Render(text, style), width)
}
