package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aitool/sleuth/internal/aggregate"
	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/registry"
	"github.com/aitool/sleuth/internal/state"
	"github.com/aitool/sleuth/internal/upload"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type batchMsg aggregate.Batch

type pingMsg struct {
	health backend.Health
	err    error
}

// actionMsg reports a finished bulk action on the file list.
type actionMsg struct {
	text  string
	level toastLevel
}

type uploadProgressMsg upload.Progress

type uploadDoneMsg struct {
	id     string
	name   string
	remote bool
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// refreshFilesCmd lists files now instead of waiting for the poller and
// records the outcome in the store.
func refreshFilesCmd(ctx context.Context, svc *registry.Service, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		files, err := svc.Refresh(ctx)
		store.Update(files, err)
		return snapshotMsg(store.Snapshot())
	}
}

func fetchBatchCmd(ctx context.Context, f *aggregate.Fetcher, req aggregate.Request) tea.Cmd {
	return func() tea.Msg {
		return batchMsg(f.Fetch(ctx, req))
	}
}

func pingCmd(ctx context.Context, p Pinger) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, PingTimeout)
		defer cancel()
		h, err := p.Ping(ctx)
		return pingMsg{health: h, err: err}
	}
}

func deleteCmd(ctx context.Context, svc *registry.Service, ids []string) tea.Cmd {
	return func() tea.Msg {
		summary := svc.DeleteSelected(ctx, ids)
		return actionMsg{text: summary.Message(), level: toastSuccess}
	}
}

func parseCmd(ctx context.Context, svc *registry.Service, ids []string) tea.Cmd {
	return func() tea.Msg {
		summary := svc.ParseSelected(ctx, ids)
		level := toastSuccess
		switch {
		case summary.Succeeded == 0 && summary.Failed > 0:
			level = toastError
		case summary.Failed > 0:
			level = toastWarning
		}
		return actionMsg{text: summary.Message(), level: level}
	}
}

// startUploadCmd runs the upload in the background. Progress and the final
// result arrive on ch, which waitForUpload drains one message at a time.
func startUploadCmd(ctx context.Context, u *upload.Uploader, input string, ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		defer close(ch)
		if upload.IsRemote(input) {
			res, err := u.UploadURL(ctx, input)
			ch <- uploadDoneMsg{id: res.ID, name: input, remote: true, err: err}
			return nil
		}
		res, err := u.UploadFile(ctx, input, func(p upload.Progress) {
			select {
			case ch <- uploadProgressMsg(p):
			default:
			}
		})
		name := res.Filename
		if name == "" {
			name = input
		}
		ch <- uploadDoneMsg{id: res.ID, name: name, err: err}
		return nil
	}
}

func waitForUpload(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
