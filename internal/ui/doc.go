// Package ui is the Bubble Tea front end of sleuth.
//
// The model owns every piece of view state: the file list snapshot, the
// registry selection, the aggregate session behind the log pane, the
// filter being edited and the upload in progress. Network work never runs
// inside Update; it is issued as tea.Cmds (see commands.go) and comes back
// as messages, so all state changes happen on the program's single update
// loop.
//
// # Views
//
//   - Files: the file list, with the log pane beside it on wide terminals.
//     Moving the cursor or changing the marked set changes the files that
//     feed the viewer and starts a fresh query from page 0.
//   - Logs: the log pane full screen. Scrolling near the end asks the
//     session for the next pages; the session refuses while a fetch is in
//     flight or when every file is exhausted.
//   - Upload: a path or URL prompt with a byte-level progress bar.
//
// The filter modal (F) only edits; enter applies the filter and re-runs
// the query, r re-runs it unchanged. Results of a superseded query are
// dropped by the session's generation check.
//
// Failures become toasts in the footer and are logged through logrus; they
// never leave the UI in a loading state.
package ui
