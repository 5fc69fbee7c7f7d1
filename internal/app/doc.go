// Package app wires configuration, the backend client and the TUI.
//
// NewServices is the composition root shared by the TUI and the CLI
// commands. Run adds what only the interactive client needs: a state.Store
// kept fresh by a background poller that backs off exponentially (capped
// at 30s) while the backend is unreachable, and the Bubble Tea program
// that reads from it.
package app
