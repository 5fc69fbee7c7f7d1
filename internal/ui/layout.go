package ui

import "time"

// Terminal width thresholds.
const (
	// LayoutSplitWidth is the minimum width for the files list and log pane
	// side by side.
	LayoutSplitWidth = 100

	// LayoutCreatedWidth is the minimum list width that shows creation times.
	LayoutCreatedWidth = 56
)

// Log pane behaviour.
const (
	// NearEndPercent is the scroll position past which the next pages are
	// requested.
	NearEndPercent = 0.9

	// NearEndLines also counts as near the end when fewer lines remain.
	NearEndLines = 5
)

// Timing constants.
const (
	// ToastTTL is how long a notification stays visible.
	ToastTTL = 4 * time.Second

	// MaxToasts caps the notification stack.
	MaxToasts = 3

	// PingTimeout bounds the start-up health check.
	PingTimeout = 3 * time.Second

	// DefaultUIInterval is how often the model re-reads the store.
	DefaultUIInterval = time.Second
)
