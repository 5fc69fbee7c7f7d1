// Package logtail reads the end of sleuth's own log file.
//
// The TUI owns the terminal, so diagnostics go to a JSON log file instead
// (see package logging). `sleuth debuglog` uses Read to pull the last N lines
// with a ring buffer, in one pass and O(N) memory, and Format to turn each
// JSON record into a single readable line:
//
//	2025-10-08 21:01:05 WARNING log fetch failed file_id=abc op=page
//
// Lines that are not JSON (for example a panic trace) are printed as-is.
package logtail
