package backend

import (
	"testing"
	"time"
)

func TestParseLevelAcceptsShorthand(t *testing.T) {
	cases := map[string]Level{
		"E":       LevelError,
		"error":   LevelError,
		" ERROR ": LevelError,
		"w":       LevelWarn,
		"Warn":    LevelWarn,
		"I":       LevelInfo,
		"Info":    LevelInfo,
		"D":       LevelDebug,
		"debug":   LevelDebug,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	for _, in := range []string{"loud", "V", "verbose", "F", "fatal", "warning"} {
		if got, ok := ParseLevel(in); ok {
			t.Fatalf("ParseLevel(%q) = %q, want it rejected", in, got)
		}
	}
}

func TestRowSeverityFoldsOtherLevelsForDisplay(t *testing.T) {
	cases := map[string]Level{
		"E":       LevelError,
		"F":       LevelError,
		"Warning": LevelWarn,
		"V":       LevelDebug,
		"I":       LevelInfo,
		"?":       "",
	}
	for in, want := range cases {
		if got := (LogRow{Level: in}).Severity(); got != want {
			t.Fatalf("Severity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogRowContentAndKey(t *testing.T) {
	row := LogRow{Timestamp: "01-01 10:00:00.000", Message: "msg"}
	if row.Content() != "msg" || row.Key() != "01-01 10:00:00.000msg" {
		t.Fatalf("row without raw line: content=%q key=%q", row.Content(), row.Key())
	}
	row.RawLine = "01-01 10:00:00.000 E net: msg"
	if row.Content() != row.RawLine {
		t.Fatalf("Content = %q, want raw line", row.Content())
	}
	if row.Key() != row.Timestamp+row.RawLine {
		t.Fatalf("Key = %q", row.Key())
	}
}

func TestFileStatusHelpers(t *testing.T) {
	if !FileStatus(" parsed ").Viewable() {
		t.Fatalf("parsed should be viewable")
	}
	for _, s := range []FileStatus{StatusStored, StatusExtracted, StatusParsing, StatusFailed, StatusUnknown, ""} {
		if s.Viewable() {
			t.Fatalf("%q should not be viewable", s)
		}
	}
	if FileStatus("").Normalize() != StatusUnknown {
		t.Fatalf("empty status should normalize to UNKNOWN")
	}
	if (FileRecord{UUID: "abc"}).DisplayName() != "abc" {
		t.Fatalf("DisplayName should fall back to uuid")
	}
}

func TestParseTimeLayouts(t *testing.T) {
	for _, value := range []string{
		"2025-12-13T10:11:12Z",
		"2025-12-13T10:11:12",
		"2025-12-13T10:11:12.123456",
		"2025-12-13 10:11:12",
	} {
		got := parseTime(value)
		if got.IsZero() {
			t.Fatalf("parseTime(%q) returned zero", value)
		}
		if got.Year() != 2025 || got.Month() != time.December || got.Day() != 13 {
			t.Fatalf("parseTime(%q) = %v, want 2025-12-13", value, got)
		}
	}
	if !parseTime("yesterday").IsZero() {
		t.Fatalf("parseTime should return zero for garbage")
	}
}
