package ui

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a longer line", 8, "a lon..."},
		{"abc", 2, "ab"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateMiddleKeepsSuffix(t *testing.T) {
	got := truncateMiddle("bugreport-device-2024-03-01.zip", 15)
	if len([]rune(got)) != 15 {
		t.Fatalf("truncateMiddle length = %d, want 15 (%q)", len([]rune(got)), got)
	}
	if got[len(got)-4:] != ".zip" {
		t.Fatalf("truncateMiddle = %q, want the extension kept", got)
	}
	if got := truncateMiddle("short.zip", 15); got != "short.zip" {
		t.Fatalf("truncateMiddle short = %q", got)
	}
}

func TestSingleLineAndPad(t *testing.T) {
	if got := singleLine("a\nb\r\nc\td"); got != "a b c d" {
		t.Fatalf("singleLine = %q", got)
	}
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Fatalf("padRight long = %q", got)
	}
}
