// Package output prints rows and file records for the non-interactive
// commands, as coloured text or as JSON lines for piping.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aitool/sleuth/internal/backend"
)

// Renderer writes rows and file records to an output stream.
type Renderer interface {
	Row(row backend.LogRow) error
	File(file backend.FileRecord) error
}

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New returns the renderer for format writing to w.
func New(format string, w io.Writer) (Renderer, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatText, "":
		return NewTextRenderer(w), nil
	case FormatJSON:
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q: want text or json", format)
	}
}

var (
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleTag   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true)
	styleFaint = lipgloss.NewStyle().Faint(true)

	statusStyles = map[backend.FileStatus]lipgloss.Style{
		backend.StatusParsed:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		backend.StatusParsing: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		backend.StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// TextRenderer prints one coloured line per value.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes coloured text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Row(row backend.LogRow) error {
	_, err := fmt.Fprintf(r.w, "%s %s %s %s\n",
		styleFaint.Render(row.Timestamp),
		styleLevel(row),
		styleTag.Render(row.Tag),
		row.Content())
	return err
}

func (r *TextRenderer) File(f backend.FileRecord) error {
	status := f.Status.Normalize()
	style, ok := statusStyles[status]
	if !ok {
		style = styleInfo
	}
	line := fmt.Sprintf("%s  %s  %s  %s",
		f.UUID,
		style.Render(fmt.Sprintf("%-9s", status)),
		styleFaint.Render(f.CreatedAt),
		f.DisplayName())
	if f.Message != "" {
		line += "  " + styleFaint.Render(f.Message)
	}
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func styleLevel(row backend.LogRow) string {
	lvl := row.Severity()
	label := string(lvl)
	if label == "" {
		label = row.Level
	}
	padded := fmt.Sprintf("%-5s", label)
	switch lvl {
	case backend.LevelDebug:
		return styleDebug.Render(padded)
	case backend.LevelWarn:
		return styleWarn.Render(padded)
	case backend.LevelError:
		return styleError.Render(padded)
	default:
		return styleInfo.Render(padded)
	}
}

// JSONRenderer prints each value as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Row(row backend.LogRow) error {
	return r.enc.Encode(row)
}

func (r *JSONRenderer) File(f backend.FileRecord) error {
	f.Status = f.Status.Normalize()
	return r.enc.Encode(f)
}
