package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/aitool/sleuth/internal/backend"
)

// Theme is a named palette. Colours are hex strings.
type Theme struct {
	Name string

	Background string
	Surface    string
	SurfaceAlt string
	FocusBg    string

	SelectionBg   string
	SelectionText string
	MarkBg        string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
	Match   string

	StatusColors map[backend.FileStatus]string
}

// StatusColor returns the colour of a file status, muted when unknown.
func (t Theme) StatusColor(status backend.FileStatus) string {
	if c, ok := t.StatusColors[status.Normalize()]; ok {
		return c
	}
	return t.Muted
}

// LevelColor maps a row severity onto the palette.
func (t Theme) LevelColor(level backend.Level) string {
	switch level {
	case backend.LevelError:
		return t.Danger
	case backend.LevelWarn:
		return t.Warning
	case backend.LevelInfo:
		return t.Success
	case backend.LevelDebug:
		return t.Info
	default:
		return t.Muted
	}
}

// Styles is the set of lipgloss styles derived from a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style
	Marked   lipgloss.Style
	Match    lipgloss.Style
}

// Styles builds the style set for t.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger),
		InfoText:    fg(t.Info),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)),
		Logo: fg(t.Accent).Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),
		Marked: lipgloss.NewStyle().
			Background(lipgloss.Color(t.MarkBg)).
			Foreground(lipgloss.Color(t.Text)),
		Match: fg(t.Match).Bold(true),
	}
}

// WithBackground returns a copy of s where every style paints bgColor.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	s.Text = s.Text.Background(bg)
	s.MutedText = s.MutedText.Background(bg)
	s.FaintText = s.FaintText.Background(bg)
	s.AccentText = s.AccentText.Background(bg)
	s.SuccessText = s.SuccessText.Background(bg)
	s.WarningText = s.WarningText.Background(bg)
	s.DangerText = s.DangerText.Background(bg)
	s.InfoText = s.InfoText.Background(bg)
	s.Logo = s.Logo.Background(bg)
	s.Match = s.Match.Background(bg)
	return s
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Kanagawa", "Nightfox", "Slate"}

// GetTheme returns the named theme, or the first theme when unknown.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	return themeOrder
}

func nightfoxTheme() Theme {
	// https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:          "Nightfox",
		Background:    "#131a24",
		Surface:       "#192330",
		SurfaceAlt:    "#212e3f",
		FocusBg:       "#29394f",
		SelectionBg:   "#2b3b51",
		SelectionText: "#cdcecf",
		MarkBg:        "#3c5372",
		Border:        "#39506d",
		BorderFocus:   "#719cd6",
		Text:          "#cdcecf",
		Muted:         "#738091",
		Faint:         "#71839b",
		Accent:        "#719cd6",
		Success:       "#81b29a",
		Warning:       "#dbc074",
		Danger:        "#c94f6d",
		Info:          "#63cdcf",
		Match:         "#f4a261",
		StatusColors: map[backend.FileStatus]string{
			backend.StatusStored:    "#738091",
			backend.StatusExtracted: "#63cdcf",
			backend.StatusParsing:   "#9d79d6",
			backend.StatusParsed:    "#81b29a",
			backend.StatusFailed:    "#c94f6d",
			backend.StatusUnknown:   "#71839b",
		},
	}
}

func kanagawaTheme() Theme {
	// https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name:          "Kanagawa",
		Background:    "#16161D",
		Surface:       "#1F1F28",
		SurfaceAlt:    "#2A2A37",
		FocusBg:       "#2A2A37",
		SelectionBg:   "#2D4F67",
		SelectionText: "#DCD7BA",
		MarkBg:        "#363646",
		Border:        "#54546D",
		BorderFocus:   "#7E9CD8",
		Text:          "#DCD7BA",
		Muted:         "#C8C093",
		Faint:         "#727169",
		Accent:        "#7E9CD8",
		Success:       "#98BB6C",
		Warning:       "#E6C384",
		Danger:        "#E46876",
		Info:          "#7FB4CA",
		Match:         "#FFA066",
		StatusColors: map[backend.FileStatus]string{
			backend.StatusStored:    "#727169",
			backend.StatusExtracted: "#7FB4CA",
			backend.StatusParsing:   "#957FB8",
			backend.StatusParsed:    "#98BB6C",
			backend.StatusFailed:    "#E46876",
			backend.StatusUnknown:   "#727169",
		},
	}
}

func slateTheme() Theme {
	// Tailwind slate/sky: https://tailwindcss.com/docs/colors
	return Theme{
		Name:          "Slate",
		Background:    "#020617",
		Surface:       "#0f172a",
		SurfaceAlt:    "#1e293b",
		FocusBg:       "#283548",
		SelectionBg:   "#0284c7",
		SelectionText: "#f8fafc",
		MarkBg:        "#334155",
		Border:        "#334155",
		BorderFocus:   "#38bdf8",
		Text:          "#f1f5f9",
		Muted:         "#94a3b8",
		Faint:         "#64748b",
		Accent:        "#38bdf8",
		Success:       "#22c55e",
		Warning:       "#f59e0b",
		Danger:        "#ef4444",
		Info:          "#06b6d4",
		Match:         "#fb923c",
		StatusColors: map[backend.FileStatus]string{
			backend.StatusStored:    "#64748b",
			backend.StatusExtracted: "#7dd3fc",
			backend.StatusParsing:   "#06b6d4",
			backend.StatusParsed:    "#22c55e",
			backend.StatusFailed:    "#dc2626",
			backend.StatusUnknown:   "#64748b",
		},
	}
}
