package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/1F47E/go-photobooth/internal/prefs"
)

type palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
}

var palettes = map[string]palette{
	"light":     {"#570df8", "#f000b8", "#37cdbe", "#1f2937", "241"},
	"dark":      {"#661ae6", "#d926aa", "#1fb2a5", "#a6adbb", "243"},
	"cupcake":   {"#65c3c8", "#ef9fbc", "#eeaf3a", "#291334", "245"},
	"synthwave": {"#e779c1", "#58c7f3", "#f3cc30", "#f9f7fd", "243"},
	"retro":     {"#ef9995", "#a4cbb4", "#dc8850", "#282425", "244"},
	"cyberpunk": {"#ff7598", "#75d1f0", "#c07eec", "#ffee00", "243"},
	"coffee":    {"#db924b", "#263e3f", "#10576d", "#c59f60", "242"},
}

func paletteFor(theme string) palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[prefs.DefaultTheme]
}

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	badge   lipgloss.Style
	status  lipgloss.Style
	active  lipgloss.Style
	filter  lipgloss.Style
	notice  lipgloss.Style
	help    lipgloss.Style
	preview lipgloss.Style
}

func newStyles(p palette) styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		label:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Padding(0, 2),
		badge:   lipgloss.NewStyle().Bold(true).Foreground(p.Text).Background(p.Secondary).Padding(0, 1),
		status:  lipgloss.NewStyle().Foreground(p.Text),
		active:  lipgloss.NewStyle().Bold(true).Underline(true).Foreground(p.Primary),
		filter:  lipgloss.NewStyle().Foreground(p.Muted),
		notice:  lipgloss.NewStyle().Italic(true).Foreground(p.Secondary),
		help:    lipgloss.NewStyle().Foreground(p.Muted),
		preview: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Primary),
	}
}
