package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/nicesoft-labs/ticc-dash/lib"
	"github.com/nicesoft-labs/ticc-dash/reconcile"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
)

// Light theme colors.
const (
	lightForeground = "#1F2330"
	lightAccent     = "#6D28D9"
	lightGreen      = "#15803D"
	lightYellow     = "#A16207"
	lightRed        = "#B91C1C"
	lightMuted      = "#6B7280"
	lightCursor     = "#BE185D"
)

type styles struct {
	title, muted, cursor, addr, help, errorLine lipgloss.Style
	ok, warning, critical                       lipgloss.Style
	label, value                                lipgloss.Style
}

type palette struct {
	fg, accent, green, yellow, red, muted, cursor, label, value string
}

var (
	darkPalette = palette{
		fg: draculaForeground, accent: draculaPurple, green: draculaGreen, yellow: draculaYellow,
		red: draculaRed, muted: draculaComment, cursor: draculaPink, label: draculaCyan, value: draculaOrange,
	}
	lightPalette = palette{
		fg: lightForeground, accent: lightAccent, green: lightGreen, yellow: lightYellow,
		red: lightRed, muted: lightMuted, cursor: lightCursor, label: lightAccent, value: lightForeground,
	}
)

func newStyles(theme string) styles {
	p := darkPalette
	if theme == reconcile.ThemeLight {
		p = lightPalette
	}
	return styles{
		title:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.muted)),
		cursor:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.cursor)).Bold(true),
		addr:      lipgloss.NewStyle().Foreground(lipgloss.Color(p.fg)),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color(p.muted)),
		errorLine: lipgloss.NewStyle().Foreground(lipgloss.Color(p.red)).Bold(true),
		ok:        lipgloss.NewStyle().Foreground(lipgloss.Color(p.green)),
		warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.yellow)),
		critical:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.red)).Bold(true),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.label)).Width(16),
		value:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.value)),
	}
}

func (s styles) severity(sev lib.Severity) lipgloss.Style {
	switch sev {
	case lib.SeverityCritical:
		return s.critical
	case lib.SeverityWarning:
		return s.warning
	default:
		return s.ok
	}
}
