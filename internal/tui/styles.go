// Package tui renders styled terminal views of the carbon ledger with lipgloss.
// Callers fall back to the plain renderers in the engine package when stdout
// is not a terminal.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette.
const (
	ColorHeader    = lipgloss.Color("39")  // blue
	ColorLabel     = lipgloss.Color("245") // grey
	ColorValue     = lipgloss.Color("255") // white
	ColorMuted     = lipgloss.Color("241")
	ColorBorder    = lipgloss.Color("63")
	ColorHighlight = lipgloss.Color("212")
	ColorOK        = lipgloss.Color("42")  // green
	ColorWarning   = lipgloss.Color("214") // orange
	ColorCritical  = lipgloss.Color("196") // red
)

// Status icons.
const (
	IconArrowUp    = "↑"
	IconArrowDown  = "↓"
	IconArrowRight = "→"
	IconUnlocked   = "★"
	IconLocked     = "☆"
	IconLeaf       = "🌱"
)

// Shared styles.
var (
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorValue)
	SubtleStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	InfoStyle     = lipgloss.NewStyle().Italic(true).Foreground(ColorMuted)
	OKStyle       = lipgloss.NewStyle().Foreground(ColorOK)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	CriticalStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorCritical)
)

// BoxStyle frames a dashboard section.
var BoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder).
	Padding(0, 1)
