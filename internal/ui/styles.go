// Package ui renders detection cycles, single-frame scores and session
// summaries for the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

// Score tier colours, best first.
const (
	colorExcellent = "#4FFFB0"
	colorGood      = "#40E0D0"
	colorFair      = "#FFA500"
	colorPoor      = "#FF6B6B"
	dimColor       = "#6B7280"
	accentColor    = "#7C3AED"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(accentColor)).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFair))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(accentColor)).
			Padding(0, 1)
)

// ColorFor returns the display colour for a score: >=8, >=6, >=4, below.
func ColorFor(score float64) lipgloss.Color {
	switch {
	case score >= 8:
		return lipgloss.Color(colorExcellent)
	case score >= 6:
		return lipgloss.Color(colorGood)
	case score >= 4:
		return lipgloss.Color(colorFair)
	default:
		return lipgloss.Color(colorPoor)
	}
}

// ScoreStyle is a bold style in the score's tier colour.
func ScoreStyle(score float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorFor(score)).Bold(true)
}
