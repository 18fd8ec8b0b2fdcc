package ui

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all installer output. Chosen for dark terminal
// backgrounds with good contrast.
const (
	// ColorPrimary is purple - titles and primary emphasis.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - secondary text and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - completed steps and positive outcomes.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - failed steps.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - degraded but non-fatal outcomes.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue - commands and paths the user may act on.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for the banner and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle marks completed steps.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle marks failed steps.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle marks degraded outcomes.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for command lines and filesystem paths.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)
