package cli

import "github.com/charmbracelet/lipgloss"

// Phosphor colour palette
// Shared oscilloscope theme colours for consistent branding across CLI and TUI
var (
	// Trace colours (bright to faded, like phosphor persistence)
	PhosphorBright = lipgloss.Color("#33FF77") // Beam centre
	PhosphorMid    = lipgloss.Color("#1FBF55") // Beam falloff
	PhosphorDim    = lipgloss.Color("#0E7A36") // Afterglow
	PhosphorFade   = lipgloss.Color("#0A4A22") // Faint persistence

	// Accent colours
	GraticuleGray = lipgloss.Color("#3A4A3E") // Graticule lines and subtle text
)
