package colors

import "github.com/charmbracelet/lipgloss"

// Palette shared by all TUI styles. Adaptive pairs keep the UI readable on
// light terminals.
var (
	Violet    = lipgloss.AdaptiveColor{Light: "#5d40c9", Dark: "#bd93f9"}
	Cyan      = lipgloss.AdaptiveColor{Light: "#0073a8", Dark: "#8be9fd"}
	Gray      = lipgloss.AdaptiveColor{Light: "#d0d0d0", Dark: "#44475a"}
	DimText   = lipgloss.AdaptiveColor{Light: "#4a4a4a", Dark: "#a9b1d6"}
	Text      = lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#f8f8f2"}
)

// Semantic state colors, one per provisioning state worth coloring.
var (
	StateError     = lipgloss.AdaptiveColor{Light: "#d32f2f", Dark: "#ff5555"}
	StateWaiting   = lipgloss.AdaptiveColor{Light: "#f57c00", Dark: "#ffb86c"}
	StateAcquiring = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#50fa7b"}
	StateReady     = lipgloss.AdaptiveColor{Light: "#7b1fa2", Dark: "#bd93f9"}
)
