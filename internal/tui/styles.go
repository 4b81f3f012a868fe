package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/wordzap/aipack/internal/tui/colors"
)

var (
	logoStyle = lipgloss.NewStyle().
			Foreground(colors.Violet).
			Bold(true).
			MarginBottom(1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Gray).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colors.Cyan).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colors.Violet).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colors.DimText)

	readyStyle = lipgloss.NewStyle().
			Foreground(colors.StateReady).
			Bold(true)

	acquiringStyle = lipgloss.NewStyle().
			Foreground(colors.StateAcquiring)

	waitingStyle = lipgloss.NewStyle().
			Foreground(colors.StateWaiting)

	errorStyle = lipgloss.NewStyle().
			Foreground(colors.StateError)

	helpStyle = lipgloss.NewStyle().
			Foreground(colors.DimText).
			MarginTop(1)
)
