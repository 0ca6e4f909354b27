package tui

import "github.com/charmbracelet/lipgloss"

var (
	styleFocusedStage = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	styleStage = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	styleStageTitle = lipgloss.NewStyle().Bold(true)

	styleCursor = lipgloss.NewStyle().Reverse(true)

	styleHeld = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleDropSlot = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	styleEmpty = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)
