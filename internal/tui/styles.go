package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")).MarginBottom(1)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	selectedLine = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

const (
	progressLow  = lipgloss.Color("#EF4444")
	progressMid  = lipgloss.Color("#F59E0B")
	progressHigh = lipgloss.Color("#10B981")
)

// ProgressColor maps a percentage to its band: red below 30, amber below 70,
// green otherwise.
func ProgressColor(progress float64) lipgloss.Color {
	switch {
	case progress < 30:
		return progressLow
	case progress < 70:
		return progressMid
	default:
		return progressHigh
	}
}

func progressBar(progress float64, width int) string {
	if width < 4 {
		width = 4
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := int(progress / 100 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().
		Foreground(ProgressColor(progress)).
		Render(fmt.Sprintf("%s %3.0f%%", bar, progress))
}
