// Package components holds small rendering helpers shared by the
// interactive views.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sessionlens/internal/tui/theme"
)

// RenderStatusBar renders a one-line bar with left and right aligned parts
// padded to width.
func RenderStatusBar(width int, left, right string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}

// RenderRule renders a horizontal rule with an optional label.
func RenderRule(width int, label string, color lipgloss.Color) string {
	style := lipgloss.NewStyle().Foreground(color)
	if label == "" {
		return style.Render(strings.Repeat("─", max(width, 0)))
	}
	head := "── " + label + " "
	rest := max(width-lipgloss.Width(head), 0)
	return style.Render(head + strings.Repeat("─", rest))
}
