package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-json-experiment/json"

	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/tui/components"
	"github.com/theirongolddev/sessionlens/internal/tui/theme"
)

// RenderMessages renders a page of messages in the active theme, wrapped
// to width.
func RenderMessages(v model.ConversationView, width int) string {
	t := theme.Active
	if !v.HasTranscript {
		return lipgloss.NewStyle().Foreground(t.Orange).Render("  No transcript available for this session.")
	}
	if len(v.Messages) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Render("  Nothing on this page.")
	}

	width = max(width, 20)
	body := lipgloss.NewStyle().PaddingLeft(2).Width(width)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary)
	tool := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	for i, msg := range v.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		color := t.Blue
		if msg.Role == model.RoleAssistant {
			color = t.Magenta
		}
		label := msg.Role
		if msg.Timestamp != "" {
			label += "  " + msg.Timestamp
		}
		b.WriteString(components.RenderRule(width, label, color))
		b.WriteString("\n")

		for _, blk := range msg.Content {
			var line string
			switch c := blk.(type) {
			case model.TextBlock:
				line = text.Render(c.Text)
			case model.ToolUseBlock:
				line = tool.Render("⚙ "+c.Name) + " " + dim.Render(inputJSON(c.Input))
			case model.ToolResultBlock:
				line = muted.Render("↳ " + c.Content)
			}
			b.WriteString(body.Render(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func inputJSON(input any) string {
	if input == nil {
		return "{}"
	}
	data, err := json.Marshal(input, json.Deterministic(true))
	if err != nil {
		return ""
	}
	return string(data)
}
