package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-json-experiment/json"

	"github.com/theirongolddev/sessionlens/internal/model"
)

// RenderConversation renders one page of a conversation view as plain
// terminal text wrapped to width.
func RenderConversation(v model.ConversationView, width int) string {
	if !v.HasTranscript {
		return RenderWarning("no transcript available for this session") + "\n"
	}

	var b strings.Builder
	for _, msg := range v.Messages {
		b.WriteString(RenderMessage(msg, width))
		b.WriteString("\n")
	}
	b.WriteString(RenderMuted(PageFooter(v)))
	b.WriteString("\n")
	return b.String()
}

// PageFooter describes where a view sits in the conversation.
func PageFooter(v model.ConversationView) string {
	if v.TotalEntries == 0 {
		return "  empty conversation"
	}
	first := v.Page*v.PageSize + 1
	last := first + len(v.Messages) - 1
	if len(v.Messages) == 0 {
		return fmt.Sprintf("  page %d is past the end (%d messages)", v.Page, v.TotalEntries)
	}
	footer := fmt.Sprintf("  messages %d-%d of %d  page %d", first, last, v.TotalEntries, v.Page)
	if v.HasMore {
		footer += fmt.Sprintf("  (next: --page %d)", v.Page+1)
	}
	return footer
}

// RenderMessage renders a single message with a role header and its
// blocks indented underneath.
func RenderMessage(msg model.Message, width int) string {
	var b strings.Builder

	header := userStyle.Render(msg.Role)
	if msg.Role == model.RoleAssistant {
		header = assistantStyle.Render(msg.Role)
	}
	b.WriteString(header)
	if msg.Timestamp != "" {
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(msg.Timestamp))
	}
	b.WriteString("\n")

	body := lipgloss.NewStyle().PaddingLeft(2).Width(max(width, 20))
	for _, blk := range msg.Content {
		b.WriteString(body.Render(renderBlock(blk)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderBlock(blk model.Block) string {
	switch v := blk.(type) {
	case model.TextBlock:
		return valueStyle.Render(v.Text)
	case model.ToolUseBlock:
		return headerStyle.Render("⚙ "+v.Name) + " " + dimStyle.Render(formatInput(v.Input))
	case model.ToolResultBlock:
		return mutedStyle.Render("↳ " + v.Content)
	default:
		return ""
	}
}

// formatInput renders tool input as compact JSON with sorted keys.
func formatInput(input any) string {
	if input == nil {
		return "{}"
	}
	data, err := json.Marshal(input, json.Deterministic(true))
	if err != nil {
		return fmt.Sprint(input)
	}
	return string(data)
}
