package model

import (
	"github.com/go-json-experiment/json"
)

// Roles of a reconstructed message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Block is one element of a message's content. The set of implementations
// is closed: TextBlock, ToolUseBlock and ToolResultBlock.
type Block interface {
	BlockType() string
	block()
}

// TextBlock is plain prose.
type TextBlock struct {
	Text string
}

// ToolUseBlock is a tool invocation issued by the assistant. Input holds the
// decoded arguments with long strings already truncated.
type ToolUseBlock struct {
	ToolUseID string
	Name      string
	Input     any
}

// ToolResultBlock is the (truncated) output of a tool invocation.
type ToolResultBlock struct {
	ToolUseID string
	Content   string
}

func (TextBlock) block()       {}
func (ToolUseBlock) block()    {}
func (ToolResultBlock) block() {}

// BlockType implements Block.
func (TextBlock) BlockType() string { return "text" }

// BlockType implements Block.
func (ToolUseBlock) BlockType() string { return "tool_use" }

// BlockType implements Block.
func (ToolResultBlock) BlockType() string { return "tool_result" }

// MarshalJSON emits the block with its "type" tag.
func (b TextBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{b.BlockType(), b.Text})
}

// MarshalJSON emits the block with its "type" tag.
func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		ToolUseID string `json:"tool_use_id"`
		Name      string `json:"name"`
		Input     any    `json:"input"`
	}{b.BlockType(), b.ToolUseID, b.Name, b.Input}, json.Deterministic(true))
}

// MarshalJSON emits the block with its "type" tag.
func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		ToolUseID string `json:"tool_use_id"`
		Content   string `json:"content"`
	}{b.BlockType(), b.ToolUseID, b.Content})
}

// Message is one reconstructed conversational turn.
type Message struct {
	Role      string  `json:"role"`
	Content   []Block `json:"content"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// ConversationView is one page of a reconstructed conversation.
type ConversationView struct {
	Messages      []Message `json:"messages"`
	TotalEntries  int       `json:"total_entries"`
	HasTranscript bool      `json:"has_transcript"`
	Page          int       `json:"page"`
	PageSize      int       `json:"page_size"`
	HasMore       bool      `json:"has_more"`
}
