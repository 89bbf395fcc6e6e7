// Package conversation rebuilds a readable, paginated conversation from a
// session log.
package conversation

import (
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/source"
)

// rawBlock is the union of fields read from a content array element.
type rawBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Input     jsontext.Value `json:"input"`
	ToolUseID string         `json:"tool_use_id"`
	Content   jsontext.Value `json:"content"`
}

// builder accumulates messages in log order.
//
// Consecutive assistant records are merged into one message; a user record
// or the end of the log closes it. Tool results arrive inside user records
// but are held in pendingResults and spliced in after their tool_use by
// finish. Pairing is scoped to the whole file, not to the adjacent turn.
type builder struct {
	messages []model.Message

	assistant   []model.Block
	assistantTS string

	pendingResults map[string]string
}

func newBuilder() *builder {
	return &builder{pendingResults: make(map[string]string)}
}

func (b *builder) add(e *source.Entry) {
	switch e.Kind() {
	case source.KindUser:
		b.flush()
		b.addUser(e.Body())
	case source.KindAssistant:
		if b.assistantTS == "" {
			b.assistantTS = e.Timestamp
		}
		b.addAssistant(e.Body())
	}
}

func (b *builder) addUser(body jsontext.Value) {
	switch body.Kind() {
	case '"':
		var text string
		if json.Unmarshal(body, &text) != nil || strings.TrimSpace(text) == "" {
			return
		}
		b.messages = append(b.messages, model.Message{
			Role:    model.RoleUser,
			Content: []model.Block{model.TextBlock{Text: text}},
		})
	case '[':
		for _, blk := range decodeBlocks(body) {
			if blk.Type != "tool_result" || blk.ToolUseID == "" {
				continue
			}
			b.pendingResults[blk.ToolUseID] = toolResultText(blk.Content)
		}
	}
}

func (b *builder) addAssistant(body jsontext.Value) {
	switch body.Kind() {
	case '"':
		var text string
		if json.Unmarshal(body, &text) == nil && strings.TrimSpace(text) != "" {
			b.assistant = append(b.assistant, model.TextBlock{Text: text})
		}
	case '[':
		for _, blk := range decodeBlocks(body) {
			switch blk.Type {
			case "text":
				if strings.TrimSpace(blk.Text) != "" {
					b.assistant = append(b.assistant, model.TextBlock{Text: blk.Text})
				}
			case "tool_use":
				name := blk.Name
				if name == "" {
					name = "unknown"
				}
				b.assistant = append(b.assistant, model.ToolUseBlock{
					ToolUseID: blk.ID,
					Name:      name,
					Input:     decodeInput(blk.Input),
				})
			default:
				// thinking, images and future block types are not shown
			}
		}
	}
}

// flush closes the pending assistant message, if any.
func (b *builder) flush() {
	if len(b.assistant) > 0 {
		b.messages = append(b.messages, model.Message{
			Role:      model.RoleAssistant,
			Content:   b.assistant,
			Timestamp: b.assistantTS,
		})
	}
	b.assistant = nil
	b.assistantTS = ""
}

// finish flushes and splices each pending tool result right after the first
// tool_use carrying its id. A result is consumed at most once; results with
// no matching tool_use are dropped.
func (b *builder) finish() []model.Message {
	b.flush()

	for i, msg := range b.messages {
		if msg.Role != model.RoleAssistant {
			continue
		}
		spliced := make([]model.Block, 0, len(msg.Content))
		for _, blk := range msg.Content {
			spliced = append(spliced, blk)
			use, ok := blk.(model.ToolUseBlock)
			if !ok {
				continue
			}
			if result, ok := b.pendingResults[use.ToolUseID]; ok {
				delete(b.pendingResults, use.ToolUseID)
				spliced = append(spliced, model.ToolResultBlock{ToolUseID: use.ToolUseID, Content: result})
			}
		}
		b.messages[i].Content = spliced
	}
	return b.messages
}

// Reconstruct reads a session log and returns its ordered messages along
// with the number of lines that could not be decoded.
func Reconstruct(path string) ([]model.Message, int, error) {
	b := newBuilder()
	skipped, err := source.ReadAll(path, b.add)
	if err != nil {
		return nil, skipped, err
	}
	return b.finish(), skipped, nil
}

// decodeBlocks decodes each element of a content array independently so one
// malformed element does not hide its siblings.
func decodeBlocks(body jsontext.Value) []rawBlock {
	var elems []jsontext.Value
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil
	}
	blocks := make([]rawBlock, 0, len(elems))
	for _, el := range elems {
		if el.Kind() != '{' {
			continue
		}
		var blk rawBlock
		if err := json.Unmarshal(el, &blk); err != nil {
			continue
		}
		blocks = append(blocks, blk)
	}
	return blocks
}

func decodeInput(raw jsontext.Value) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return truncateValue(v, MaxStringLen)
}

// toolResultText flattens tool_result content: a string as-is, or the text
// items of an array joined by newlines.
func toolResultText(raw jsontext.Value) string {
	switch raw.Kind() {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return truncateString(s, MaxStringLen)
		}
	case '[':
		var texts []string
		for _, blk := range decodeBlocks(raw) {
			if blk.Type == "text" {
				texts = append(texts, blk.Text)
			}
		}
		if len(texts) > 0 {
			return truncateString(strings.Join(texts, "\n"), MaxStringLen)
		}
	}
	return ""
}
