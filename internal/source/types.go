package source

import (
	"github.com/go-json-experiment/json/jsontext"
)

// Kind classifies a log record by its discriminator.
type Kind int

// Record kinds. Anything that is not a user or assistant turn is KindOther
// and is ignored by consumers.
const (
	KindOther Kind = iota
	KindUser
	KindAssistant
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAssistant:
		return "assistant"
	default:
		return "other"
	}
}

// Entry is one decoded line of a session log. Content is kept raw because
// producers emit it either as a string or as an array of blocks.
type Entry struct {
	Type      string         `json:"type"`
	Role      string         `json:"role"`
	Timestamp string         `json:"timestamp"`
	Message   *Message       `json:"message"`
	Content   jsontext.Value `json:"content"`
}

// Message is the nested message envelope of an entry.
type Message struct {
	Role    string         `json:"role"`
	Model   string         `json:"model"`
	Content jsontext.Value `json:"content"`
	Usage   *Usage         `json:"usage"`
}

// Usage holds token counts reported for one assistant turn. Missing
// fields decode as zero.
type Usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// Kind resolves the discriminator: the explicit "type" field first, then
// "role".
func (e *Entry) Kind() Kind {
	d := e.Type
	if d == "" {
		d = e.Role
	}
	switch d {
	case "user", "human":
		return KindUser
	case "assistant":
		return KindAssistant
	default:
		return KindOther
	}
}

// Body returns message.content when present, otherwise the top-level
// content. The result is nil when neither carries a value.
func (e *Entry) Body() jsontext.Value {
	if e.Message != nil && present(e.Message.Content) {
		return e.Message.Content
	}
	if present(e.Content) {
		return e.Content
	}
	return nil
}

func present(v jsontext.Value) bool {
	return len(v) > 0 && v.Kind() != 'n'
}

// DiscoveredFile represents a JSONL file found during directory scanning.
type DiscoveredFile struct {
	Path          string
	Project       string // decoded display name (e.g., "gitlore")
	ProjectDir    string // raw directory name
	SessionID     string // extracted from filename
	IsSubagent    bool
	ParentSession string // for subagents: parent session id
}
