package source

import (
	"bytes"
	"os"

	"github.com/theirongolddev/sessionlens/internal/model"
)

// defaultModel prices usage reported without a model name.
const defaultModel = "claude-sonnet"

// Pricer prices one turn's token counts for a model.
type Pricer interface {
	Cost(modelName string, tokens model.TokenCounts) float64
}

// ParseResult holds the output of metering a single JSONL file.
// Usage is nil when the file carried no usage-bearing assistant turn.
type ParseResult struct {
	Usage       *model.SessionUsage
	ParseErrors int
	Err         error
}

// ParseUsage reads a session log and totals the token usage of its
// assistant turns, pricing each turn with that turn's own model.
//
// Lines whose top-level "type" is present and is not "assistant" are
// rejected by a byte scan without being decoded; everything else is decoded
// and classified by Entry.Kind.
func ParseUsage(df DiscoveredFile, pricer Pricer) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	usage := &model.SessionUsage{
		SessionID:  df.SessionID,
		Project:    df.Project,
		ModelCalls: make(map[string]int),
		FilePath:   df.Path,
	}
	var (
		foundAny    bool
		parseErrors int
	)

	lines := newLineReader(f)
	for lines.Scan() {
		if lines.Oversized() {
			parseErrors++
			continue
		}
		line := bytes.TrimSpace(lines.Bytes())
		if len(line) == 0 {
			continue
		}
		if t, ok := peekType(line); ok && t != "assistant" {
			continue
		}

		var entry Entry
		if err := decodeLine(line, &entry); err != nil {
			parseErrors++
			continue
		}
		if entry.Kind() != KindAssistant || entry.Message == nil {
			continue
		}

		msg := entry.Message
		if msg.Model != "" {
			usage.ModelCalls[msg.Model]++
		}
		if msg.Usage != nil {
			tokens := model.TokenCounts{
				Input:         msg.Usage.InputTokens,
				Output:        msg.Usage.OutputTokens,
				CacheCreation: msg.Usage.CacheCreationInputTokens,
				CacheRead:     msg.Usage.CacheReadInputTokens,
			}
			usage.Add(tokens)

			name := msg.Model
			if name == "" {
				name = defaultModel
			}
			usage.TotalCost += pricer.Cost(name, tokens)
			foundAny = true
		}
		if usage.FirstTimestamp == "" && entry.Timestamp != "" {
			usage.FirstTimestamp = entry.Timestamp
		}
	}

	if err := lines.Err(); err != nil {
		return ParseResult{ParseErrors: parseErrors, Err: err}
	}
	if !foundAny {
		return ParseResult{ParseErrors: parseErrors}
	}
	return ParseResult{Usage: usage, ParseErrors: parseErrors}
}

// typeKey is the byte sequence for a JSON key named "type" (with quotes).
var typeKey = []byte(`"type"`)

// peekType finds the top-level "type" field in a JSONL line.
// Tracks brace depth and string boundaries so nested "type" keys are ignored.
// ok is false when no top-level string-valued "type" key was found.
func peekType(line []byte) (val string, ok bool) {
	depth := 0
	for i := 0; i < len(line); {
		switch line[i] {
		case '"':
			if depth == 1 && bytes.HasPrefix(line[i:], typeKey) {
				val, isKey, isString := classifyType(line, i+len(typeKey))
				if isKey {
					return val, isString
				}
				// "type" appeared as a value, not a key. Continue scanning.
			}
			i = skipJSONString(line, i)
		case '{', '[':
			depth++
			i++
		case '}', ']':
			depth--
			i++
		default:
			i++
		}
	}
	return "", false
}

// classifyType checks whether pos follows a JSON key (expects : then value).
// isKey=false means "type" appeared as a value; isString=false means the key
// holds something other than a plain string.
func classifyType(line []byte, pos int) (val string, isKey, isString bool) {
	i := skipSpaces(line, pos)
	if i >= len(line) || line[i] != ':' {
		return "", false, false
	}
	i = skipSpaces(line, i+1)
	if i >= len(line) || line[i] != '"' {
		return "", true, false
	}
	i++ // past opening quote

	end := bytes.IndexByte(line[i:], '"')
	if end < 0 || end > 32 || bytes.IndexByte(line[i:i+end], '\\') >= 0 {
		return "", true, false
	}
	return string(line[i : i+end]), true, true
}

// skipJSONString advances past a JSON string starting at the opening quote.
//
//nolint:gosec // manual bounds checking throughout
func skipJSONString(line []byte, i int) int {
	i++ // skip opening quote
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipSpaces(line []byte, i int) int {
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}
