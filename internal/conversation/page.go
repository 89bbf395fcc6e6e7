package conversation

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/sessionlens/internal/model"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 50

// Paginate slices messages into page (0-based) of pageSize messages.
// A page past the end is empty but still reports the total.
func Paginate(messages []model.Message, page, pageSize int) model.ConversationView {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	total := len(messages)
	view := model.ConversationView{
		Messages:      []model.Message{},
		TotalEntries:  total,
		HasTranscript: true,
		Page:          page,
		PageSize:      pageSize,
	}
	// Compare by division so huge page numbers cannot overflow start.
	if total == 0 || page > (total-1)/pageSize {
		return view
	}

	start := page * pageSize
	end := min(start+pageSize, total)
	view.Messages = messages[start:end]
	view.HasMore = end < total
	return view
}

// NoTranscript is the view returned when a session has no readable log.
func NoTranscript() model.ConversationView {
	return model.ConversationView{Messages: []model.Message{}}
}

// Result is a loaded conversation page plus diagnostics.
type Result struct {
	View    model.ConversationView
	Skipped int
}

// Load reconstructs the log at path and returns the requested page. A
// missing log (or an empty path) is not an error: the view reports
// has_transcript=false.
func Load(path string, page, pageSize int) (Result, error) {
	if path == "" {
		return Result{View: NoTranscript()}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{View: NoTranscript()}, nil
		}
		return Result{}, fmt.Errorf("loading conversation: %w", err)
	}

	messages, skipped, err := Reconstruct(path)
	if err != nil {
		return Result{}, fmt.Errorf("loading conversation: %w", err)
	}
	return Result{View: Paginate(messages, page, pageSize), Skipped: skipped}, nil
}
