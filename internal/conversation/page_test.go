package conversation

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/sessionlens/internal/model"
)

func numbered(n int) []model.Message {
	msgs := make([]model.Message, n)
	for i := range msgs {
		msgs[i] = model.Message{Role: model.RoleUser, Content: []model.Block{model.TextBlock{Text: fmt.Sprint(i)}}}
	}
	return msgs
}

func TestPaginate_Bounds(t *testing.T) {
	msgs := numbered(5)
	tests := []struct {
		page, size  int
		wantLen     int
		wantHasMore bool
	}{
		{0, 2, 2, true},
		{1, 2, 2, true},
		{2, 2, 1, false},
		{3, 2, 0, false},
		{0, 5, 5, false},
		{0, 10, 5, false},
		{7, 10, 0, false},
		{math.MaxInt / 4, 2, 0, false},
		{math.MaxInt, 1, 0, false},
		{math.MaxInt/2 + 1, 2, 0, false},
	}
	for _, tt := range tests {
		v := Paginate(msgs, tt.page, tt.size)
		if len(v.Messages) != tt.wantLen || v.HasMore != tt.wantHasMore {
			t.Errorf("Paginate(page=%d,size=%d) = len %d hasMore %v, want %d %v",
				tt.page, tt.size, len(v.Messages), v.HasMore, tt.wantLen, tt.wantHasMore)
		}
		if v.TotalEntries != 5 || !v.HasTranscript || v.Page != tt.page || v.PageSize != tt.size {
			t.Errorf("metadata = %+v", v)
		}
		if len(v.Messages) > tt.size {
			t.Errorf("page exceeds size")
		}
	}
}

func TestPaginate_Empty(t *testing.T) {
	for _, page := range []int{0, 1, math.MaxInt} {
		v := Paginate(nil, page, 3)
		if len(v.Messages) != 0 || v.Messages == nil || v.HasMore || v.TotalEntries != 0 {
			t.Errorf("Paginate(nil, %d) = %+v", page, v)
		}
	}
}

func TestPaginate_ConcatenationCoversAllOnce(t *testing.T) {
	msgs := numbered(23)
	for _, size := range []int{1, 4, 7, 23, 50} {
		var seen []string
		for page := 0; ; page++ {
			v := Paginate(msgs, page, size)
			for _, m := range v.Messages {
				seen = append(seen, m.Content[0].(model.TextBlock).Text)
			}
			if !v.HasMore {
				break
			}
		}
		if len(seen) != 23 {
			t.Fatalf("size %d: saw %d messages", size, len(seen))
		}
		for i, s := range seen {
			if s != fmt.Sprint(i) {
				t.Fatalf("size %d: position %d holds %s", size, i, s)
			}
		}
	}
}

func TestPaginate_DefaultSize(t *testing.T) {
	v := Paginate(numbered(60), 0, 0)
	if v.PageSize != DefaultPageSize || len(v.Messages) != 50 || !v.HasMore {
		t.Errorf("view = size %d len %d more %v", v.PageSize, len(v.Messages), v.HasMore)
	}
}

func TestLoad_MissingTranscript(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "gone.jsonl")} {
		res, err := Load(path, 3, 10)
		if err != nil {
			t.Fatalf("Load(%q): %v", path, err)
		}
		v := res.View
		if v.HasTranscript || v.TotalEntries != 0 || v.Page != 0 || v.PageSize != 0 || v.HasMore || len(v.Messages) != 0 {
			t.Errorf("Load(%q) = %+v, want empty no-transcript view", path, v)
		}
	}
}

func TestLoad_Page(t *testing.T) {
	path := writeSession(t,
		`{"type":"user","message":{"content":"q1"}}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"a1"}]}}`,
		`{"type":"user","message":{"content":"q2"}}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"a2"}]}}`,
		`nope`,
	)

	res, err := Load(path, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	v := res.View
	if !v.HasTranscript || v.TotalEntries != 4 || len(v.Messages) != 1 || v.HasMore {
		t.Errorf("view = %+v", v)
	}
	if v.Messages[0].Content[0].(model.TextBlock).Text != "a2" {
		t.Errorf("page content = %+v", v.Messages[0])
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
}

func TestLoad_OversizedLineKeepsNeighbours(t *testing.T) {
	big := `{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"t9","content":"` +
		strings.Repeat("x", 9<<20) + `"}]}}`
	path := writeSession(t,
		`{"type":"user","message":{"content":"q1"}}`,
		big,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"a1"}]}}`,
	)

	res, err := Load(path, 0, 10)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.View.TotalEntries != 2 || res.Skipped != 1 {
		t.Errorf("total = %d skipped = %d, want 2 and 1", res.View.TotalEntries, res.Skipped)
	}
}
