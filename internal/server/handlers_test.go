package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/theirongolddev/sessionlens/internal/model"
)

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestService(t)
	rec := get(t, s.Handler(), "/v1/health")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "ok" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandleUsage(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	all := decode[model.UsageSummary](t, get(t, h, "/v1/usage"))
	if all.TotalSessions != 2 || all.TotalInputTokens != 1_000_000 || all.TotalOutputTokens != 1000 {
		t.Errorf("unfiltered = %+v", all)
	}
	if len(all.DailyUsage) != 2 || all.DailyUsage[0].Date != "2025-06-01" {
		t.Errorf("daily = %+v", all.DailyUsage)
	}
	if len(all.ModelDistribution) != 1 || all.ModelDistribution[0].Count != 3 {
		t.Errorf("models = %+v", all.ModelDistribution)
	}

	one := decode[model.UsageSummary](t, get(t, h, "/v1/usage?date=2025-06-02"))
	if one.TotalSessions != 1 || one.TotalOutputTokens != 1000 {
		t.Errorf("filtered = %+v", one)
	}

	if rec := get(t, h, "/v1/usage?date=June"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", rec.Code)
	}
}

func TestHandleSessions(t *testing.T) {
	s, _ := newTestService(t)
	rec := get(t, s.Handler(), "/v1/sessions")

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0]["session_id"] != "s2" {
		t.Fatalf("sessions = %v", got)
	}
	for _, key := range []string{"input_tokens", "output_tokens", "cache_creation_tokens", "cache_read_tokens", "total_cost", "model_calls", "first_timestamp"} {
		if _, ok := got[0][key]; !ok {
			t.Errorf("session JSON missing %q", key)
		}
	}
}

func TestHandleConversation(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	rec := get(t, h, "/v1/sessions/s1/conversation?page=0&page_size=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var view struct {
		Messages []struct {
			Role    string           `json:"role"`
			Content []map[string]any `json:"content"`
		} `json:"messages"`
		TotalEntries  int  `json:"total_entries"`
		HasTranscript bool `json:"has_transcript"`
		Page          int  `json:"page"`
		PageSize      int  `json:"page_size"`
		HasMore       bool `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if !view.HasTranscript || view.TotalEntries != 3 || view.PageSize != 10 || view.HasMore {
		t.Errorf("view = %+v", view)
	}
	if len(view.Messages) != 3 {
		t.Fatalf("messages = %+v", view.Messages)
	}
	// The tool_result record closes the first assistant turn; the result
	// itself is spliced after its tool_use.
	blocks := view.Messages[1].Content
	if len(blocks) != 2 || blocks[0]["type"] != "tool_use" || blocks[1]["type"] != "tool_result" {
		t.Errorf("assistant blocks = %v", blocks)
	}
	if blocks[1]["tool_use_id"] != "t1" || blocks[1]["content"] != "ok" {
		t.Errorf("tool_result = %v", blocks[1])
	}
	if view.Messages[2].Role != "assistant" || view.Messages[2].Content[0]["text"] != "done" {
		t.Errorf("last message = %+v", view.Messages[2])
	}

	paged := get(t, h, "/v1/sessions/s1/conversation?page=2&page_size=1")
	if !strings.Contains(paged.Body.String(), `"has_more":false`) {
		t.Errorf("last page = %s", paged.Body.String())
	}
}

func TestHandleConversation_Errors(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	tests := []struct {
		target string
		want   int
	}{
		{"/v1/sessions/nope/conversation", http.StatusNotFound},
		{"/v1/sessions/s1/conversation?page=-1", http.StatusBadRequest},
		{"/v1/sessions/s1/conversation?page_size=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := get(t, h, tt.target); rec.Code != tt.want {
			t.Errorf("%s = %d, want %d", tt.target, rec.Code, tt.want)
		}
	}
}

func TestHandleConversation_Subagent(t *testing.T) {
	s, root := newTestService(t)
	writeLog(t, root, "-home-me-alpha/s1/subagents/agent-7.jsonl",
		`{"type":"user","message":{"content":"sub task"}}`,
	)

	rec := get(t, s.Handler(), "/v1/sessions/s1%2Fagent-7/conversation")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "sub task") {
		t.Errorf("subagent conversation = %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleEventsAndStatus(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	events := decode[[]Event](t, get(t, h, "/v1/events"))
	if len(events) != 1 || events[0].Type != "snapshot" {
		t.Errorf("events = %+v", events)
	}

	st := decode[Status](t, get(t, h, "/v1/status"))
	if st.PollCount != 1 || st.Summary.Sessions != 2 {
		t.Errorf("status = %+v", st)
	}
}

func TestHandleStream(t *testing.T) {
	s, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != "event: snapshot\n" {
		t.Errorf("first line = %q", line)
	}
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestService(t)
	s.cfg.RequestsPerSecond = 1
	h := s.Handler()

	if rec := get(t, h, "/v1/health"); rec.Code != http.StatusOK {
		t.Fatalf("first request = %d", rec.Code)
	}
	rec := get(t, h, "/v1/health")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}
