package store

import (
	"path/filepath"
	"testing"

	"github.com/theirongolddev/sessionlens/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "usage.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	c := openTestCache(t)

	u := &model.SessionUsage{
		SessionID:           "s1",
		Project:             "demo",
		InputTokens:         100,
		OutputTokens:        50,
		CacheCreationTokens: 10,
		CacheReadTokens:     5,
		TotalCost:           0.25,
		ModelCalls:          map[string]int{"claude-sonnet-4": 2, "claude-haiku-3": 1},
		FirstTimestamp:      "2025-06-01T10:00:00Z",
	}
	fi := FileInfo{MtimeNs: 42, SizeBytes: 1024, Fingerprint: "embedded:3:abcd", ParseErrors: 2}
	if err := c.SaveFile("/logs/s1.jsonl", fi, u); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	tracked, err := c.GetTrackedFiles()
	if err != nil {
		t.Fatal(err)
	}
	if got := tracked["/logs/s1.jsonl"]; got != fi {
		t.Errorf("tracked = %+v, want %+v", got, fi)
	}

	sessions, err := c.LoadAllSessions()
	if err != nil {
		t.Fatal(err)
	}
	got, ok := sessions["/logs/s1.jsonl"]
	if !ok {
		t.Fatal("session not loaded")
	}
	if got.SessionID != "s1" || got.Project != "demo" || got.FirstTimestamp != u.FirstTimestamp {
		t.Errorf("identity = %+v", got)
	}
	if got.Tokens() != u.Tokens() || got.TotalCost != 0.25 {
		t.Errorf("totals = %+v", got)
	}
	if len(got.ModelCalls) != 2 || got.ModelCalls["claude-sonnet-4"] != 2 || got.ModelCalls["claude-haiku-3"] != 1 {
		t.Errorf("ModelCalls = %v", got.ModelCalls)
	}
	if got.FilePath != "/logs/s1.jsonl" {
		t.Errorf("FilePath = %q", got.FilePath)
	}
}

func TestCache_ReplaceAndTrackWithoutUsage(t *testing.T) {
	c := openTestCache(t)
	path := "/logs/s2.jsonl"

	first := &model.SessionUsage{SessionID: "s2", ModelCalls: map[string]int{"a": 1, "b": 1}}
	if err := c.SaveFile(path, FileInfo{MtimeNs: 1, Fingerprint: "f"}, first); err != nil {
		t.Fatal(err)
	}
	// The file no longer carries usage: the record goes, the tracker stays.
	if err := c.SaveFile(path, FileInfo{MtimeNs: 2, Fingerprint: "f"}, nil); err != nil {
		t.Fatal(err)
	}

	n, err := c.SessionCount()
	if err != nil || n != 0 {
		t.Errorf("SessionCount = %d, %v; want 0", n, err)
	}
	tracked, _ := c.GetTrackedFiles()
	if tracked[path].MtimeNs != 2 {
		t.Errorf("tracker = %+v", tracked[path])
	}

	var models int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM session_models").Scan(&models); err != nil {
		t.Fatal(err)
	}
	if models != 0 {
		t.Errorf("session_models rows = %d, want 0", models)
	}
}

func TestCache_DeleteFile(t *testing.T) {
	c := openTestCache(t)
	path := "/logs/s3.jsonl"
	if err := c.SaveFile(path, FileInfo{Fingerprint: "f"}, &model.SessionUsage{SessionID: "s3"}); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteFile(path); err != nil {
		t.Fatal(err)
	}
	tracked, _ := c.GetTrackedFiles()
	if _, ok := tracked[path]; ok {
		t.Error("tracker entry survived DeleteFile")
	}
	if n, _ := c.SessionCount(); n != 0 {
		t.Errorf("SessionCount = %d", n)
	}
}

func TestFileInfo_Matches(t *testing.T) {
	fi := FileInfo{MtimeNs: 10, SizeBytes: 20, Fingerprint: "remote:5:ff"}
	tests := []struct {
		mtime, size int64
		fp          string
		want        bool
	}{
		{10, 20, "remote:5:ff", true},
		{11, 20, "remote:5:ff", false},
		{10, 21, "remote:5:ff", false},
		{10, 20, "embedded:5:ff", false},
	}
	for _, tt := range tests {
		if got := fi.Matches(tt.mtime, tt.size, tt.fp); got != tt.want {
			t.Errorf("Matches(%d,%d,%q) = %v", tt.mtime, tt.size, tt.fp, got)
		}
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SaveFile("/x.jsonl", FileInfo{Fingerprint: "f"}, &model.SessionUsage{SessionID: "x"}); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	if n, _ := c.SessionCount(); n != 1 {
		t.Errorf("SessionCount after reopen = %d, want 1", n)
	}
}
