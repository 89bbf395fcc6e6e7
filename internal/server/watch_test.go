package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_DebouncesLogWrites(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "-home-me-alpha")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 10)
	w, err := newWatcher(root, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	path := filepath.Join(project, "s1.jsonl")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	// The burst collapses into one notification.
	select {
	case <-fired:
		t.Error("burst produced more than one notification")
	case <-time.After(2 * debounceInterval):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	fired := make(chan struct{}, 1)
	w, err := newWatcher(root, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
		t.Error("non-log write triggered a poll")
	case <-time.After(2 * debounceInterval):
	}
}

func TestWatcher_SeesExistingSubagentDirs(t *testing.T) {
	root := t.TempDir()
	subagents := filepath.Join(root, "-home-me-alpha", "sess-1", "subagents")
	if err := os.MkdirAll(subagents, 0o755); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 10)
	w, err := newWatcher(root, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(subagents, "agent-a1.jsonl"), []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("write under an existing subagents dir was not seen")
	}
}
