package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/sessionlens/internal/store"
)

func openCache(t *testing.T) *store.Cache {
	t.Helper()
	c, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoadWithCache(t *testing.T) {
	root := seedTree(t)
	cache := openCache(t)
	ctx := context.Background()
	pricer := testResolver()

	first, err := LoadWithCache(ctx, root, pricer, "fp-1", cache, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHits != 0 || first.Reparsed != 4 {
		t.Errorf("cold: hits=%d reparsed=%d", first.CacheHits, first.Reparsed)
	}

	second, err := LoadWithCache(ctx, root, pricer, "fp-1", cache, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheHits != 4 || second.Reparsed != 0 {
		t.Errorf("warm: hits=%d reparsed=%d", second.CacheHits, second.Reparsed)
	}

	fresh, err := Load(ctx, root, pricer, Options{})
	if err != nil {
		t.Fatal(err)
	}
	assertSameRecords(t, second.LoadResult, *fresh)

	// A different catalog invalidates every entry.
	third, err := LoadWithCache(ctx, root, pricer, "fp-2", cache, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHits != 0 || third.Reparsed != 4 {
		t.Errorf("new fingerprint: hits=%d reparsed=%d", third.CacheHits, third.Reparsed)
	}
}

func TestLoadWithCache_ChangedFile(t *testing.T) {
	root := seedTree(t)
	cache := openCache(t)
	ctx := context.Background()

	if _, err := LoadWithCache(ctx, root, testResolver(), "fp", cache, Options{}); err != nil {
		t.Fatal(err)
	}

	path := writeLog(t, root, "-home-me-beta/s3.jsonl",
		assistantTurn("2025-06-03T00:00:00Z", "claude-sonnet-4", 10, 10),
	)
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	res, err := LoadWithCache(ctx, root, testResolver(), "fp", cache, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reparsed != 1 || res.CacheHits != 3 {
		t.Errorf("hits=%d reparsed=%d", res.CacheHits, res.Reparsed)
	}
	if _, ok := res.ByID()["s3"]; !ok {
		t.Error("s3 should now have a usage record")
	}
}

func assertSameRecords(t *testing.T, got, want LoadResult) {
	t.Helper()
	if got.ParsedFiles != want.ParsedFiles || got.ParseErrors != want.ParseErrors {
		t.Errorf("counts: got parsed=%d errors=%d, want %d %d",
			got.ParsedFiles, got.ParseErrors, want.ParsedFiles, want.ParseErrors)
	}
	g, w := got.ByID(), want.ByID()
	if len(g) != len(w) {
		t.Fatalf("got %d sessions, want %d", len(g), len(w))
	}
	for id, ws := range w {
		gs, ok := g[id]
		if !ok {
			t.Errorf("session %s missing", id)
			continue
		}
		if gs.Tokens() != ws.Tokens() || gs.TotalCost != ws.TotalCost ||
			gs.FirstTimestamp != ws.FirstTimestamp || gs.Project != ws.Project {
			t.Errorf("session %s: got %+v, want %+v", id, gs, ws)
		}
		for m, n := range ws.ModelCalls {
			if gs.ModelCalls[m] != n {
				t.Errorf("session %s model %s: %d vs %d", id, m, gs.ModelCalls[m], n)
			}
		}
	}
}
