package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const remoteBody = `{
	"sample_spec": {
		"max_tokens": "LEGACY parameter. set to max_output_tokens if provider specifies it.",
		"input_cost_per_token": 0.0,
		"output_cost_per_token": 0.0,
		"litellm_provider": "one of https://docs.litellm.ai/docs/providers",
		"mode": "one of: chat, embedding, completion"
	},
	"remote-model": {"input_cost_per_token": 1e-6, "output_cost_per_token": 2e-6},
	"broken": "not an object",
	"bad-types": {"input_cost_per_token": "cheap"}
}`

const cacheBody = `{"cached-model": {"input_cost_per_token": 4e-6}}`

func TestDecode_SkipsUnusableEntries(t *testing.T) {
	cat, err := Decode("remote", []byte(remoteBody))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (keys %v)", cat.Len(), cat.Keys())
	}
	r, ok := cat.Rate("remote-model")
	if !ok || r.Input != 1e-6 || r.Output != 2e-6 {
		t.Errorf("rate = %+v, %v", r, ok)
	}
	if r.InputAbove != nil {
		t.Error("InputAbove should be nil when absent")
	}
	if _, ok := cat.Rate("sample_spec"); ok {
		t.Error("documentation entry sample_spec should not be priced")
	}
	if cat.Source != "remote" || cat.Fingerprint == "" {
		t.Errorf("Source=%q Fingerprint=%q", cat.Source, cat.Fingerprint)
	}
}

func TestDecode_Failures(t *testing.T) {
	if _, err := Decode("x", []byte(`not json`)); err == nil {
		t.Error("expected decode error")
	}
	if _, err := Decode("x", []byte(`{"a": {"mode": "chat"}}`)); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("err = %v, want ErrEmptyCatalog", err)
	}
}

func TestLoadCatalog_RemoteWinsAndIsCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(remoteBody))
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "sub", "prices.json")
	sources := DefaultSources(Options{URL: srv.URL, CachePath: cachePath, Timeout: time.Second})

	cat, err := LoadCatalog(context.Background(), sources...)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if cat.Source != "remote" {
		t.Errorf("Source = %q, want remote", cat.Source)
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("cache not written: %v", err)
	}
	if string(data) != remoteBody {
		t.Errorf("cache contents differ from fetched body")
	}
}

func TestLoadCatalog_FallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "prices.json")
	if err := os.WriteFile(cachePath, []byte(cacheBody), 0o600); err != nil {
		t.Fatal(err)
	}

	cat, err := LoadCatalog(context.Background(), DefaultSources(Options{URL: srv.URL, CachePath: cachePath})...)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if cat.Source != "cache" {
		t.Errorf("Source = %q, want cache", cat.Source)
	}
	if _, ok := cat.Rate("cached-model"); !ok {
		t.Error("cached-model missing")
	}
	if _, ok := cat.Rate("remote-model"); ok {
		t.Error("sources must not be merged")
	}
}

func TestLoadCatalog_FallsBackToEmbedded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "missing.json")
	cat, err := LoadCatalog(context.Background(), DefaultSources(Options{URL: srv.URL, CachePath: cachePath})...)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if cat.Source != "embedded" {
		t.Errorf("Source = %q, want embedded", cat.Source)
	}
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Error("an empty remote catalog must not be cached")
	}
}

func TestLoadCatalog_OfflineSkipsRemote(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(remoteBody))
	}))
	defer srv.Close()

	cat, err := LoadCatalog(context.Background(), DefaultSources(Options{URL: srv.URL, Offline: true})...)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("remote hit %d times in offline mode", hits.Load())
	}
	if cat.Source != "embedded" {
		t.Errorf("Source = %q, want embedded", cat.Source)
	}
}

func TestRemote_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	src := &Remote{URL: srv.URL, Timeout: 50 * time.Millisecond}
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestLoadCatalog_AllFail(t *testing.T) {
	_, err := LoadCatalog(context.Background(), &File{Path: filepath.Join(t.TempDir(), "nope.json")})
	if err == nil {
		t.Fatal("expected error when every source fails")
	}
}
