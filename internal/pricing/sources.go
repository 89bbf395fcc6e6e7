package pricing

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/sessionlens/internal/logger"
)

const (
	// DefaultTimeout bounds the remote catalog fetch.
	DefaultTimeout = 15 * time.Second
	maxCatalogSize = 32 << 20
)

//go:embed embedded/model_prices.json
var embeddedCatalog []byte

// Source yields the raw bytes of one pricing catalog.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]byte, error)
}

// cacheWriter is implemented by sources whose successful payload should be
// persisted for later offline use.
type cacheWriter interface {
	WriteCache(data []byte) error
}

// Remote fetches the catalog over HTTP.
type Remote struct {
	URL       string
	Timeout   time.Duration
	CachePath string // written after a successful fetch; empty disables
	Client    *http.Client
}

// Name implements Source.
func (r *Remote) Name() string { return "remote" }

// Load implements Source.
func (r *Remote) Load(ctx context.Context) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("pricing: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sessionlens/1.0")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricing: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pricing: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("pricing: reading response: %w", err)
	}
	return body, nil
}

// WriteCache persists a fetched catalog via temp file and rename, so readers
// never observe a partial file. Concurrent writers are last-writer-wins.
func (r *Remote) WriteCache(data []byte) error {
	if r.CachePath == "" {
		return nil
	}
	dir := filepath.Dir(r.CachePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model_prices-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.CachePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// File reads a previously cached catalog from disk.
type File struct {
	Path string
}

// Name implements Source.
func (f *File) Name() string { return "cache" }

// Load implements Source.
func (f *File) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("pricing: reading cache: %w", err)
	}
	return data, nil
}

// Embedded serves the snapshot compiled into the binary.
type Embedded struct{}

// Name implements Source.
func (Embedded) Name() string { return "embedded" }

// Load implements Source.
func (Embedded) Load(_ context.Context) ([]byte, error) {
	return embeddedCatalog, nil
}

// Options configures the default source chain.
type Options struct {
	URL       string
	CachePath string
	Timeout   time.Duration
	Offline   bool
}

// DefaultSources returns remote, cache and embedded sources in fallback
// order. Offline drops the remote source.
func DefaultSources(opts Options) []Source {
	var sources []Source
	if !opts.Offline && opts.URL != "" {
		sources = append(sources, &Remote{URL: opts.URL, Timeout: opts.Timeout, CachePath: opts.CachePath})
	}
	if opts.CachePath != "" {
		sources = append(sources, &File{Path: opts.CachePath})
	}
	return append(sources, Embedded{})
}

// LoadCatalog tries each source in order and returns the first catalog that
// decodes to at least one entry. Catalogs from different sources are never
// merged.
func LoadCatalog(ctx context.Context, sources ...Source) (*Catalog, error) {
	var errs []error
	for _, src := range sources {
		data, err := src.Load(ctx)
		if err == nil {
			var cat *Catalog
			cat, err = Decode(src.Name(), data)
			if err == nil {
				if w, ok := src.(cacheWriter); ok {
					if werr := w.WriteCache(data); werr != nil {
						logger.Warn("pricing cache write failed", "error", werr)
					}
				}
				logger.Debug("pricing catalog loaded", "source", src.Name(), "models", cat.Len())
				return cat, nil
			}
		}
		logger.Warn("pricing source unavailable", "source", src.Name(), "error", err)
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("pricing: no catalog source succeeded: %w", errors.Join(errs...))
}
