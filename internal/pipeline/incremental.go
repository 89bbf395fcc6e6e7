package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/theirongolddev/sessionlens/internal/config"
	"github.com/theirongolddev/sessionlens/internal/logger"
	"github.com/theirongolddev/sessionlens/internal/source"
	"github.com/theirongolddev/sessionlens/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
}

// LoadWithCache meters like Load but reuses cached records for files whose
// mtime, size and catalog fingerprint are unchanged. Fresh records are
// written back best-effort. If the cache cannot be read the call degrades
// to a full scan.
func LoadWithCache(ctx context.Context, root string, pricer source.Pricer, fingerprint string, cache *store.Cache, opts Options) (*CachedLoadResult, error) {
	files, projects, err := discover(root, opts)
	if err != nil {
		return nil, err
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{
			TotalFiles:   len(files),
			ProjectCount: projects,
		},
	}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		logger.Warn("session cache unreadable, doing a full scan", "err", err)
		full, err := Load(ctx, root, pricer, opts)
		if err != nil {
			return nil, err
		}
		return &CachedLoadResult{LoadResult: *full, Reparsed: full.TotalFiles}, nil
	}

	// Diff: partition into changed and unchanged
	var toReparse []source.DiscoveredFile
	var reparseInfo []store.FileInfo
	var unchanged []string

	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			toReparse = append(toReparse, f)
			reparseInfo = append(reparseInfo, store.FileInfo{})
			continue
		}
		mtime, size := info.ModTime().UnixNano(), info.Size()
		if cached, ok := tracked[f.Path]; ok && cached.Matches(mtime, size, fingerprint) {
			unchanged = append(unchanged, f.Path)
			continue
		}
		toReparse = append(toReparse, f)
		reparseInfo = append(reparseInfo, store.FileInfo{MtimeNs: mtime, SizeBytes: size, Fingerprint: fingerprint})
	}

	result.CacheHits = len(unchanged)
	result.Reparsed = len(toReparse)

	if len(unchanged) > 0 {
		cached, err := cache.LoadAllSessions()
		if err != nil {
			logger.Warn("session cache unreadable, doing a full scan", "err", err)
			full, err := Load(ctx, root, pricer, opts)
			if err != nil {
				return nil, err
			}
			return &CachedLoadResult{LoadResult: *full, Reparsed: full.TotalFiles}, nil
		}
		for _, p := range unchanged {
			result.ParsedFiles++
			result.ParseErrors += tracked[p].ParseErrors
			if s, ok := cached[p]; ok {
				result.Sessions = append(result.Sessions, s)
			}
		}
	}

	if len(toReparse) == 0 {
		return result, nil
	}

	results, err := parseAll(ctx, toReparse, pricer, func(n int) {
		if opts.Progress != nil {
			opts.Progress(n+result.CacheHits, result.TotalFiles)
		}
	})
	if err != nil {
		return nil, err
	}

	for i, pr := range results {
		result.collect(toReparse[i], pr)
		if pr.Err != nil || reparseInfo[i].Fingerprint == "" {
			continue
		}
		fi := reparseInfo[i]
		fi.ParseErrors = pr.ParseErrors
		if err := cache.SaveFile(toReparse[i].Path, fi, pr.Usage); err != nil {
			logger.Debug("caching session", "path", toReparse[i].Path, "err", err)
		}
	}

	return result, nil
}

// CachePath returns the full path to the session cache database.
func CachePath() string {
	return filepath.Join(config.CacheDir(), "usage.db")
}
