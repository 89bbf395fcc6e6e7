package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/sessionlens/internal/logger"
	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/source"
)

// Options narrows which session files are metered.
type Options struct {
	// SkipSubagents leaves out <session>/subagents/*.jsonl logs.
	SkipSubagents bool
	// SessionIDs, when non-empty, restricts loading to these sessions.
	SessionIDs []string
	// Progress, when set, is called after each file is processed.
	Progress ProgressFunc
}

// LoadResult holds the output of the full metering pipeline.
type LoadResult struct {
	Sessions     []model.SessionUsage
	TotalFiles   int
	ParsedFiles  int
	ParseErrors  int
	FileErrors   int
	ProjectCount int
}

// ByID indexes the loaded records by session id.
func (r *LoadResult) ByID() map[string]model.SessionUsage {
	out := make(map[string]model.SessionUsage, len(r.Sessions))
	for _, s := range r.Sessions {
		out[s.SessionID] = s
	}
	return out
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and meters all session files under root, pricing each
// turn through pricer. It uses a bounded worker pool for parallel parsing;
// the pricer is shared read-only by all workers.
//
// Per-file failures are counted, never returned. An unreadable root is an
// error, and so is ctx being cancelled before every file was processed.
func Load(ctx context.Context, root string, pricer source.Pricer, opts Options) (*LoadResult, error) {
	files, projects, err := discover(root, opts)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{TotalFiles: len(files), ProjectCount: projects}
	if len(files) == 0 {
		return result, nil
	}

	results, err := parseAll(ctx, files, pricer, func(n int) {
		if opts.Progress != nil {
			opts.Progress(n, len(files))
		}
	})
	if err != nil {
		return nil, err
	}

	for i, pr := range results {
		result.collect(files[i], pr)
	}
	return result, nil
}

func (r *LoadResult) collect(df source.DiscoveredFile, pr source.ParseResult) {
	if pr.Err != nil {
		r.FileErrors++
		logger.Warn("reading session log", "path", df.Path, "err", pr.Err)
		return
	}
	r.ParsedFiles++
	r.ParseErrors += pr.ParseErrors
	if pr.ParseErrors > 0 {
		logger.Debug("skipped undecodable lines", "path", df.Path, "count", pr.ParseErrors)
	}
	if pr.Usage != nil {
		r.Sessions = append(r.Sessions, *pr.Usage)
	}
}

// discover scans root and applies the subagent and session-id filters.
func discover(root string, opts Options) ([]source.DiscoveredFile, int, error) {
	files, err := source.ScanDir(root)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", root, err)
	}

	projects := source.CountProjects(files)
	files = slices.DeleteFunc(files, func(f source.DiscoveredFile) bool {
		if opts.SkipSubagents && f.IsSubagent {
			return true
		}
		return len(opts.SessionIDs) > 0 && !slices.Contains(opts.SessionIDs, f.SessionID)
	})
	return files, projects, nil
}

// parseAll meters files with GOMAXPROCS workers. Results land in a slice
// indexed like files, so no locking is needed. Once ctx is done, workers
// stop picking up new files and the cancellation is returned unless every
// file had already been processed.
func parseAll(ctx context.Context, files []source.DiscoveredFile, pricer source.Pricer, progress func(int)) ([]source.ParseResult, error) {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	// Feed work
	for i := range files {
		work <- i
	}
	close(work)

	// Spawn workers
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					return
				}
				results[idx] = source.ParseUsage(files[idx], pricer)
				progress(int(processed.Add(1)))
			}
		}()
	}

	wg.Wait()

	if int(processed.Load()) < len(files) {
		return nil, fmt.Errorf("loading sessions: %w", ctx.Err())
	}
	return results, nil
}
