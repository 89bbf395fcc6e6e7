// Package server provides the local HTTP API and the background usage
// monitor behind it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/sessionlens/internal/logger"
	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/pipeline"
	"github.com/theirongolddev/sessionlens/internal/pricing"
	"github.com/theirongolddev/sessionlens/internal/store"
)

// Config controls the server runtime behavior.
type Config struct {
	DataDir           string
	Addr              string
	Interval          time.Duration
	RequestsPerSecond float64
	PageSize          int
	EventsBuffer      int
	UseCache          bool
	CachePath         string
	Watch             bool
	Options           pipeline.Options
}

// Snapshot is a compact usage state for status/event payloads.
type Snapshot struct {
	At                  time.Time `json:"at"`
	Sessions            int       `json:"sessions"`
	InputTokens         int64     `json:"input_tokens"`
	OutputTokens        int64     `json:"output_tokens"`
	CacheCreationTokens int64     `json:"cache_creation_tokens"`
	CacheReadTokens     int64     `json:"cache_read_tokens"`
	CostUSD             float64   `json:"cost_usd"`
}

// Tokens returns the snapshot's total token count.
func (s Snapshot) Tokens() int64 {
	return s.InputTokens + s.OutputTokens + s.CacheCreationTokens + s.CacheReadTokens
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Sessions int     `json:"sessions"`
	Tokens   int64   `json:"tokens"`
	CostUSD  float64 `json:"cost_usd"`
}

func (d Delta) isZero() bool {
	return d.Sessions == 0 && d.Tokens == 0 && d.CostUSD == 0
}

// Event is emitted whenever the usage snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	CatalogSource   string    `json:"catalog_source"`
	CatalogModels   int       `json:"catalog_models"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	SkippedLines    int       `json:"skipped_lines"`
	FileErrors      int       `json:"file_errors"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service polls session logs and serves both views over HTTP.
type Service struct {
	cfg      Config
	resolver *pricing.Resolver
	trigger  chan struct{}

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	sessions    []model.SessionUsage
	skipped     int
	fileErrors  int
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service that prices usage through resolver.
func New(cfg Config, resolver *pricing.Resolver) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 20
	}

	return &Service{
		cfg:       cfg,
		resolver:  resolver,
		trigger:   make(chan struct{}, 1),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("serving", "addr", s.cfg.Addr, "data_dir", s.cfg.DataDir)

	if s.cfg.Watch {
		w, err := newWatcher(s.cfg.DataDir, s.Trigger)
		if err != nil {
			logger.Warn("file watching disabled", "err", err)
		} else {
			defer w.Close()
		}
	}

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case <-s.trigger:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		}
	}
}

// Trigger requests an early poll. Requests made while one is already
// pending are coalesced.
func (s *Service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	result, err := s.loadSessions(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		logger.Error("poll failed", "err", err)
		return
	}

	now := time.Now()
	sessions := result.Sessions
	pipeline.SortSessions(sessions)
	snap := snapshotFromSummary(pipeline.AggregateUsage(sessions, nil), now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.sessions = sessions
	s.skipped = result.ParseErrors
	s.fileErrors = result.FileErrors
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "usage_delta",
			Timestamp: now,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	logger.Debug("poll complete", "sessions", len(sessions), "skipped_lines", result.ParseErrors)
	if publish {
		s.publishEvent(ev)
	}
}

func (s *Service) loadSessions(ctx context.Context) (*pipeline.LoadResult, error) {
	if s.cfg.UseCache && s.cfg.CachePath != "" {
		cache, err := store.Open(s.cfg.CachePath)
		if err == nil {
			defer func() { _ = cache.Close() }()
			fp := s.resolver.Catalog().Fingerprint
			cr, loadErr := pipeline.LoadWithCache(ctx, s.cfg.DataDir, s.resolver, fp, cache, s.cfg.Options)
			if loadErr == nil {
				return &cr.LoadResult, nil
			}
			logger.Warn("cached load failed, doing a full scan", "err", loadErr)
		} else {
			logger.Warn("session cache unavailable", "err", err)
		}
	}

	return pipeline.Load(ctx, s.cfg.DataDir, s.resolver, s.cfg.Options)
}

func snapshotFromSummary(u model.UsageSummary, at time.Time) Snapshot {
	return Snapshot{
		At:                  at,
		Sessions:            u.TotalSessions,
		InputTokens:         u.TotalInputTokens,
		OutputTokens:        u.TotalOutputTokens,
		CacheCreationTokens: u.TotalCacheCreationTokens,
		CacheReadTokens:     u.TotalCacheReadTokens,
		CostUSD:             u.TotalCost,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Sessions: curr.Sessions - prev.Sessions,
		Tokens:   curr.Tokens() - prev.Tokens(),
		CostUSD:  curr.CostUSD - prev.CostUSD,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	catalog := s.resolver.Catalog()
	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		CatalogSource:   catalog.Source,
		CatalogModels:   catalog.Len(),
		Summary:         s.snapshot,
		LastError:       s.lastError,
		SkippedLines:    s.skipped,
		FileErrors:      s.fileErrors,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// currentSessions returns the last polled records. The slice is replaced,
// never mutated, on each poll so callers may read it without the lock.
func (s *Service) currentSessions() []model.SessionUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
