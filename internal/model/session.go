// Package model defines the domain types shared by the usage and
// conversation views.
package model

// TokenCounts holds the four billed token classes.
type TokenCounts struct {
	Input         int64
	Output        int64
	CacheCreation int64
	CacheRead     int64
}

// Total returns the sum of all token classes.
func (t TokenCounts) Total() int64 {
	return t.Input + t.Output + t.CacheCreation + t.CacheRead
}

// SessionUsage is the metered usage of one session file.
type SessionUsage struct {
	SessionID           string         `json:"session_id"`
	Project             string         `json:"project,omitempty"`
	InputTokens         int64          `json:"input_tokens"`
	OutputTokens        int64          `json:"output_tokens"`
	CacheCreationTokens int64          `json:"cache_creation_tokens"`
	CacheReadTokens     int64          `json:"cache_read_tokens"`
	TotalCost           float64        `json:"total_cost"`
	ModelCalls          map[string]int `json:"model_calls"`
	FirstTimestamp      string         `json:"first_timestamp,omitempty"`

	FilePath string `json:"-"`
}

// Add accumulates one turn's token counts.
func (s *SessionUsage) Add(t TokenCounts) {
	s.InputTokens += t.Input
	s.OutputTokens += t.Output
	s.CacheCreationTokens += t.CacheCreation
	s.CacheReadTokens += t.CacheRead
}

// Tokens returns the session's totals as TokenCounts.
func (s *SessionUsage) Tokens() TokenCounts {
	return TokenCounts{
		Input:         s.InputTokens,
		Output:        s.OutputTokens,
		CacheCreation: s.CacheCreationTokens,
		CacheRead:     s.CacheReadTokens,
	}
}

// TotalCalls returns the number of model-attributed calls in the session.
func (s *SessionUsage) TotalCalls() int {
	n := 0
	for _, c := range s.ModelCalls {
		n += c
	}
	return n
}

// Date returns the YYYY-MM-DD bucket of the session's first timestamp.
// ok is false when the timestamp is absent or not date-shaped.
func (s *SessionUsage) Date() (string, bool) {
	return DateOf(s.FirstTimestamp)
}

// DateOf extracts the YYYY-MM-DD prefix of an ISO-8601 timestamp.
func DateOf(ts string) (string, bool) {
	if len(ts) < 10 || ts[4] != '-' || ts[7] != '-' {
		return "", false
	}
	return ts[:10], true
}

// ModelUsageCount is one row of the per-model distribution.
type ModelUsageCount struct {
	Model     string  `json:"model"`
	Count     int     `json:"count"`
	TotalCost float64 `json:"total_cost"`
}

// DailyUsage is one day of the usage summary.
type DailyUsage struct {
	Date                string  `json:"date"`
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CacheCreationTokens int64   `json:"cache_creation_tokens"`
	CacheReadTokens     int64   `json:"cache_read_tokens"`
	TotalCost           float64 `json:"total_cost"`
	SessionCount        int     `json:"session_count"`
}

// UsageSummary aggregates SessionUsage records.
type UsageSummary struct {
	TotalInputTokens         int64             `json:"total_input_tokens"`
	TotalOutputTokens        int64             `json:"total_output_tokens"`
	TotalCacheCreationTokens int64             `json:"total_cache_creation_tokens"`
	TotalCacheReadTokens     int64             `json:"total_cache_read_tokens"`
	TotalCost                float64           `json:"total_cost"`
	TotalSessions            int               `json:"total_sessions"`
	ModelDistribution        []ModelUsageCount `json:"model_distribution"`
	DailyUsage               []DailyUsage      `json:"daily_usage"`
}

// TotalTokens returns the sum of all token classes in the summary.
func (u UsageSummary) TotalTokens() int64 {
	return u.TotalInputTokens + u.TotalOutputTokens + u.TotalCacheCreationTokens + u.TotalCacheReadTokens
}
