// Package pipeline orchestrates session loading, caching, and usage aggregation.
package pipeline

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/theirongolddev/sessionlens/internal/model"
)

// AggregateUsage sums records into a UsageSummary. When dates is non-empty
// only sessions whose first-timestamp date is listed are counted; undated
// sessions are then excluded. An empty filter counts every session.
func AggregateUsage(records []model.SessionUsage, dates []string) model.UsageSummary {
	filtered := FilterByDates(records, dates)

	summary := model.UsageSummary{
		TotalSessions:     len(filtered),
		ModelDistribution: ModelDistribution(filtered),
		DailyUsage:        AggregateDays(filtered),
	}
	for _, s := range filtered {
		summary.TotalInputTokens += s.InputTokens
		summary.TotalOutputTokens += s.OutputTokens
		summary.TotalCacheCreationTokens += s.CacheCreationTokens
		summary.TotalCacheReadTokens += s.CacheReadTokens
		summary.TotalCost += s.TotalCost
	}
	return summary
}

// FilterByDates keeps sessions whose date is in dates. A nil or empty
// dates slice keeps everything.
func FilterByDates(records []model.SessionUsage, dates []string) []model.SessionUsage {
	if len(dates) == 0 {
		return records
	}
	allowed := lo.SliceToMap(dates, func(d string) (string, struct{}) {
		return d, struct{}{}
	})
	return lo.Filter(records, func(s model.SessionUsage, _ int) bool {
		d, ok := s.Date()
		if !ok {
			return false
		}
		_, ok = allowed[d]
		return ok
	})
}

// FilterByProject keeps sessions whose project contains the given substring
// (case-insensitive).
func FilterByProject(records []model.SessionUsage, project string) []model.SessionUsage {
	if project == "" {
		return records
	}
	needle := strings.ToLower(project)
	return lo.Filter(records, func(s model.SessionUsage, _ int) bool {
		return strings.Contains(strings.ToLower(s.Project), needle)
	})
}

// ModelDistribution tallies model calls across sessions. Each session's
// cost is apportioned to its models by call-count share, which is an
// approximation: turns are not equally priced. Sorted by count descending,
// then by model name.
func ModelDistribution(records []model.SessionUsage) []model.ModelUsageCount {
	byModel := make(map[string]*model.ModelUsageCount)
	for _, s := range records {
		calls := s.TotalCalls()
		for name, n := range s.ModelCalls {
			mu, ok := byModel[name]
			if !ok {
				mu = &model.ModelUsageCount{Model: name}
				byModel[name] = mu
			}
			mu.Count += n
			if calls > 0 {
				mu.TotalCost += s.TotalCost * float64(n) / float64(calls)
			}
		}
	}

	out := make([]model.ModelUsageCount, 0, len(byModel))
	for _, mu := range byModel {
		out = append(out, *mu)
	}
	slices.SortFunc(out, func(a, b model.ModelUsageCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Model, b.Model)
	})
	return out
}

// AggregateDays groups sessions by date, ascending. Undated sessions are
// left out of the breakdown.
func AggregateDays(records []model.SessionUsage) []model.DailyUsage {
	dayMap := make(map[string]*model.DailyUsage)
	for _, s := range records {
		date, ok := s.Date()
		if !ok {
			continue
		}
		ds, ok := dayMap[date]
		if !ok {
			ds = &model.DailyUsage{Date: date}
			dayMap[date] = ds
		}
		ds.InputTokens += s.InputTokens
		ds.OutputTokens += s.OutputTokens
		ds.CacheCreationTokens += s.CacheCreationTokens
		ds.CacheReadTokens += s.CacheReadTokens
		ds.TotalCost += s.TotalCost
		ds.SessionCount++
	}

	keys := lo.Keys(dayMap)
	slices.Sort(keys)
	return lo.Map(keys, func(k string, _ int) model.DailyUsage {
		return *dayMap[k]
	})
}

// SortSessions orders sessions by first timestamp, most recent first.
// Undated sessions sort last; ties fall back to session id.
func SortSessions(records []model.SessionUsage) {
	slices.SortStableFunc(records, func(a, b model.SessionUsage) int {
		if c := cmp.Compare(b.FirstTimestamp, a.FirstTimestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID, b.SessionID)
	})
}

// DateWindow returns the last days calendar dates ending at now (UTC),
// oldest first. days <= 0 yields nil, meaning no date filter.
func DateWindow(days int, now time.Time) []string {
	if days <= 0 {
		return nil
	}
	end := now.UTC()
	out := make([]string, days)
	for i := range days {
		out[days-1-i] = end.AddDate(0, 0, -i).Format("2006-01-02")
	}
	return out
}
